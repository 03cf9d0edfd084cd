package salesforce

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
)

type apiError struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// parseAPIError turns a non-2xx response body into a RemoteQueryError. The REST API
// answers with [{"errorCode","message"}]; some gateways answer with an OAuth style object.
func parseAPIError(status int, body []byte) *apperrors.RemoteQueryError {
	var list []apiError
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		return &apperrors.RemoteQueryError{Status: status, Code: list[0].ErrorCode, Message: list[0].Message}
	}

	var single oauthError
	if err := json.Unmarshal(body, &single); err == nil && single.Error != "" {
		return &apperrors.RemoteQueryError{Status: status, Code: single.Error, Message: single.ErrorDescription}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &apperrors.RemoteQueryError{Status: status, Message: msg}
}
