package flowstate

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("flow state not found")

// FlowState is what an authorization attempt must remember across the redirect to the
// platform and back. It is single use: it is deleted by whichever completion consumes it.
type FlowState struct {
	CodeVerifier string
	State        string
	ClientID     string
	RedirectURI  string
	LoginURL     string
	CreatedAt    time.Time
}

// Repo stores at most one FlowState per browsing context key.
type Repo interface {
	// Upsert replaces any flow state already stored for key
	Upsert(key string, flow *FlowState) error

	// Get returns ErrNotFound when nothing is stored for key or it has expired
	Get(key string) (*FlowState, error)

	// Take returns and removes the flow state for key in one step, so only one caller
	// ever receives a given verifier. ErrNotFound as for Get.
	Take(key string) (*FlowState, error)

	// Delete is a no-op when nothing is stored for key
	Delete(key string) error
}
