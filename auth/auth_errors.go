package auth

import "errors"

var (
	ErrMissingExchanger = errors.New("token exchanger is required")
	ErrMissingFlowRepo  = errors.New("flow state repo is required")
	ErrMissingFlowKey   = errors.New("flow key is required")
)
