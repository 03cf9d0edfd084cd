package loginsession

import (
	"errors"

	"github.com/jrsteele09/go-field-analyzer/auth"
)

var ErrNotFound = errors.New("browsing context not found")

// ManagerFactory creates the session manager of a new browsing context.
type ManagerFactory func() (*auth.Manager, error)

// Repo holds one auth.Manager per browsing context, so each browser tab family has its
// own session and its own PKCE flow.
type Repo interface {
	Get(contextID string) (*auth.Manager, error)
	GetOrCreate(contextID string) (*auth.Manager, error)
	Delete(contextID string) error
}
