// internal/domain/user/identity.go
package user

import (
	"context"
	"errors"
	"strings"
)

// Identity is a verified caller. It is only ever produced by a Verifier;
// nothing in a request body can populate it.
type Identity struct {
	Subject string
	Email   string
	Admin   bool
}

func (i Identity) Valid() bool { return strings.TrimSpace(i.Subject) != "" }

// Verifier turns a bearer credential into an Identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

// Directory is the identity provider's account store.
type Directory interface {
	DeleteUser(ctx context.Context, uid string) error
}

var (
	ErrInvalidCredential = errors.New("user: invalid credential")
	ErrUserNotFound      = errors.New("user: not found")
)
