// internal/infra/firebaseauth/verifier.go
package firebaseauth

import (
	"context"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"

	userdom "campusmarket/internal/domain/user"
)

// AdminClaim is the custom claim that grants the admin role.
const AdminClaim = "admin"

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Verifier validates Firebase ID tokens.
type Verifier struct {
	client idTokenVerifier
}

var _ userdom.Verifier = (*Verifier)(nil)

func NewVerifier(client *auth.Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, credential string) (userdom.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" || v == nil || v.client == nil {
		return userdom.Identity{}, userdom.ErrInvalidCredential
	}

	tok, err := v.client.VerifyIDToken(ctx, credential)
	if err != nil {
		return userdom.Identity{}, fmt.Errorf("%w: %v", userdom.ErrInvalidCredential, err)
	}
	uid := strings.TrimSpace(tok.UID)
	if uid == "" {
		return userdom.Identity{}, userdom.ErrInvalidCredential
	}

	id := userdom.Identity{Subject: uid}
	if e, ok := tok.Claims["email"].(string); ok {
		id.Email = strings.TrimSpace(e)
	}
	if a, ok := tok.Claims[AdminClaim].(bool); ok {
		id.Admin = a
	}
	return id, nil
}
