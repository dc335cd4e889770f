// internal/infra/firebaseauth/dev_verifier.go
package firebaseauth

import (
	"context"
	"strings"
	"sync"

	userdom "campusmarket/internal/domain/user"
)

// DevVerifier accepts "dev:<uid>" and "dev:<uid>:admin" bearer tokens.
// Config refuses AUTH_MODE=dev in production.
type DevVerifier struct{}

var _ userdom.Verifier = DevVerifier{}

func (DevVerifier) Verify(_ context.Context, credential string) (userdom.Identity, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(credential), "dev:")
	if !ok {
		return userdom.Identity{}, userdom.ErrInvalidCredential
	}
	uid, role, _ := strings.Cut(rest, ":")
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return userdom.Identity{}, userdom.ErrInvalidCredential
	}
	return userdom.Identity{
		Subject: uid,
		Email:   uid + "@dev.local",
		Admin:   strings.TrimSpace(role) == AdminClaim,
	}, nil
}

// DevDirectory records deleted uids instead of calling an identity provider.
type DevDirectory struct {
	mu      sync.Mutex
	deleted map[string]struct{}
}

var _ userdom.Directory = (*DevDirectory)(nil)

func NewDevDirectory() *DevDirectory {
	return &DevDirectory{deleted: map[string]struct{}{}}
}

func (d *DevDirectory) DeleteUser(_ context.Context, uid string) error {
	uid = strings.TrimSpace(uid)
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, gone := d.deleted[uid]; gone || uid == "" {
		return userdom.ErrUserNotFound
	}
	d.deleted[uid] = struct{}{}
	return nil
}
