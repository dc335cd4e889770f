// internal/infra/firebaseauth/directory.go
package firebaseauth

import (
	"context"
	"strings"

	"firebase.google.com/go/v4/auth"

	userdom "campusmarket/internal/domain/user"
)

type userDeleter interface {
	DeleteUser(ctx context.Context, uid string) error
}

// Directory deletes Firebase Auth accounts.
type Directory struct {
	client userDeleter
}

var _ userdom.Directory = (*Directory)(nil)

func NewDirectory(client *auth.Client) *Directory {
	return &Directory{client: client}
}

func (d *Directory) DeleteUser(ctx context.Context, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return userdom.ErrUserNotFound
	}
	if err := d.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return userdom.ErrUserNotFound
		}
		return err
	}
	return nil
}
