// internal/application/usecase/authz.go
package usecase

import (
	"strings"

	itemdom "campusmarket/internal/domain/item"
	userdom "campusmarket/internal/domain/user"
)

// Authorization gate. Callers check in this order:
//  1. requireIdentity         -> Unauthorized
//  2. load the resource fresh -> NotFound
//  3. requireSeller / Admin   -> Forbidden
//
// Authority comes only from the verified identity and the stored record.

func requireIdentity(op string, caller userdom.Identity) error {
	if !caller.Valid() {
		return newError(KindUnauthorized, op, ErrMissingIdentity)
	}
	return nil
}

func requireAdmin(op string, caller userdom.Identity) error {
	if err := requireIdentity(op, caller); err != nil {
		return err
	}
	if !caller.Admin {
		return newError(KindForbidden, op, ErrAdminOnly)
	}
	return nil
}

func isSeller(caller userdom.Identity, it itemdom.Item) bool {
	return strings.TrimSpace(caller.Subject) == strings.TrimSpace(it.SellerID)
}

func requireSeller(op string, caller userdom.Identity, it itemdom.Item) error {
	if !isSeller(caller, it) {
		return newError(KindForbidden, op, ErrNotOwner)
	}
	return nil
}

func requireSellerOrAdmin(op string, caller userdom.Identity, it itemdom.Item) error {
	if caller.Admin || isSeller(caller, it) {
		return nil
	}
	return newError(KindForbidden, op, ErrNotOwner)
}
