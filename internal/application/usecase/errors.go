// internal/application/usecase/errors.go
package usecase

import (
	"errors"
	"fmt"

	cartdom "campusmarket/internal/domain/cart"
	itemdom "campusmarket/internal/domain/item"
	purchasedom "campusmarket/internal/domain/purchase"
	userdom "campusmarket/internal/domain/user"
)

// Kind is the machine-readable failure category every operation reports.
type Kind string

const (
	KindUnauthorized      Kind = "Unauthorized"
	KindForbidden         Kind = "Forbidden"
	KindNotFound          Kind = "NotFound"
	KindInvalidInput      Kind = "InvalidInput"
	KindConflict          Kind = "Conflict"
	KindDependencyFailure Kind = "DependencyFailure"
)

// Error tags a failure with its Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrMissingIdentity = errors.New("usecase: identity required")
	ErrNotOwner        = errors.New("usecase: caller does not own the resource")
	ErrAdminOnly       = errors.New("usecase: admin privileges required")
	ErrNotSellable     = errors.New("usecase: item is not for sale")
	ErrItemSold        = errors.New("usecase: sold items cannot be deleted")
	ErrInvalidArgument = errors.New("usecase: invalid argument")
)

func newError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf classifies any error. Untagged errors are treated as dependency
// failures: the operation did not take effect.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindDependencyFailure
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool { return err != nil && KindOf(err) == k }

// wrap tags err with a Kind derived from the domain sentinel it carries.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		return err
	}
	return newError(classify(err), op, err)
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrMissingIdentity),
		errors.Is(err, userdom.ErrInvalidCredential):
		return KindUnauthorized

	case errors.Is(err, ErrNotOwner),
		errors.Is(err, ErrAdminOnly),
		errors.Is(err, itemdom.ErrSelfPurchase):
		return KindForbidden

	case errors.Is(err, itemdom.ErrNotFound),
		errors.Is(err, cartdom.ErrNotFound),
		errors.Is(err, purchasedom.ErrNotFound),
		errors.Is(err, userdom.ErrUserNotFound):
		return KindNotFound

	case errors.Is(err, itemdom.ErrInvalidTransition),
		errors.Is(err, itemdom.ErrImmutable),
		errors.Is(err, itemdom.ErrConflict),
		errors.Is(err, itemdom.ErrPurchased),
		errors.Is(err, purchasedom.ErrAlreadyExists),
		errors.Is(err, ErrNotSellable),
		errors.Is(err, ErrItemSold):
		return KindConflict

	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, cartdom.ErrInvalidMembership),
		errors.Is(err, itemdom.ErrInvalidID),
		errors.Is(err, itemdom.ErrInvalidTitle),
		errors.Is(err, itemdom.ErrInvalidDescription),
		errors.Is(err, itemdom.ErrInvalidLocation),
		errors.Is(err, itemdom.ErrInvalidPrice),
		errors.Is(err, itemdom.ErrInvalidStatus),
		errors.Is(err, itemdom.ErrInvalidCondition),
		errors.Is(err, itemdom.ErrInvalidCategory),
		errors.Is(err, itemdom.ErrInvalidSellerID),
		errors.Is(err, itemdom.ErrInvalidBuyer),
		errors.Is(err, itemdom.ErrTooManyImages),
		errors.Is(err, purchasedom.ErrInvalidBuyerID),
		errors.Is(err, purchasedom.ErrInvalidItemID),
		errors.Is(err, purchasedom.ErrInvalidPrice):
		return KindInvalidInput
	}
	// store / verifier failures, timeouts and cancellations
	return KindDependencyFailure
}
