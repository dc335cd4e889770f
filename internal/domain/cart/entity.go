// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidMembership = errors.New("cart: invalid membership")
)

// KeySeparator joins ownerId and itemId into the membership docId.
// Firebase UIDs and Firestore auto ids never contain it.
const KeySeparator = "__"

// Membership links a cart owner to one item they intend to buy.
//   - docId = ownerId__itemId (deterministic composite key)
//   - at most one membership per (owner, item): a retried add collides on the same doc
type Membership struct {
	ID       string
	OwnerID  string
	ItemID   string
	Quantity int
	AddedAt  time.Time
}

// Key returns the deterministic membership id for (ownerID, itemID).
func Key(ownerID, itemID string) string {
	return strings.TrimSpace(ownerID) + KeySeparator + strings.TrimSpace(itemID)
}

// SplitKey is the inverse of Key.
func SplitKey(id string) (ownerID, itemID string, ok bool) {
	id = strings.TrimSpace(id)
	i := strings.Index(id, KeySeparator)
	if i <= 0 || i+len(KeySeparator) >= len(id) {
		return "", "", false
	}
	return id[:i], id[i+len(KeySeparator):], true
}

// NewMembership creates a membership with quantity 1.
func NewMembership(ownerID, itemID string, now time.Time) (Membership, error) {
	oid := strings.TrimSpace(ownerID)
	iid := strings.TrimSpace(itemID)
	m := Membership{
		ID:       Key(oid, iid),
		OwnerID:  oid,
		ItemID:   iid,
		Quantity: 1,
		AddedAt:  now.UTC(),
	}
	if err := m.Validate(); err != nil {
		return Membership{}, err
	}
	return m, nil
}

func (m Membership) Validate() error {
	if m.OwnerID == "" || m.ItemID == "" {
		return ErrInvalidMembership
	}
	if strings.Contains(m.OwnerID, KeySeparator) || strings.Contains(m.ItemID, KeySeparator) {
		return ErrInvalidMembership
	}
	if m.ID != Key(m.OwnerID, m.ItemID) {
		return ErrInvalidMembership
	}
	if m.Quantity <= 0 || m.AddedAt.IsZero() {
		return ErrInvalidMembership
	}
	return nil
}

// ----------------------------
// Helpers
// ----------------------------

// IDs returns membership ids in input order.
func IDs(ms []Membership) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

// ItemIDs returns the distinct item ids referenced by ms, sorted.
func ItemIDs(ms []Membership) []string {
	seen := make(map[string]struct{}, len(ms))
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		if _, ok := seen[m.ItemID]; ok {
			continue
		}
		seen[m.ItemID] = struct{}{}
		out = append(out, m.ItemID)
	}
	sort.Strings(out)
	return out
}

// NormalizeIDs trims, drops empties and de-duplicates while keeping order.
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
