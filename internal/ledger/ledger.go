// Package ledger keeps each user's emergency contact list. A list is only ever
// replaced wholesale: readers observe either the previous list or the new one.
package ledger

import (
	"context"
	"errors"
)

// ErrUnknownOwner indicates the owner id does not reference a registered user.
var ErrUnknownOwner = errors.New("unknown contact owner")

// MaxContacts bounds a single replace-all.
const MaxContacts = 100

// Entry is one contact as supplied by the caller.
type Entry struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"required,max=15,phone"`
}

// Contact is a stored contact. Position preserves the caller's order.
type Contact struct {
	ID          string
	OwnerUserID string
	Position    int
	Name        string
	Phone       string
}

// Ledger defines the contract implemented by contact backends.
type Ledger interface {
	// ReplaceAll atomically discards the owner's contacts and stores entries in
	// order. It returns the number of contacts saved.
	ReplaceAll(ctx context.Context, ownerUserID string, entries []Entry) (int, error)
	// List returns the owner's contacts in saved order.
	List(ctx context.Context, ownerUserID string) ([]Contact, error)
}
