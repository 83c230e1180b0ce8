package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// OwnerDirectory resolves an owner id to a contact address. Backed by the
// owner_contacts table, which the external identity provider maintains;
// this service only reads it.
type OwnerDirectory interface {
	// Email returns the owner's contact address.
	// Returns errs.ErrNotFound when the owner has no contact on file.
	Email(ctx context.Context, ownerID uuid.UUID) (string, error)
}
