package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/avolkov86/passvault/internal/model"
)

// CredentialRepository provides owner-scoped access to credential records.
// Every read and write is filtered by owner_id; identifiers supplied by
// callers are never trusted on their own.
type CredentialRepository interface {
	// Create inserts a new credential with empty history.
	Create(ctx context.Context, c *model.Credential) error

	// Get loads one credential by id, scoped to the owner.
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Credential, error)

	// Update overwrites caller-editable fields inside a row-locked
	// transaction, prepending a history entry when the stored ciphertext
	// changes, and stamps last_modified_at. Returns errs.ErrNotFound when no
	// row matches (id, owner).
	Update(ctx context.Context, ownerID, id uuid.UUID, upd model.CredentialUpdate) (*model.Credential, error)

	// Delete removes the credential and its embedded history. A missing or
	// foreign-owned row is a silent no-op.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// ListByOwner returns the owner's credentials ordered by title ascending.
	// A zero categoryID means all categories.
	ListByOwner(ctx context.Context, ownerID, categoryID uuid.UUID) ([]model.Credential, error)

	// ReassignCategory moves all of the owner's credentials from one category
	// to another, returning the number of rows moved.
	ReassignCategory(ctx context.Context, ownerID, fromCategoryID, toCategoryID uuid.UUID) (int64, error)

	// AdoptOrphans assigns the given category to the owner's credentials that
	// reference no existing category, returning the number of rows moved.
	AdoptOrphans(ctx context.Context, ownerID, categoryID uuid.UUID) (int64, error)

	// ListExpiryInfo returns the expiry projection of every credential across
	// all owners. Used only by the background scan, which runs with service
	// rights and never mutates rows.
	ListExpiryInfo(ctx context.Context) ([]model.ExpiryRecord, error)
}
