// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/avolkov86/passvault/internal/model"
)

// CategoryRepository provides owner-scoped CRUD over categories.
type CategoryRepository interface {
	// Create inserts a new category. Returns errs.ErrAlreadyExists when the
	// owner already has a category with the same case-insensitive name.
	Create(ctx context.Context, c *model.Category) error

	// GetByNameFold loads the owner's category matching name case-insensitively.
	GetByNameFold(ctx context.Context, ownerID uuid.UUID, name string) (*model.Category, error)

	// Get loads one category by id, scoped to the owner.
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Category, error)

	// ListByOwner returns all of the owner's categories ordered by name.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Category, error)

	// Rename updates name and icon of an owner's category.
	Rename(ctx context.Context, ownerID, id uuid.UUID, name, iconRef string) error

	// Delete removes an owner's category row.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
