// Package service contains application services for categories and credentials.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/avolkov86/passvault/internal/errs"
	"github.com/avolkov86/passvault/internal/model"
	"github.com/avolkov86/passvault/internal/repository"
)

// CategoryService defines category management and default-category resolution.
type CategoryService interface {
	// EnsureDefault returns the owner's "Uncategorized" category, creating it
	// on first use. Safe under concurrent first-time creation.
	EnsureDefault(ctx context.Context, ownerID uuid.UUID) (*model.Category, error)
	// ResolveCategoryID returns requested when set, otherwise the id of the
	// owner's default category.
	ResolveCategoryID(ctx context.Context, ownerID, requested uuid.UUID) (uuid.UUID, error)
	// Create adds a category; names are unique per owner case-insensitively.
	Create(ctx context.Context, ownerID uuid.UUID, name, iconRef string) (*model.Category, error)
	// List returns the owner's categories ordered by name.
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Category, error)
	// Rename updates name and icon. The default category cannot be renamed.
	Rename(ctx context.Context, ownerID, id uuid.UUID, name, iconRef string) error
	// Delete removes a category after moving its credentials to the default
	// category. The default category itself cannot be deleted.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// AdoptOrphans moves the owner's credentials whose category no longer
	// exists into the default category, returning how many moved.
	AdoptOrphans(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

type CategoryServiceImpl struct {
	cats  repository.CategoryRepository
	creds repository.CredentialRepository
}

// NewCategoryService constructs CategoryService.
func NewCategoryService(cats repository.CategoryRepository, creds repository.CredentialRepository) *CategoryServiceImpl {
	return &CategoryServiceImpl{cats: cats, creds: creds}
}

// EnsureDefault looks up the reserved category by case-insensitive name and
// creates it when absent. Two concurrent first calls race on the unique index
// on (owner_id, lower(name)); the loser refetches the winner's row.
func (s *CategoryServiceImpl) EnsureDefault(ctx context.Context, ownerID uuid.UUID) (*model.Category, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner id", errs.ErrValidation)
	}
	existing, err := s.cats.GetByNameFold(ctx, ownerID, model.DefaultCategoryName)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &model.Category{
		ID:        id,
		OwnerID:   ownerID,
		Name:      model.DefaultCategoryName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	createErr := s.cats.Create(ctx, c)
	if createErr == nil {
		return c, nil
	}
	if errors.Is(createErr, errs.ErrAlreadyExists) {
		// lost the creation race; the row exists now
		return s.cats.GetByNameFold(ctx, ownerID, model.DefaultCategoryName)
	}
	return nil, createErr
}

// ResolveCategoryID substitutes the default category id when none is supplied.
func (s *CategoryServiceImpl) ResolveCategoryID(ctx context.Context, ownerID, requested uuid.UUID) (uuid.UUID, error) {
	if requested != uuid.Nil {
		return requested, nil
	}
	def, err := s.EnsureDefault(ctx, ownerID)
	if err != nil {
		return uuid.Nil, err
	}
	return def.ID, nil
}

// Create validates the name and inserts a category.
func (s *CategoryServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, name, iconRef string) (*model.Category, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner id", errs.ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &model.Category{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		IconRef:   iconRef,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.cats.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the owner's categories.
func (s *CategoryServiceImpl) List(ctx context.Context, ownerID uuid.UUID) ([]model.Category, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner id", errs.ErrValidation)
	}
	return s.cats.ListByOwner(ctx, ownerID)
}

// Rename updates a category's name and icon. The reserved default name is
// off-limits in both directions so exactly one default always exists.
func (s *CategoryServiceImpl) Rename(ctx context.Context, ownerID, id uuid.UUID, name, iconRef string) error {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return fmt.Errorf("%w: empty owner/category id", errs.ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	if strings.EqualFold(name, model.DefaultCategoryName) {
		return fmt.Errorf("%w: %q is reserved", errs.ErrValidation, model.DefaultCategoryName)
	}
	cur, err := s.cats.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if cur.IsDefault() {
		return fmt.Errorf("%w: the default category cannot be renamed", errs.ErrValidation)
	}
	return s.cats.Rename(ctx, ownerID, id, name, iconRef)
}

// Delete moves the category's credentials to the default category and then
// removes the row. History of the moved credentials is untouched.
func (s *CategoryServiceImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return fmt.Errorf("%w: empty owner/category id", errs.ErrValidation)
	}
	cur, err := s.cats.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if cur.IsDefault() {
		return fmt.Errorf("%w: the default category cannot be deleted", errs.ErrValidation)
	}
	def, err := s.EnsureDefault(ctx, ownerID)
	if err != nil {
		return err
	}
	if _, err := s.creds.ReassignCategory(ctx, ownerID, id, def.ID); err != nil {
		return err
	}
	return s.cats.Delete(ctx, ownerID, id)
}

// AdoptOrphans ensures the default category and moves orphaned credentials
// into it.
func (s *CategoryServiceImpl) AdoptOrphans(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	def, err := s.EnsureDefault(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return s.creds.AdoptOrphans(ctx, ownerID, def.ID)
}
