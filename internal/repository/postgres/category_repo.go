package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/avolkov86/passvault/internal/errs"
	"github.com/avolkov86/passvault/internal/model"
)

// CategoryRepo implements CategoryRepository using PostgreSQL.
type CategoryRepo struct{ db *DB }

// NewCategoryRepo constructs a category repository.
func NewCategoryRepo(db *DB) *CategoryRepo { return &CategoryRepo{db: db} }

// Create inserts a new category row. The unique index on
// (owner_id, lower(name)) backs the case-insensitive per-owner uniqueness.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	const q = `
INSERT INTO categories (id, owner_id, name, icon_ref)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, c.ID, c.OwnerID, c.Name, c.IconRef)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByNameFold selects the owner's category matching name case-insensitively.
func (r *CategoryRepo) GetByNameFold(ctx context.Context, ownerID uuid.UUID, name string) (*model.Category, error) {
	const q = `
SELECT id, owner_id, name, icon_ref, created_at, updated_at
FROM categories WHERE owner_id=$1 AND lower(name)=lower($2)`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, ownerID, name))
}

// Get selects one category by id scoped to the owner.
func (r *CategoryRepo) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Category, error) {
	const q = `
SELECT id, owner_id, name, icon_ref, created_at, updated_at
FROM categories WHERE owner_id=$1 AND id=$2`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, ownerID, id))
}

// ListByOwner returns the owner's categories ordered by name.
func (r *CategoryRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Category, error) {
	const q = `
SELECT id, owner_id, name, icon_ref, created_at, updated_at
FROM categories WHERE owner_id=$1
ORDER BY name ASC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err = rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.IconRef, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Rename updates name and icon of the owner's category.
func (r *CategoryRepo) Rename(ctx context.Context, ownerID, id uuid.UUID, name, iconRef string) error {
	const q = `
UPDATE categories SET name=$3, icon_ref=$4, updated_at=now()
WHERE owner_id=$1 AND id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, ownerID, id, name, iconRef)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes the owner's category row.
func (r *CategoryRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	const q = `DELETE FROM categories WHERE owner_id=$1 AND id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *CategoryRepo) scanOne(row pgx.Row) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.IconRef, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
