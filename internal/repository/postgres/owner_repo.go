package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/avolkov86/passvault/internal/errs"
)

// OwnerRepo implements OwnerDirectory over the owner_contacts table. The
// identity provider writes that table; this service only reads it.
type OwnerRepo struct{ db *DB }

// NewOwnerRepo constructs an owner directory.
func NewOwnerRepo(db *DB) *OwnerRepo { return &OwnerRepo{db: db} }

// Email returns the owner's contact address.
func (r *OwnerRepo) Email(ctx context.Context, ownerID uuid.UUID) (string, error) {
	const q = `SELECT email FROM owner_contacts WHERE owner_id=$1`
	var email string
	if err := r.db.Pool.QueryRow(ctx, q, ownerID).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return email, nil
}
