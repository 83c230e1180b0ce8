package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/avolkov86/passvault/internal/errs"
	"github.com/avolkov86/passvault/internal/model"
)

// CredentialRepo implements CredentialRepository using PostgreSQL.
type CredentialRepo struct{ db *DB }

// NewCredentialRepo constructs a credential repository.
func NewCredentialRepo(db *DB) *CredentialRepo { return &CredentialRepo{db: db} }

const credentialColumns = `id, owner_id, category_id, title, username, secret_enc,
website_url, notes, history, last_modified_at, created_at, updated_at`

// Create inserts a new credential with empty history.
func (r *CredentialRepo) Create(ctx context.Context, c *model.Credential) error {
	const q = `
INSERT INTO credentials
  (id, owner_id, category_id, title, username, secret_enc, website_url, notes, history, last_modified_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	if c.History == nil {
		c.History = model.History{}
	}
	_, err := r.db.Pool.Exec(ctx, q,
		c.ID, c.OwnerID, c.CategoryID, c.Title, c.Username, c.SecretEnc,
		c.WebsiteURL, c.Notes, c.History, c.LastModifiedAt)
	return err
}

// Get returns a single credential by id scoped to the owner.
func (r *CredentialRepo) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Credential, error) {
	const q = `
SELECT ` + credentialColumns + `
FROM credentials WHERE owner_id=$1 AND id=$2`
	row := r.db.Pool.QueryRow(ctx, q, ownerID, id)
	c, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Update overwrites caller-editable fields inside a transaction. The current
// row is locked first; when the new ciphertext differs from the stored one,
// the old ciphertext is prepended to history with changed_at = now. An empty
// SecretEnc keeps the stored ciphertext and leaves history untouched.
// last_modified_at is stamped on every update, secret change or not.
func (r *CredentialRepo) Update(
	ctx context.Context, ownerID, id uuid.UUID, upd model.CredentialUpdate,
) (cred *model.Credential, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const sel = `SELECT secret_enc, history FROM credentials WHERE id=$1 AND owner_id=$2 FOR UPDATE`
	var (
		oldEnc  string
		history model.History
	)
	if err = tx.QueryRow(ctx, sel, id, ownerID).Scan(&oldEnc, &history); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	newEnc := upd.SecretEnc
	if newEnc == "" {
		newEnc = oldEnc
	} else if newEnc != oldEnc {
		history = history.Prepend(model.HistoryEntry{Ciphertext: oldEnc, ChangedAt: now})
	}

	const updQ = `
UPDATE credentials
SET category_id=$3, title=$4, username=$5, secret_enc=$6,
    website_url=$7, notes=$8, history=$9, last_modified_at=$10, updated_at=now()
WHERE id=$1 AND owner_id=$2`
	if _, err = tx.Exec(ctx, updQ, id, ownerID,
		upd.CategoryID, upd.Title, upd.Username, newEnc,
		upd.WebsiteURL, upd.Notes, history, now); err != nil {
		return nil, err
	}

	const reload = `
SELECT ` + credentialColumns + `
FROM credentials WHERE id=$1 AND owner_id=$2`
	cred, err = scanCredential(tx.QueryRow(ctx, reload, id, ownerID))
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// Delete removes the credential row; its history goes with it. Deleting a
// missing or foreign-owned row is a no-op.
func (r *CredentialRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	const q = `DELETE FROM credentials WHERE owner_id=$1 AND id=$2`
	_, err := r.db.Pool.Exec(ctx, q, ownerID, id)
	return err
}

// ListByOwner returns the owner's credentials ordered by title ascending,
// optionally filtered to one category.
func (r *CredentialRepo) ListByOwner(ctx context.Context, ownerID, categoryID uuid.UUID) ([]model.Credential, error) {
	const all = `
SELECT ` + credentialColumns + `
FROM credentials WHERE owner_id=$1
ORDER BY title ASC`
	const byCat = `
SELECT ` + credentialColumns + `
FROM credentials WHERE owner_id=$1 AND category_id=$2
ORDER BY title ASC`

	var (
		rows pgx.Rows
		err  error
	)
	if categoryID == uuid.Nil {
		rows, err = r.db.Pool.Query(ctx, all, ownerID)
	} else {
		rows, err = r.db.Pool.Query(ctx, byCat, ownerID, categoryID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ReassignCategory moves the owner's credentials between categories.
func (r *CredentialRepo) ReassignCategory(ctx context.Context, ownerID, fromCategoryID, toCategoryID uuid.UUID) (int64, error) {
	const q = `
UPDATE credentials SET category_id=$3, updated_at=now()
WHERE owner_id=$1 AND category_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, ownerID, fromCategoryID, toCategoryID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// AdoptOrphans assigns categoryID to the owner's credentials whose category
// no longer exists. Kept for rows predating the not-null constraint.
func (r *CredentialRepo) AdoptOrphans(ctx context.Context, ownerID, categoryID uuid.UUID) (int64, error) {
	const q = `
UPDATE credentials SET category_id=$2, updated_at=now()
WHERE owner_id=$1
  AND NOT EXISTS (SELECT 1 FROM categories WHERE categories.id = credentials.category_id)`
	tag, err := r.db.Pool.Exec(ctx, q, ownerID, categoryID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListExpiryInfo returns the expiry projection of all credentials. The scan
// job is the only caller; it reads across owners and never writes.
func (r *CredentialRepo) ListExpiryInfo(ctx context.Context) ([]model.ExpiryRecord, error) {
	const q = `
SELECT id, owner_id, title, last_modified_at
FROM credentials
ORDER BY owner_id, title`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ExpiryRecord
	for rows.Next() {
		var rec model.ExpiryRecord
		if err = rows.Scan(&rec.CredentialID, &rec.OwnerID, &rec.Title, &rec.LastModifiedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanCredential(row pgx.Row) (*model.Credential, error) {
	var c model.Credential
	if err := row.Scan(
		&c.ID, &c.OwnerID, &c.CategoryID, &c.Title, &c.Username, &c.SecretEnc,
		&c.WebsiteURL, &c.Notes, &c.History, &c.LastModifiedAt, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
