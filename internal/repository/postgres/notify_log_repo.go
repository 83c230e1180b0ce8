package postgres

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// NotifyLogRepo implements NotifyLogRepository using PostgreSQL.
type NotifyLogRepo struct{ db *DB }

// NewNotifyLogRepo constructs a notification log repository.
func NewNotifyLogRepo(db *DB) *NotifyLogRepo { return &NotifyLogRepo{db: db} }

// Claim inserts (credential, day) if absent. RowsAffected distinguishes the
// winner from later claimants, so two cycles running the same day cannot both
// notify for one credential.
func (r *NotifyLogRepo) Claim(ctx context.Context, credentialID, ownerID uuid.UUID, day time.Time) (bool, error) {
	const q = `
INSERT INTO notification_log (credential_id, owner_id, sent_on)
VALUES ($1, $2, $3)
ON CONFLICT (credential_id, sent_on) DO NOTHING`
	tag, err := r.db.Pool.Exec(ctx, q, credentialID, ownerID, day.Format("2006-01-02"))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Release frees the day's slot for a credential whose notification did not
// go out. If the message was actually delivered despite the reported error,
// the owner may see it again on retry; losing a warning is worse.
func (r *NotifyLogRepo) Release(ctx context.Context, credentialID uuid.UUID, day time.Time) error {
	const q = `DELETE FROM notification_log WHERE credential_id=$1 AND sent_on=$2`
	_, err := r.db.Pool.Exec(ctx, q, credentialID, day.Format("2006-01-02"))
	return err
}
