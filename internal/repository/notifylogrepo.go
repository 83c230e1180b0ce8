package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// NotifyLogRepository records which credentials were notified on which day,
// bounding the dispatcher to one notification per credential per day.
type NotifyLogRepository interface {
	// Claim atomically records (credential, day). It returns true when this
	// call inserted the row and false when the pair was already claimed, so
	// concurrent cycles agree on a single sender.
	Claim(ctx context.Context, credentialID, ownerID uuid.UUID, day time.Time) (bool, error)

	// Release deletes a claim taken earlier the same day, freeing the slot
	// so the credential can be retried after a failed delivery.
	Release(ctx context.Context, credentialID uuid.UUID, day time.Time) error
}
