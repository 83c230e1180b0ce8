// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// DefaultCategoryName is the reserved name of the per-owner fallback category.
// It is created lazily and never deleted by normal flows.
const DefaultCategoryName = "Uncategorized"

// Category groups credentials for one owner. Names are unique per owner
// case-insensitively (enforced by the store's unique index).
type Category struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	IconRef   string // empty means no icon
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDefault reports whether the category bears the reserved default name.
func (c *Category) IsDefault() bool {
	return strings.EqualFold(c.Name, DefaultCategoryName)
}

// HistoryEntry is an immutable snapshot of a previous secret ciphertext.
// Entries are ordered most-recent-first and never mutated or removed.
type HistoryEntry struct {
	Ciphertext string    `json:"ciphertext"`
	ChangedAt  time.Time `json:"changed_at"`
}

// History is the ordered list of prior secret versions, newest first.
type History []HistoryEntry

// Prepend returns history with a new entry at the front.
func (h History) Prepend(e HistoryEntry) History {
	out := make(History, 0, len(h)+1)
	out = append(out, e)
	return append(out, h...)
}

// Credential is a stored login record. The secret is held only as ciphertext;
// plaintext exists solely inside the cipher boundary.
type Credential struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	CategoryID     uuid.UUID // never zero after a successful write
	Title          string
	Username       string
	SecretEnc      string
	WebsiteURL     string
	Notes          string
	History        History
	LastModifiedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CredentialInput carries caller-supplied fields for create and update.
// A zero CategoryID is resolved by the service to the owner's default
// category. On update an empty Secret means "keep the current secret".
type CredentialInput struct {
	Title      string
	Username   string
	Secret     string
	CategoryID uuid.UUID
	WebsiteURL string
	Notes      string
}

// CredentialUpdate is the store-level shape of an update. SecretEnc empty
// means the stored ciphertext is kept and history is untouched.
type CredentialUpdate struct {
	Title      string
	Username   string
	SecretEnc  string
	CategoryID uuid.UUID
	WebsiteURL string
	Notes      string
}

// ExpiryRecord is the minimal projection the expiry scan reads.
type ExpiryRecord struct {
	CredentialID   uuid.UUID
	OwnerID        uuid.UUID
	Title          string
	LastModifiedAt time.Time
}

// ExpiryCandidate is a credential currently inside the pre-expiry
// notification window.
type ExpiryCandidate struct {
	CredentialID   uuid.UUID
	OwnerID        uuid.UUID
	Title          string
	LastModifiedAt time.Time
	AgeDays        int
}

// DispatchFailure records one owner whose notification could not be sent.
type DispatchFailure struct {
	OwnerID uuid.UUID
	Email   string
	Err     error
}

// DispatchReport summarizes one notification cycle. Failures are isolated
// per owner; one bad transport call never aborts the batch.
type DispatchReport struct {
	Notified int               // owners that received a message
	Skipped  int               // owners skipped (no contact, or everything already claimed today)
	Failures []DispatchFailure // per-owner transport failures
}
