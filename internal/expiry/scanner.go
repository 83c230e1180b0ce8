// Package expiry implements the daily scan-and-notify cycle for aging secrets.
package expiry

import (
	"context"
	"time"

	"github.com/avolkov86/passvault/internal/model"
)

// Defaults for the freshness policy: a secret is due for rotation 30 days
// after its last modification, and owners are warned during the final 3 days.
const (
	DefaultThresholdDays = 30
	DefaultLeadDays      = 3
)

// CredentialSource is the read-only projection of the store the scan needs.
type CredentialSource interface {
	ListExpiryInfo(ctx context.Context) ([]model.ExpiryRecord, error)
}

// Scanner selects credentials inside the pre-expiry notification window.
// A scan is a pure read; it never mutates credential rows.
type Scanner struct {
	creds         CredentialSource
	thresholdDays int
	leadDays      int
}

// NewScanner constructs a scanner. Invalid policy values fall back to the
// defaults; a zero lead is allowed and warns only on the due day.
func NewScanner(creds CredentialSource, thresholdDays, leadDays int) *Scanner {
	if thresholdDays <= 0 {
		thresholdDays = DefaultThresholdDays
	}
	if leadDays < 0 {
		leadDays = DefaultLeadDays
	}
	return &Scanner{creds: creds, thresholdDays: thresholdDays, leadDays: leadDays}
}

// Scan returns every credential whose age in whole days falls within
// [threshold-lead, threshold]. With the defaults that is ages 27 through 30:
// already-rotated secrets are too young, long-expired ones have left the
// window and stop renotifying.
func (s *Scanner) Scan(ctx context.Context, now time.Time) ([]model.ExpiryCandidate, error) {
	recs, err := s.creds.ListExpiryInfo(ctx)
	if err != nil {
		return nil, err
	}

	var out []model.ExpiryCandidate
	for _, rec := range recs {
		age := wholeDays(now.Sub(rec.LastModifiedAt))
		daysLeft := s.thresholdDays - age
		if daysLeft < 0 || daysLeft > s.leadDays {
			continue
		}
		out = append(out, model.ExpiryCandidate{
			CredentialID:   rec.CredentialID,
			OwnerID:        rec.OwnerID,
			Title:          rec.Title,
			LastModifiedAt: rec.LastModifiedAt,
			AgeDays:        age,
		})
	}
	return out, nil
}

// ThresholdDays exposes the configured rotation threshold for message bodies.
func (s *Scanner) ThresholdDays() int { return s.thresholdDays }

func wholeDays(d time.Duration) int {
	if d < 0 {
		return -int((-d) / (24 * time.Hour))
	}
	return int(d / (24 * time.Hour))
}
