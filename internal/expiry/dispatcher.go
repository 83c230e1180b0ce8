package expiry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/avolkov86/passvault/internal/errs"
	"github.com/avolkov86/passvault/internal/mail"
	"github.com/avolkov86/passvault/internal/model"
	"github.com/avolkov86/passvault/internal/repository"
)

const notifySubject = "Password Expiration Notice"

// Dispatcher turns scan candidates into owner notifications: one message per
// owner per cycle, at most one notification per credential per day.
type Dispatcher struct {
	mailer        mail.Mailer
	owners        repository.OwnerDirectory
	log           repository.NotifyLogRepository
	logger        *zap.Logger
	thresholdDays int
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(
	mailer mail.Mailer,
	owners repository.OwnerDirectory,
	log repository.NotifyLogRepository,
	logger *zap.Logger,
	thresholdDays int,
) *Dispatcher {
	if thresholdDays <= 0 {
		thresholdDays = DefaultThresholdDays
	}
	return &Dispatcher{mailer: mailer, owners: owners, log: log, logger: logger, thresholdDays: thresholdDays}
}

// Dispatch groups candidates by owner and attempts one delivery per owner.
// A transport failure for one owner is recorded and logged; remaining owners
// are still attempted. Owners without a contact address, and owners whose
// candidates were all already notified today, are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, now time.Time, candidates []model.ExpiryCandidate) model.DispatchReport {
	var report model.DispatchReport

	for _, owner := range groupByOwner(candidates) {
		email, err := d.owners.Email(ctx, owner.id)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				d.logger.Warn("no contact address for owner, skipping",
					zap.String("owner", owner.id.String()))
				report.Skipped++
				continue
			}
			report.Failures = append(report.Failures, model.DispatchFailure{OwnerID: owner.id, Err: err})
			d.logger.Error("owner contact lookup failed",
				zap.String("owner", owner.id.String()), zap.Error(err))
			continue
		}

		fresh := d.claimUnnotified(ctx, now, owner.cands)
		if len(fresh) == 0 {
			report.Skipped++
			continue
		}

		body := composeBody(d.thresholdDays, now, fresh)
		if err := d.mailer.Send(ctx, email, notifySubject, body); err != nil {
			d.releaseClaims(ctx, now, fresh)
			report.Failures = append(report.Failures, model.DispatchFailure{OwnerID: owner.id, Email: email, Err: err})
			d.logger.Error("notification delivery failed",
				zap.String("owner", owner.id.String()), zap.Error(err))
			continue
		}
		report.Notified++
		d.logger.Info("notification sent",
			zap.String("owner", owner.id.String()),
			zap.Int("credentials", len(fresh)))
	}
	return report
}

// claimUnnotified filters candidates to those not yet notified today. The
// claim is written before sending, so a concurrent cycle cannot double-send;
// a failed send releases its claims and the next cycle retries.
func (d *Dispatcher) claimUnnotified(ctx context.Context, now time.Time, cands []model.ExpiryCandidate) []model.ExpiryCandidate {
	var out []model.ExpiryCandidate
	for _, c := range cands {
		claimed, err := d.log.Claim(ctx, c.CredentialID, c.OwnerID, now)
		if err != nil {
			d.logger.Error("notification claim failed",
				zap.String("credential", c.CredentialID.String()), zap.Error(err))
			continue
		}
		if claimed {
			out = append(out, c)
		}
	}
	return out
}

// releaseClaims hands the day's slots back after a failed delivery so a
// later cycle can retry. A release that itself fails leaves the claim in
// place, degrading to at-most-once for that credential.
func (d *Dispatcher) releaseClaims(ctx context.Context, now time.Time, cands []model.ExpiryCandidate) {
	for _, c := range cands {
		if err := d.log.Release(ctx, c.CredentialID, now); err != nil {
			d.logger.Error("notification claim release failed",
				zap.String("credential", c.CredentialID.String()), zap.Error(err))
		}
	}
}

type ownerGroup struct {
	id    uuid.UUID
	cands []model.ExpiryCandidate
}

// groupByOwner buckets candidates per owner, preserving first-seen order so
// dispatch output is deterministic for a given scan.
func groupByOwner(candidates []model.ExpiryCandidate) []ownerGroup {
	idx := make(map[uuid.UUID]int)
	var out []ownerGroup
	for _, c := range candidates {
		i, ok := idx[c.OwnerID]
		if !ok {
			i = len(out)
			idx[c.OwnerID] = i
			out = append(out, ownerGroup{id: c.OwnerID})
		}
		out[i].cands = append(out[i].cands, c)
	}
	return out
}

func composeBody(thresholdDays int, now time.Time, cands []model.ExpiryCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello,\n\nSome of your passwords are approaching their rotation deadline (%d days from last update):\n\n", thresholdDays)
	for _, c := range cands {
		daysLeft := thresholdDays - c.AgeDays
		fmt.Fprintf(&b, "- %s: last updated %s, %s\n",
			c.Title, c.LastModifiedAt.Format("2006-01-02"), deadlinePhrase(daysLeft))
	}
	b.WriteString("\nPlease update these passwords soon to keep your accounts secure.\n")
	return b.String()
}

func deadlinePhrase(daysLeft int) string {
	switch {
	case daysLeft <= 0:
		return "due today"
	case daysLeft == 1:
		return "expires in 1 day"
	default:
		return fmt.Sprintf("expires in %d days", daysLeft)
	}
}
