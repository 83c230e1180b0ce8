package expiry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/avolkov86/passvault/internal/errs"
	"github.com/avolkov86/passvault/internal/model"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent    []sentMail
	failFor map[string]error // keyed by recipient
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if err, ok := f.failFor[to]; ok {
		return err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fakeOwnerDir struct {
	emails map[uuid.UUID]string
	err    error
}

func (f *fakeOwnerDir) Email(_ context.Context, ownerID uuid.UUID) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if email, ok := f.emails[ownerID]; ok {
		return email, nil
	}
	return "", errs.ErrNotFound
}

type fakeNotifyLog struct {
	claimed map[string]bool // credentialID|date
	err     error
}

func newFakeNotifyLog() *fakeNotifyLog { return &fakeNotifyLog{claimed: map[string]bool{}} }

func (f *fakeNotifyLog) Claim(_ context.Context, credentialID, _ uuid.UUID, day time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	k := credentialID.String() + "|" + day.Format("2006-01-02")
	if f.claimed[k] {
		return false, nil
	}
	f.claimed[k] = true
	return true, nil
}

func (f *fakeNotifyLog) Release(_ context.Context, credentialID uuid.UUID, day time.Time) error {
	delete(f.claimed, credentialID.String()+"|"+day.Format("2006-01-02"))
	return nil
}

func candidateFor(owner uuid.UUID, title string, ageDays int, now time.Time) model.ExpiryCandidate {
	return model.ExpiryCandidate{
		CredentialID:   uuid.Must(uuid.NewV4()),
		OwnerID:        owner,
		Title:          title,
		LastModifiedAt: now.AddDate(0, 0, -ageDays),
		AgeDays:        ageDays,
	}
}

func TestDispatcher_OneMessagePerOwner(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	owner := uuid.Must(uuid.NewV4())
	mailer := &fakeMailer{}
	d := NewDispatcher(mailer,
		&fakeOwnerDir{emails: map[uuid.UUID]string{owner: "alice@example.com"}},
		newFakeNotifyLog(), zap.NewNop(), 30)

	report := d.Dispatch(context.Background(), now, []model.ExpiryCandidate{
		candidateFor(owner, "GitHub", 27, now),
		candidateFor(owner, "AWS", 30, now),
	})

	if report.Notified != 1 || len(report.Failures) != 0 {
		t.Fatalf("report=%+v, want one notified owner", report)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent=%d, want exactly one message for the owner", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.subject != notifySubject {
		t.Fatalf("subject=%q", msg.subject)
	}
	if !strings.Contains(msg.body, "GitHub") || !strings.Contains(msg.body, "AWS") {
		t.Fatalf("body must list every qualifying credential:\n%s", msg.body)
	}
	if !strings.Contains(msg.body, "due today") {
		t.Fatalf("threshold-day credential should read as due today:\n%s", msg.body)
	}
}

func TestDispatcher_FailureIsolatedPerOwner(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	alice := uuid.Must(uuid.NewV4())
	bob := uuid.Must(uuid.NewV4())
	boom := errors.New("smtp 451")
	mailer := &fakeMailer{failFor: map[string]error{"alice@example.com": boom}}
	d := NewDispatcher(mailer,
		&fakeOwnerDir{emails: map[uuid.UUID]string{alice: "alice@example.com", bob: "bob@example.com"}},
		newFakeNotifyLog(), zap.NewNop(), 30)

	report := d.Dispatch(context.Background(), now, []model.ExpiryCandidate{
		candidateFor(alice, "GitHub", 28, now),
		candidateFor(bob, "AWS", 29, now),
	})

	if report.Notified != 1 {
		t.Fatalf("bob must still be notified, report=%+v", report)
	}
	if len(report.Failures) != 1 || !errors.Is(report.Failures[0].Err, boom) {
		t.Fatalf("alice's failure must be reported, report=%+v", report)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].to != "bob@example.com" {
		t.Fatalf("sent=%+v", mailer.sent)
	}
}

func TestDispatcher_MissingContactSkipped(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	ghost := uuid.Must(uuid.NewV4())
	mailer := &fakeMailer{}
	d := NewDispatcher(mailer, &fakeOwnerDir{emails: map[uuid.UUID]string{}},
		newFakeNotifyLog(), zap.NewNop(), 30)

	report := d.Dispatch(context.Background(), now, []model.ExpiryCandidate{
		candidateFor(ghost, "GitHub", 28, now),
	})
	if report.Skipped != 1 || report.Notified != 0 || len(report.Failures) != 0 {
		t.Fatalf("report=%+v, want one skip", report)
	}
}

func TestDispatcher_SecondCycleSameDay_Deduplicated(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	owner := uuid.Must(uuid.NewV4())
	mailer := &fakeMailer{}
	log := newFakeNotifyLog()
	d := NewDispatcher(mailer,
		&fakeOwnerDir{emails: map[uuid.UUID]string{owner: "alice@example.com"}},
		log, zap.NewNop(), 30)

	cands := []model.ExpiryCandidate{candidateFor(owner, "GitHub", 28, now)}

	first := d.Dispatch(context.Background(), now, cands)
	second := d.Dispatch(context.Background(), now.Add(2*time.Hour), cands)
	if first.Notified != 1 || second.Notified != 0 || second.Skipped != 1 {
		t.Fatalf("first=%+v second=%+v, want dedup within the day", first, second)
	}

	// next day the window still matches and the credential notifies again
	third := d.Dispatch(context.Background(), now.AddDate(0, 0, 1), cands)
	if third.Notified != 1 {
		t.Fatalf("third=%+v, want renotification on a new day", third)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("sent=%d, want 2", len(mailer.sent))
	}
}

func TestDispatcher_SendFailureReleasesClaim(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	owner := uuid.Must(uuid.NewV4())
	boom := errors.New("smtp 421")
	mailer := &fakeMailer{failFor: map[string]error{"alice@example.com": boom}}
	log := newFakeNotifyLog()
	d := NewDispatcher(mailer,
		&fakeOwnerDir{emails: map[uuid.UUID]string{owner: "alice@example.com"}},
		log, zap.NewNop(), 30)

	cands := []model.ExpiryCandidate{candidateFor(owner, "GitHub", 28, now)}

	first := d.Dispatch(context.Background(), now, cands)
	if first.Notified != 0 || len(first.Failures) != 1 {
		t.Fatalf("first=%+v, want recorded failure", first)
	}
	if len(log.claimed) != 0 {
		t.Fatalf("failed delivery must release its claim, claimed=%v", log.claimed)
	}

	// transport recovers later the same day; the slot is free again
	delete(mailer.failFor, "alice@example.com")
	second := d.Dispatch(context.Background(), now.Add(time.Hour), cands)
	if second.Notified != 1 {
		t.Fatalf("second=%+v, want retry after release", second)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent=%d, want 1", len(mailer.sent))
	}
}

func TestGroupByOwner_PreservesOrder(t *testing.T) {
	t.Parallel()
	now := time.Now()
	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())
	groups := groupByOwner([]model.ExpiryCandidate{
		candidateFor(a, "one", 27, now),
		candidateFor(b, "two", 28, now),
		candidateFor(a, "three", 29, now),
	})
	if len(groups) != 2 {
		t.Fatalf("groups=%d", len(groups))
	}
	if groups[0].id != a || len(groups[0].cands) != 2 {
		t.Fatalf("first group wrong: %+v", groups[0])
	}
	if groups[1].id != b || len(groups[1].cands) != 1 {
		t.Fatalf("second group wrong: %+v", groups[1])
	}
}
