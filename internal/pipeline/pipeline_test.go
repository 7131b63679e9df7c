package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxalert/internal/classifier"
	"github.com/teemow/inboxalert/internal/inbox"
	"github.com/teemow/inboxalert/internal/instrumentation"
	"github.com/teemow/inboxalert/internal/logging"
)

type fakeInbox struct {
	ids      []string
	emails   map[string]inbox.Email
	failRead map[string]bool

	listWindow time.Duration
	fetched    []string
	withBody   []bool
	read       []string
}

func (f *fakeInbox) ListUnread(_ context.Context, window time.Duration) []string {
	f.listWindow = window
	return f.ids
}

func (f *fakeInbox) Fetch(_ context.Context, id string, withBody bool) inbox.Email {
	f.fetched = append(f.fetched, id)
	f.withBody = append(f.withBody, withBody)
	if e, ok := f.emails[id]; ok {
		return e
	}
	return inbox.Email{ID: id}
}

func (f *fakeInbox) MarkRead(_ context.Context, id string) bool {
	f.read = append(f.read, id)
	return !f.failRead[id]
}

type fakeNotifier struct {
	fail map[string]error
	sent []string
	cats []string
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Notify(_ context.Context, email inbox.Email, category string) error {
	if err := f.fail[email.ID]; err != nil {
		return err
	}
	f.sent = append(f.sent, email.ID)
	f.cats = append(f.cats, category)
	return nil
}

func newPipeline(box *fakeInbox, n *fakeNotifier, opts Options) *Pipeline {
	return New(Deps{
		Lister:       box,
		Fetcher:      box,
		Classifier:   classifier.New(classifier.DefaultRules()),
		Notifier:     n,
		Acknowledger: box,
		Logger:       logging.Discard(),
	}, opts)
}

func TestRun_EmptyInbox(t *testing.T) {
	var buf bytes.Buffer
	box := &fakeInbox{}
	n := &fakeNotifier{}

	p := New(Deps{
		Lister:       box,
		Fetcher:      box,
		Classifier:   classifier.New(classifier.DefaultRules()),
		Notifier:     n,
		Acknowledger: box,
		Logger:       slog.New(slog.NewTextHandler(&buf, nil)),
	}, Options{Window: 24 * time.Hour})

	summary := p.Run(context.Background())

	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, box.fetched)
	assert.Empty(t, n.sent)
	assert.Empty(t, box.read)
	assert.Equal(t, 24*time.Hour, box.listWindow)
	assert.Contains(t, buf.String(), "No unread messages found")
}

func TestRun_DeliversAndMarksRead(t *testing.T) {
	box := &fakeInbox{
		ids: []string{"A"},
		emails: map[string]inbox.Email{
			"A": {ID: "A", From: "Bank <alerts@bank.example>", Subject: "Invoice #123"},
		},
	}
	n := &fakeNotifier{}

	summary := newPipeline(box, n, Options{}).Run(context.Background())

	assert.Equal(t, []string{"A"}, n.sent)
	assert.Equal(t, []string{classifier.LabelBanking}, n.cats)
	assert.Equal(t, []string{"A"}, box.read)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, map[string]int{classifier.LabelBanking: 1}, summary.Categories)
	assert.NotEmpty(t, summary.RunID)
}

func TestRun_NotificationFailureLeavesUnread(t *testing.T) {
	box := &fakeInbox{
		ids: []string{"A", "B"},
		emails: map[string]inbox.Email{
			"A": {ID: "A", From: "x@example.com", Subject: "Your offer details"},
			"B": {ID: "B", From: "y@example.com", Subject: "Weekly newsletter"},
		},
	}
	n := &fakeNotifier{fail: map[string]error{"A": errors.New("webhook returned status 500")}}

	summary := newPipeline(box, n, Options{}).Run(context.Background())

	assert.Equal(t, []string{"B"}, n.sent)
	assert.Equal(t, []string{"B"}, box.read, "A must stay unread")
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Total)
}

func TestRun_SkipsMessagesWithoutDetails(t *testing.T) {
	box := &fakeInbox{
		ids: []string{"A", "B"},
		emails: map[string]inbox.Email{
			"B": {ID: "B", From: "hr@corp.example", Subject: "Interview invite"},
		},
	}
	n := &fakeNotifier{}

	summary := newPipeline(box, n, Options{}).Run(context.Background())

	assert.Equal(t, []string{"A", "B"}, box.fetched)
	assert.Equal(t, []string{"B"}, n.sent)
	assert.Equal(t, []string{"B"}, box.read)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Total)
}

func TestRun_SubjectOnlyIsNotSkipped(t *testing.T) {
	box := &fakeInbox{
		ids:    []string{"A"},
		emails: map[string]inbox.Email{"A": {ID: "A", Subject: "Password reset"}},
	}
	n := &fakeNotifier{}

	summary := newPipeline(box, n, Options{}).Run(context.Background())

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)
}

func TestRun_MarkReadFailure(t *testing.T) {
	box := &fakeInbox{
		ids:      []string{"A"},
		emails:   map[string]inbox.Email{"A": {ID: "A", From: "a@b.c", Subject: "hello"}},
		failRead: map[string]bool{"A": true},
	}
	n := &fakeNotifier{}

	summary := newPipeline(box, n, Options{}).Run(context.Background())

	assert.Equal(t, []string{"A"}, n.sent)
	assert.Equal(t, []string{"A"}, box.read)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, map[string]int{classifier.LabelDefault: 1}, summary.Categories)
}

func TestRun_DryRun(t *testing.T) {
	box := &fakeInbox{
		ids:    []string{"A"},
		emails: map[string]inbox.Email{"A": {ID: "A", From: "a@b.c", Subject: "Coding assessment"}},
	}
	n := &fakeNotifier{}

	summary := newPipeline(box, n, Options{DryRun: true}).Run(context.Background())

	assert.Empty(t, n.sent)
	assert.Empty(t, box.read)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, map[string]int{classifier.LabelAssessments: 1}, summary.Categories)
}

func TestRun_PassesWithBody(t *testing.T) {
	box := &fakeInbox{
		ids:    []string{"A"},
		emails: map[string]inbox.Email{"A": {ID: "A", From: "a@b.c", Subject: "hi"}},
	}

	newPipeline(box, &fakeNotifier{}, Options{WithBody: true}).Run(context.Background())

	require.Len(t, box.withBody, 1)
	assert.True(t, box.withBody[0])
}

func TestRun_CanceledContext(t *testing.T) {
	box := &fakeInbox{
		ids: []string{"A", "B"},
		emails: map[string]inbox.Email{
			"A": {ID: "A", From: "a@b.c", Subject: "hi"},
			"B": {ID: "B", From: "a@b.c", Subject: "hi"},
		},
	}
	n := &fakeNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := newPipeline(box, n, Options{}).Run(ctx)

	assert.Empty(t, n.sent)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 2, summary.Total)
}

func TestRun_AuditAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(
		slog.New(slog.NewJSONHandler(&buf, nil)),
		instrumentation.AuditLoggingConfig{Enabled: true},
	)

	box := &fakeInbox{
		ids:    []string{"A"},
		emails: map[string]inbox.Email{"A": {ID: "A", From: "Jane <jane@example.com>", Subject: "hi"}},
	}

	p := New(Deps{
		Lister:       box,
		Fetcher:      box,
		Classifier:   classifier.New(classifier.DefaultRules()),
		Notifier:     &fakeNotifier{},
		Acknowledger: box,
		Logger:       logging.Discard(),
		Metrics:      &instrumentation.Metrics{},
		Audit:        audit,
	}, Options{})

	summary := p.Run(context.Background())

	assert.Equal(t, 1, summary.Processed)
	assert.Contains(t, buf.String(), "delivery_audit")
	assert.NotContains(t, buf.String(), "jane@example.com")
}

func TestSummary_String(t *testing.T) {
	s := Summary{
		Processed:  2,
		Failed:     1,
		Skipped:    1,
		Total:      3,
		Categories: map[string]int{"b": 1, "a": 1},
	}

	got := s.String()

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Processed: 2, Failed: 1, Total: 3 (skipped: 1)", lines[0])
	assert.Equal(t, "a: 1", lines[1])
	assert.Equal(t, "b: 1", lines[2])

	assert.Equal(t, "Processed: 0, Failed: 0, Total: 0", Summary{}.String())
}
