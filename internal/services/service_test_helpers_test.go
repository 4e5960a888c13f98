package services

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	dbtestutil "github.com/charlesng35/taskflow/internal/database/testutil"
	"github.com/charlesng35/taskflow/pkg/crypto"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type sentNotification struct {
	Kind      NotificationKind
	Recipient string
	Params    map[string]string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, kind NotificationKind, recipient string, params map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Kind: kind, Recipient: recipient, Params: params})
	return n.err
}

func (n *recordingNotifier) last(t *testing.T, kind NotificationKind) sentNotification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Kind == kind {
			return n.sent[i]
		}
	}
	t.Fatalf("no %s notification recorded", kind)
	return sentNotification{}
}

func (n *recordingNotifier) count(kind NotificationKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, s := range n.sent {
		if s.Kind == kind {
			total++
		}
	}
	return total
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token, "link %q carries no token", link)
	return token
}

type lifecycleFixture struct {
	db       *gorm.DB
	clock    *fakeClock
	tokens   *LifecycleTokens
	notifier *recordingNotifier
	audit    *AuditService
	svc      *LifecycleService
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	db := dbtestutil.MustOpenTestDB(t, dbtestutil.WithAutoMigrate())
	clock := newFakeClock()

	tokens, err := NewLifecycleTokens(db, WithTokenClock(clock.Now))
	require.NoError(t, err)

	audit, err := NewAuditService(db)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc, err := NewLifecycleService(db, tokens, notifier,
		WithLifecycleBaseURL("https://app.taskflow.test"),
		WithLifecycleAudit(audit),
		WithPasswordHasher(func(p string) (string, error) {
			return crypto.HashPasswordWithCost(p, bcrypt.MinCost)
		}),
	)
	require.NoError(t, err)

	return &lifecycleFixture{
		db:       db,
		clock:    clock,
		tokens:   tokens,
		notifier: notifier,
		audit:    audit,
		svc:      svc,
	}
}
