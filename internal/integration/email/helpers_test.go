package email

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/realtyhub/backend/internal/application/adapter"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/email/templates"
	"github.com/realtyhub/backend/internal/integration/persistence"
	"github.com/realtyhub/backend/internal/integration/persistence/model"
)

func newTestQueue(t *testing.T) adapter.EmailQueueRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.EmailJobModel{}, &model.EmailEventModel{}))
	return persistence.NewEmailQueueRepository(db)
}

func newTestRenderer(t *testing.T) *templates.Renderer {
	t.Helper()
	r, err := templates.NewRenderer("RealtyHub", zap.NewNop())
	require.NoError(t, err)
	return r
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeTransport fails the first `failures` sends with err (or every send when
// always is set) and records everything it delivered.
type fakeTransport struct {
	mu          sync.Mutex
	failures    int
	always      bool
	err         error
	delay       time.Duration
	calls       int
	inflight    int
	maxInflight int
	sent        []adapter.OutboundEmail
}

func temporaryFailure() error {
	return domainerror.NewEmailError(domainerror.ErrCodeTemporaryEmailFailure, "smtp timeout", nil)
}

func permanentFailure() error {
	return domainerror.NewEmailError(domainerror.ErrCodePermanentEmailFailure, "mailbox does not exist", nil)
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Send(ctx context.Context, email adapter.OutboundEmail) (*adapter.SendEmailResult, error) {
	f.mu.Lock()
	f.calls++
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	fail := f.always || f.failures > 0
	if f.failures > 0 {
		f.failures--
	}
	call := f.calls
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--

	if fail {
		err := f.err
		if err == nil {
			err = temporaryFailure()
		}
		return nil, err
	}
	f.sent = append(f.sent, email)
	return &adapter.SendEmailResult{MessageID: fmt.Sprintf("msg-%d", call)}, nil
}

func (f *fakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
