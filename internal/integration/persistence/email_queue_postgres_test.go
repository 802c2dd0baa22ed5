//go:build postgres

package persistence

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/realtyhub/backend/internal/domain/entity"
	"github.com/realtyhub/backend/internal/integration/persistence/model"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags postgres ./internal/integration/persistence/
// The email tables of that database are emptied.
func newPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(16)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.EmailJobModel{}, &model.EmailEventModel{}))
	require.NoError(t, db.Exec("DELETE FROM email_events").Error)
	require.NoError(t, db.Exec("DELETE FROM email_jobs").Error)
	return db
}

func TestEmailQueueRepository_Postgres_ConcurrentClaimsSkipLockedRows(t *testing.T) {
	ctx := context.Background()
	repo := NewEmailQueueRepository(newPostgresTestDB(t))
	now := time.Now().UTC()

	const jobs = 200
	for i := 0; i < jobs; i++ {
		require.NoError(t, repo.Enqueue(ctx, newQueuedJob(now.Add(-time.Second))))
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uuid.UUID]int)
	)
	record := func(claimed []*entity.EmailJob) {
		mu.Lock()
		defer mu.Unlock()
		for _, job := range claimed {
			seen[job.ID]++
		}
	}

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				claimed, err := repo.Claim(ctx, 15, time.Minute, now)
				if !assert.NoError(t, err) || len(claimed) == 0 {
					return
				}
				assert.LessOrEqual(t, len(claimed), 15)
				record(claimed)
			}
		}()
	}
	wg.Wait()

	// A worker may stop on an empty batch while another still holds locked rows.
	leftover, err := repo.Claim(ctx, jobs, time.Minute, now)
	require.NoError(t, err)
	record(leftover)

	assert.Len(t, seen, jobs)
	for id, n := range seen {
		assert.Equal(t, 1, n, "job %s claimed %d times", id, n)
	}
}
