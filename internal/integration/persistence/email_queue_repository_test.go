package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

func newQueuedJob(runAfter time.Time) *entity.EmailJob {
	return entity.NewEmailJob(entity.EmailPayload{
		Provider: "log",
		Template: entity.TemplateCampaign,
		To:       entity.Recipients{"buyer@example.com"},
		Subject:  "New listings",
		HTML:     "<p>hello</p>",
	}, runAfter, 3)
}

func TestEmailQueueRepository_ClaimOnlyDueJobs(t *testing.T) {
	ctx := context.Background()
	repo := NewEmailQueueRepository(newTestDB(t))
	now := time.Now().UTC()

	due := newQueuedJob(now.Add(-time.Minute))
	future := newQueuedJob(now.Add(time.Hour))
	require.NoError(t, repo.Enqueue(ctx, due))
	require.NoError(t, repo.Enqueue(ctx, future))

	claimed, err := repo.Claim(ctx, 50, 5*time.Minute, now)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, due.ID, claimed[0].ID)
	assert.Equal(t, entity.EmailStatusProcessing, claimed[0].Status)
	require.NotNil(t, claimed[0].ClaimToken)
	require.NotNil(t, claimed[0].LeaseExpiresAt)
	assert.WithinDuration(t, now.Add(5*time.Minute), *claimed[0].LeaseExpiresAt, time.Second)
	assert.Equal(t, []string{"buyer@example.com"}, []string(claimed[0].Payload.To))

	again, err := repo.Claim(ctx, 50, 5*time.Minute, now)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestEmailQueueRepository_ClaimRespectsLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewEmailQueueRepository(newTestDB(t))
	now := time.Now().UTC()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		job := newQueuedJob(now.Add(-time.Duration(10-i) * time.Minute))
		require.NoError(t, repo.Enqueue(ctx, job))
		ids = append(ids, job.ID)
	}

	claimed, err := repo.Claim(ctx, 3, time.Minute, now)
	require.NoError(t, err)
	require.Len(t, claimed, 3)
	for i, job := range claimed {
		assert.Equal(t, ids[i], job.ID)
	}
}

func TestEmailQueueRepository_ConcurrentClaimsAreDisjoint(t *testing.T) {
	ctx := context.Background()
	repo := NewEmailQueueRepository(newTestDB(t))
	now := time.Now().UTC()

	for i := 0; i < 80; i++ {
		require.NoError(t, repo.Enqueue(ctx, newQueuedJob(now.Add(-time.Second))))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		batches [][]*entity.EmailJob
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := repo.Claim(ctx, 50, time.Minute, now)
			assert.NoError(t, err)
			mu.Lock()
			batches = append(batches, claimed)
			mu.Unlock()
		}()
	}
	wg.Wait()

	seen := make(map[uuid.UUID]bool)
	total := 0
	for _, batch := range batches {
		assert.LessOrEqual(t, len(batch), 50)
		for _, job := range batch {
			assert.False(t, seen[job.ID], "job %s claimed twice", job.ID)
			seen[job.ID] = true
			total++
		}
	}
	assert.Equal(t, 80, total)
}

func TestEmailQueueRepository_ResolutionsAppendEvents(t *testing.T) {
	ctx := context.Background()
	repo := NewEmailQueueRepository(newTestDB(t))
	now := time.Now().UTC()

	job := newQueuedJob(now)
	require.NoError(t, repo.Enqueue(ctx, job))

	claimed, err := repo.Claim(ctx, 1, time.Minute, now)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	current := claimed[0]
	token := *current.ClaimToken

	current.ScheduleRetry(errors.New("smtp timeout"), 30*time.Second, now)
	retryEvent := entity.NewEmailEvent(current.ID, entity.EmailEventRetryScheduled, map[string]interface{}{"error": "smtp timeout"}, now)
	require.NoError(t, repo.ScheduleRetry(ctx, current, token, retryEvent))

	stored, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EmailStatusQueued, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, "smtp timeout", stored.LastError)
	assert.Nil(t, stored.ClaimToken)
	assert.WithinDuration(t, now.Add(30*time.Second), stored.RunAfter, time.Second)

	// Not due yet.
	none, err := repo.Claim(ctx, 1, time.Minute, now)
	require.NoError(t, err)
	assert.Empty(t, none)

	later := now.Add(31 * time.Second)
	claimed, err = repo.Claim(ctx, 1, time.Minute, later)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	current = claimed[0]
	token = *current.ClaimToken

	current.MarkSent("msg-123", later)
	sentEvent := entity.NewEmailEvent(current.ID, entity.EmailEventSent, map[string]interface{}{"provider_message_id": "msg-123"}, later)
	require.NoError(t, repo.MarkSent(ctx, current, token, sentEvent))

	stored, err = repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EmailStatusSent, stored.Status)
	assert.Equal(t, "msg-123", stored.ProviderMessageID)
	require.NotNil(t, stored.ProcessedAt)

	events, err := repo.ListEvents(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, entity.EmailEventRetryScheduled, events[0].Event)
	assert.Equal(t, entity.EmailEventSent, events[1].Event)
	assert.Equal(t, "msg-123", events[1].Detail["provider_message_id"])
}

func TestEmailQueueRepository_ResolutionWithStaleTokenIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewEmailQueueRepository(newTestDB(t))
	now := time.Now().UTC()

	require.NoError(t, repo.Enqueue(ctx, newQueuedJob(now)))
	claimed, err := repo.Claim(ctx, 1, time.Minute, now)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	job := claimed[0]

	job.MarkSent("msg", now)
	err = repo.MarkSent(ctx, job, uuid.New(), entity.NewEmailEvent(job.ID, entity.EmailEventSent, nil, now))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerror.ErrLeaseLost))

	events, err := repo.ListEvents(ctx, job.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEmailQueueRepository_ReleaseExpiredLeases(t *testing.T) {
	ctx := context.Background()
	repo := NewEmailQueueRepository(newTestDB(t))
	now := time.Now().UTC()

	require.NoError(t, repo.Enqueue(ctx, newQueuedJob(now)))
	claimed, err := repo.Claim(ctx, 1, time.Minute, now)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	staleToken := *claimed[0].ClaimToken

	released, err := repo.ReleaseExpiredLeases(ctx, now.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(0), released)

	released, err = repo.ReleaseExpiredLeases(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	stored, err := repo.GetByID(ctx, claimed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EmailStatusQueued, stored.Status)
	assert.Equal(t, 0, stored.Attempts)

	reclaimed, err := repo.Claim(ctx, 1, time.Minute, now.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.NotEqual(t, staleToken, *reclaimed[0].ClaimToken)

	// The first worker finishing late must not overwrite the new claim.
	late := claimed[0]
	late.MarkSent("late", now.Add(2*time.Minute))
	err = repo.MarkSent(ctx, late, staleToken, entity.NewEmailEvent(late.ID, entity.EmailEventSent, nil, now))
	assert.ErrorIs(t, err, domainerror.ErrLeaseLost)
}

func TestEmailQueueRepository_ClaimByID(t *testing.T) {
	ctx := context.Background()
	repo := NewEmailQueueRepository(newTestDB(t))
	now := time.Now().UTC()

	job := newQueuedJob(now.Add(time.Hour))
	require.NoError(t, repo.Enqueue(ctx, job))

	claimed, err := repo.ClaimByID(ctx, job.ID, time.Minute, now)
	require.NoError(t, err)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, entity.EmailStatusProcessing, claimed.Status)

	_, err = repo.ClaimByID(ctx, job.ID, time.Minute, now)
	assert.ErrorIs(t, err, domainerror.ErrEmailJobNotFound)
}

func TestEmailQueueRepository_DeleteTerminalBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewEmailQueueRepository(newTestDB(t))
	now := time.Now().UTC()

	sent := newQueuedJob(now)
	pending := newQueuedJob(now.Add(time.Hour))
	require.NoError(t, repo.Enqueue(ctx, sent))
	require.NoError(t, repo.Enqueue(ctx, pending))

	claimed, err := repo.Claim(ctx, 1, time.Minute, now)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	token := *claimed[0].ClaimToken
	claimed[0].MarkSent("id", now)
	require.NoError(t, repo.MarkSent(ctx, claimed[0], token, entity.NewEmailEvent(sent.ID, entity.EmailEventSent, nil, now)))

	deleted, err := repo.DeleteTerminalBefore(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetByID(ctx, sent.ID)
	assert.ErrorIs(t, err, domainerror.ErrEmailJobNotFound)
	_, err = repo.GetByID(ctx, pending.ID)
	assert.NoError(t, err)
}
