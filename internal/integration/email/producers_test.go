package email

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/usecase/notification"
	"github.com/realtyhub/backend/internal/domain/entity"
)

func TestReverseProspecting_EveryBuyerIsStoredWhenTheTaskTimesOut(t *testing.T) {
	ctx := context.Background()
	queue := newTestQueue(t)
	clock := newTestClock()
	transport := &fakeTransport{always: true, delay: 20 * time.Millisecond}
	d := newTestDispatcher(t, queue, transport, clock, DispatcherConfig{DirectTries: 3})
	svc := NewService(queue, clock, zap.NewNop(), "fake", 5)
	tasks := NewTaskRunner(150*time.Millisecond, zap.NewNop(), nil)
	uc := notification.NewReverseProspectingUseCase(svc, d, tasks, 5, zap.NewNop())

	buyers := make([]string, 20)
	for i := range buyers {
		buyers[i] = fmt.Sprintf("buyer%02d@example.com", i)
	}

	out, err := uc.Execute(ctx, notification.ReverseProspectingInput{
		AgentName:  "Dana",
		AgentEmail: "dana@example.com",
		Recipients: buyers,
		Listing:    entity.Listing{Address: "12 Main St", Price: decimal.NewFromInt(525000)},
	})
	require.NoError(t, err)
	assert.Equal(t, len(buyers), out.Recipients)

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, tasks.Wait(waitCtx))

	// The provider never answered, so every job must still be waiting in the store.
	clock.Advance(2 * time.Hour)
	jobs, err := queue.Claim(ctx, 100, time.Minute, clock.Now())
	require.NoError(t, err)
	require.Len(t, jobs, len(buyers))

	var delivered []string
	for _, job := range jobs {
		assert.LessOrEqual(t, job.Attempts, 1)
		delivered = append(delivered, job.Payload.To...)
	}
	assert.ElementsMatch(t, buyers, delivered)
	assert.Less(t, transport.Calls(), len(buyers))
}

func TestDispatcher_SendQueuedLeavesJobForDispatcherOnceCancelled(t *testing.T) {
	ctx := context.Background()
	queue := newTestQueue(t)
	clock := newTestClock()
	transport := &fakeTransport{}
	d := newTestDispatcher(t, queue, transport, clock, DispatcherConfig{})
	svc := NewService(queue, clock, zap.NewNop(), "fake", 5)

	job, err := svc.Enqueue(ctx, testPayload("buyer@example.com"), 5)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, d.SendQueued(cancelled, job), context.Canceled)

	stored, err := queue.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EmailStatusQueued, stored.Status)
	assert.Equal(t, 0, transport.Calls())

	require.NoError(t, d.SendQueued(ctx, job))
	stored, err = queue.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EmailStatusSent, stored.Status)
	assert.Equal(t, 1, transport.Calls())
}
