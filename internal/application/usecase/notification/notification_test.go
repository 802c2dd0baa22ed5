package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

// inlineTasks runs tasks synchronously and remembers their results.
type inlineTasks struct {
	mu      sync.Mutex
	names   []string
	results []error
}

func (r *inlineTasks) Go(name string, task func(ctx context.Context) error) {
	err := task(context.Background())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.results = append(r.results, err)
}

type fakeDeliverer struct {
	mu       sync.Mutex
	payloads []entity.EmailPayload
	sent     []uuid.UUID
	err      error
}

func (f *fakeDeliverer) Deliver(ctx context.Context, payload entity.EmailPayload, maxAttempts int) (*entity.EmailJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	job := entity.NewEmailJob(payload, entity.SystemClock{}.Now(), maxAttempts)
	return job, f.err
}

func (f *fakeDeliverer) SendQueued(ctx context.Context, job *entity.EmailJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, job.ID)
	return f.err
}

type fakeEmailService struct {
	adapter.EmailService
	alerts   []adapter.QueueHotSheetAlertInput
	queued   []*entity.EmailJob
	failFrom int
}

// Enqueue fails once failFrom jobs were stored, when failFrom is positive.
func (f *fakeEmailService) Enqueue(ctx context.Context, payload entity.EmailPayload, maxAttempts int) (*entity.EmailJob, error) {
	if f.failFrom > 0 && len(f.queued) >= f.failFrom {
		return nil, domainerror.NewEmailError(domainerror.ErrCodeEmailQueueFailed, "failed to queue email", errors.New("database is locked"))
	}
	job := entity.NewEmailJob(payload, entity.SystemClock{}.Now(), maxAttempts)
	f.queued = append(f.queued, job)
	return job, nil
}

func (f *fakeEmailService) QueueHotSheetAlert(ctx context.Context, input adapter.QueueHotSheetAlertInput) (*entity.EmailJob, error) {
	f.alerts = append(f.alerts, input)
	return &entity.EmailJob{ID: uuid.New()}, nil
}

func testListing() entity.Listing {
	return entity.Listing{
		ID:      "L-100",
		Address: "12 Main St",
		City:    "Springfield",
		Price:   decimal.NewFromInt(525000),
		Beds:    3,
		Baths:   decimal.NewFromInt(2),
		URL:     "https://realtyhub.example.com/listings/L-100",
	}
}

func notificationCode(t *testing.T, err error) domainerror.NotificationErrorCode {
	t.Helper()
	var notifyErr *domainerror.NotificationError
	require.ErrorAs(t, err, &notifyErr)
	return notifyErr.Code
}

func TestShowingRequest_DeliversToAgent(t *testing.T) {
	deliverer := &fakeDeliverer{}
	tasks := &inlineTasks{}
	uc := NewShowingRequestUseCase(deliverer, tasks, 3, zap.NewNop())

	out, err := uc.Execute(context.Background(), ShowingRequestInput{
		ListingID:      "L-100",
		ListingAddress: "12 Main St",
		AgentEmail:     "Agent Smith <agent@example.com>",
		AgentName:      "Agent Smith",
		RequesterName:  "Sam Buyer",
		RequesterEmail: "sam@example.com",
		PreferredTime:  "Saturday morning",
	})
	require.NoError(t, err)
	assert.Equal(t, ShowingRequestMessage, out.Message)

	require.Len(t, deliverer.payloads, 1)
	payload := deliverer.payloads[0]
	assert.Equal(t, entity.TemplateShowingRequest, payload.Template)
	assert.Equal(t, entity.Recipients{"agent@example.com"}, payload.To)
	assert.Equal(t, "sam@example.com", payload.ReplyTo)
	assert.Equal(t, "Showing request for 12 Main St", payload.Subject)
	assert.Equal(t, "Saturday morning", payload.Variables["preferred_time"])
	assert.Equal(t, []string{"showing_request"}, tasks.names)
}

func TestShowingRequest_AcknowledgesEvenWhenDeliveryFails(t *testing.T) {
	deliverer := &fakeDeliverer{err: errors.New("provider unavailable")}
	tasks := &inlineTasks{}
	uc := NewShowingRequestUseCase(deliverer, tasks, 3, zap.NewNop())

	out, err := uc.Execute(context.Background(), ShowingRequestInput{
		ListingID:      "L-100",
		ListingAddress: "12 Main St",
		AgentEmail:     "agent@example.com",
		RequesterEmail: "sam@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, ShowingRequestMessage, out.Message)
	require.Len(t, tasks.results, 1)
	assert.ErrorContains(t, tasks.results[0], "provider unavailable")
}

func TestShowingRequest_Validation(t *testing.T) {
	uc := NewShowingRequestUseCase(&fakeDeliverer{}, &inlineTasks{}, 3, zap.NewNop())

	_, err := uc.Execute(context.Background(), ShowingRequestInput{ListingAddress: "12 Main St", RequesterEmail: "sam@example.com"})
	assert.Equal(t, domainerror.ErrCodeMissingRecipient, notificationCode(t, err))

	_, err = uc.Execute(context.Background(), ShowingRequestInput{ListingAddress: "12 Main St", AgentEmail: "agent@example.com", RequesterEmail: "nope"})
	assert.Equal(t, domainerror.ErrCodeInvalidAddress, notificationCode(t, err))

	_, err = uc.Execute(context.Background(), ShowingRequestInput{AgentEmail: "agent@example.com", RequesterEmail: "sam@example.com"})
	assert.Equal(t, domainerror.ErrCodeInvalidListing, notificationCode(t, err))
}

func TestReverseProspecting_OneEmailPerBuyer(t *testing.T) {
	emails := &fakeEmailService{}
	deliverer := &fakeDeliverer{}
	uc := NewReverseProspectingUseCase(emails, deliverer, &inlineTasks{}, 3, zap.NewNop())

	out, err := uc.Execute(context.Background(), ReverseProspectingInput{
		AgentName:  "Dana",
		AgentEmail: "dana@example.com",
		Recipients: []string{"a@example.com", "b@example.com", "A@example.com"},
		Listing:    testListing(),
		Message:    "Thought of you for this one.",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Recipients)

	require.Len(t, emails.queued, 2)
	for _, job := range emails.queued {
		p := job.Payload
		assert.Equal(t, entity.TemplateReverseProspecting, p.Template)
		assert.Len(t, p.To, 1)
		assert.Equal(t, "dana@example.com", p.ReplyTo)
		assert.Equal(t, "Dana shared a listing: 12 Main St", p.Subject)
		assert.Equal(t, 3, job.MaxAttempts)
		listing := p.Variables["listing"].(map[string]interface{})
		assert.Equal(t, "$525,000", listing["price"])
	}
	assert.Equal(t, []uuid.UUID{emails.queued[0].ID, emails.queued[1].ID}, deliverer.sent)
	assert.Empty(t, deliverer.payloads)
}

func TestReverseProspecting_SendFailuresLeaveJobsQueued(t *testing.T) {
	emails := &fakeEmailService{}
	deliverer := &fakeDeliverer{err: context.DeadlineExceeded}
	tasks := &inlineTasks{}
	uc := NewReverseProspectingUseCase(emails, deliverer, tasks, 3, zap.NewNop())

	out, err := uc.Execute(context.Background(), ReverseProspectingInput{
		AgentEmail: "dana@example.com",
		Recipients: []string{"a@example.com", "b@example.com"},
		Listing:    testListing(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Recipients)
	assert.Len(t, emails.queued, 2)

	require.Len(t, tasks.results, 1)
	assert.ErrorIs(t, tasks.results[0], context.DeadlineExceeded)
}

func TestReverseProspecting_QueueFailureIsReported(t *testing.T) {
	emails := &fakeEmailService{failFrom: 1}
	tasks := &inlineTasks{}
	uc := NewReverseProspectingUseCase(emails, &fakeDeliverer{}, tasks, 3, zap.NewNop())

	_, err := uc.Execute(context.Background(), ReverseProspectingInput{
		AgentEmail: "dana@example.com",
		Recipients: []string{"a@example.com", "b@example.com"},
		Listing:    testListing(),
	})
	require.Error(t, err)
	assert.False(t, domainerror.IsPermanentEmailError(err))
	var emailErr *domainerror.EmailError
	require.ErrorAs(t, err, &emailErr)
	assert.Equal(t, domainerror.ErrCodeEmailQueueFailed, emailErr.Code)
	assert.Empty(t, tasks.names)
}

func TestReverseProspecting_Validation(t *testing.T) {
	uc := NewReverseProspectingUseCase(&fakeEmailService{}, &fakeDeliverer{}, &inlineTasks{}, 3, zap.NewNop())

	tooMany := make([]string, MaxProspectRecipients+1)
	for i := range tooMany {
		tooMany[i] = uuid.NewString() + "@example.com"
	}

	_, err := uc.Execute(context.Background(), ReverseProspectingInput{AgentEmail: "dana@example.com", Listing: testListing()})
	assert.Equal(t, domainerror.ErrCodeMissingRecipient, notificationCode(t, err))

	_, err = uc.Execute(context.Background(), ReverseProspectingInput{AgentEmail: "dana@example.com", Listing: testListing(), Recipients: tooMany})
	assert.Equal(t, domainerror.ErrCodeTooManyRecipients, notificationCode(t, err))

	_, err = uc.Execute(context.Background(), ReverseProspectingInput{AgentEmail: "dana@example.com", Listing: testListing(), Recipients: []string{"bad address"}})
	assert.Equal(t, domainerror.ErrCodeInvalidAddress, notificationCode(t, err))

	negative := testListing()
	negative.Price = decimal.NewFromInt(-1)
	_, err = uc.Execute(context.Background(), ReverseProspectingInput{AgentEmail: "dana@example.com", Listing: negative, Recipients: []string{"a@example.com"}})
	assert.Equal(t, domainerror.ErrCodeInvalidListing, notificationCode(t, err))
}

func TestHotSheetAlert(t *testing.T) {
	emails := &fakeEmailService{}
	uc := NewHotSheetAlertUseCase(emails, zap.NewNop())

	out, err := uc.Execute(context.Background(), HotSheetAlertInput{
		HotSheetName:    "Downtown condos",
		SubscriberEmail: "sam@example.com",
		Listings:        []entity.Listing{testListing()},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, out.JobID)
	require.Len(t, emails.alerts, 1)
	assert.Equal(t, "Downtown condos", emails.alerts[0].HotSheetName)

	_, err = uc.Execute(context.Background(), HotSheetAlertInput{SubscriberEmail: "sam@example.com"})
	assert.Equal(t, domainerror.ErrCodeMissingContent, notificationCode(t, err))
}
