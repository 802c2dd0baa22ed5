package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/application/usecase/campaign"
	"github.com/realtyhub/backend/internal/application/usecase/notification"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
	"github.com/realtyhub/backend/internal/integration/email"
	"github.com/realtyhub/backend/internal/integration/entrypoint/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func postJSON(r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fakeCampaignRepo struct{}

func (fakeCampaignRepo) Create(ctx context.Context, c *entity.Campaign) error { return nil }
func (fakeCampaignRepo) UpdateJobCount(ctx context.Context, id uuid.UUID, n int) error {
	return nil
}
func (fakeCampaignRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Campaign, error) {
	return nil, domainerror.ErrCampaignNotFound
}

type fakeEmailService struct {
	adapter.EmailService
	alerts int
	queued []entity.EmailPayload
}

func (f *fakeEmailService) Enqueue(ctx context.Context, payload entity.EmailPayload, maxAttempts int) (*entity.EmailJob, error) {
	f.queued = append(f.queued, payload)
	return entity.NewEmailJob(payload, time.Now(), maxAttempts), nil
}

func (f *fakeEmailService) QueueCampaignEmails(ctx context.Context, c *entity.Campaign) (int, error) {
	return len(c.Recipients), nil
}

func (f *fakeEmailService) QueueHotSheetAlert(ctx context.Context, input adapter.QueueHotSheetAlertInput) (*entity.EmailJob, error) {
	f.alerts++
	return &entity.EmailJob{ID: uuid.New()}, nil
}

type inlineTasks struct{}

func (inlineTasks) Go(name string, task func(ctx context.Context) error) {
	_ = task(context.Background())
}

type recordingDeliverer struct {
	payloads []entity.EmailPayload
	sent     []uuid.UUID
}

func (d *recordingDeliverer) Deliver(ctx context.Context, payload entity.EmailPayload, maxAttempts int) (*entity.EmailJob, error) {
	d.payloads = append(d.payloads, payload)
	return entity.NewEmailJob(payload, time.Now(), maxAttempts), nil
}

func (d *recordingDeliverer) SendQueued(ctx context.Context, job *entity.EmailJob) error {
	d.sent = append(d.sent, job.ID)
	return nil
}

func TestCampaignController_Create(t *testing.T) {
	ctrl := NewCampaignController(campaign.NewCreateCampaignUseCase(fakeCampaignRepo{}, &fakeEmailService{}, zap.NewNop()))
	userID := uuid.New()

	r := gin.New()
	r.POST("/campaigns", func(c *gin.Context) {
		middleware.SetCaller(c, &adapter.AccessClaims{UserID: userID, Role: entity.UserRoleAgent})
		c.Next()
	}, ctrl.Create)
	r.POST("/anonymous", ctrl.Create)

	w := postJSON(r, "/campaigns", map[string]interface{}{
		"subject":    "Just listed",
		"html":       "<p>New on the market</p>",
		"recipients": []string{"a@example.com", "b@example.com"},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp["queued"])
	assert.EqualValues(t, 0, resp["failed"])

	w = postJSON(r, "/campaigns", map[string]interface{}{"subject": "x", "html": "<p>x</p>", "recipients": []string{" "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(domainerror.ErrCodeMissingRecipient))

	w = postJSON(r, "/campaigns", map[string]interface{}{"subject": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/anonymous", map[string]interface{}{"subject": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationController(t *testing.T) {
	deliverer := &recordingDeliverer{}
	emails := &fakeEmailService{}
	ctrl := NewNotificationController(
		notification.NewShowingRequestUseCase(deliverer, inlineTasks{}, 3, zap.NewNop()),
		notification.NewReverseProspectingUseCase(emails, deliverer, inlineTasks{}, 3, zap.NewNop()),
		notification.NewHotSheetAlertUseCase(emails, zap.NewNop()),
	)

	r := gin.New()
	r.POST("/listings/:id/showing-requests", ctrl.ShowingRequest)
	r.POST("/reverse-prospecting", ctrl.ReverseProspecting)
	r.POST("/hot-sheets/alerts", ctrl.HotSheetAlert)

	w := postJSON(r, "/listings/L-9/showing-requests", map[string]interface{}{
		"listing_address": "9 Elm St",
		"agent_email":     "agent@example.com",
		"email":           "sam@example.com",
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.Len(t, deliverer.payloads, 1)
	assert.Equal(t, "L-9", deliverer.payloads[0].Variables["listing_id"])

	w = postJSON(r, "/listings/L-9/showing-requests", map[string]interface{}{
		"listing_address": "9 Elm St",
		"agent_email":     "agent@example.com",
		"email":           "not an email",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(domainerror.ErrCodeInvalidAddress))

	w = postJSON(r, "/reverse-prospecting", map[string]interface{}{
		"agent_email": "agent@example.com",
		"recipients":  []string{"a@example.com", "b@example.com"},
		"listing":     map[string]interface{}{"address": "9 Elm St", "price": "410000", "beds": 3, "baths": 2.5},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Len(t, deliverer.payloads, 1)
	assert.Len(t, emails.queued, 2)
	assert.Len(t, deliverer.sent, 2)

	w = postJSON(r, "/hot-sheets/alerts", map[string]interface{}{
		"hot_sheet_name":   "Lakefront",
		"subscriber_email": "sam@example.com",
		"listings":         []map[string]interface{}{{"address": "1 Lake Rd", "price": 899000}},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, 1, emails.alerts)
	assert.Contains(t, w.Body.String(), "job_id")
}

type fakeRunner struct {
	summary *email.RunSummary
	err     error
}

func (f fakeRunner) RunOnce(ctx context.Context) (*email.RunSummary, error) {
	return f.summary, f.err
}

type fakeQueue struct {
	adapter.EmailQueueRepository
	job    *entity.EmailJob
	events []*entity.EmailEvent
}

func (f fakeQueue) GetByID(ctx context.Context, id uuid.UUID) (*entity.EmailJob, error) {
	if f.job == nil || f.job.ID != id {
		return nil, domainerror.ErrEmailJobNotFound
	}
	return f.job, nil
}

func (f fakeQueue) ListEvents(ctx context.Context, id uuid.UUID) ([]*entity.EmailEvent, error) {
	return f.events, nil
}

func TestDispatchController(t *testing.T) {
	job := entity.NewEmailJob(entity.EmailPayload{
		Template: entity.TemplateCampaign,
		To:       entity.Recipients{"a@example.com"},
		Subject:  "hello",
	}, time.Now(), 3)
	job.MarkSent("msg-1", time.Now())
	events := []*entity.EmailEvent{entity.NewEmailEvent(job.ID, entity.EmailEventSent, map[string]interface{}{"provider_message_id": "msg-1"}, time.Now())}

	ok := NewDispatchController(fakeRunner{summary: &email.RunSummary{Claimed: 2, Sent: 2}}, fakeQueue{job: job, events: events}, zap.NewNop())
	failing := NewDispatchController(fakeRunner{err: errors.New("claim failed")}, fakeQueue{}, zap.NewNop())

	r := gin.New()
	r.POST("/dispatch", ok.Run)
	r.POST("/dispatch-failing", failing.Run)
	r.GET("/jobs/:id", ok.GetJob)

	w := postJSON(r, "/dispatch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sent":2`)

	w = postJSON(r, "/dispatch-failing", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sent", resp["status"])
	assert.Len(t, resp["events"], 1)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthController(t *testing.T) {
	r := gin.New()
	r.GET("/up", NewHealthController(map[string]HealthChecker{"database": func() bool { return true }}).Check)
	r.GET("/down", NewHealthController(map[string]HealthChecker{
		"database": func() bool { return true },
		"redis":    func() bool { return false },
	}).Check)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/up", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"connected"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"disconnected"`)
}
