package campaign

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	domainerror "github.com/realtyhub/backend/internal/domain/error"
)

type fakeCampaignRepo struct {
	campaigns map[uuid.UUID]*entity.Campaign
	jobCounts map[uuid.UUID]int
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{
		campaigns: map[uuid.UUID]*entity.Campaign{},
		jobCounts: map[uuid.UUID]int{},
	}
}

func (r *fakeCampaignRepo) Create(ctx context.Context, c *entity.Campaign) error {
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) UpdateJobCount(ctx context.Context, id uuid.UUID, jobCount int) error {
	r.jobCounts[id] = jobCount
	return nil
}

func (r *fakeCampaignRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Campaign, error) {
	if c, ok := r.campaigns[id]; ok {
		return c, nil
	}
	return nil, domainerror.ErrCampaignNotFound
}

// fakeEmailService fails the recipients listed in failFor.
type fakeEmailService struct {
	adapter.EmailService
	failFor map[string]bool
	queued  []string
}

func (f *fakeEmailService) QueueCampaignEmails(ctx context.Context, c *entity.Campaign) (int, error) {
	var errs []error
	for _, r := range c.Recipients {
		if f.failFor[r] {
			errs = append(errs, fmt.Errorf("%s: queue unavailable", r))
			continue
		}
		f.queued = append(f.queued, r)
	}
	return len(f.queued), errors.Join(errs...)
}

func TestCreateCampaign_QueuesOneJobPerRecipient(t *testing.T) {
	repo := newFakeCampaignRepo()
	emails := &fakeEmailService{}
	uc := NewCreateCampaignUseCase(repo, emails, zap.NewNop())

	out, err := uc.Execute(context.Background(), CreateCampaignInput{
		UserID:     uuid.New(),
		Subject:    "  Spring market update ",
		HTML:       "<p>Prices are up.</p>",
		Recipients: []string{"a@example.com", "A@example.com", " b@example.com ", ""},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Queued)
	assert.Equal(t, 0, out.Failed)
	assert.Equal(t, "Spring market update", out.Campaign.Subject)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, emails.queued)
	assert.Equal(t, 2, repo.jobCounts[out.Campaign.ID])
}

func TestCreateCampaign_EnqueueFailuresAreCountedNotReturned(t *testing.T) {
	repo := newFakeCampaignRepo()
	emails := &fakeEmailService{failFor: map[string]bool{"b@example.com": true}}
	uc := NewCreateCampaignUseCase(repo, emails, zap.NewNop())

	out, err := uc.Execute(context.Background(), CreateCampaignInput{
		UserID:     uuid.New(),
		Subject:    "Open house",
		HTML:       "<p>Saturday</p>",
		Recipients: []string{"a@example.com", "b@example.com", "c@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Queued)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 2, repo.jobCounts[out.Campaign.ID])
}

func TestCreateCampaign_Validation(t *testing.T) {
	tooMany := make([]string, entity.MaxCampaignRecipients+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("buyer%d@example.com", i)
	}

	tests := []struct {
		name  string
		input CreateCampaignInput
		code  domainerror.NotificationErrorCode
	}{
		{"missing subject", CreateCampaignInput{HTML: "<p>x</p>", Recipients: []string{"a@example.com"}}, domainerror.ErrCodeMissingSubject},
		{"missing html", CreateCampaignInput{Subject: "s", Recipients: []string{"a@example.com"}}, domainerror.ErrCodeMissingContent},
		{"no recipients", CreateCampaignInput{Subject: "s", HTML: "<p>x</p>", Recipients: []string{" "}}, domainerror.ErrCodeMissingRecipient},
		{"too many recipients", CreateCampaignInput{Subject: "s", HTML: "<p>x</p>", Recipients: tooMany}, domainerror.ErrCodeTooManyRecipients},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeCampaignRepo()
			uc := NewCreateCampaignUseCase(repo, &fakeEmailService{}, zap.NewNop())

			_, err := uc.Execute(context.Background(), tt.input)
			var notifyErr *domainerror.NotificationError
			require.ErrorAs(t, err, &notifyErr)
			assert.Equal(t, tt.code, notifyErr.Code)
			assert.Empty(t, repo.campaigns)
		})
	}
}
