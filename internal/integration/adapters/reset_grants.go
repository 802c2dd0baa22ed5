package adapters

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/realtyhub/backend/internal/application/adapter"
	"github.com/realtyhub/backend/internal/domain/entity"
	"github.com/realtyhub/backend/internal/integration/persistence"
)

// DefaultResetGrantTTL is how long a reset link stays valid.
const DefaultResetGrantTTL = time.Hour

const resetTokenBytes = 32

type resetGrants struct {
	store persistence.ResetGrantRepository
	ttl   time.Duration
	clock entity.Clock
}

// NewResetGrants issues URL-safe random tokens valid for ttl.
func NewResetGrants(store persistence.ResetGrantRepository, ttl time.Duration, clock entity.Clock) adapter.ResetGrants {
	if ttl <= 0 {
		ttl = DefaultResetGrantTTL
	}
	if clock == nil {
		clock = entity.SystemClock{}
	}
	return &resetGrants{store: store, ttl: ttl, clock: clock}
}

func (g *resetGrants) Issue(ctx context.Context, user *entity.User) (*entity.ResetGrant, error) {
	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}

	now := g.clock.Now()
	grant := &entity.ResetGrant{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: now.Add(g.ttl),
	}
	if err := g.store.Save(ctx, grant, now); err != nil {
		return nil, fmt.Errorf("failed to save reset grant: %w", err)
	}
	return grant, nil
}

func (g *resetGrants) Lookup(ctx context.Context, token string) (*entity.ResetGrant, error) {
	return g.store.FindActive(ctx, token)
}

func (g *resetGrants) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return g.store.RevokeForUser(ctx, userID, g.clock.Now())
}
