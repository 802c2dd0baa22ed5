// Package entity defines the core business entities for the domain layer.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes agents from consumers browsing listings.
type UserRole string

const (
	UserRoleConsumer UserRole = "consumer"
	UserRoleAgent    UserRole = "agent"
	UserRoleAdmin    UserRole = "admin"
)

// User is an account holder. Only agents send campaigns.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser builds an account with a lower-cased email. An empty role means consumer.
func NewUser(email, name, passwordHash string, role UserRole) *User {
	now := time.Now().UTC()
	if role == "" {
		role = UserRoleConsumer
	}
	return &User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(email),
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// DisplayName falls back to the mailbox part of the address.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// NormalizeEmail is the form addresses are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResetGrant is a single-use permission to choose a new password.
// Token is only populated when the grant is issued; stores keep its hash.
type ResetGrant struct {
	Token     string
	UserID    uuid.UUID
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the grant can no longer be redeemed at now.
func (g *ResetGrant) Expired(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}
