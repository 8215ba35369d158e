package auth

import (
	"time"

	"github.com/internhub/internhub/internal/shared"
)

// User represents an account as seen by the login flow.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         shared.Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal returns the identity carried in issued tokens.
func (u User) Principal() shared.Principal {
	return shared.Principal{ID: u.ID, Role: u.Role}
}
