package users

import (
	"time"

	"github.com/internhub/internhub/internal/shared"
)

// User is an account in the directory. PasswordHash never leaves the service.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Phone        *string     `json:"phone,omitempty"`
	Role         shared.Role `json:"role"`
	PasswordHash string      `json:"-"`
	IsActive     bool        `json:"isActive"`
	BatchID      *string     `json:"batchId"`
	BatchName    string      `json:"batchName,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Summary is the public identity used to resolve references.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListFilter narrows ListUsers.
type ListFilter struct {
	Role shared.Role
}

// CreateInput holds fields for a new account.
type CreateInput struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Name     string  `json:"name" validate:"required,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=40"`
	Role     string  `json:"role" validate:"required"`
	BatchID  *string `json:"batchId"`
}

// UpdateInput holds a partial update. Absent batchId means no batch.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=40"`
	Role     *string `json:"role"`
	BatchID  *string `json:"batchId"`
	IsActive *bool   `json:"isActive"`
}

// ApplyBatchRule returns the batch reference an account with role may hold.
func ApplyBatchRule(role shared.Role, batchID *string) *string {
	if !role.TakesBatch() || batchID == nil || *batchID == "" {
		return nil
	}
	id := *batchID
	return &id
}
