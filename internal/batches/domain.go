package batches

import "time"

// Batch groups interns and mentors into a cohort.
type Batch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MemberIDs []string  `json:"userIds"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateInput holds fields for a new batch.
type CreateInput struct {
	Name    string   `json:"name" validate:"required,max=120"`
	UserIDs []string `json:"userIds" validate:"dive,required"`
}
