package messages

import (
	"time"

	"github.com/internhub/internhub/internal/shared"
)

// Kind classifies an announcement.
type Kind string

const (
	KindAnnouncement Kind = "announcement"
	KindInfo         Kind = "info"
	KindUrgent       Kind = "urgent"
)

// Audience scopes who can read an announcement.
type Audience string

const (
	AudienceAll   Audience = "all"
	AudienceBatch Audience = "batch"
	AudienceUser  Audience = "user"
)

// Announcement is a broadcast note.
type Announcement struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Kind       Kind      `json:"type"`
	Audience   Audience  `json:"audience"`
	AudienceID *string   `json:"audienceId,omitempty"`
	Pinned     bool      `json:"pinned"`
	Views      int64     `json:"views"`
	AuthorID   string    `json:"authorId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Message is a direct note between two users.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Viewer is the reader an announcement feed is built for. A nil Viewer
// sees everything.
type Viewer struct {
	ID      string
	BatchID *string
}

// AnnouncementFilter narrows the feed.
type AnnouncementFilter struct {
	Kind   Kind
	Query  string
	Viewer *Viewer
}

// AnnouncementInput holds fields for a new announcement.
type AnnouncementInput struct {
	Title      string  `json:"title" validate:"required,max=200"`
	Content    string  `json:"content" validate:"required,max=10000"`
	Kind       string  `json:"type" validate:"omitempty,oneof=announcement info urgent"`
	Audience   string  `json:"audience" validate:"omitempty,oneof=all batch user"`
	AudienceID *string `json:"audienceId"`
	Pinned     bool    `json:"pinned"`
}

// MessageInput holds fields for a direct message.
type MessageInput struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Content     string `json:"content" validate:"required,max=5000"`
}

// Visible reports whether viewer may read a. Authors always see their own.
func Visible(a Announcement, viewer Viewer) bool {
	if a.AuthorID == viewer.ID {
		return true
	}
	switch a.Audience {
	case AudienceAll:
		return true
	case AudienceBatch:
		return a.AudienceID != nil && viewer.BatchID != nil && *a.AudienceID == *viewer.BatchID
	case AudienceUser:
		return a.AudienceID != nil && *a.AudienceID == viewer.ID
	default:
		return false
	}
}

// SeesAll reports whether role reads every announcement regardless of audience.
func SeesAll(role shared.Role) bool {
	return role.IsAdmin()
}
