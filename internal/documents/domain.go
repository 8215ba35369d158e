package documents

import (
	"time"

	"github.com/internhub/internhub/internal/users"
)

// Document is the metadata recorded for one uploaded file.
type Document struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	OriginalName  string    `json:"originalName"`
	ContentType   string    `json:"contentType"`
	Size          int64     `json:"size"`
	UploaderID    string    `json:"uploaderId"`
	Skills        []string  `json:"skills"`
	Projects      []string  `json:"projects"`
	Summary       string    `json:"summary"`
	SuggestedRole string    `json:"suggestedRole"`
	CreatedAt     time.Time `json:"createdAt"`
}

// View is a document with its uploader resolved.
type View struct {
	Document
	Uploader *users.Summary `json:"uploader,omitempty"`
}

// Upload is one incoming file.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
}

// Download describes content served back to a client.
type Download struct {
	Name        string
	ContentType string
	Size        int64
}
