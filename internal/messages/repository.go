package messages

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/internhub/internhub/internal/shared"
)

// Repository persists announcements and messages in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectAnnouncements = `SELECT id, title, content, kind, audience, audience_id, pinned, views, COALESCE(author_id, ''), created_at
FROM announcements`

// ListAnnouncements returns the feed, pinned first then newest.
func (r *Repository) ListAnnouncements(ctx context.Context, f AnnouncementFilter) ([]Announcement, error) {
	query := selectAnnouncements + `
WHERE ($1 = '' OR kind = $1)
  AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR content ILIKE '%' || $2 || '%')`
	args := []any{string(f.Kind), f.Query}
	if f.Viewer != nil {
		query += `
  AND (author_id = $3
       OR audience = 'all'
       OR (audience = 'user' AND audience_id = $3)
       OR (audience = 'batch' AND audience_id = $4))`
		args = append(args, f.Viewer.ID, f.Viewer.BatchID)
	}
	query += `
ORDER BY pinned DESC, created_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAnnouncement fetches one announcement.
func (r *Repository) GetAnnouncement(ctx context.Context, id string) (Announcement, error) {
	return scanAnnouncement(r.pool.QueryRow(ctx, selectAnnouncements+` WHERE id = $1`, id))
}

// CreateAnnouncement inserts a.
func (r *Repository) CreateAnnouncement(ctx context.Context, a Announcement) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO announcements (id, title, content, kind, audience, audience_id, pinned, views, author_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)`,
		a.ID, a.Title, a.Content, string(a.Kind), string(a.Audience), a.AudienceID, a.Pinned, a.AuthorID, a.CreatedAt)
	return err
}

// TogglePin flips the pinned flag and returns the new value.
func (r *Repository) TogglePin(ctx context.Context, id string) (bool, error) {
	var pinned bool
	err := r.pool.QueryRow(ctx, `UPDATE announcements SET pinned = NOT pinned WHERE id = $1 RETURNING pinned`, id).Scan(&pinned)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, shared.ErrNotFound
	}
	return pinned, err
}

// IncrementViews bumps the view counter and returns the new value.
func (r *Repository) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := r.pool.QueryRow(ctx, `UPDATE announcements SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return views, err
}

// ListMessages returns messages sent or received by userID, newest first.
func (r *Repository) ListMessages(ctx context.Context, userID string) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sender_id, recipient_id, content, read, created_at
FROM messages
WHERE sender_id = $1 OR recipient_id = $1
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		var m Message
		err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.Read, &m.CreatedAt)
		return m, err
	})
}

// GetMessage fetches one message.
func (r *Repository) GetMessage(ctx context.Context, id string) (Message, error) {
	var m Message
	err := r.pool.QueryRow(ctx, `SELECT id, sender_id, recipient_id, content, read, created_at FROM messages WHERE id = $1`, id).
		Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.Read, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, shared.ErrNotFound
	}
	return m, err
}

// CreateMessage inserts m.
func (r *Repository) CreateMessage(ctx context.Context, m Message) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO messages (id, sender_id, recipient_id, content, read, created_at)
VALUES ($1, $2, $3, $4, FALSE, $5)`, m.ID, m.SenderID, m.RecipientID, m.Content, m.CreatedAt)
	return err
}

// MarkRead flags a message as read.
func (r *Repository) MarkRead(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE messages SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UserExists reports whether an active or inactive account exists.
func (r *Repository) UserExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// BatchOf returns the batch reference of a user.
func (r *Repository) BatchOf(ctx context.Context, userID string) (*string, error) {
	var batchID *string
	err := r.pool.QueryRow(ctx, `SELECT batch_id FROM users WHERE id = $1`, userID).Scan(&batchID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return batchID, err
}

func scanAnnouncement(row pgx.Row) (Announcement, error) {
	var (
		a        Announcement
		kind     string
		audience string
	)
	err := row.Scan(&a.ID, &a.Title, &a.Content, &kind, &audience, &a.AudienceID, &a.Pinned, &a.Views, &a.AuthorID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Announcement{}, shared.ErrNotFound
		}
		return Announcement{}, err
	}
	a.Kind = Kind(kind)
	a.Audience = Audience(audience)
	return a, nil
}

var _ RepositoryPort = (*Repository)(nil)
