package batches

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/internhub/internhub/internal/platform/db"
	"github.com/internhub/internhub/internal/shared"
)

// ErrUnknownMembers is returned when a member id does not exist.
var ErrUnknownMembers = errors.New("unknown batch members")

// Repository persists batches in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListBatches returns batches with their member ids, newest first. Members
// are the users whose batch reference points at the batch.
func (r *Repository) ListBatches(ctx context.Context) ([]Batch, error) {
	rows, err := r.pool.Query(ctx, `SELECT b.id, b.name, b.created_at,
       COALESCE(array_agg(u.id ORDER BY u.id) FILTER (WHERE u.id IS NOT NULL), '{}')
FROM batches b
LEFT JOIN users u ON u.batch_id = b.id
GROUP BY b.id
ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.MemberIDs); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBatch inserts the batch and points its interns and mentors at it in
// one transaction. It returns the ids that became members; other roles are
// left untouched.
func (r *Repository) CreateBatch(ctx context.Context, batch Batch) ([]string, error) {
	var members []string
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if len(batch.MemberIDs) > 0 {
			var found int
			if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE id = ANY($1)`, batch.MemberIDs).Scan(&found); err != nil {
				return fmt.Errorf("count members: %w", err)
			}
			if found != len(batch.MemberIDs) {
				return ErrUnknownMembers
			}
		}
		if _, err := tx.Exec(ctx, `INSERT INTO batches (id, name, created_at) VALUES ($1, $2, $3)`, batch.ID, batch.Name, batch.CreatedAt); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `UPDATE users SET batch_id = $1, updated_at = NOW()
WHERE id = ANY($2) AND role IN ('INTERN', 'MENTOR')
RETURNING id`, batch.ID, batch.MemberIDs)
		if err != nil {
			return err
		}
		members, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(members)
	return members, nil
}

// DeleteBatch removes a batch and clears the users pointing at it.
func (r *Repository) DeleteBatch(ctx context.Context, id string) ([]string, error) {
	var cleared []string
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `UPDATE users SET batch_id = NULL, updated_at = NOW() WHERE batch_id = $1 RETURNING id`, id)
		if err != nil {
			return err
		}
		cleared, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM batches WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	return cleared, err
}

var _ RepositoryPort = (*Repository)(nil)
