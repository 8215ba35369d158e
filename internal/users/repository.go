package users

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/internhub/internhub/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectUsers = `SELECT u.id, u.email, u.name, u.phone, u.role, u.password_hash, u.is_active,
       u.batch_id, COALESCE(b.name, ''), u.created_at, u.updated_at
FROM users u
LEFT JOIN batches b ON b.id = u.batch_id`

// ListUsers returns users, optionally filtered by role, newest first.
func (r *Repository) ListUsers(ctx context.Context, filter ListFilter) ([]User, error) {
	query := selectUsers
	args := []any{}
	if filter.Role != "" {
		query += ` WHERE u.role = $1`
		args = append(args, string(filter.Role))
	}
	query += ` ORDER BY u.created_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetUser fetches one user by id.
func (r *Repository) GetUser(ctx context.Context, id string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, selectUsers+` WHERE u.id = $1`, id))
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user User) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (id, email, name, phone, role, password_hash, is_active, batch_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		user.ID, user.Email, user.Name, user.Phone, string(user.Role), user.PasswordHash, user.IsActive, user.BatchID, user.CreatedAt)
	return err
}

// UpdateUser overwrites the mutable columns of user.
func (r *Repository) UpdateUser(ctx context.Context, user User) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users
SET email = $2, name = $3, phone = $4, role = $5, is_active = $6, batch_id = $7, updated_at = $8
WHERE id = $1`,
		user.ID, user.Email, user.Name, user.Phone, string(user.Role), user.IsActive, user.BatchID, user.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteUser removes a user.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// BatchExists reports whether a batch id is known.
func (r *Repository) BatchExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM batches WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// Summaries resolves public identities for ids.
func (r *Repository) Summaries(ctx context.Context, ids []string) ([]Summary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, email FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user User
		role string
	)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Phone, &role, &user.PasswordHash, &user.IsActive,
		&user.BatchID, &user.BatchName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	user.Role = shared.Role(strings.ToUpper(role))
	return user, nil
}

var _ RepositoryPort = (*Repository)(nil)
