package users

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/internhub/internhub/internal/shared"
)

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

type memRepo struct {
	mu        sync.Mutex
	users     map[string]User
	batches   map[string]string
	summaries int
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]User{}, batches: map[string]string{}}
}

func (m *memRepo) ListUsers(_ context.Context, filter ListFilter) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memRepo) GetUser(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	if u.BatchID != nil {
		u.BatchName = m.batches[*u.BatchID]
	}
	return u, nil
}

func (m *memRepo) CreateUser(_ context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return uniqueViolation()
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memRepo) UpdateUser(_ context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return shared.ErrNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *memRepo) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memRepo) BatchExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.batches[id]
	return ok, nil
}

func (m *memRepo) Summaries(_ context.Context, ids []string) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries++
	var out []Summary
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, Summary{ID: u.ID, Name: u.Name, Email: u.Email})
		}
	}
	return out, nil
}
