package documents

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/internhub/internhub/internal/shared"
	"github.com/internhub/internhub/internal/users"
)

type memRepo struct {
	mu        sync.Mutex
	docs      map[string]Document
	seq       int
	insertErr error
}

func newMemRepo() *memRepo {
	return &memRepo{docs: map[string]Document{}}
}

func (m *memRepo) Insert(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.seq++
	doc.ID = strconv.Itoa(m.seq)
	m.docs[doc.ID] = *doc
	return nil
}

func (m *memRepo) List(context.Context) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) FindByFilename(_ context.Context, filename string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Filename == filename {
			return d, nil
		}
	}
	return Document{}, shared.ErrNotFound
}

func (m *memRepo) Delete(_ context.Context, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return Document{}, shared.ErrNotFound
	}
	delete(m.docs, id)
	return d, nil
}

func (m *memRepo) Referenced(_ context.Context, filenames []string) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]struct{}{}
	for _, name := range filenames {
		for _, d := range m.docs {
			if d.Filename == name {
				out[name] = struct{}{}
			}
		}
	}
	return out, nil
}

type stubDirectory map[string]users.Summary

func (s stubDirectory) Lookup(_ context.Context, ids []string) (map[string]users.Summary, error) {
	out := map[string]users.Summary{}
	for _, id := range ids {
		if v, ok := s[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type recordingScheduler struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingScheduler) ScheduleOrphanCleanup(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

type fixedText struct {
	text string
	err  error
}

func (f fixedText) Text(context.Context, io.Reader) (string, error) { return f.text, f.err }

type countingObserver struct {
	outcomes []string
}

func (c *countingObserver) ObserveIngest(outcome string, _ int64) {
	c.outcomes = append(c.outcomes, outcome)
}

var errBoom = errors.New("boom")
