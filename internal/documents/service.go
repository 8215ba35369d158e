package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/platform/storage"
	"github.com/internhub/internhub/internal/shared"
	"github.com/internhub/internhub/internal/users"
)

// Ingest outcomes reported to the IngestObserver.
const (
	OutcomeStored      = "stored"
	OutcomeStoreFailed = "store_failed"
	OutcomeParseFailed = "parse_failed"
	OutcomeSaveFailed  = "save_failed"
)

// Repository persists document metadata.
type Repository interface {
	Insert(ctx context.Context, doc *Document) error
	List(ctx context.Context) ([]Document, error)
	FindByFilename(ctx context.Context, filename string) (Document, error)
	Delete(ctx context.Context, id string) (Document, error)
	Referenced(ctx context.Context, filenames []string) (map[string]struct{}, error)
}

// UploaderDirectory resolves uploader ids to display summaries.
type UploaderDirectory interface {
	Lookup(ctx context.Context, ids []string) (map[string]users.Summary, error)
}

// OrphanScheduler queues removal of stored content that lost its metadata.
type OrphanScheduler interface {
	ScheduleOrphanCleanup(ctx context.Context, key string) error
}

// IngestObserver records ingest outcomes.
type IngestObserver interface {
	ObserveIngest(outcome string, bytes int64)
}

// Service implements document ingest and store access.
type Service struct {
	repo      Repository
	store     storage.Store
	extractor TextExtractor
	directory UploaderDirectory
	orphans   OrphanScheduler
	observer  IngestObserver
	logger    *slog.Logger
	now       func() time.Time
}

// Options carries optional collaborators for NewService.
type Options struct {
	Directory UploaderDirectory
	Orphans   OrphanScheduler
	Observer  IngestObserver
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewService wires the document service.
func NewService(repo Repository, store storage.Store, extractor TextExtractor, opts Options) *Service {
	svc := &Service{
		repo:      repo,
		store:     store,
		extractor: extractor,
		directory: opts.Directory,
		orphans:   opts.Orphans,
		observer:  opts.Observer,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Ingest stores content, extracts resume fields from PDFs and records metadata.
func (s *Service) Ingest(ctx context.Context, uploader shared.Principal, up Upload, r io.Reader) (Document, error) {
	createdAt := s.now().UTC()
	key := NewStorageKey(createdAt, up.Name)
	contentType := contentTypeFor(up.Name, up.ContentType)

	written, err := s.store.Put(ctx, key, r, up.Size, contentType)
	if err != nil {
		s.observe(OutcomeStoreFailed, 0)
		return Document{}, fmt.Errorf("store upload: %w", err)
	}

	doc := Document{
		Filename:     key,
		OriginalName: up.Name,
		ContentType:  contentType,
		Size:         written,
		UploaderID:   uploader.ID,
		Skills:       []string{},
		Projects:     []string{},
		CreatedAt:    createdAt,
	}

	if IsPDF(contentType) {
		text, err := s.readText(ctx, key)
		if err != nil {
			s.observe(OutcomeParseFailed, written)
			s.abandon(ctx, key, err)
			return Document{}, fmt.Errorf("extract %s: %w", key, err)
		}
		ext := Extract(text)
		doc.Skills = ext.Skills
		doc.Projects = ext.Projects
		doc.Summary = ext.Summary
		doc.SuggestedRole = ext.SuggestedRole
	}

	if err := s.repo.Insert(ctx, &doc); err != nil {
		s.observe(OutcomeSaveFailed, written)
		s.abandon(ctx, key, err)
		return Document{}, fmt.Errorf("insert document %s: %w", key, err)
	}
	s.observe(OutcomeStored, written)
	return doc, nil
}

func (s *Service) readText(ctx context.Context, key string) (string, error) {
	rc, _, err := s.store.Open(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return s.extractor.Text(ctx, rc)
}

// abandon hands a stored key whose metadata was never written to cleanup.
func (s *Service) abandon(ctx context.Context, key string, cause error) {
	s.logger.Error("document ingest failed after store",
		slog.String("key", key), slog.Any("error", cause))
	if s.orphans == nil {
		return
	}
	if err := s.orphans.ScheduleOrphanCleanup(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Error("schedule orphan cleanup",
			slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Service) observe(outcome string, n int64) {
	if s.observer != nil {
		s.observer.ObserveIngest(outcome, n)
	}
}

// List returns every document newest first with uploaders resolved.
func (s *Service) List(ctx context.Context) ([]View, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	views := make([]View, len(docs))
	for i, doc := range docs {
		views[i] = View{Document: doc}
	}
	if s.directory == nil || len(docs) == 0 {
		return views, nil
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.UploaderID != "" {
			ids = append(ids, doc.UploaderID)
		}
	}
	found, err := s.directory.Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve uploaders: %w", err)
	}
	for i := range views {
		if summary, ok := found[views[i].UploaderID]; ok {
			views[i].Uploader = &summary
		}
	}
	return views, nil
}

// Open returns the stored bytes for filename. The caller closes the reader.
func (s *Service) Open(ctx context.Context, filename string) (io.ReadCloser, Download, error) {
	if !storage.ValidKey(filename) {
		return nil, Download{}, httpx.Errorf(httpx.ErrNotFound, "File not found")
	}
	rc, obj, err := s.store.Open(ctx, filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, Download{}, httpx.Errorf(httpx.ErrNotFound, "File not found")
		}
		return nil, Download{}, fmt.Errorf("open %s: %w", filename, err)
	}
	dl := Download{Name: filename, ContentType: contentTypeFor(filename, ""), Size: obj.Size}
	doc, err := s.repo.FindByFilename(ctx, filename)
	switch {
	case err == nil:
		dl.Name = doc.OriginalName
		dl.ContentType = contentTypeFor(doc.OriginalName, doc.ContentType)
	case errors.Is(err, shared.ErrNotFound):
	default:
		s.logger.Warn("document metadata lookup", slog.String("filename", filename), slog.Any("error", err))
	}
	return rc, dl, nil
}

// Delete removes the metadata record and then its stored file.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return httpx.Errorf(httpx.ErrNotFound, "Document not found")
		}
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if err := s.store.Delete(ctx, doc.Filename); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			s.logger.Warn("document file already missing", slog.String("key", doc.Filename))
			return nil
		}
		s.logger.Error("delete document file", slog.String("key", doc.Filename), slog.Any("error", err))
		if s.orphans != nil {
			if err := s.orphans.ScheduleOrphanCleanup(context.WithoutCancel(ctx), doc.Filename); err != nil {
				s.logger.Error("schedule orphan cleanup", slog.String("key", doc.Filename), slog.Any("error", err))
			}
		}
	}
	return nil
}

// RemoveOrphan deletes key unless a metadata record references it. It
// reports whether content was removed.
func (s *Service) RemoveOrphan(ctx context.Context, key string) (bool, error) {
	if !storage.ValidKey(key) {
		return false, fmt.Errorf("orphan key %q: %w", key, httpx.ErrValidation)
	}
	refs, err := s.repo.Referenced(ctx, []string{key})
	if err != nil {
		return false, fmt.Errorf("check references: %w", err)
	}
	if _, ok := refs[key]; ok {
		return false, nil
	}
	if err := s.store.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("delete orphan %s: %w", key, err)
	}
	s.logger.Info("orphan removed", slog.String("key", key))
	return true, nil
}

// SweepOrphans removes unreferenced content older than grace and returns the
// number of keys removed. Only keys minted by NewStorageKey are candidates.
func (s *Service) SweepOrphans(ctx context.Context, grace time.Duration) (int, error) {
	objects, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list content: %w", err)
	}
	cutoff := s.now().Add(-grace)
	var candidates []string
	for _, obj := range objects {
		if IsStorageKey(obj.Key) && obj.ModTime.Before(cutoff) {
			candidates = append(candidates, obj.Key)
		}
	}
	if len(candidates) == 0 {
		return 0, nil
	}
	refs, err := s.repo.Referenced(ctx, candidates)
	if err != nil {
		return 0, fmt.Errorf("check references: %w", err)
	}
	removed := 0
	for _, key := range candidates {
		if _, ok := refs[key]; ok {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotExist) {
			return removed, fmt.Errorf("delete orphan %s: %w", key, err)
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("orphan sweep", slog.Int("removed", removed))
	}
	return removed, nil
}
