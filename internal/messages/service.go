package messages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/rbac"
	"github.com/internhub/internhub/internal/shared"
)

// RepositoryPort defines data access methods for messaging.
type RepositoryPort interface {
	ListAnnouncements(ctx context.Context, f AnnouncementFilter) ([]Announcement, error)
	GetAnnouncement(ctx context.Context, id string) (Announcement, error)
	CreateAnnouncement(ctx context.Context, a Announcement) error
	TogglePin(ctx context.Context, id string) (bool, error)
	IncrementViews(ctx context.Context, id string) (int64, error)
	ListMessages(ctx context.Context, userID string) ([]Message, error)
	GetMessage(ctx context.Context, id string) (Message, error)
	CreateMessage(ctx context.Context, m Message) error
	MarkRead(ctx context.Context, id string) error
	UserExists(ctx context.Context, id string) (bool, error)
	BatchOf(ctx context.Context, userID string) (*string, error)
}

// Service handles announcements and direct messages.
type Service struct {
	repo   RepositoryPort
	audit  shared.AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// Announcements returns the feed visible to p.
func (s *Service) Announcements(ctx context.Context, p shared.Principal, kind, query string) ([]Announcement, error) {
	filter := AnnouncementFilter{Kind: Kind(kind), Query: strings.TrimSpace(query)}
	if filter.Kind != "" && !validKind(filter.Kind) {
		return nil, httpx.Errorf(httpx.ErrValidation, "Invalid announcement type")
	}
	if !SeesAll(p.Role) {
		viewer, err := s.viewer(ctx, p)
		if err != nil {
			return nil, err
		}
		filter.Viewer = &viewer
	}
	items, err := s.repo.ListAnnouncements(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	if items == nil {
		items = []Announcement{}
	}
	SortFeed(items)
	return items, nil
}

// Announce publishes a new announcement authored by p.
func (s *Service) Announce(ctx context.Context, p shared.Principal, in AnnouncementInput) (Announcement, error) {
	if !rbac.Allowed(p.Role, rbac.Announcers...) {
		return Announcement{}, httpx.Errorf(httpx.ErrForbidden, "%s", rbac.MsgNotAnnouncer)
	}
	a := Announcement{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(in.Title),
		Content:   strings.TrimSpace(in.Content),
		Kind:      Kind(in.Kind),
		Audience:  Audience(in.Audience),
		Pinned:    in.Pinned && p.Role.IsAdmin(),
		AuthorID:  p.ID,
		CreatedAt: s.now().UTC(),
	}
	if a.Kind == "" {
		a.Kind = KindAnnouncement
	}
	if a.Audience == "" {
		a.Audience = AudienceAll
	}
	if a.Audience != AudienceAll {
		if in.AudienceID == nil || strings.TrimSpace(*in.AudienceID) == "" {
			return Announcement{}, httpx.Errorf(httpx.ErrValidation, "Audience id is required")
		}
		id := strings.TrimSpace(*in.AudienceID)
		a.AudienceID = &id
	}
	if err := s.repo.CreateAnnouncement(ctx, a); err != nil {
		if shared.IsForeignKeyViolation(err) {
			return Announcement{}, httpx.Errorf(httpx.ErrValidation, "Unknown author")
		}
		return Announcement{}, fmt.Errorf("create announcement: %w", err)
	}
	s.record(ctx, p, "announcements.create", a.ID, map[string]any{"audience": a.Audience, "type": a.Kind})
	return a, nil
}

// TogglePin flips the pinned flag of an announcement.
func (s *Service) TogglePin(ctx context.Context, p shared.Principal, id string) (bool, error) {
	pinned, err := s.repo.TogglePin(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, httpx.Errorf(httpx.ErrNotFound, "Announcement not found")
		}
		return false, fmt.Errorf("toggle pin: %w", err)
	}
	s.record(ctx, p, "announcements.pin", id, map[string]any{"pinned": pinned})
	return pinned, nil
}

// View counts a read of an announcement visible to p.
func (s *Service) View(ctx context.Context, p shared.Principal, id string) (int64, error) {
	a, err := s.repo.GetAnnouncement(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, httpx.Errorf(httpx.ErrNotFound, "Announcement not found")
		}
		return 0, fmt.Errorf("get announcement: %w", err)
	}
	if !SeesAll(p.Role) {
		viewer, err := s.viewer(ctx, p)
		if err != nil {
			return 0, err
		}
		if !Visible(a, viewer) {
			return 0, httpx.Errorf(httpx.ErrNotFound, "Announcement not found")
		}
	}
	views, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

// Inbox returns direct messages involving p.
func (s *Service) Inbox(ctx context.Context, p shared.Principal) ([]Message, error) {
	items, err := s.repo.ListMessages(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if items == nil {
		items = []Message{}
	}
	return items, nil
}

// Send delivers a direct message from p.
func (s *Service) Send(ctx context.Context, p shared.Principal, in MessageInput) (Message, error) {
	recipient := strings.TrimSpace(in.RecipientID)
	if recipient == p.ID {
		return Message{}, httpx.Errorf(httpx.ErrValidation, "You cannot message yourself")
	}
	ok, err := s.repo.UserExists(ctx, recipient)
	if err != nil {
		return Message{}, fmt.Errorf("check recipient: %w", err)
	}
	if !ok {
		return Message{}, httpx.Errorf(httpx.ErrNotFound, "Recipient not found")
	}
	m := Message{
		ID:          uuid.NewString(),
		SenderID:    p.ID,
		RecipientID: recipient,
		Content:     strings.TrimSpace(in.Content),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

// MarkRead flags a message as read. Only the recipient may do so.
func (s *Service) MarkRead(ctx context.Context, p shared.Principal, id string) error {
	m, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return httpx.Errorf(httpx.ErrNotFound, "Message not found")
		}
		return fmt.Errorf("get message: %w", err)
	}
	if m.RecipientID != p.ID {
		return httpx.Errorf(httpx.ErrForbidden, "Only the recipient can mark a message as read.")
	}
	if m.Read {
		return nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *Service) viewer(ctx context.Context, p shared.Principal) (Viewer, error) {
	batchID, err := s.repo.BatchOf(ctx, p.ID)
	if err != nil {
		return Viewer{}, fmt.Errorf("load viewer batch: %w", err)
	}
	return Viewer{ID: p.ID, BatchID: batchID}, nil
}

func (s *Service) record(ctx context.Context, p shared.Principal, action, id string, meta map[string]any) {
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: p.ID, Action: action, Entity: "announcement", EntityID: id, Meta: meta}); err != nil {
		s.logger.Warn("audit announcement change", slog.String("action", action), slog.Any("error", err))
	}
}

// SortFeed orders announcements pinned first, then newest first.
func SortFeed(items []Announcement) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Pinned != items[j].Pinned {
			return items[i].Pinned
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func validKind(k Kind) bool {
	switch k {
	case KindAnnouncement, KindInfo, KindUrgent:
		return true
	default:
		return false
	}
}
