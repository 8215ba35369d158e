package messages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/rbac"
	"github.com/internhub/internhub/internal/shared"
)

type fakeRepo struct {
	announcements map[string]Announcement
	messages      map[string]Message
	users         map[string]*string
}

func newFakeRepo() *fakeRepo {
	b1 := "batch-1"
	return &fakeRepo{
		announcements: map[string]Announcement{},
		messages:      map[string]Message{},
		users:         map[string]*string{"ceo": nil, "mentor": &b1, "intern-a": &b1, "intern-b": nil},
	}
}

func (f *fakeRepo) ListAnnouncements(_ context.Context, filter AnnouncementFilter) ([]Announcement, error) {
	var out []Announcement
	for _, a := range f.announcements {
		if filter.Kind != "" && a.Kind != filter.Kind {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(a.Title+" "+a.Content), strings.ToLower(filter.Query)) {
			continue
		}
		if filter.Viewer != nil && !Visible(a, *filter.Viewer) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRepo) GetAnnouncement(_ context.Context, id string) (Announcement, error) {
	a, ok := f.announcements[id]
	if !ok {
		return Announcement{}, shared.ErrNotFound
	}
	return a, nil
}

func (f *fakeRepo) CreateAnnouncement(_ context.Context, a Announcement) error {
	f.announcements[a.ID] = a
	return nil
}

func (f *fakeRepo) TogglePin(_ context.Context, id string) (bool, error) {
	a, ok := f.announcements[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	a.Pinned = !a.Pinned
	f.announcements[id] = a
	return a.Pinned, nil
}

func (f *fakeRepo) IncrementViews(_ context.Context, id string) (int64, error) {
	a := f.announcements[id]
	a.Views++
	f.announcements[id] = a
	return a.Views, nil
}

func (f *fakeRepo) ListMessages(_ context.Context, userID string) ([]Message, error) {
	var out []Message
	for _, m := range f.messages {
		if m.SenderID == userID || m.RecipientID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetMessage(_ context.Context, id string) (Message, error) {
	m, ok := f.messages[id]
	if !ok {
		return Message{}, shared.ErrNotFound
	}
	return m, nil
}

func (f *fakeRepo) CreateMessage(_ context.Context, m Message) error {
	f.messages[m.ID] = m
	return nil
}

func (f *fakeRepo) MarkRead(_ context.Context, id string) error {
	m := f.messages[id]
	m.Read = true
	f.messages[id] = m
	return nil
}

func (f *fakeRepo) UserExists(_ context.Context, id string) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeRepo) BatchOf(_ context.Context, id string) (*string, error) {
	return f.users[id], nil
}

var (
	ceo     = shared.Principal{ID: "ceo", Role: shared.RoleCEO}
	mentor  = shared.Principal{ID: "mentor", Role: shared.RoleMentor}
	internA = shared.Principal{ID: "intern-a", Role: shared.RoleIntern}
	internB = shared.Principal{ID: "intern-b", Role: shared.RoleIntern}
)

func strPtr(s string) *string { return &s }

func TestVisible(t *testing.T) {
	b1 := "batch-1"
	a := Announcement{AuthorID: "x", Audience: AudienceBatch, AudienceID: &b1}
	assert.True(t, Visible(a, Viewer{ID: "y", BatchID: &b1}))
	assert.False(t, Visible(a, Viewer{ID: "y"}))
	assert.True(t, Visible(a, Viewer{ID: "x"}))

	direct := Announcement{AuthorID: "x", Audience: AudienceUser, AudienceID: strPtr("y")}
	assert.True(t, Visible(direct, Viewer{ID: "y"}))
	assert.False(t, Visible(direct, Viewer{ID: "z"}))
	assert.True(t, Visible(Announcement{Audience: AudienceAll}, Viewer{ID: "z"}))
}

func TestSortFeedPinnedFirstThenNewest(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Announcement{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(time.Hour)},
		{ID: "pinned-old", Pinned: true, CreatedAt: base.Add(-time.Hour)},
	}
	SortFeed(items)
	assert.Equal(t, []string{"pinned-old", "new", "old"}, []string{items[0].ID, items[1].ID, items[2].ID})
}

func TestAnnouncementAudience(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.Announce(ctx, mentor, AnnouncementInput{Title: "Batch sync", Content: "Standup at 9", Audience: "batch", AudienceID: strPtr("batch-1")})
	require.NoError(t, err)
	_, err = svc.Announce(ctx, ceo, AnnouncementInput{Title: "Holiday", Content: "Office closed", Kind: "info", Pinned: true})
	require.NoError(t, err)

	feedA, err := svc.Announcements(ctx, internA, "", "")
	require.NoError(t, err)
	require.Len(t, feedA, 2)
	assert.Equal(t, "Holiday", feedA[0].Title, "pinned first")

	feedB, err := svc.Announcements(ctx, internB, "", "")
	require.NoError(t, err)
	require.Len(t, feedB, 1)
	assert.Equal(t, "Holiday", feedB[0].Title)

	feedCEO, err := svc.Announcements(ctx, ceo, "", "standup")
	require.NoError(t, err)
	require.Len(t, feedCEO, 1)
	assert.Equal(t, "Batch sync", feedCEO[0].Title)

	_, err = svc.Announcements(ctx, ceo, "gossip", "")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAnnounceRules(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.Announce(ctx, internA, AnnouncementInput{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.Announce(ctx, ceo, AnnouncementInput{Title: "x", Content: "y", Audience: "user"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	a, err := svc.Announce(ctx, mentor, AnnouncementInput{Title: "x", Content: "y", Pinned: true})
	require.NoError(t, err)
	assert.False(t, a.Pinned, "only admins pin")
	assert.Equal(t, KindAnnouncement, a.Kind)
	assert.Equal(t, AudienceAll, a.Audience)
}

func TestViewHiddenAnnouncementIsNotFound(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)
	ctx := context.Background()
	a, err := svc.Announce(ctx, mentor, AnnouncementInput{Title: "x", Content: "y", Audience: "batch", AudienceID: strPtr("batch-1")})
	require.NoError(t, err)

	_, err = svc.View(ctx, internB, a.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	views, err := svc.View(ctx, internA, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, views)
}

func TestDirectMessages(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, internA, MessageInput{RecipientID: "ghost", Content: "hi"})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	_, err = svc.Send(ctx, internA, MessageInput{RecipientID: internA.ID, Content: "hi"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	m, err := svc.Send(ctx, internA, MessageInput{RecipientID: mentor.ID, Content: " question "})
	require.NoError(t, err)
	assert.Equal(t, "question", m.Content)

	assert.ErrorIs(t, svc.MarkRead(ctx, internA, m.ID), httpx.ErrForbidden)
	require.NoError(t, svc.MarkRead(ctx, mentor, m.ID))
	assert.True(t, repo.messages[m.ID].Read)
	assert.ErrorIs(t, svc.MarkRead(ctx, mentor, "missing"), httpx.ErrNotFound)

	inbox, err := svc.Inbox(ctx, internB)
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestMessageRoutes(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)
	r := chi.NewRouter()
	r.Route("/api/messages", NewHandler(nil, svc, rbac.Middleware{}).MountRoutes)

	serve := func(p shared.Principal, method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
		res := httptest.NewRecorder()
		r.ServeHTTP(res, req)
		return res
	}

	res := serve(internA, http.MethodPost, "/api/messages/announcements", `{"title":"t","content":"c"}`)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = serve(mentor, http.MethodPost, "/api/messages/announcements", `{"title":"t","content":"c","type":"urgent"}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	res = serve(mentor, http.MethodPost, "/api/messages/announcements/x/pin", "")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = serve(internA, http.MethodGet, "/api/messages/announcements?type=urgent", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"type":"urgent"`)

	res = serve(internA, http.MethodPost, "/api/messages", `{"recipientId":"mentor","content":"hello"}`)
	assert.Equal(t, http.StatusCreated, res.Code)

	res = serve(internA, http.MethodPost, "/api/messages", `{"recipientId":"mentor"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}
