package rbac

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/internhub/internhub/internal/platform/httpx"
	"github.com/internhub/internhub/internal/shared"
)

// Route-group denial messages.
const (
	MsgNotAdmin     = "Access denied. Not an admin."
	MsgInternUpload = "Access denied. Only interns can upload documents."
	MsgNotAnnouncer = "Access denied. Not allowed to publish announcements."
)

// Allow-lists shared by route groups.
var (
	Admins     = []shared.Role{shared.RoleCEO, shared.RoleHR}
	Uploaders  = []shared.Role{shared.RoleIntern}
	Announcers = []shared.Role{shared.RoleCEO, shared.RoleHR, shared.RoleMentor}
)

var errNoPrincipal = errors.New("rbac: no principal in request context")

// Middleware gates route groups on the authenticated principal's role.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRoles passes requests whose principal holds one of roles and answers
// everyone else with 403 and message. It must run after authentication.
func (m Middleware) RequireRoles(message string, roles ...shared.Role) func(http.Handler) http.Handler {
	allowed := make(map[shared.Role]struct{}, len(roles))
	for _, role := range roles {
		if !role.Valid() {
			panic(fmt.Sprintf("rbac: invalid role %q in allow-list", role))
		}
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				if m.Logger != nil {
					m.Logger.Error("rbac require roles", slog.String("path", r.URL.Path), slog.Any("error", errNoPrincipal))
				}
				httpx.RespondError(w, errNoPrincipal)
				return
			}
			if _, ok := allowed[p.Role]; !ok {
				httpx.RespondError(w, httpx.Errorf(httpx.ErrForbidden, "%s", message))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin allows CEO and HR.
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return m.RequireRoles(MsgNotAdmin, Admins...)
}

// Allowed reports whether role is a member of roles.
func Allowed(role shared.Role, roles ...shared.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
