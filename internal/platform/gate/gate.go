// Package gate implements the request-level session gate. It resolves the
// caller's identity and role on every matched request, redirects cross-role
// navigation to the caller's own role root, and sends unauthenticated
// callers of role-scoped paths to the login page.
package gate

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careportal/careportal/internal/platform/authz"
	"github.com/careportal/careportal/internal/platform/errs"
	"github.com/careportal/careportal/internal/platform/session"
)

type contextKey string

const principalKey contextKey = "principal"

// RoleResolver looks up the role recorded on the caller's profile. A
// NotFoundError means no profile exists; any other error is treated as a
// backend failure subject to the fail-open policy.
type RoleResolver interface {
	ResolveRole(ctx context.Context, accountID uuid.UUID) (string, error)
}

// Gate checks every matched request before any page logic runs.
type Gate struct {
	sessions   session.Store
	resolver   RoleResolver
	secret     []byte
	failClosed bool
	logger     zerolog.Logger
}

func New(sessions session.Store, resolver RoleResolver, secret []byte, failClosed bool, logger zerolog.Logger) *Gate {
	return &Gate{
		sessions:   sessions,
		resolver:   resolver,
		secret:     secret,
		failClosed: failClosed,
		logger:     logger,
	}
}

// Middleware returns the gate as echo middleware. Behavior:
//
//   - unauthenticated + role-scoped path: redirect to /login
//   - authenticated on a foreign role prefix: redirect to /{role}
//     (a courtesy redirect, not a 403)
//   - authenticated on / or /login: redirect to /{role}
//   - identity backend failure: pass the request through unmodified
//     (fail-open), unless configured fail-closed, in which case 503
//
// The fail-open default trades security for availability so a transient
// backend outage does not lock every user out. Deployments that prefer the
// opposite set GATE_FAIL_CLOSED.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if SkipPath(path) {
				return next(c)
			}

			principal, err := g.authenticate(c)
			if err != nil {
				if g.failClosed {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "identity backend unavailable")
				}
				g.logger.Warn().Err(err).Str("path", path).Msg("session gate failing open")
				return next(c)
			}

			if principal == nil {
				if roleForPath(path) != "" {
					return c.Redirect(http.StatusFound, "/login")
				}
				return next(c)
			}

			ctx := context.WithValue(c.Request().Context(), principalKey, *principal)
			c.SetRequest(c.Request().WithContext(ctx))

			if path == "/" || path == "/login" {
				return c.Redirect(http.StatusFound, "/"+principal.Role)
			}
			if pr := roleForPath(path); pr != "" && pr != principal.Role {
				return c.Redirect(http.StatusFound, "/"+principal.Role)
			}

			return next(c)
		}
	}
}

// authenticate resolves the caller from the session cookie. It returns
// (nil, nil) for anonymous or invalid-session callers, and an error only
// for backend failures that the fail-open policy must decide on.
func (g *Gate) authenticate(c echo.Context) (*authz.Principal, error) {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	token, err := session.ParseCookie(g.secret, cookie.Value)
	if err != nil {
		return nil, nil
	}

	accountID, err := g.sessions.Lookup(c.Request().Context(), token)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	role, err := g.resolver.ResolveRole(c.Request().Context(), accountID)
	if err != nil {
		// No profile on file: treat as unauthenticated for gating.
		if errs.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &authz.Principal{AccountID: accountID, Role: role}, nil
}

// roleForPath returns the role owning a role-scoped path prefix, or "".
func roleForPath(path string) string {
	for _, role := range []string{authz.RolePatient, authz.RoleDoctor, authz.RolePharmacist} {
		if path == "/"+role || strings.HasPrefix(path, "/"+role+"/") {
			return role
		}
	}
	return ""
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (authz.Principal, bool) {
	p, ok := ctx.Value(principalKey).(authz.Principal)
	return p, ok
}

// WithPrincipal injects a principal into the context. Exported for handler
// tests that bypass the middleware.
func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
