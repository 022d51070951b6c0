package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careportal/careportal/internal/platform/authz"
	"github.com/careportal/careportal/internal/platform/errs"
	"github.com/careportal/careportal/internal/platform/session"
)

var testSecret = []byte("gate-test-secret")

type mockResolver struct {
	roles map[uuid.UUID]string
	fail  bool
}

func (m *mockResolver) ResolveRole(_ context.Context, accountID uuid.UUID) (string, error) {
	if m.fail {
		return "", errs.BackendUnavailable("profile fetch", errors.New("connection refused"))
	}
	role, ok := m.roles[accountID]
	if !ok {
		return "", errs.NotFound("profile")
	}
	return role, nil
}

type failingStore struct{}

func (failingStore) Create(context.Context, uuid.UUID, time.Duration) (string, error) {
	return "", errs.BackendUnavailable("session create", errors.New("down"))
}
func (failingStore) Lookup(context.Context, string) (uuid.UUID, error) {
	return uuid.Nil, errs.BackendUnavailable("session lookup", errors.New("down"))
}
func (failingStore) Revoke(context.Context, string) error { return nil }

type gateFixture struct {
	gate     *Gate
	sessions *session.MemoryStore
	resolver *mockResolver
}

func newFixture(failClosed bool) *gateFixture {
	sessions := session.NewMemoryStore()
	resolver := &mockResolver{roles: make(map[uuid.UUID]string)}
	g := New(sessions, resolver, testSecret, failClosed, zerolog.Nop())
	return &gateFixture{gate: g, sessions: sessions, resolver: resolver}
}

// login creates a session for a new account with the given role and returns
// the signed cookie value.
func (f *gateFixture) login(t *testing.T, role string) string {
	t.Helper()
	accountID := uuid.New()
	f.resolver.roles[accountID] = role
	token, err := f.sessions.Create(context.Background(), accountID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	signed, err := session.SignCookie(testSecret, token, time.Hour)
	if err != nil {
		t.Fatalf("sign cookie: %v", err)
	}
	return signed
}

func doRequest(g *Gate, path, cookie string) (*httptest.ResponseRecorder, *authz.Principal) {
	e := echo.New()
	var seen *authz.Principal
	handler := func(c echo.Context) error {
		if p, ok := PrincipalFromContext(c.Request().Context()); ok {
			seen = &p
		}
		return c.String(http.StatusOK, "page")
	}

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = g.Middleware()(handler)(c)
	return rec, seen
}

func TestGate_UnauthenticatedRoleScopedPathRedirectsToLogin(t *testing.T) {
	f := newFixture(false)
	for _, path := range []string{"/patient", "/doctor/appointments", "/pharmacist/prescriptions"} {
		rec, _ := doRequest(f.gate, path, "")
		if rec.Code != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("%s: expected redirect to /login, got %s", path, loc)
		}
	}
}

func TestGate_UnauthenticatedPublicPathPasses(t *testing.T) {
	f := newFixture(false)
	for _, path := range []string{"/", "/login", "/signup"} {
		rec, _ := doRequest(f.gate, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestGate_CrossRoleCourtesyRedirect(t *testing.T) {
	f := newFixture(false)
	cookie := f.login(t, authz.RolePatient)

	rec, _ := doRequest(f.gate, "/doctor/appointments", cookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/patient" {
		t.Errorf("expected redirect to /patient, got %s", loc)
	}
}

func TestGate_RoleNeutralPathRedirectsToRoleRoot(t *testing.T) {
	f := newFixture(false)
	cookie := f.login(t, authz.RoleDoctor)

	for _, path := range []string{"/", "/login"} {
		rec, _ := doRequest(f.gate, path, cookie)
		if rec.Code != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/doctor" {
			t.Errorf("%s: expected redirect to /doctor, got %s", path, loc)
		}
	}
}

func TestGate_MatchingRolePassesWithPrincipal(t *testing.T) {
	f := newFixture(false)
	cookie := f.login(t, authz.RolePharmacist)

	rec, principal := doRequest(f.gate, "/pharmacist/prescriptions", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if principal == nil {
		t.Fatal("expected principal in request context")
	}
	if principal.Role != authz.RolePharmacist {
		t.Errorf("expected role pharmacist, got %s", principal.Role)
	}
}

func TestGate_TamperedCookieTreatedAsAnonymous(t *testing.T) {
	f := newFixture(false)
	signed, _ := session.SignCookie([]byte("wrong-secret"), "tok", time.Hour)

	rec, _ := doRequest(f.gate, "/patient", signed)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
}

func TestGate_NoProfileTreatedAsUnauthenticated(t *testing.T) {
	f := newFixture(false)
	accountID := uuid.New() // no role registered for this account
	token, _ := f.sessions.Create(context.Background(), accountID, time.Hour)
	cookie, _ := session.SignCookie(testSecret, token, time.Hour)

	rec, _ := doRequest(f.gate, "/patient", cookie)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
}

func TestGate_BackendFailureFailsOpen(t *testing.T) {
	resolver := &mockResolver{roles: make(map[uuid.UUID]string)}
	g := New(failingStore{}, resolver, testSecret, false, zerolog.Nop())
	cookie, _ := session.SignCookie(testSecret, "tok", time.Hour)

	rec, _ := doRequest(g, "/patient/appointments", cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("fail-open gate should pass the request through, got %d", rec.Code)
	}
}

func TestGate_BackendFailureFailsClosedWhenConfigured(t *testing.T) {
	resolver := &mockResolver{roles: make(map[uuid.UUID]string)}
	g := New(failingStore{}, resolver, testSecret, true, zerolog.Nop())
	cookie, _ := session.SignCookie(testSecret, "tok", time.Hour)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patient", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := g.Middleware()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 HTTPError, got %v", err)
	}
}

func TestGate_ProfileLookupFailureFailsOpen(t *testing.T) {
	f := newFixture(false)
	cookie := f.login(t, authz.RolePatient)
	f.resolver.fail = true

	rec, _ := doRequest(f.gate, "/patient", cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("fail-open gate should pass the request through, got %d", rec.Code)
	}
}

func TestSkipPath(t *testing.T) {
	skipped := []string{"/healthz", "/favicon.ico", "/static/app.css", "/logo.png", "/bundle.js"}
	for _, path := range skipped {
		if !SkipPath(path) {
			t.Errorf("expected %s to be skipped", path)
		}
	}
	gated := []string{"/", "/login", "/patient", "/doctor/appointments"}
	for _, path := range gated {
		if SkipPath(path) {
			t.Errorf("expected %s to be gated", path)
		}
	}
}
