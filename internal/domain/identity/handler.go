package identity

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/careportal/careportal/internal/platform/authz"
	"github.com/careportal/careportal/internal/platform/errs"
	"github.com/careportal/careportal/internal/platform/gate"
	"github.com/careportal/careportal/internal/platform/session"
)

type Handler struct {
	svc        *Service
	secret     []byte
	sessionTTL time.Duration
}

func NewHandler(svc *Service, secret []byte, sessionTTL time.Duration) *Handler {
	return &Handler{svc: svc, secret: secret, sessionTTL: sessionTTL}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/signup", h.SignUp)
	e.POST("/login", h.Login)
	e.POST("/logout", h.Logout)

	for _, role := range []string{authz.RolePatient, authz.RoleDoctor, authz.RolePharmacist} {
		e.GET("/"+role, h.Dashboard)
		e.GET("/"+role+"/profile", h.GetProfile)
		e.PUT("/"+role+"/profile", h.UpdateProfile)
	}
	e.PUT("/doctor/schedule", h.UpdateSchedule)
	e.GET("/patient/doctors", h.ListDoctors)
}

func (h *Handler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	account, err := h.svc.SignUp(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, account)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}

	token, principal, err := h.svc.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}

	signed, err := session.SignCookie(h.secret, token, h.sessionTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not issue session")
	}
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  time.Now().Add(h.sessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, map[string]string{"role": principal.Role})
}

func (h *Handler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if token, err := session.ParseCookie(h.secret, cookie.Value); err == nil {
			if err := h.svc.SignOut(c.Request().Context(), token); err != nil {
				return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
			}
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.Redirect(http.StatusFound, "/login")
}

// Dashboard returns the landing payload for the caller's role root.
func (h *Handler) Dashboard(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	profile, err := h.svc.GetProfile(c.Request().Context(), principal, principal.AccountID)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) GetProfile(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	profile, err := h.svc.GetProfile(c.Request().Context(), principal, principal.AccountID)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var upd ProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&upd); err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	profile, err := h.svc.UpdateProfile(c.Request().Context(), principal, principal.AccountID, upd)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateSchedule(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var upd ScheduleUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	schedule, err := h.svc.UpdateSchedule(c.Request().Context(), principal, upd)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, schedule)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	doctors, err := h.svc.ListAcceptingDoctors(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, doctors)
}

// requirePrincipal fetches the gate-attached caller. The gate redirects
// unauthenticated page loads, so a missing principal here means a direct
// API call without a session.
func requirePrincipal(c echo.Context) (authz.Principal, error) {
	principal, ok := gate.PrincipalFromContext(c.Request().Context())
	if !ok {
		return authz.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return principal, nil
}
