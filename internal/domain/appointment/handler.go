package appointment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careportal/careportal/internal/platform/authz"
	"github.com/careportal/careportal/internal/platform/errs"
	"github.com/careportal/careportal/internal/platform/gate"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/patient/appointments", h.Create)
	e.GET("/patient/appointments", h.ListForPatient)
	e.GET("/patient/appointments/:id", h.Get)
	e.PUT("/patient/appointments/:id/cancel", h.Cancel)

	e.GET("/doctor/appointments", h.ListForDoctor)
	e.GET("/doctor/appointments/:id", h.Get)
	e.PUT("/doctor/appointments/:id/status", h.Transition)
	e.POST("/doctor/appointments/:id/complete", h.Complete)
}

func (h *Handler) Create(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	a, err := h.svc.Create(c.Request().Context(), principal, req)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), principal, id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.TransitionStatus(c.Request().Context(), principal, id, StatusCancelled)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) Transition(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	a, err := h.svc.TransitionStatus(c.Request().Context(), principal, id, req.Status)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Complete(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req CompletionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, rx, err := h.svc.CompleteWithPrescription(c.Request().Context(), principal, id, req)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"appointment":  a,
		"prescription": rx,
	})
}

func (h *Handler) ListForPatient(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	out, err := h.svc.ListForPatient(c.Request().Context(), principal)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	out, err := h.svc.ListForDoctor(c.Request().Context(), principal)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

func requirePrincipal(c echo.Context) (authz.Principal, error) {
	principal, ok := gate.PrincipalFromContext(c.Request().Context())
	if !ok {
		return authz.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return principal, nil
}
