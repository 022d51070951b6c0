package prescription

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careportal/careportal/internal/platform/authz"
	"github.com/careportal/careportal/internal/platform/errs"
	"github.com/careportal/careportal/internal/platform/gate"
	"github.com/careportal/careportal/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/patient/prescriptions", h.ListForPatient)
	e.GET("/patient/prescriptions/:id", h.Get)
	e.GET("/doctor/prescriptions", h.ListForDoctor)
	e.GET("/doctor/prescriptions/:id", h.Get)
	e.GET("/pharmacist/prescriptions", h.ListAll)
	e.GET("/pharmacist/prescriptions/:id", h.Get)
	e.PUT("/pharmacist/prescriptions/:id/filled", h.SetFilled)
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
	p, err := h.svc.Get(c.Request().Context(), principal, id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
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

func (h *Handler) ListAll(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	out, total, err := h.svc.ListAll(c.Request().Context(), principal, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(out, total, pg.Limit, pg.Offset))
}

type setFilledRequest struct {
	Filled bool `json:"filled"`
}

func (h *Handler) SetFilled(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req setFilledRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.SetFilled(c.Request().Context(), principal, id, req.Filled)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func requirePrincipal(c echo.Context) (authz.Principal, error) {
	principal, ok := gate.PrincipalFromContext(c.Request().Context())
	if !ok {
		return authz.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return principal, nil
}
