package labreport

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
	e.GET("/patient/lab-reports", h.List)
	e.POST("/patient/lab-reports", h.Upload)
	e.GET("/patient/lab-reports/:id", h.Download)
	e.DELETE("/patient/lab-reports/:id", h.Delete)
}

func (h *Handler) Upload(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read the upload")
	}
	defer src.Close()

	lr, err := h.svc.Upload(c.Request().Context(), principal,
		fh.Filename, fh.Header.Get("Content-Type"), fh.Size, src)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, lr)
}

func (h *Handler) Download(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	lr, rc, err := h.svc.Download(c.Request().Context(), principal, id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+lr.FileName+`"`)
	return c.Stream(http.StatusOK, lr.ContentType, rc)
}

func (h *Handler) Delete(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), principal, id); err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	out, err := h.svc.List(c.Request().Context(), principal)
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
