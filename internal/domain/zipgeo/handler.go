package zipgeo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medroute/medroute/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "coordinator", "intake"))
	readGroup.GET("/zipgeo/:zip", h.Get)

	writeGroup := api.Group("", auth.RequireRole("admin"))
	writeGroup.PUT("/zipgeo/:zip", h.Upsert)
	writeGroup.POST("/zipgeo/import", h.Import)
}

func (h *Handler) Get(c echo.Context) error {
	row, err := h.svc.Get(c.Request().Context(), c.Param("zip"))
	if err != nil {
		if errors.Is(err, ErrInvalidZip) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, ErrZipNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, row)
}

func (h *Handler) Upsert(c echo.Context) error {
	var z ZipGeo
	if err := c.Bind(&z); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	z.Zip = c.Param("zip")
	if err := h.svc.Upsert(c.Request().Context(), &z); err != nil {
		if errors.Is(err, ErrInvalidZip) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, z)
}

func (h *Handler) Import(c echo.Context) error {
	var rows []*ZipGeo
	if err := c.Bind(&rows); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	written, skipped, err := h.svc.ImportBatch(c.Request().Context(), rows)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{
		"written": written,
		"skipped": skipped,
	})
}
