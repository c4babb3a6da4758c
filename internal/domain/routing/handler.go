package routing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medroute/medroute/internal/domain/zipgeo"
	"github.com/medroute/medroute/internal/platform/auth"
	"github.com/medroute/medroute/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	group := api.Group("", auth.RequireRole("admin", "coordinator", "intake"))
	group.POST("/routing/resolve", h.Resolve)
	group.GET("/routing/decisions", h.ListDecisions)
	group.GET("/routing/decisions/:id", h.GetDecision)
}

type resolveRequest struct {
	Zip    string     `json:"zip"`
	LeadID *uuid.UUID `json:"lead_id,omitempty"`
}

func (h *Handler) Resolve(c echo.Context) error {
	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.Route(c.Request().Context(), req.Zip, req.LeadID)
	if err != nil {
		if errors.Is(err, zipgeo.ErrInvalidZip) || req.Zip == "" {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetDecision(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDecision(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "routing decision not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDecisions(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, k := range []string{"outcome", "reason", "zip", "lead"} {
		if v := c.QueryParam(k); v != "" {
			params[k] = v
		}
	}
	items, total, err := h.svc.ListDecisions(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
