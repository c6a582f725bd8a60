package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/admin"
)

func registerAdminAPI(g *echo.Group, h *handlers) {
	ag := g.Group("/admin")
	ag.GET("/events", h.pendingEvents)
	ag.POST("/events/:id/:decision", h.decideEvent)
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

func (h *handlers) pendingEvents(ctx echo.Context) error {
	svc, err := h.admin(ctx)
	if err != nil {
		return err
	}
	events, err := svc.Pending(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, events)
}

func (h *handlers) decideEvent(ctx echo.Context) error {
	decision, ok := admin.ParseDecision(ctx.Param("decision"))
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "decision", Error: "decision must be approve or reject"})
	}
	var req decisionRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	svc, err := h.admin(ctx)
	if err != nil {
		return err
	}
	if err := svc.Decide(ctx.Request().Context(), ctx.Param("id"), decision, req.Reason); err != nil {
		return err
	}
	return respondAction(ctx, http.StatusOK, nil)
}
