package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerNotificationAPI(g *echo.Group, h *handlers) {
	ng := g.Group("/notifications")
	ng.GET("", h.notifications)
	ng.POST("/mark-read", h.markRead)
	ng.POST("/mark-all-read", h.markAllRead)
	ng.DELETE("/:id", h.deleteNotification)
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

func (h *handlers) notifications(ctx echo.Context) error {
	svc, err := h.inbox(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, svc.Inbox())
}

func (h *handlers) markRead(ctx echo.Context) error {
	var req markReadRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	svc, err := h.inbox(ctx)
	if err != nil {
		return err
	}
	if err := svc.MarkRead(ctx.Request().Context(), req.IDs...); err != nil {
		return err
	}
	return respondAction(ctx, http.StatusOK, svc.Inbox())
}

func (h *handlers) markAllRead(ctx echo.Context) error {
	svc, err := h.inbox(ctx)
	if err != nil {
		return err
	}
	if err := svc.MarkAllRead(ctx.Request().Context()); err != nil {
		return err
	}
	return respondAction(ctx, http.StatusOK, svc.Inbox())
}

func (h *handlers) deleteNotification(ctx echo.Context) error {
	svc, err := h.inbox(ctx)
	if err != nil {
		return err
	}
	if err := svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return respondAction(ctx, http.StatusOK, svc.Inbox())
}
