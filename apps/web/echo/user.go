package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
)

func registerUserAPI(g *echo.Group, h *handlers) {
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.GET("/me", h.me)
}

func (h *handlers) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := bind(ctx, &creds); err != nil {
		return err
	}
	session, err := h.session(ctx)
	if err != nil {
		return err
	}
	usr, err := session.Login(ctx.Request().Context(), creds)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (h *handlers) logout(ctx echo.Context) error {
	session, err := h.session(ctx)
	if err != nil {
		return err
	}
	if err := session.Logout(ctx.Request().Context()); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (h *handlers) me(ctx echo.Context) error {
	session, err := h.session(ctx)
	if err != nil {
		return err
	}
	usr, err := session.Refresh(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}
