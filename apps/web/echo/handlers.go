package echoweb

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core/admin"
	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	"github.com/RTBS-ISP/UniPlus-sub000/core/notification"
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
)

// handlers builds the per-request services on top of the request's API connection.
type handlers struct {
	validate   *validator.Validate
	translator ut.Translator
	pageSize   int
}

func (h *handlers) conn(ctx echo.Context) (Conn, error) {
	conn, err := getConn(ctx)
	if err != nil {
		return Conn{}, errors.Wrap(err, "getting API connection")
	}
	return conn, nil
}

func (h *handlers) session(ctx echo.Context) (*user.Session, error) {
	conn, err := h.conn(ctx)
	if err != nil {
		return nil, err
	}
	return user.NewSession(conn.Users, h.validate, h.translator), nil
}

func (h *handlers) events(ctx echo.Context) (*event.Service, error) {
	conn, err := h.conn(ctx)
	if err != nil {
		return nil, err
	}
	return event.NewService(conn.Events, h.validate, h.translator), nil
}

// dashboard returns the loaded dashboard of the `:id` event.
func (h *handlers) dashboard(ctx echo.Context) (*dashboard.Dashboard, error) {
	conn, err := h.conn(ctx)
	if err != nil {
		return nil, err
	}
	d := dashboard.New(ctx.Param("id"), conn.Dashboard, getAlerts(ctx))
	if err := d.Load(ctx.Request().Context()); err != nil {
		return nil, err
	}
	return d, nil
}

// inbox returns the notification service with the inbox loaded.
func (h *handlers) inbox(ctx echo.Context) (*notification.Service, error) {
	conn, err := h.conn(ctx)
	if err != nil {
		return nil, err
	}
	svc := notification.NewService(conn.Notifications, getAlerts(ctx))
	if _, err := svc.Refresh(ctx.Request().Context()); err != nil {
		return nil, err
	}
	return svc, nil
}

// admin returns the admin service of the current user.
func (h *handlers) admin(ctx echo.Context) (*admin.Service, error) {
	conn, err := h.conn(ctx)
	if err != nil {
		return nil, err
	}
	session := user.NewSession(conn.Users, h.validate, h.translator)
	if _, err := session.Refresh(ctx.Request().Context()); err != nil {
		return nil, err
	}
	return admin.NewService(conn.Admin, session, getAlerts(ctx)), nil
}

// bind decodes the request body into data; malformed bodies are bad requests.
func bind(ctx echo.Context, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		return errHttpBadRequest.WithInternal(err)
	}
	return nil
}
