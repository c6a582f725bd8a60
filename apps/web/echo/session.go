package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
)

const (
	ctxConnKey   = "conn"
	ctxAlertsKey = "alerts"
)

var errConnNotFoundInCtx = errors.New("API connection not found in echo.Context")

// sessionMiddleware opens the API connection of the request and relays the API
// session cookies to the browser. Cookies the API dropped are expired.
func sessionMiddleware(backend Backend) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			conn, err := backend.Connect(ctx.Request())
			if err != nil {
				return errors.Wrap(err, "opening API connection")
			}
			ctx.Set(ctxConnKey, conn)
			ctx.Set(ctxAlertsKey, core.NewAlerts(nil))

			sent := ctx.Request().Cookies()
			ctx.Response().Before(func() {
				relayCookies(ctx.Response(), sent, conn.Cookies())
			})
			return next(ctx)
		}
	}
}

// relayCookies sets the cookies that changed during the request.
func relayCookies(w http.ResponseWriter, sent, current []*http.Cookie) {
	sentValues := make(map[string]string, len(sent))
	for _, ck := range sent {
		sentValues[ck.Name] = ck.Value
	}
	kept := make(map[string]bool, len(current))
	for _, ck := range current {
		kept[ck.Name] = true
		value, wasSent := sentValues[ck.Name]
		if ck.MaxAge < 0 {
			if wasSent {
				http.SetCookie(w, &http.Cookie{Name: ck.Name, Value: "", Path: "/", MaxAge: -1})
			}
			continue
		}
		if wasSent && value == ck.Value {
			continue
		}
		http.SetCookie(w, &http.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Path:     "/",
			Expires:  ck.Expires,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	for _, ck := range sent {
		if !kept[ck.Name] {
			http.SetCookie(w, &http.Cookie{Name: ck.Name, Value: "", Path: "/", MaxAge: -1})
		}
	}
}

func getConn(ctx echo.Context) (Conn, error) {
	conn, ok := ctx.Get(ctxConnKey).(Conn)
	if !ok {
		return Conn{}, errConnNotFoundInCtx
	}
	return conn, nil
}

func getAlerts(ctx echo.Context) *core.Alerts {
	if alerts, ok := ctx.Get(ctxAlertsKey).(*core.Alerts); ok {
		return alerts
	}
	return core.NewAlerts(nil)
}

// actionResponse is the answer of a mutation: the outcome alerts and the refreshed view.
type actionResponse struct {
	Alerts []core.Alert `json:"alerts"`
	Data   interface{}  `json:"data,omitempty"`
}

func respondAction(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, actionResponse{Alerts: getAlerts(ctx).Drain(), Data: data})
}
