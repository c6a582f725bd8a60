package echoweb

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	"github.com/RTBS-ISP/UniPlus-sub000/core/notification"
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
)

var (
	errHttpBadRequest = echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	errHttpBadGateway = echo.NewHTTPError(http.StatusBadGateway, "the UniPlus API is unavailable")
)

// sentinelCodes maps the domain errors to their HTTP status.
var sentinelCodes = map[error]int{
	user.ErrNotLoggedIn:             http.StatusUnauthorized,
	user.ErrForbidden:               http.StatusForbidden,
	event.ErrNotFound:               http.StatusNotFound,
	event.ErrAlreadyRegistered:      http.StatusConflict,
	dashboard.ErrAttendeeNotFound:   http.StatusNotFound,
	dashboard.ErrNotApproved:        http.StatusConflict,
	dashboard.ErrNothingToProcess:   http.StatusUnprocessableEntity,
	dashboard.ErrNoDateSelected:     http.StatusUnprocessableEntity,
	dashboard.ErrUnknownDate:        http.StatusBadRequest,
	notification.ErrNothingSelected: http.StatusUnprocessableEntity,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Error()
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if len(origErr.Fields) > 0 {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.APIError:
			// relay client errors, hide server ones
			if origErr.StatusCode >= http.StatusInternalServerError {
				code = errHttpBadGateway.Code
				message = errHttpBadGateway.Message
				logger.Error("API error", err, requestExtras(ctx))
				break
			}
			code = origErr.StatusCode
			message = origErr.Error()
		default:
			if c, ok := sentinelCodes[cause]; ok {
				code = c
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), requestExtras(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m, "alerts": getAlerts(ctx).Drain()}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func requestExtras(ctx echo.Context) map[string]interface{} {
	return map[string]interface{}{
		"request_id": ctx.Response().Header().Get(echo.HeaderXRequestID),
		"route":      ctx.Path(),
		"method":     ctx.Request().Method,
	}
}
