package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
)

func registerDashboardAPI(g *echo.Group, h *handlers) {
	eg := g.Group("/events/:id")
	eg.GET("/dashboard", h.dashboardState)
	eg.POST("/registrations/bulk-action", h.bulkAction)
	eg.POST("/registrations/:ticketId/:action", h.decideRegistration)
	eg.POST("/checkin", h.checkIn)
}

// viewParams are the dashboard view settings carried by every dashboard request.
type viewParams struct {
	View   string `query:"view"`
	Date   string `query:"date"`
	Status string `query:"status"`
	Search string `query:"search"`
}

type bulkActionRequest struct {
	Action    string   `json:"action"`
	TicketIDs []string `json:"ticket_ids"`
}

type checkInRequest struct {
	Date     string `json:"date"`
	TicketID string `json:"ticket_id"`
	QR       string `json:"qr"`
}

type checkInResponse struct {
	Result dashboard.CheckInResult `json:"result"`
	State  dashboard.State         `json:"state"`
}

type bulkActionResponse struct {
	Result dashboard.BulkResult `json:"result"`
	State  dashboard.State      `json:"state"`
}

// loadDashboard loads the `:id` dashboard and applies the view settings of the query string.
func (h *handlers) loadDashboard(ctx echo.Context) (*dashboard.Dashboard, error) {
	var p viewParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &p); err != nil {
		return nil, errHttpBadRequest.WithInternal(err)
	}
	d, err := h.dashboard(ctx)
	if err != nil {
		return nil, err
	}
	d.SetView(dashboard.ParseView(p.View))
	if p.Date != "" {
		if err := d.SelectDate(p.Date); err != nil {
			return nil, err
		}
	}
	d.SetStatusFilter(p.Status)
	d.SetSearch(p.Search)
	return d, nil
}

func (h *handlers) dashboardState(ctx echo.Context) error {
	d, err := h.loadDashboard(ctx)
	if err != nil {
		return err
	}
	state, err := d.State()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, state)
}

func parseAction(s string) (dashboard.Action, error) {
	action, ok := dashboard.ParseAction(s)
	if !ok {
		return "", core.NewValidationError(nil, core.FieldError{Field: "action", Error: "action must be approve or reject"})
	}
	return action, nil
}

func (h *handlers) decideRegistration(ctx echo.Context) error {
	action, err := parseAction(ctx.Param("action"))
	if err != nil {
		return err
	}
	d, err := h.loadDashboard(ctx)
	if err != nil {
		return err
	}
	if err := d.ApproveReject(ctx.Request().Context(), ctx.Param("ticketId"), action); err != nil {
		return err
	}
	state, err := d.State()
	if err != nil {
		return err
	}
	return respondAction(ctx, http.StatusOK, state)
}

func (h *handlers) bulkAction(ctx echo.Context) error {
	var req bulkActionRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	action, err := parseAction(req.Action)
	if err != nil {
		return err
	}
	if len(req.TicketIDs) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "ticket_ids", Error: "select at least one registration"})
	}
	d, err := h.loadDashboard(ctx)
	if err != nil {
		return err
	}
	d.Select(req.TicketIDs...)
	res, err := d.BulkAct(ctx.Request().Context(), action)
	if err != nil {
		return err
	}
	state, err := d.State()
	if err != nil {
		return err
	}
	return respondAction(ctx, http.StatusOK, bulkActionResponse{Result: res, State: state})
}

func (h *handlers) checkIn(ctx echo.Context) error {
	var req checkInRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}
	if (req.TicketID == "") == (req.QR == "") {
		return core.NewValidationError(nil, core.FieldError{Field: "ticket_id", Error: "provide either a ticket id or a QR payload"})
	}
	d, err := h.loadDashboard(ctx)
	if err != nil {
		return err
	}
	if req.Date != "" {
		if err := d.SelectDate(req.Date); err != nil {
			return err
		}
	}

	var res dashboard.CheckInResult
	if req.QR != "" {
		res, err = d.CheckInQR(ctx.Request().Context(), req.QR)
	} else {
		res, err = d.CheckIn(ctx.Request().Context(), req.TicketID)
	}
	if err != nil {
		return err
	}
	state, err := d.State()
	if err != nil {
		return err
	}
	return respondAction(ctx, http.StatusOK, checkInResponse{Result: res, State: state})
}
