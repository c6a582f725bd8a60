package echoweb

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
)

func registerEventAPI(g *echo.Group, h *handlers) {
	eg := g.Group("/events")
	eg.GET("", h.browse)
	eg.POST("", h.createEvent)
	eg.GET("/:id", h.eventDetail)
	eg.POST("/:id/register", h.register)
	eg.GET("/tickets", h.tickets)
	eg.GET("/:id/comments", h.comments)
	eg.POST("/:id/comments", h.addComment)
	eg.POST("/:id/ratings", h.rate)
}

// bindQuery reads the events query from the URL: q, category, host, location,
// date_from, date_to, sort, page and page_size.
func (h *handlers) bindQuery(ctx echo.Context) (event.Query, error) {
	var (
		text, sortKey string
		f             event.Filter
		page          = 1
		size          = h.pageSize
	)
	err := echo.QueryParamsBinder(ctx).
		String("q", &text).
		String("category", &f.Category).
		String("host", &f.Host).
		String("location", &f.Location).
		String("date_from", &f.DateFrom).
		String("date_to", &f.DateTo).
		String("sort", &sortKey).
		Int("page", &page).
		Int("page_size", &size).
		BindError()
	if err != nil {
		return event.Query{}, errHttpBadRequest.WithInternal(err)
	}

	state := event.NewQueryState(size)
	state.SetText(text)
	state.SetFilter(f)
	state.SetSort(event.ParseSortKey(sortKey))
	state.SetPage(page)
	return state.Query(), nil
}

func (h *handlers) browse(ctx echo.Context) error {
	q, err := h.bindQuery(ctx)
	if err != nil {
		return err
	}
	svc, err := h.events(ctx)
	if err != nil {
		return err
	}
	page, err := svc.Browse(ctx.Request().Context(), q)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (h *handlers) eventDetail(ctx echo.Context) error {
	svc, err := h.events(ctx)
	if err != nil {
		return err
	}
	d, err := svc.Detail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d)
}

func (h *handlers) register(ctx echo.Context) error {
	svc, err := h.events(ctx)
	if err != nil {
		return err
	}
	t, err := svc.Register(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	getAlerts(ctx).Success("Registered for the event, your registration is %s", t.ApprovalStatus)
	return respondAction(ctx, http.StatusCreated, t)
}

func (h *handlers) tickets(ctx echo.Context) error {
	svc, err := h.events(ctx)
	if err != nil {
		return err
	}
	ts, err := svc.Tickets(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ts)
}

func (h *handlers) comments(ctx echo.Context) error {
	svc, err := h.events(ctx)
	if err != nil {
		return err
	}
	cs, err := svc.Comments(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cs)
}

func (h *handlers) addComment(ctx echo.Context) error {
	var nc event.NewComment
	if err := bind(ctx, &nc); err != nil {
		return err
	}
	svc, err := h.events(ctx)
	if err != nil {
		return err
	}
	c, err := svc.AddComment(ctx.Request().Context(), ctx.Param("id"), nc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (h *handlers) rate(ctx echo.Context) error {
	var nr event.NewRating
	if err := bind(ctx, &nr); err != nil {
		return err
	}
	svc, err := h.events(ctx)
	if err != nil {
		return err
	}
	if err := svc.Rate(ctx.Request().Context(), ctx.Param("id"), nr); err != nil {
		return err
	}
	getAlerts(ctx).Success("Thanks for rating!")
	return respondAction(ctx, http.StatusCreated, nil)
}

// createEvent reads a multipart form: title, excerpt, description, category,
// capacity, audience (JSON), schedule (JSON) and an optional image file.
func (h *handlers) createEvent(ctx echo.Context) error {
	ne := event.NewEvent{
		Title:       ctx.FormValue("title"),
		Excerpt:     ctx.FormValue("excerpt"),
		Description: ctx.FormValue("description"),
		Category:    ctx.FormValue("category"),
	}
	if v := ctx.FormValue("capacity"); v != "" {
		capacity, err := strconv.Atoi(v)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "capacity", Error: "capacity must be a number"})
		}
		ne.Capacity = capacity
	}
	for field, dst := range map[string]interface{}{"audience": &ne.Audience, "schedule": &ne.Schedule} {
		v := ctx.FormValue(field)
		if v == "" {
			continue
		}
		if err := json.Unmarshal([]byte(v), dst); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: field, Error: field + " must be valid JSON"})
		}
	}

	var img *event.Image
	if fh, err := ctx.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded image")
		}
		defer f.Close()
		img = &event.Image{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Content:     f,
		}
	} else if err != http.ErrMissingFile {
		return errHttpBadRequest.WithInternal(err)
	}

	svc, err := h.events(ctx)
	if err != nil {
		return err
	}
	created, err := svc.Create(ctx.Request().Context(), ne, img)
	if err != nil {
		return err
	}
	getAlerts(ctx).Success("Event submitted, it will be published once approved")
	return respondAction(ctx, http.StatusCreated, created)
}
