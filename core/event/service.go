package event

import (
	"context"
	"errors"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
)

var (
	// errors
	ErrNotFound          = errors.New("event not found")
	ErrAlreadyRegistered = errors.New("already registered for this event")
)

type (
	Repository interface {
		// ListEvents returns every published event; filtering happens client side.
		ListEvents(ctx context.Context) ([]Event, error)
		GetEvent(ctx context.Context, id string) (Detail, error)
		Register(ctx context.Context, id string) (Ticket, error)
		MyTickets(ctx context.Context) ([]Ticket, error)
		Comments(ctx context.Context, id string) ([]Comment, error)
		AddComment(ctx context.Context, id string, c NewComment) (Comment, error)
		Rate(ctx context.Context, id string, r NewRating) error
		CreateEvent(ctx context.Context, ne NewEvent, img *Image) (Created, error)
	}

	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{repo: repo, validate: validate, translator: translator}
}

// Browse fetches the events listing and runs the query pipeline over it.
func (svc *Service) Browse(ctx context.Context, q Query) (Page, error) {
	events, err := svc.repo.ListEvents(ctx)
	if err != nil {
		return Page{}, pkgerrors.Wrap(err, "listing events")
	}
	return Run(events, q), nil
}

// Detail fetches an event with its schedule grouped for display.
func (svc *Service) Detail(ctx context.Context, id string) (Detail, error) {
	d, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return Detail{}, pkgerrors.Wrapf(err, "getting event %s", id)
	}
	d.Groups = GroupSessions(d.Schedule)
	return d, nil
}

func (svc *Service) Register(ctx context.Context, id string) (Ticket, error) {
	t, err := svc.repo.Register(ctx, id)
	if err != nil {
		return Ticket{}, pkgerrors.Wrapf(err, "registering for event %s", id)
	}
	return t, nil
}

func (svc *Service) Tickets(ctx context.Context) ([]Ticket, error) {
	ts, err := svc.repo.MyTickets(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing tickets")
	}
	return ts, nil
}

func (svc *Service) Comments(ctx context.Context, id string) ([]Comment, error) {
	cs, err := svc.repo.Comments(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "listing comments of event %s", id)
	}
	return cs, nil
}

func (svc *Service) AddComment(ctx context.Context, id string, nc NewComment) (Comment, error) {
	nc.Content = core.CleanString(nc.Content)
	if err := svc.validate.Struct(nc); err != nil {
		return Comment{}, core.TranslateValidation(err, svc.translator)
	}
	c, err := svc.repo.AddComment(ctx, id, nc)
	if err != nil {
		return Comment{}, pkgerrors.Wrapf(err, "commenting event %s", id)
	}
	return c, nil
}

func (svc *Service) Rate(ctx context.Context, id string, nr NewRating) error {
	nr.Comment = core.CleanString(nr.Comment)
	if err := svc.validate.Struct(nr); err != nil {
		return core.TranslateValidation(err, svc.translator)
	}
	if err := svc.repo.Rate(ctx, id, nr); err != nil {
		return pkgerrors.Wrapf(err, "rating event %s", id)
	}
	return nil
}

// Create validates ne (and the optional image), encodes its audience into tags and submits it.
func (svc *Service) Create(ctx context.Context, ne NewEvent, img *Image) (Created, error) {
	ne.Title = core.CleanString(ne.Title)
	ne.Excerpt = core.CleanString(ne.Excerpt)
	ne.Description = core.CleanString(ne.Description)
	ne.Category = core.CleanString(ne.Category)
	for i := range ne.Schedule {
		ne.Schedule[i].Location = core.CleanString(ne.Schedule[i].Location)
	}

	var flds []core.FieldError
	if err := svc.validate.Struct(ne); err != nil {
		vErr, ok := core.TranslateValidation(err, svc.translator).(*core.ValidationError)
		if !ok {
			return Created{}, err
		}
		flds = append(flds, vErr.Fields...)
	}
	flds = append(flds, validateImage(img)...)

	tags, err := EncodeAudience(ne.Audience)
	if err != nil {
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			return Created{}, err
		}
		flds = append(flds, vErr.Fields...)
	}
	if len(flds) > 0 {
		return Created{}, core.NewValidationError(nil, flds...)
	}
	ne.EncodedTags = tags

	c, err := svc.repo.CreateEvent(ctx, ne, img)
	if err != nil {
		return Created{}, pkgerrors.Wrap(err, "creating event")
	}
	return c, nil
}
