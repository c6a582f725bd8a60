package admin

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func ParseDecision(s string) (Decision, bool) {
	switch Decision(core.CleanString(s, true /* lower */)) {
	case DecisionApprove:
		return DecisionApprove, true
	case DecisionReject:
		return DecisionReject, true
	}
	return "", false
}

var ErrReasonRequired = errors.New("a reason is required to reject an event")

type (
	Repository interface {
		// PendingEvents lists the events awaiting moderation.
		PendingEvents(ctx context.Context) ([]event.Event, error)
		Decide(ctx context.Context, eventID string, decision Decision, reason string) error
	}

	Service struct {
		repo    Repository
		session *user.Session
		alerts  *core.Alerts
	}
)

func NewService(repo Repository, session *user.Session, alerts *core.Alerts) *Service {
	if alerts == nil {
		alerts = core.NewAlerts(nil)
	}
	return &Service{repo: repo, session: session, alerts: alerts}
}

func (svc *Service) Pending(ctx context.Context) ([]event.Event, error) {
	if _, err := svc.session.RequireAdmin(); err != nil {
		return nil, err
	}
	events, err := svc.repo.PendingEvents(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing pending events")
	}
	return event.SortEvents(events, event.SortRecent), nil
}

// Decide approves or rejects an event; a rejection must be explained.
func (svc *Service) Decide(ctx context.Context, eventID string, decision Decision, reason string) error {
	if _, err := svc.session.RequireAdmin(); err != nil {
		return err
	}
	reason = core.CleanString(reason)
	if decision == DecisionReject && reason == "" {
		return core.NewValidationError(ErrReasonRequired, core.FieldError{Field: "reason", Error: ErrReasonRequired.Error()})
	}
	if err := svc.repo.Decide(ctx, eventID, decision, reason); err != nil {
		svc.alerts.Error("Failed to %s event %s: %v", decision, eventID, err)
		return pkgerrors.Wrapf(err, "%s event %s", decision, eventID)
	}
	if decision == DecisionApprove {
		svc.alerts.Success("Event %s approved", eventID)
	} else {
		svc.alerts.Success("Event %s rejected", eventID)
	}
	return nil
}
