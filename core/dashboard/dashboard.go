package dashboard

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNoDateSelected    = errors.New("no schedule date selected")
	ErrNotApproved       = errors.New("registration is not approved")
	ErrNothingToProcess  = errors.New("no pending registration selected")
	ErrAttendeeNotFound  = errors.New("attendee not found")
	ErrUnknownDate       = errors.New("date is not part of the event schedule")
	ErrDashboardNotReady = errors.New("dashboard not loaded")
)

type Repository interface {
	Snapshot(ctx context.Context, eventID string) (Snapshot, error)
	Decide(ctx context.Context, eventID, ticketID string, action Action) error
	BulkDecide(ctx context.Context, eventID string, ticketIDs []string, action Action) (BulkResult, error)
	CheckIn(ctx context.Context, eventID, ticketID, date string) (CheckInResult, error)
}

// Dashboard is the organizer's view-model of one event: its attendees, the
// selected view, date, filters and selection. Every action patches the local
// state, calls the API once and then reloads the canonical state.
type Dashboard struct {
	eventID string
	repo    Repository
	alerts  *core.Alerts

	mu         sync.Mutex
	snap       Snapshot
	loaded     bool
	view       View
	date       string
	status     string
	search     string
	selection  map[string]bool
	busy       int
	loadSeq    uint64
	appliedSeq uint64
}

func New(eventID string, repo Repository, alerts *core.Alerts) *Dashboard {
	if alerts == nil {
		alerts = core.NewAlerts(nil)
	}
	return &Dashboard{
		eventID:   eventID,
		repo:      repo,
		alerts:    alerts,
		view:      ViewApproval,
		selection: make(map[string]bool),
	}
}

func (d *Dashboard) EventID() string      { return d.eventID }
func (d *Dashboard) Alerts() *core.Alerts { return d.alerts }

// Load fetches the canonical state. The selected date survives a reload when it
// is still part of the schedule; otherwise the first schedule date is selected.
// A response older than the last applied one is discarded.
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	d.loadSeq++
	seq := d.loadSeq
	d.mu.Unlock()

	snap, err := d.repo.Snapshot(ctx, d.eventID)
	if err != nil {
		return pkgerrors.Wrap(err, "loading dashboard")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq < d.appliedSeq {
		return nil
	}
	d.appliedSeq = seq
	d.snap = snap
	d.loaded = true

	dates := event.ScheduleDates(snap.Schedule)
	if !containsString(dates, d.date) {
		d.date = ""
		if len(dates) > 0 {
			d.date = dates[0]
		}
	}
	for id := range d.selection {
		if _, ok := d.find(id); !ok {
			delete(d.selection, id)
		}
	}
	return nil
}

// find must be called with d.mu held.
func (d *Dashboard) find(ticketID string) (int, bool) {
	for i, a := range d.snap.Attendees {
		if a.TicketID == ticketID {
			return i, true
		}
	}
	return -1, false
}

func (d *Dashboard) attendee(ticketID string) (Attendee, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := d.find(ticketID)
	if !ok {
		return Attendee{}, false
	}
	return d.snap.Attendees[i].clone(), true
}

func (d *Dashboard) patch(ticketID string, fn func(a *Attendee)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i, ok := d.find(ticketID); ok {
		a := d.snap.Attendees[i].clone()
		fn(&a)
		d.snap.Attendees[i] = a
	}
}

func (d *Dashboard) setBusy(busy bool) {
	d.mu.Lock()
	if busy {
		d.busy++
	} else if d.busy > 0 {
		d.busy--
	}
	d.mu.Unlock()
}

func (d *Dashboard) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy > 0
}

// ApproveReject flips the approval status locally, sends the decision and reloads.
func (d *Dashboard) ApproveReject(ctx context.Context, ticketID string, action Action) error {
	a, ok := d.attendee(ticketID)
	if !ok {
		d.alerts.Warning("Registration %s not found", ticketID)
		return ErrAttendeeNotFound
	}

	d.setBusy(true)
	defer d.setBusy(false)

	var remoteErr error
	err := core.Reconcile(ctx,
		func() { d.patch(ticketID, func(a *Attendee) { a.ApprovalStatus = action.status() }) },
		func(ctx context.Context) error {
			remoteErr = d.repo.Decide(ctx, d.eventID, ticketID, action)
			return remoteErr
		},
		d.Load,
	)
	if remoteErr != nil {
		d.alerts.Error("Failed to %s %s: %v", action, a.Name, remoteErr)
		return pkgerrors.Wrapf(remoteErr, "%s registration %s", action, ticketID)
	}
	d.alerts.Success("Registration of %s %s", a.Name, action.pastTense())
	if err != nil {
		d.alerts.Error("Failed to refresh the dashboard: %v", err)
		return err
	}
	return nil
}

// BulkAct applies action to the selected registrations that are still pending.
// When none qualifies nothing is sent and ErrNothingToProcess is returned.
func (d *Dashboard) BulkAct(ctx context.Context, action Action) (BulkResult, error) {
	d.mu.Lock()
	eligible := make([]string, 0, len(d.selection))
	var skipped int
	for id := range d.selection {
		if i, ok := d.find(id); ok && d.snap.Attendees[i].ApprovalStatus == ApprovalPending {
			eligible = append(eligible, id)
		} else {
			skipped++
		}
	}
	d.mu.Unlock()
	sort.Strings(eligible)

	if len(eligible) == 0 {
		d.alerts.Warning("No pending registrations selected; nothing to %s (%d skipped)", action, skipped)
		return BulkResult{Skipped: skipped}, ErrNothingToProcess
	}

	d.setBusy(true)
	defer d.setBusy(false)

	var res BulkResult
	var remoteErr error
	err := core.Reconcile(ctx,
		nil,
		func(ctx context.Context) error {
			res, remoteErr = d.repo.BulkDecide(ctx, d.eventID, eligible, action)
			return remoteErr
		},
		d.Load,
	)
	if remoteErr != nil {
		d.alerts.Error("Bulk %s failed: %v", action, remoteErr)
		return BulkResult{Skipped: skipped}, pkgerrors.Wrapf(remoteErr, "bulk %s", action)
	}
	res.Skipped += skipped
	d.ClearSelection()
	d.alerts.Success("%d registration(s) %s, %d skipped", res.Processed, action.pastTense(), res.Skipped)
	if err != nil {
		d.alerts.Error("Failed to refresh the dashboard: %v", err)
		return res, err
	}
	return res, nil
}

// CheckIn records the attendance of an approved registration on the selected date.
func (d *Dashboard) CheckIn(ctx context.Context, ticketID string) (CheckInResult, error) {
	date := d.SelectedDate()
	if date == "" {
		d.alerts.Warning("Select a schedule date before checking in")
		return CheckInResult{}, ErrNoDateSelected
	}
	a, ok := d.attendee(ticketID)
	if !ok {
		d.alerts.Warning("Ticket %s not found for this event", ticketID)
		return CheckInResult{}, ErrAttendeeNotFound
	}
	if a.ApprovalStatus != ApprovalApproved {
		d.alerts.Warning("%s cannot be checked in: registration is %s", a.Name, a.ApprovalStatus)
		return CheckInResult{}, ErrNotApproved
	}

	d.setBusy(true)
	defer d.setBusy(false)

	now := nowFunc().UTC()
	var res CheckInResult
	var remoteErr error
	err := core.Reconcile(ctx,
		func() {
			d.patch(ticketID, func(a *Attendee) {
				if _, done := a.CheckedInDates[date]; !done {
					a.CheckedInDates[date] = now
				}
			})
		},
		func(ctx context.Context) error {
			res, remoteErr = d.repo.CheckIn(ctx, d.eventID, ticketID, date)
			return remoteErr
		},
		d.Load,
	)
	if remoteErr != nil {
		d.alerts.Error("Check-in failed for %s: %v", a.Name, remoteErr)
		return CheckInResult{}, pkgerrors.Wrapf(remoteErr, "checking in %s", ticketID)
	}
	if res.AlreadyCheckedIn {
		d.alerts.Info("%s was already checked in on %s", a.Name, date)
	} else {
		d.alerts.Success("%s checked in for %s", a.Name, date)
	}
	if err != nil {
		d.alerts.Error("Failed to refresh the dashboard: %v", err)
		return res, err
	}
	return res, nil
}

// CheckInQR checks in the ticket encoded by a scanned QR payload.
func (d *Dashboard) CheckInQR(ctx context.Context, payload string) (CheckInResult, error) {
	ticketID, err := ParseTicketQR(payload)
	if err != nil {
		d.alerts.Warning("Unreadable QR code: %v", err)
		return CheckInResult{}, err
	}
	return d.CheckIn(ctx, ticketID)
}

// View state

// SetView switches between approval and attendance; filter and selection are reset.
func (d *Dashboard) SetView(v View) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.view != v {
		d.status = ""
		d.selection = make(map[string]bool)
	}
	d.view = v
}

func (d *Dashboard) SelectDate(date string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	date = core.DatePart(date)
	if !containsString(event.ScheduleDates(d.snap.Schedule), date) {
		return ErrUnknownDate
	}
	d.date = date
	return nil
}

func (d *Dashboard) SelectedDate() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.date
}

// SetStatusFilter filters rows on their displayed status; "" or "all" disables it.
func (d *Dashboard) SetStatusFilter(status string) {
	status = core.CleanString(status, true /* lower */)
	if status == "all" {
		status = ""
	}
	d.mu.Lock()
	d.status = status
	d.mu.Unlock()
}

func (d *Dashboard) SetSearch(search string) {
	d.mu.Lock()
	d.search = core.CleanString(search)
	d.mu.Unlock()
}

// Toggle adds or removes a ticket from the selection and reports whether it is now selected.
func (d *Dashboard) Toggle(ticketID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selection[ticketID] {
		delete(d.selection, ticketID)
		return false
	}
	if _, ok := d.find(ticketID); !ok {
		return false
	}
	d.selection[ticketID] = true
	return true
}

func (d *Dashboard) Select(ticketIDs ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ticketIDs {
		if _, ok := d.find(id); ok {
			d.selection[id] = true
		}
	}
}

// SelectAllVisible selects every row of the current view.
func (d *Dashboard) SelectAllVisible() {
	rows := d.VisibleAttendees()
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.TicketID)
	}
	d.Select(ids...)
}

func (d *Dashboard) ClearSelection() {
	d.mu.Lock()
	d.selection = make(map[string]bool)
	d.mu.Unlock()
}

func (d *Dashboard) Selection() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selectionLocked()
}

func (d *Dashboard) selectionLocked() []string {
	ids := make([]string, 0, len(d.selection))
	for id := range d.selection {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// State is a rendering snapshot of the dashboard.
type State struct {
	Event        EventSummary `json:"event"`
	Dates        []string     `json:"dates"`
	SelectedDate string       `json:"selected_date"`
	View         View         `json:"view"`
	StatusFilter string       `json:"status_filter"`
	Search       string       `json:"search"`
	Stats        Stats        `json:"stats"`
	Rows         []Row        `json:"rows"`
	Selection    []string     `json:"selection"`
	Busy         bool         `json:"busy"`
}

func (d *Dashboard) State() (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loaded {
		return State{}, ErrDashboardNotReady
	}
	return State{
		Event:        d.snap.Event,
		Dates:        event.ScheduleDates(d.snap.Schedule),
		SelectedDate: d.date,
		View:         d.view,
		StatusFilter: d.status,
		Search:       d.search,
		Stats:        d.snap.Stats,
		Rows:         d.visibleLocked(),
		Selection:    d.selectionLocked(),
		Busy:         d.busy > 0,
	}, nil
}

func containsString(ss []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
