package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
)

var checkInTime = time.Date(2025, 10, 1, 10, 5, 0, 0, time.UTC)

// fakeRepo serves a canonical snapshot and applies the actions to it.
type fakeRepo struct {
	mu        sync.Mutex
	snap      Snapshot
	remoteErr error
	calls     []string
	bulkSent  []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{snap: Snapshot{
		Event: EventSummary{ID: "1", Title: "Go Meetup"},
		Schedule: []event.Session{
			{Date: "2025-10-02", StartTime: "10:00", EndTime: "12:00"},
			{Date: "2025-10-01", StartTime: "10:00", EndTime: "12:00"},
		},
		Attendees: []Attendee{
			{TicketID: "T1", Name: "Ann Lee", Email: "ann@uni.test", ApprovalStatus: ApprovalPending, Status: StatusPending, CheckedInDates: map[string]time.Time{}},
			{TicketID: "T2", Name: "Bob Kim", Email: "bob@uni.test", ApprovalStatus: ApprovalApproved, Status: StatusPending, CheckedInDates: map[string]time.Time{}},
			{TicketID: "T3", Name: "Cid Roe", Email: "cid@uni.test", ApprovalStatus: ApprovalRejected, Status: StatusPending, CheckedInDates: map[string]time.Time{}},
		},
	}}
}

func (r *fakeRepo) record(call string) {
	r.calls = append(r.calls, call)
}

func (r *fakeRepo) Snapshot(context.Context, string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("snapshot")
	snap := r.snap
	snap.Attendees = make([]Attendee, len(r.snap.Attendees))
	for i, a := range r.snap.Attendees {
		snap.Attendees[i] = a.clone()
	}
	return snap, nil
}

func (r *fakeRepo) find(ticketID string) *Attendee {
	for i := range r.snap.Attendees {
		if r.snap.Attendees[i].TicketID == ticketID {
			return &r.snap.Attendees[i]
		}
	}
	return nil
}

func (r *fakeRepo) Decide(_ context.Context, _, ticketID string, action Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("decide")
	if r.remoteErr != nil {
		return r.remoteErr
	}
	r.find(ticketID).ApprovalStatus = action.status()
	return nil
}

func (r *fakeRepo) BulkDecide(_ context.Context, _ string, ticketIDs []string, action Action) (BulkResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("bulk")
	r.bulkSent = ticketIDs
	if r.remoteErr != nil {
		return BulkResult{}, r.remoteErr
	}
	for _, id := range ticketIDs {
		r.find(id).ApprovalStatus = action.status()
	}
	return BulkResult{Processed: len(ticketIDs)}, nil
}

func (r *fakeRepo) CheckIn(_ context.Context, _, ticketID, date string) (CheckInResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("checkin")
	if r.remoteErr != nil {
		return CheckInResult{}, r.remoteErr
	}
	a := r.find(ticketID)
	if at, ok := a.CheckedInDates[date]; ok {
		return CheckInResult{AlreadyCheckedIn: true, CheckedInAt: at, Name: a.Name}, nil
	}
	a.CheckedInDates[date] = checkInTime
	a.Status = StatusPresent
	return CheckInResult{CheckedInAt: checkInTime, Name: a.Name}, nil
}

func loaded(t *testing.T, repo Repository) *Dashboard {
	t.Helper()
	nowFunc = func() time.Time { return checkInTime }
	t.Cleanup(func() { nowFunc = time.Now })

	d := New("1", repo, nil)
	require.NoError(t, d.Load(context.Background()))
	return d
}

func rowStatuses(rows []Row) map[string]string {
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.TicketID] = r.DisplayStatus
	}
	return out
}

func lastAlert(d *Dashboard) core.Alert {
	alerts := d.Alerts().Drain()
	if len(alerts) == 0 {
		return core.Alert{}
	}
	return alerts[len(alerts)-1]
}

func TestDashboard_Load(t *testing.T) {
	d := New("1", newFakeRepo(), nil)
	_, err := d.State()
	assert.Equal(t, ErrDashboardNotReady, err)

	repo := newFakeRepo()
	d = loaded(t, repo)
	state, err := d.State()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-10-01", "2025-10-02"}, state.Dates)
	assert.Equal(t, "2025-10-01", state.SelectedDate, "the first date is selected")
	assert.Equal(t, ViewApproval, state.View)
	assert.Len(t, state.Rows, 3)

	// the selected date and the selection survive a reload when still valid
	require.NoError(t, d.SelectDate("2025-10-02T00:00:00Z"))
	d.Select("T1", "T2", "nope")
	assert.Equal(t, []string{"T1", "T2"}, d.Selection())

	repo.mu.Lock()
	repo.snap.Attendees = repo.snap.Attendees[1:]
	repo.mu.Unlock()
	require.NoError(t, d.Load(context.Background()))
	assert.Equal(t, "2025-10-02", d.SelectedDate())
	assert.Equal(t, []string{"T2"}, d.Selection())

	// the date is reset when it leaves the schedule
	repo.mu.Lock()
	repo.snap.Schedule = repo.snap.Schedule[1:]
	repo.mu.Unlock()
	require.NoError(t, d.Load(context.Background()))
	assert.Equal(t, "2025-10-01", d.SelectedDate())

	assert.Equal(t, ErrUnknownDate, d.SelectDate("2030-01-01"))
}

// blockingRepo holds the first snapshot until release is closed.
type blockingRepo struct {
	*fakeRepo
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (r *blockingRepo) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	first := false
	r.once.Do(func() { first = true })
	snap, err := r.fakeRepo.Snapshot(ctx, id)
	if first {
		close(r.started)
		<-r.release
	}
	return snap, err
}

func TestDashboard_Load_stale(t *testing.T) {
	repo := &blockingRepo{fakeRepo: newFakeRepo(), started: make(chan struct{}), release: make(chan struct{})}
	d := New("1", repo, nil)

	done := make(chan error)
	go func() { done <- d.Load(context.Background()) }()
	<-repo.started

	// the canonical state moves on and a newer load lands first
	repo.mu.Lock()
	repo.find("T1").ApprovalStatus = ApprovalApproved
	repo.mu.Unlock()
	require.NoError(t, d.Load(context.Background()))

	close(repo.release)
	require.NoError(t, <-done)

	state, err := d.State()
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, rowStatuses(state.Rows)["T1"], "the older response is discarded")
}

func TestDashboard_ApproveReject(t *testing.T) {
	ctx := context.Background()

	t.Run("approve", func(t *testing.T) {
		repo := newFakeRepo()
		d := loaded(t, repo)
		require.NoError(t, d.ApproveReject(ctx, "T1", ActionApprove))
		assert.Equal(t, ApprovalApproved, rowStatuses(d.VisibleAttendees())["T1"])
		assert.Equal(t, []string{"snapshot", "decide", "snapshot"}, repo.calls)
		alert := lastAlert(d)
		assert.Equal(t, core.AlertSuccess, alert.Level)
		assert.Equal(t, "Registration of Ann Lee approved", alert.Message)
		assert.False(t, d.Busy())
	})

	t.Run("remote failure reloads the canonical state", func(t *testing.T) {
		repo := newFakeRepo()
		d := loaded(t, repo)
		repo.remoteErr = &core.APIError{StatusCode: 500, Message: "boom"}
		err := d.ApproveReject(ctx, "T1", ActionReject)
		assert.True(t, core.IsAPIStatus(err, 500))
		assert.Equal(t, ApprovalPending, rowStatuses(d.VisibleAttendees())["T1"])
		assert.Equal(t, []string{"snapshot", "decide", "snapshot"}, repo.calls)
		assert.Equal(t, core.AlertError, lastAlert(d).Level)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		repo := newFakeRepo()
		d := loaded(t, repo)
		assert.Equal(t, ErrAttendeeNotFound, d.ApproveReject(ctx, "T9", ActionApprove))
		assert.Equal(t, []string{"snapshot"}, repo.calls, "nothing is sent")
	})
}

func TestDashboard_BulkAct(t *testing.T) {
	ctx := context.Background()

	t.Run("only pending registrations are sent", func(t *testing.T) {
		repo := newFakeRepo()
		d := loaded(t, repo)
		d.Select("T1", "T2", "T3")
		res, err := d.BulkAct(ctx, ActionApprove)
		require.NoError(t, err)
		assert.Equal(t, BulkResult{Processed: 1, Skipped: 2}, res)
		assert.Equal(t, []string{"T1"}, repo.bulkSent)
		assert.Empty(t, d.Selection())
		assert.Equal(t, "1 registration(s) approved, 2 skipped", lastAlert(d).Message)
	})

	t.Run("nothing to process", func(t *testing.T) {
		repo := newFakeRepo()
		d := loaded(t, repo)
		d.Select("T2")
		res, err := d.BulkAct(ctx, ActionReject)
		assert.Equal(t, ErrNothingToProcess, err)
		assert.Equal(t, BulkResult{Skipped: 1}, res)
		assert.NotContains(t, repo.calls, "bulk")
		assert.Equal(t, core.AlertWarning, lastAlert(d).Level)
	})

	t.Run("remote failure keeps the selection", func(t *testing.T) {
		repo := newFakeRepo()
		d := loaded(t, repo)
		d.SelectAllVisible()
		repo.remoteErr = errors.New("timeout")
		_, err := d.BulkAct(ctx, ActionApprove)
		assert.Error(t, err)
		assert.Equal(t, []string{"T1", "T2", "T3"}, d.Selection())
	})
}

func TestDashboard_CheckIn(t *testing.T) {
	ctx := context.Background()

	t.Run("no date selected", func(t *testing.T) {
		repo := newFakeRepo()
		repo.snap.Schedule = nil
		d := loaded(t, repo)
		_, err := d.CheckIn(ctx, "T2")
		assert.Equal(t, ErrNoDateSelected, err)
	})

	t.Run("pending registration is left untouched", func(t *testing.T) {
		repo := newFakeRepo()
		d := loaded(t, repo)
		before, _ := d.attendee("T1")

		_, err := d.CheckIn(ctx, "T1")
		assert.Equal(t, ErrNotApproved, err)
		assert.Equal(t, core.AlertWarning, lastAlert(d).Level)
		assert.Equal(t, []string{"snapshot"}, repo.calls)
		after, _ := d.attendee("T1")
		assert.Equal(t, before.CheckedInDates, after.CheckedInDates)
		assert.Empty(t, after.CheckedInDates)
	})

	t.Run("server failure", func(t *testing.T) {
		repo := newFakeRepo()
		d := loaded(t, repo)
		repo.remoteErr = errors.New("timeout")

		_, err := d.CheckIn(ctx, "T2")
		require.Error(t, err)
		assert.Equal(t, core.AlertError, lastAlert(d).Level)
		assert.Equal(t, []string{"snapshot", "checkin", "snapshot"}, repo.calls)
		a, ok := d.attendee("T2")
		require.True(t, ok)
		assert.Empty(t, a.CheckedInDates, "the optimistic stamp is replaced by the reloaded snapshot")
		assert.False(t, d.Busy())
	})

	repo := newFakeRepo()
	d := loaded(t, repo)

	_, err := d.CheckIn(ctx, "T1")
	assert.Equal(t, ErrNotApproved, err)
	_, err = d.CheckIn(ctx, "T9")
	assert.Equal(t, ErrAttendeeNotFound, err)
	assert.NotContains(t, repo.calls, "checkin")

	res, err := d.CheckInQR(ctx, "https://uniplus.test/checkin?ticket_id=T2")
	require.NoError(t, err)
	assert.False(t, res.AlreadyCheckedIn)
	assert.Equal(t, "Bob Kim checked in for 2025-10-01", lastAlert(d).Message)

	res, err = d.CheckIn(ctx, "T2")
	require.NoError(t, err)
	assert.True(t, res.AlreadyCheckedIn)
	assert.Equal(t, core.AlertInfo, lastAlert(d).Level)

	// attendance is per date
	d.SetView(ViewAttendance)
	rows := d.VisibleAttendees()
	if assert.Len(t, rows, 1, "only approved registrations attend") {
		assert.Equal(t, StatusPresent, rows[0].DisplayStatus)
		assert.Equal(t, checkInTime, *rows[0].CheckedInAt)
	}
	require.NoError(t, d.SelectDate("2025-10-02"))
	assert.Equal(t, map[string]string{"T2": StatusPending}, rowStatuses(d.VisibleAttendees()))

	_, err = d.CheckInQR(ctx, "  ")
	assert.Error(t, err)
}

func TestDashboard_filters(t *testing.T) {
	d := loaded(t, newFakeRepo())

	d.SetSearch(" BOB ")
	assert.Equal(t, map[string]string{"T2": ApprovalApproved}, rowStatuses(d.VisibleAttendees()))
	d.SetSearch("uni.test")
	assert.Len(t, d.VisibleAttendees(), 3)
	d.SetSearch("t3")
	assert.Equal(t, map[string]string{"T3": ApprovalRejected}, rowStatuses(d.VisibleAttendees()))
	d.SetSearch("")

	d.SetStatusFilter("Pending")
	assert.Equal(t, map[string]string{"T1": ApprovalPending}, rowStatuses(d.VisibleAttendees()))
	d.SetStatusFilter("all")
	assert.Len(t, d.VisibleAttendees(), 3)

	assert.True(t, d.Toggle("T1"))
	assert.False(t, d.Toggle("T1"))
	assert.False(t, d.Toggle("T9"))

	// switching view resets the status filter and the selection
	d.SetStatusFilter("rejected")
	d.Select("T1")
	d.SetView(ViewAttendance)
	state, err := d.State()
	require.NoError(t, err)
	assert.Empty(t, state.StatusFilter)
	assert.Empty(t, state.Selection)
	assert.Equal(t, ViewAttendance, state.View)
}

func TestParseTicketQR(t *testing.T) {
	tests := []struct {
		payload string
		want    string
		wantErr bool
	}{
		{payload: " TKT-1 ", want: "TKT-1"},
		{payload: `{"ticket_id":"TKT-2"}`, want: "TKT-2"},
		{payload: `{"ticketId":"TKT-3"}`, want: "TKT-3"},
		{payload: "https://uniplus.test/checkin?ticket=TKT-4", want: "TKT-4"},
		{payload: "https://uniplus.test/tickets/TKT-5/", want: "TKT-5"},
		{payload: "", wantErr: true},
		{payload: `{"event":"1"}`, wantErr: true},
		{payload: `{broken`, wantErr: true},
		{payload: "https://uniplus.test/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := ParseTicketQR(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseViewAndAction(t *testing.T) {
	assert.Equal(t, ViewAttendance, ParseView(" Attendance"))
	assert.Equal(t, ViewApproval, ParseView("whatever"))

	action, ok := ParseAction("REJECT")
	assert.True(t, ok)
	assert.Equal(t, ActionReject, action)
	_, ok = ParseAction("maybe")
	assert.False(t, ok)
}
