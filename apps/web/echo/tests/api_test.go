package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/dashboard"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	"github.com/RTBS-ISP/UniPlus-sub000/core/notification"
	inmemdb "github.com/RTBS-ISP/UniPlus-sub000/storage/inmem"
)

func Test_server_public(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to UniPlus!", rec.Body.String())

	a.run(t, []httpTest{
		{name: "unknown route", method: http.MethodGet, path: "/v1/nope", wantCode: http.StatusNotFound},
		{name: "me logged out", method: http.MethodGet, path: "/v1/me", wantCode: http.StatusUnauthorized, wantErr: "not logged in"},
		{name: "login bad password", method: http.MethodPost, path: "/v1/login", body: map[string]string{"username": "ann", "password": "nope"}, wantCode: http.StatusUnauthorized, wantErr: "Invalid username or password"},
		{name: "login missing password", method: http.MethodPost, path: "/v1/login", body: map[string]string{"username": "ann"}, wantCode: http.StatusBadRequest},
	})

	rec = a.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "uniplus_web_requests_total")
}

func Test_server_session(t *testing.T) {
	a := newApp(t)
	session := a.login(t, "ann")

	rec := a.do(t, http.MethodGet, "/v1/me", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Username string `json:"username"`
	}
	decode(t, rec, &me)
	assert.Equal(t, "ann", me.Username)
	// unchanged session cookies are not sent back
	assert.Empty(t, rec.Result().Cookies())

	rec = a.do(t, http.MethodPost, "/v1/logout", nil, session)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, inmemdb.SessionCookie, cookies[0].Name)
		assert.True(t, cookies[0].MaxAge < 0)
	}

	rec = a.do(t, http.MethodGet, "/v1/me", nil, session)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_eventsApi(t *testing.T) {
	a := newApp(t)
	ann := a.login(t, "ann")
	root := a.login(t, "root")

	a.run(t, []httpTest{
		{name: "bad page", method: http.MethodGet, path: "/v1/events?page=abc", wantCode: http.StatusBadRequest},
		{name: "not found", method: http.MethodGet, path: "/v1/events/999", wantCode: http.StatusNotFound, wantErr: "event not found"},
		{name: "register logged out", method: http.MethodPost, path: "/v1/events/" + a.EventID + "/register", wantCode: http.StatusUnauthorized},
		{name: "register twice", method: http.MethodPost, path: "/v1/events/" + a.EventID + "/register", session: ann, wantCode: http.StatusConflict, wantErr: "already registered"},
		{name: "empty comment", method: http.MethodPost, path: "/v1/events/" + a.EventID + "/comments", body: map[string]string{"content": ""}, session: ann, wantCode: http.StatusBadRequest},
		{name: "rate out of range", method: http.MethodPost, path: "/v1/events/" + a.EventID + "/ratings", body: map[string]int{"score": 9}, session: ann, wantCode: http.StatusBadRequest},
		{name: "rate pending registration", method: http.MethodPost, path: "/v1/events/" + a.EventID + "/ratings", body: map[string]int{"score": 4}, session: ann, wantCode: http.StatusForbidden, wantErr: "Only attendees"},
	})

	t.Run("browse", func(t *testing.T) {
		var page event.Page
		rec := a.do(t, http.MethodGet, "/v1/events", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &page)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, 1, page.Page)

		rec = a.do(t, http.MethodGet, "/v1/events?q=jazz&sort=popular", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &page)
		if assert.Len(t, page.Items, 1) {
			assert.Equal(t, "Jazz Night", page.Items[0].Title)
		}

		rec = a.do(t, http.MethodGet, "/v1/events?category=tech&host=cs%20club", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &page)
		if assert.Len(t, page.Items, 1) {
			assert.Equal(t, "Go Meetup", page.Items[0].Title)
		}
	})

	t.Run("detail", func(t *testing.T) {
		var d event.Detail
		rec := a.do(t, http.MethodGet, "/v1/events/"+a.EventID, nil, ann)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &d)
		assert.Equal(t, "Go Meetup", d.Title)
		assert.True(t, d.IsRegistered)
		assert.Len(t, d.Schedule, 2)
	})

	t.Run("register", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/events/"+a.OtherEventID+"/register", nil, root)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp actionResponse
		decode(t, rec, &resp)
		if assert.Len(t, resp.Alerts, 1) {
			assert.Equal(t, core.AlertSuccess, resp.Alerts[0].Level)
		}
		var ticket event.Ticket
		require.NoError(t, json.Unmarshal(resp.Data, &ticket))
		assert.Equal(t, a.OtherEventID, ticket.EventID)

		rec = a.do(t, http.MethodGet, "/v1/events/tickets", nil, root)
		require.Equal(t, http.StatusOK, rec.Code)
		var tickets []event.Ticket
		decode(t, rec, &tickets)
		assert.Len(t, tickets, 1)
	})

	t.Run("comments", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/events/"+a.EventID+"/comments", map[string]string{"content": "see you there"}, ann)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = a.do(t, http.MethodGet, "/v1/events/"+a.EventID+"/comments", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var comments []event.Comment
		decode(t, rec, &comments)
		if assert.Len(t, comments, 1) {
			assert.Equal(t, "see you there", comments[0].Content)
		}
	})
}

func newEventForm(t *testing.T, fields map[string]string) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/v1/events", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func Test_eventsApi_create(t *testing.T) {
	a := newApp(t)
	org := a.login(t, "org")
	ann := a.login(t, "ann")

	fields := map[string]string{
		"title":       "Robotics Fair",
		"description": "Robots everywhere",
		"category":    "tech",
		"capacity":    "50",
		"audience":    `{"host_tags":["Engineering"]}`,
		"schedule":    `[{"date":"2025-12-01","start_time":"09:00","end_time":"17:00","location":"Gym"}]`,
	}

	tests := []struct {
		name     string
		session  []*http.Cookie
		fields   map[string]string
		wantCode int
	}{
		{name: "bad capacity", session: org, fields: map[string]string{"title": "x", "capacity": "many"}, wantCode: http.StatusBadRequest},
		{name: "bad schedule", session: org, fields: map[string]string{"title": "x", "schedule": "["}, wantCode: http.StatusBadRequest},
		{name: "missing fields", session: org, fields: map[string]string{"title": "x"}, wantCode: http.StatusBadRequest},
		{name: "not an organizer", session: ann, fields: fields, wantCode: http.StatusForbidden},
		{name: "created", session: org, fields: fields, wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newEventForm(t, tt.fields)
			for _, ck := range tt.session {
				req.AddCookie(ck)
			}
			rec := httptest.NewRecorder()
			a.server.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	// the new event awaits moderation
	rec := a.do(t, http.MethodGet, "/v1/events?q=robotics", nil, nil)
	var page event.Page
	decode(t, rec, &page)
	assert.Empty(t, page.Items)
}

func Test_dashboardApi(t *testing.T) {
	a := newApp(t)
	org := a.login(t, "org")
	ann := a.login(t, "ann")
	base := "/v1/events/" + a.EventID

	a.run(t, []httpTest{
		{name: "not the host", method: http.MethodGet, path: base + "/dashboard", session: ann, wantCode: http.StatusForbidden},
		{name: "unknown date", method: http.MethodGet, path: base + "/dashboard?date=2030-01-01", session: org, wantCode: http.StatusBadRequest},
		{name: "bad action", method: http.MethodPost, path: base + "/registrations/" + a.Ticket + "/maybe", session: org, wantCode: http.StatusBadRequest},
		{name: "unknown ticket", method: http.MethodPost, path: base + "/registrations/TKT-404/approve", session: org, wantCode: http.StatusNotFound},
		{name: "checkin before approval", method: http.MethodPost, path: base + "/checkin", body: map[string]string{"ticket_id": a.Ticket}, session: org, wantCode: http.StatusConflict},
		{name: "checkin needs ticket or qr", method: http.MethodPost, path: base + "/checkin", body: map[string]string{"date": "2025-10-01"}, session: org, wantCode: http.StatusBadRequest},
		{name: "bulk without tickets", method: http.MethodPost, path: base + "/registrations/bulk-action", body: map[string]interface{}{"action": "approve"}, session: org, wantCode: http.StatusBadRequest},
	})

	t.Run("approval view", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, base+"/dashboard", nil, org)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var state dashboard.State
		decode(t, rec, &state)
		assert.Equal(t, []string{"2025-10-01", "2025-10-02"}, state.Dates)
		assert.Equal(t, "2025-10-01", state.SelectedDate)
		if assert.Len(t, state.Rows, 1) {
			assert.Equal(t, a.Ticket, state.Rows[0].TicketID)
			assert.Equal(t, dashboard.ApprovalPending, state.Rows[0].DisplayStatus)
		}
	})

	t.Run("approve", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, base+"/registrations/"+a.Ticket+"/approve", nil, org)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp actionResponse
		decode(t, rec, &resp)
		if assert.NotEmpty(t, resp.Alerts) {
			assert.Contains(t, resp.Alerts[0].Message, "approved")
		}
		var state dashboard.State
		require.NoError(t, json.Unmarshal(resp.Data, &state))
		assert.Equal(t, 1, state.Stats.Approved)
	})

	t.Run("bulk skips decided registrations", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, base+"/registrations/bulk-action", map[string]interface{}{"action": "reject", "ticket_ids": []string{a.Ticket}}, org)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body httpErr
		decode(t, rec, &body)
		if assert.NotEmpty(t, body.Alerts) {
			assert.Equal(t, core.AlertWarning, body.Alerts[0].Level)
		}
	})

	t.Run("checkin", func(t *testing.T) {
		var resp actionResponse
		var res struct {
			Result dashboard.CheckInResult `json:"result"`
			State  dashboard.State         `json:"state"`
		}

		qr := `{"ticket_id":"` + a.Ticket + `"}`
		rec := a.do(t, http.MethodPost, base+"/checkin", map[string]string{"date": "2025-10-02", "qr": qr}, org)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &resp)
		require.NoError(t, json.Unmarshal(resp.Data, &res))
		assert.False(t, res.Result.AlreadyCheckedIn)
		assert.Equal(t, "2025-10-02", res.State.SelectedDate)

		rec = a.do(t, http.MethodPost, base+"/checkin", map[string]string{"date": "2025-10-02", "ticket_id": a.Ticket}, org)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &resp)
		require.NoError(t, json.Unmarshal(resp.Data, &res))
		assert.True(t, res.Result.AlreadyCheckedIn)
		if assert.NotEmpty(t, resp.Alerts) {
			assert.Equal(t, core.AlertInfo, resp.Alerts[0].Level)
		}
	})

	t.Run("attendance view", func(t *testing.T) {
		var state dashboard.State
		for date, want := range map[string]string{"2025-10-01": dashboard.StatusPending, "2025-10-02": dashboard.StatusPresent} {
			rec := a.do(t, http.MethodGet, base+"/dashboard?view=attendance&date="+date, nil, org)
			require.Equal(t, http.StatusOK, rec.Code)
			decode(t, rec, &state)
			if assert.Len(t, state.Rows, 1, date) {
				assert.Equal(t, want, state.Rows[0].DisplayStatus, date)
			}
		}

		rec := a.do(t, http.MethodGet, base+"/dashboard?search=bob", nil, org)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &state)
		assert.Empty(t, state.Rows)
	})
}

func Test_notificationsApi(t *testing.T) {
	a := newApp(t)
	ann := a.login(t, "ann")
	a.DB.Notify("ann", notification.Notification{ID: "n1", Title: "Welcome"})
	a.DB.Notify("ann", notification.Notification{ID: "n2", Title: "Reminder"})

	a.run(t, []httpTest{
		{name: "logged out", method: http.MethodGet, path: "/v1/notifications", wantCode: http.StatusUnauthorized},
		{name: "nothing selected", method: http.MethodPost, path: "/v1/notifications/mark-read", body: map[string][]string{"ids": nil}, session: ann, wantCode: http.StatusUnprocessableEntity},
	})

	var inbox notification.Inbox
	var resp actionResponse

	rec := a.do(t, http.MethodGet, "/v1/notifications", nil, ann)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &inbox)
	assert.Equal(t, 2, inbox.Unread)

	rec = a.do(t, http.MethodPost, "/v1/notifications/mark-read", map[string][]string{"ids": {"n1"}}, ann)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &resp)
	require.NoError(t, json.Unmarshal(resp.Data, &inbox))
	assert.Equal(t, 1, inbox.Unread)

	rec = a.do(t, http.MethodPost, "/v1/notifications/mark-all-read", nil, ann)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &resp)
	require.NoError(t, json.Unmarshal(resp.Data, &inbox))
	assert.Zero(t, inbox.Unread)

	rec = a.do(t, http.MethodDelete, "/v1/notifications/n2", nil, ann)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &resp)
	require.NoError(t, json.Unmarshal(resp.Data, &inbox))
	if assert.Len(t, inbox.Items, 1) {
		assert.Equal(t, "n1", inbox.Items[0].ID)
	}
}

func Test_adminApi(t *testing.T) {
	a := newApp(t)
	root := a.login(t, "root")
	ann := a.login(t, "ann")
	pending := a.DB.AddEvent("org", event.Detail{Event: event.Event{Title: "Robotics Fair", Status: event.StatusPending}})
	base := "/v1/admin/events/" + pending

	a.run(t, []httpTest{
		{name: "not an admin", method: http.MethodGet, path: "/v1/admin/events", session: ann, wantCode: http.StatusForbidden, wantErr: "permission denied"},
		{name: "bad decision", method: http.MethodPost, path: base + "/maybe", session: root, wantCode: http.StatusBadRequest},
		{name: "reject without reason", method: http.MethodPost, path: base + "/reject", body: map[string]string{"reason": "  "}, session: root, wantCode: http.StatusBadRequest},
	})

	rec := a.do(t, http.MethodGet, "/v1/admin/events", nil, root)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var events []event.Event
	decode(t, rec, &events)
	if assert.Len(t, events, 1) {
		assert.Equal(t, "Robotics Fair", events[0].Title)
	}

	rec = a.do(t, http.MethodPost, base+"/approve", map[string]string{}, root)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp actionResponse
	decode(t, rec, &resp)
	if assert.Len(t, resp.Alerts, 1) {
		assert.True(t, strings.HasSuffix(resp.Alerts[0].Message, "approved"))
	}

	// published
	rec = a.do(t, http.MethodGet, "/v1/events", nil, nil)
	var page event.Page
	decode(t, rec, &page)
	assert.Equal(t, 3, page.Total)
}
