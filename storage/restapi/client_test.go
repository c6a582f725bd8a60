package restapi

import (
	"context"
	"encoding/json"
	"io"
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
	"github.com/RTBS-ISP/UniPlus-sub000/core/user"
)

const testToken = "tok3n"

// fakeAPI records the requests it receives and answers with canned bodies.
type fakeAPI struct {
	t        *testing.T
	mux      *http.ServeMux
	requests []*http.Request
	bodies   []string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	api := &fakeAPI{t: t, mux: http.NewServeMux()}
	api.mux.HandleFunc("/api/set-csrf-token", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: csrfCookieName, Value: testToken, Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"csrfToken":"`+testToken+`"}`)
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/set-csrf-token" {
			data, _ := io.ReadAll(r.Body)
			api.requests = append(api.requests, r)
			api.bodies = append(api.bodies, string(data))
			r.Body = io.NopCloser(strings.NewReader(string(data)))
		}
		api.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL + "/api/", UserAgent: "uniplus-test"})
	require.NoError(t, err)
	return api, c
}

func (api *fakeAPI) handle(pattern string, code int, body string) {
	api.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	})
}

func (api *fakeAPI) last() (*http.Request, string) {
	require.NotEmpty(api.t, api.requests)
	i := len(api.requests) - 1
	return api.requests[i], api.bodies[i]
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "localhost"})
	assert.Error(t, err)

	c, err := NewClient(Options{BaseURL: "http://localhost:8000/api/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", c.BaseURL())
	assert.Equal(t, "http://localhost:8000/api/events?page=2", c.endpoint("/events", map[string][]string{"page": {"2"}}))
}

func TestClient_WithCookies(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("/api/me", http.StatusOK, `{"id":"1","username":"jdoe"}`)

	clone, err := c.WithCookies([]*http.Cookie{{Name: "sessionid", Value: "abc"}})
	require.NoError(t, err)
	assert.Equal(t, c.BaseURL(), clone.BaseURL())
	require.Len(t, clone.Cookies(), 1)
	assert.Empty(t, c.Cookies(), "the original jar is left untouched")

	_, err = NewUserRepository(clone).Me(context.Background())
	require.NoError(t, err)
	req, _ := api.last()
	ck, err := req.Cookie("sessionid")
	require.NoError(t, err)
	assert.Equal(t, "abc", ck.Value)
	assert.Equal(t, "uniplus-test", req.Header.Get("User-Agent"))
}

func TestClient_csrf(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("/api/logout", http.StatusOK, `{}`)
	api.handle("/api/me", http.StatusOK, `{"id":"1","username":"jdoe"}`)
	users := NewUserRepository(c)

	_, err := users.Me(context.Background())
	require.NoError(t, err)
	req, _ := api.last()
	assert.Empty(t, req.Header.Get(csrfHeaderName), "GET requests carry no csrf token")
	assert.NotEmpty(t, req.Header.Get(requestIDName))
	assert.Equal(t, "uniplus-test", req.Header.Get("User-Agent"))

	require.NoError(t, users.Logout(context.Background()))
	req, _ = api.last()
	assert.Equal(t, testToken, req.Header.Get(csrfHeaderName))
	assert.NotEmpty(t, req.Header.Get("Referer"))
	ck, err := req.Cookie(csrfCookieName)
	require.NoError(t, err)
	assert.Equal(t, testToken, ck.Value)
}

func TestClient_errors(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("/api/events/404", http.StatusNotFound, `{"detail":"Not found."}`)
	api.handle("/api/events/7/register", http.StatusConflict, `{"error":"Already registered"}`)
	api.handle("/api/events/8/register", http.StatusBadRequest, `{"error":"Event is full"}`)
	api.handle("/api/me", http.StatusUnauthorized, `{"detail":"Authentication credentials were not provided."}`)
	api.handle("/api/tickets", http.StatusInternalServerError, `<html>boom</html>`)
	events := NewEventRepository(c)
	ctx := context.Background()

	_, err := events.GetEvent(ctx, "404")
	assert.Equal(t, event.ErrNotFound, err)

	_, err = events.Register(ctx, "7")
	assert.Equal(t, event.ErrAlreadyRegistered, err)

	_, err = events.Register(ctx, "8")
	var apiErr *core.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Event is full", apiErr.Message)

	_, err = NewUserRepository(c).Me(ctx)
	assert.Equal(t, user.ErrNotLoggedIn, err)

	_, err = events.MyTickets(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Empty(t, apiErr.Message)
}

func TestEventRepository_ListEvents(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("/api/events", http.StatusOK, `{"results":[
		{"id":1,"title":"Go meetup","tags":"go,@{\"faculty\":\"Engineering\",\"year\":2}","host":"CS Club","popularity":10,"created_at":"2025-01-01"},
		{"id":"2","title":"Jazz night","tags":["music","night"],"host":["Music Club","Arts"],"popularity":50}
	]}`)

	events, err := NewEventRepository(c).ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "1", events[0].ID)
	assert.Equal(t, []string{"go", "Engineering (year 2)"}, events[0].Tags)
	assert.Equal(t, []string{"CS Club"}, events[0].Host)
	assert.Equal(t, "2", events[1].ID)
	assert.Equal(t, []string{"music", "night"}, events[1].Tags)
	assert.Equal(t, "Music Club", events[1].PrimaryHost())
}

func TestEventRepository_GetEvent(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("/api/events/3", http.StatusOK, `{
		"id":3,"title":"Hackathon","tags":"code,@{\"faculty\":\"Science\"}",
		"schedule":[{"date":"2025-10-01","start_time":"10:00","end_time":"12:00","location":"Hall A"}],
		"average_score":4.5,"is_registered":true}`)

	d, err := NewEventRepository(c).GetEvent(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Hackathon", d.Title)
	assert.Equal(t, []string{"code"}, d.Audience.HostTags)
	assert.Equal(t, []event.Eligibility{{Faculty: "Science"}}, d.Audience.Eligibility)
	require.Len(t, d.Schedule, 1)
	assert.Equal(t, "Hall A", d.Schedule[0].Location)
	assert.True(t, d.IsRegistered)
	assert.Equal(t, 4.5, d.AverageScore)
}

func TestEventRepository_CreateEvent(t *testing.T) {
	api, c := newFakeAPI(t)
	var (
		fields   map[string]string
		image    string
		filename string
	)
	api.mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fields = make(map[string]string)
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		image, filename = string(data), hdr.Filename
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":42,"status":"pending"}`)
	})

	ne := event.NewEvent{
		Title:       "Workshop",
		Description: "Hands on",
		Category:    "tech",
		Capacity:    30,
		Schedule:    []event.Session{{Date: "2025-10-01", StartTime: "10:00", EndTime: "12:00", Location: "Lab 1"}},
		EncodedTags: "go,cloud",
	}
	img := &event.Image{Filename: "cover.png", ContentType: "image/png", Content: strings.NewReader("PNG")}

	created, err := NewEventRepository(c).CreateEvent(context.Background(), ne, img)
	require.NoError(t, err)
	assert.Equal(t, event.Created{ID: "42", Status: "pending"}, created)

	assert.Equal(t, "Workshop", fields["title"])
	assert.Equal(t, "30", fields["capacity"])
	assert.Equal(t, "go,cloud", fields["tags"])
	var schedule []event.Session
	require.NoError(t, json.Unmarshal([]byte(fields["schedule"]), &schedule))
	assert.Equal(t, ne.Schedule, schedule)
	assert.Equal(t, "PNG", image)
	assert.Equal(t, "cover.png", filename)

	req, _ := api.last()
	assert.Equal(t, testToken, req.Header.Get(csrfHeaderName))
}

func TestDashboardRepository(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("/api/events/5/dashboard", http.StatusOK, `{
		"event":{"id":"5","title":"Fair"},
		"schedule":[{"date":"2025-10-01","start_time":"09:00","end_time":"17:00","location":"Gym"}],
		"attendees":[{"ticket_id":"T1","name":"Ann","approval_status":"approved","status":"pending"}],
		"stats":{"total":1,"approved":1}}`)
	api.handle("/api/events/5/registrations/T1/approve", http.StatusOK, `{}`)
	api.handle("/api/events/5/registrations/bulk-action", http.StatusOK, `{"processed":2,"skipped":1}`)
	api.handle("/api/checkin", http.StatusOK, `{"already_checked_in":false,"checked_in_at":"2025-10-01T09:30:00Z","name":"Ann"}`)
	repo := NewDashboardRepository(c)
	ctx := context.Background()

	snap, err := repo.Snapshot(ctx, "5")
	require.NoError(t, err)
	require.Len(t, snap.Attendees, 1)
	assert.NotNil(t, snap.Attendees[0].CheckedInDates)
	assert.Equal(t, 1, snap.Stats.Approved)

	require.NoError(t, repo.Decide(ctx, "5", "T1", dashboard.ActionApprove))
	req, _ := api.last()
	assert.Equal(t, http.MethodPost, req.Method)

	res, err := repo.BulkDecide(ctx, "5", []string{"T1", "T2", "T3"}, dashboard.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, dashboard.BulkResult{Processed: 2, Skipped: 1}, res)
	_, body := api.last()
	assert.JSONEq(t, `{"action":"reject","ticket_ids":["T1","T2","T3"]}`, body)

	ci, err := repo.CheckIn(ctx, "5", "T1", "2025-10-01")
	require.NoError(t, err)
	assert.Equal(t, "Ann", ci.Name)
	_, body = api.last()
	assert.JSONEq(t, `{"event_id":"5","ticket_id":"T1","date":"2025-10-01"}`, body)
}

func TestNotificationRepository(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("/api/notifications", http.StatusOK, `[{"id":"n1","title":"Approved","is_read":false}]`)
	api.handle("/api/notifications/mark-read", http.StatusOK, `{}`)
	api.handle("/api/notifications/n1", http.StatusNoContent, ``)
	repo := NewNotificationRepository(c)
	ctx := context.Background()

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []notification.Notification{{ID: "n1", Title: "Approved"}}, items)

	require.NoError(t, repo.MarkRead(ctx, []string{"n1"}))
	_, body := api.last()
	assert.JSONEq(t, `{"ids":["n1"]}`, body)

	require.NoError(t, repo.Delete(ctx, "n1"))
	req, _ := api.last()
	assert.Equal(t, http.MethodDelete, req.Method)
}

func TestAdminRepository(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("/api/admin/events", http.StatusOK, `[{"id":9,"title":"Pending talk","status":"pending"}]`)
	api.handle("/api/admin/events/9/reject", http.StatusOK, `{}`)
	repo := NewAdminRepository(c)
	ctx := context.Background()

	pending, err := repo.PendingEvents(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "9", pending[0].ID)
	req, _ := api.last()
	assert.Equal(t, "pending", req.URL.Query().Get("status"))

	require.NoError(t, repo.Decide(ctx, "9", "reject", "off topic"))
	_, body := api.last()
	assert.JSONEq(t, `{"reason":"off topic"}`, body)
}
