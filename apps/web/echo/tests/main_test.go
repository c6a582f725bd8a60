package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoweb "github.com/RTBS-ISP/UniPlus-sub000/apps/web/echo"
	"github.com/RTBS-ISP/UniPlus-sub000/core"
	"github.com/RTBS-ISP/UniPlus-sub000/core/event"
	logsvc "github.com/RTBS-ISP/UniPlus-sub000/services/logger"
	inmemdb "github.com/RTBS-ISP/UniPlus-sub000/storage/inmem"
	"github.com/RTBS-ISP/UniPlus-sub000/tests"
)

type app struct {
	testutil.Fixture
	server *echoweb.Server
}

func newApp(t *testing.T) *app {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	fx := testutil.Seed(t)
	server := echoweb.NewServer(
		echoweb.Options{TestMode: true, DisableReqLogs: true, PageSize: event.DefaultPageSize},
		echoweb.Deps{
			Backend:    echoweb.NewMemoryBackend(fx.DB),
			Logger:     logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{}),
			Validate:   validate,
			Translator: translator,
		},
	)
	return &app{Fixture: fx, server: server}
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	session  []*http.Cookie
	wantCode int
	wantErr  string
}

func (a *app) do(t *testing.T, method, path string, body interface{}, session []*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range session {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

// login returns the session cookie of username.
func (a *app) login(t *testing.T, username string) []*http.Cookie {
	rec := a.do(t, http.MethodPost, "/v1/login", map[string]string{"username": username, "password": testutil.Password}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == inmemdb.SessionCookie {
			return []*http.Cookie{ck}
		}
	}
	t.Fatalf("login(%s): no session cookie", username)
	return nil
}

func (a *app) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, tt.body, tt.session)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				var body httpErr
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Contains(t, body.Error, tt.wantErr)
			}
		})
	}
}

type httpErr struct {
	Error  string       `json:"error"`
	Alerts []core.Alert `json:"alerts"`
}

type actionResponse struct {
	Alerts []core.Alert    `json:"alerts"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
