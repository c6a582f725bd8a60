package echoweb

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func Test_relayCookies(t *testing.T) {
	ck := func(name, value string) *http.Cookie { return &http.Cookie{Name: name, Value: value} }
	expired := func(name string) *http.Cookie { return &http.Cookie{Name: name, MaxAge: -1} }

	tests := []struct {
		name    string
		sent    []*http.Cookie
		current []*http.Cookie
		want    map[string]string // name -> value; "" means expired
	}{
		{name: "unchanged", sent: []*http.Cookie{ck("sessionid", "a")}, current: []*http.Cookie{ck("sessionid", "a")}, want: map[string]string{}},
		{name: "new session", current: []*http.Cookie{ck("sessionid", "a"), ck("csrftoken", "t")}, want: map[string]string{"sessionid": "a", "csrftoken": "t"}},
		{name: "rotated", sent: []*http.Cookie{ck("sessionid", "a")}, current: []*http.Cookie{ck("sessionid", "b")}, want: map[string]string{"sessionid": "b"}},
		{name: "dropped", sent: []*http.Cookie{ck("sessionid", "a")}, want: map[string]string{"sessionid": ""}},
		{name: "expired", sent: []*http.Cookie{ck("sessionid", "a")}, current: []*http.Cookie{expired("sessionid")}, want: map[string]string{"sessionid": ""}},
		{name: "expired never sent", current: []*http.Cookie{expired("sessionid")}, want: map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			relayCookies(rec, tt.sent, tt.current)

			got := make(map[string]string)
			for _, c := range rec.Result().Cookies() {
				got[c.Name] = c.Value
				if c.Value == "" {
					assert.True(t, c.MaxAge < 0, "%s should be expired", c.Name)
				} else {
					assert.True(t, c.HttpOnly)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

type brokenBackend struct{}

func (brokenBackend) Connect(*http.Request) (Conn, error) {
	return Conn{}, errors.New("cookie jar unavailable")
}

func Test_sessionMiddleware_connectError(t *testing.T) {
	e := echo.New()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/me", nil), httptest.NewRecorder())
	called := false
	handler := sessionMiddleware(brokenBackend{})(func(echo.Context) error {
		called = true
		return nil
	})

	err := handler(ctx)
	assert.EqualError(t, err, "opening API connection: cookie jar unavailable")
	assert.False(t, called)
	assert.Nil(t, ctx.Get(ctxConnKey))
}
