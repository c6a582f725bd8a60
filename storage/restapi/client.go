package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
)

const (
	csrfPath       = "/set-csrf-token"
	csrfCookieName = "csrftoken"
	csrfHeaderName = "X-CSRFToken"
	requestIDName  = "X-Request-ID"

	maxErrorBody = 1 << 20
)

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Logger    core.Logger
	// Transport overrides http.DefaultTransport, eg. in tests.
	Transport http.RoundTripper
}

// Client talks to the UniPlus REST API with a cookie session.
// Every mutating request first fetches a CSRF token.
type Client struct {
	opts    Options
	baseURL *url.URL
	jar     http.CookieJar
	http    *http.Client
}

func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing API base URL")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("invalid API base URL %q", opts.BaseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating cookie jar")
	}
	return &Client{
		opts:    opts,
		baseURL: base,
		jar:     jar,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Jar:       jar,
			Transport: opts.Transport,
		},
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL.String() }

// Cookies returns the session cookies the API has set.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.baseURL, cookies)
}

// WithCookies returns a client sharing c's configuration with its own jar seeded with cookies.
func (c *Client) WithCookies(cookies []*http.Cookie) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating cookie jar")
	}
	jar.SetCookies(c.baseURL, cookies)
	return &Client{
		opts:    c.opts,
		baseURL: c.baseURL,
		jar:     jar,
		http: &http.Client{
			Timeout:   c.opts.Timeout,
			Jar:       jar,
			Transport: c.opts.Transport,
		},
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// csrfToken asks the API for a fresh token; it comes back as a cookie and, usually, in the body.
func (c *Client) csrfToken(ctx context.Context) (string, error) {
	var body struct {
		CSRFToken      string `json:"csrfToken"`
		CSRFTokenSnake string `json:"csrf_token"`
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(csrfPath, nil), nil)
	if err != nil {
		return "", errors.Wrap(err, "building csrf request")
	}
	if err := c.send("csrf", req, &body); err != nil {
		return "", errors.Wrap(err, "fetching csrf token")
	}
	if body.CSRFToken != "" {
		return body.CSRFToken, nil
	}
	if body.CSRFTokenSnake != "" {
		return body.CSRFTokenSnake, nil
	}
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == csrfCookieName {
			return ck.Value, nil
		}
	}
	return "", errors.New("API did not provide a csrf token")
}

// doJSON sends `in` as a JSON body (when not nil) and decodes the answer into `out` (when not nil).
func (c *Client) doJSON(ctx context.Context, route, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "marshalling %s body", route)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return errors.Wrapf(err, "building %s request", route)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(ctx, route, req, out)
}

// do adds the CSRF token to mutating requests then sends req.
func (c *Client) do(ctx context.Context, route string, req *http.Request, out interface{}) error {
	if isMutating(req.Method) {
		token, err := c.csrfToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set(csrfHeaderName, token)
		req.Header.Set("Referer", c.baseURL.Scheme+"://"+c.baseURL.Host+"/")
	}
	return c.send(route, req, out)
}

func (c *Client) send(route string, req *http.Request, out interface{}) error {
	reqID := uuid.NewString()
	req.Header.Set(requestIDName, reqID)
	req.Header.Set("Accept", "application/json")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	observe(route, req.Method, resp, time.Since(start))
	if err != nil {
		c.logError(fmt.Sprintf("%s %s failed", req.Method, route), err, reqID)
		return errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp)
		if resp.StatusCode >= http.StatusInternalServerError {
			c.logError(fmt.Sprintf("%s %s answered %d", req.Method, route, resp.StatusCode), apiErr, reqID)
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.Wrapf(err, "decoding %s response", route)
	}
	return nil
}

func (c *Client) logError(msg string, err error, reqID string) {
	if c.opts.Logger == nil {
		return
	}
	c.opts.Logger.Error(msg, err, map[string]interface{}{"request_id": reqID})
}

// parseError reads the API error message out of the `error`, `detail` or `message` field.
func parseError(resp *http.Response) *core.APIError {
	apiErr := &core.APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		if msg := strings.TrimSpace(string(data)); len(msg) < 200 && !strings.HasPrefix(msg, "<") {
			apiErr.Message = msg
		}
		return apiErr
	}
	for _, key := range []string{"error", "detail", "message"} {
		switch v := body[key].(type) {
		case nil:
		case string:
			apiErr.Message = v
			return apiErr
		default:
			apiErr.Message = fmt.Sprint(v)
			return apiErr
		}
	}
	return apiErr
}

func statusLabel(resp *http.Response) string {
	if resp == nil {
		return "error"
	}
	return strconv.Itoa(resp.StatusCode)
}
