// Package apiclient talks to the Study Planner REST API over HTTP.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core/event"
	"github.com/trezcool/studyplanner/core/studysession"
	"github.com/trezcool/studyplanner/core/user"
)

const (
	defaultTimeout = 10 * time.Second
	retryCount     = 2
)

// APIError is a non-2xx response of the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.StatusCode == code
}

type Client struct {
	http *resty.Client
}

// New returns a client for the API served at baseURL (eg. http://localhost:5000).
func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/api").
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json").
		SetLogger(LogFunc(nil)).
		SetRetryCount(retryCount).
		AddRetryCondition(retryable)
	return &Client{http: c}
}

// retryable retries idempotent requests on transport errors and unavailable
// servers. A timed out POST may have been committed, so it is never sent twice.
func retryable(res *resty.Response, err error) bool {
	if res == nil || res.Request == nil {
		return false
	}
	switch res.Request.Method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return err != nil || res.StatusCode() == http.StatusServiceUnavailable
	}
	return false
}

// LogFunc receives the transport warnings and errors of the client. Debug
// output is dropped. A nil LogFunc discards everything.
type LogFunc func(format string, v ...interface{})

var _ resty.Logger = LogFunc(nil)

func (f LogFunc) Errorf(format string, v ...interface{}) {
	if f != nil {
		f(strings.TrimRight(format, "\n"), v...)
	}
}

func (f LogFunc) Warnf(format string, v ...interface{}) {
	if f != nil {
		f(strings.TrimRight(format, "\n"), v...)
	}
}

func (f LogFunc) Debugf(string, ...interface{}) {}

// SetLogger routes the transport warnings and errors to f.
func (c *Client) SetLogger(f LogFunc) *Client {
	c.http.SetLogger(f)
	return c
}

// SetToken authenticates the following requests.
func (c *Client) SetToken(token string) *Client {
	c.http.SetAuthToken(token)
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	res, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if res.IsError() {
		msg := res.String()
		if eb, ok := res.Error().(*errorBody); ok && eb.Error != "" {
			msg = eb.Error
		}
		return errors.Wrapf(&APIError{StatusCode: res.StatusCode(), Message: msg}, "%s %s", method, path)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token and uses it for the following requests.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var res tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Username: username, Password: password}, &res); err != nil {
		return "", err
	}
	c.SetToken(res.Token)
	return res.Token, nil
}

func (c *Client) Me(ctx context.Context) (user.User, error) {
	var usr user.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &usr)
	return usr, err
}

func (c *Client) CreateEvent(ctx context.Context, ne event.NewEvent) (event.Event, error) {
	var e event.Event
	err := c.do(ctx, http.MethodPost, "/events", ne, &e)
	return e, err
}

func (c *Client) UpdateEvent(ctx context.Context, id string, ue event.UpdateEvent) (event.Event, error) {
	var e event.Event
	err := c.do(ctx, http.MethodPut, "/events/"+id, ue, &e)
	return e, err
}

func (c *Client) CreateSession(ctx context.Context, ns studysession.NewSession) (studysession.Session, error) {
	var s studysession.Session
	err := c.do(ctx, http.MethodPost, "/study-sessions", ns, &s)
	return s, err
}

// Sessions lists the study sessions started in [from, to); zero bounds are open.
func (c *Client) Sessions(ctx context.Context, from, to time.Time) ([]studysession.Session, error) {
	path := "/study-sessions"
	var params []string
	if !from.IsZero() {
		params = append(params, "from="+from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		params = append(params, "to="+to.UTC().Format(time.RFC3339))
	}
	if len(params) > 0 {
		path += "?" + strings.Join(params, "&")
	}
	sessions := make([]studysession.Session, 0)
	err := c.do(ctx, http.MethodGet, path, nil, &sessions)
	return sessions, err
}
