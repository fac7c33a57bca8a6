// Package ajax performs the console's asynchronous requests. Callers never
// block: a request runs on its own goroutine and its continuation is handed
// to a Dispatcher, which delivers it on the UI goroutine.
//
// Every failure (transport error or an HTTP status of 400 and above) goes to
// a single error handler unless the request supplies its own.
package ajax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrForbidden marks a 403 response.
var ErrForbidden = errors.New("forbidden")

// Dispatcher runs fn on the UI goroutine.
type Dispatcher func(fn func())

// Immediate runs continuations on the calling goroutine. Tests and one-shot
// commands use it together with Client.Wait.
func Immediate(fn func()) { fn() }

// Failure describes a failed request.
type Failure struct {
	URL    string
	Status int
	Body   string
	Err    error
}

// Forbidden reports whether the server answered 403.
func (f *Failure) Forbidden() bool { return f.Status == http.StatusForbidden }

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.URL, f.Err)
	}
	return fmt.Sprintf("%s: status %d", f.URL, f.Status)
}

func (f *Failure) Unwrap() error {
	if f.Forbidden() {
		return ErrForbidden
	}
	return f.Err
}

// ErrorHandler receives failed requests.
type ErrorHandler func(f *Failure)

// PreCallbackHandler inspects a successful body before the continuation
// runs. Returning false stops the continuation.
type PreCallbackHandler func(body string) bool

// Client issues requests relative to a base URL.
type Client struct {
	http     *http.Client
	base     *url.URL
	dispatch Dispatcher
	group    singleflight.Group
	logger   *slog.Logger

	defaultError ErrorHandler
	preCallbacks []PreCallbackHandler

	inflight sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBaseURL resolves relative request URLs against base.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base == "" {
			return
		}
		if u, err := url.Parse(base); err == nil {
			c.base = u
		}
	}
}

// WithDispatcher sets how continuations reach the UI goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Client) { c.dispatch = d }
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client. Without a dispatcher continuations run on the
// request goroutine.
func New(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		dispatch: Immediate,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.defaultError = func(f *Failure) {
		c.logger.Warn("request failed", "url", f.URL, "status", f.Status, "err", f.Err)
	}
	return c
}

// SetDefaultErrorHandler replaces the shared error handler.
func (c *Client) SetDefaultErrorHandler(h ErrorHandler) {
	c.defaultError = h
}

// AddPreCallbackHandler adds a handler run on every successful body.
func (c *Client) AddPreCallbackHandler(h PreCallbackHandler) {
	c.preCallbacks = append(c.preCallbacks, h)
}

// Resolve returns the absolute URL for ref.
func (c *Client) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", ref, err)
	}
	if c.base != nil {
		u = c.base.ResolveReference(u)
	}
	return u.String(), nil
}

// Get fetches ref and runs onSuccess with the body. Identical GETs already
// in flight share one request.
func (c *Client) Get(ctx context.Context, ref string, onSuccess func(body string)) {
	target, err := c.Resolve(ref)
	if err != nil {
		c.fail(&Failure{URL: ref, Err: err}, nil)
		return
	}
	c.start(func() {
		v, err, shared := c.group.Do(target, func() (any, error) {
			return c.do(ctx, http.MethodGet, target, nil)
		})
		if shared {
			c.logger.Debug("shared in-flight request", "url", target)
		}
		c.deliver(target, v, err, onSuccess, nil)
	})
}

// Post submits form to ref. onError overrides the default error handler for
// this request when non-nil.
func (c *Client) Post(ctx context.Context, ref string, form url.Values, onSuccess func(body string), onError ErrorHandler) {
	target, err := c.Resolve(ref)
	if err != nil {
		c.fail(&Failure{URL: ref, Err: err}, onError)
		return
	}
	c.start(func() {
		body, err := c.do(ctx, http.MethodPost, target, form)
		c.deliver(target, body, err, onSuccess, onError)
	})
}

// Wait blocks until every request started so far has delivered.
func (c *Client) Wait() {
	c.inflight.Wait()
}

func (c *Client) start(fn func()) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		fn()
	}()
}

func (c *Client) do(ctx context.Context, method, target string, form url.Values) (any, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &Failure{URL: target, Err: err}
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Failure{URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Failure{URL: target, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &Failure{URL: target, Status: resp.StatusCode, Body: string(data)}
	}
	return string(data), nil
}

func (c *Client) deliver(target string, v any, err error, onSuccess func(string), onError ErrorHandler) {
	if err != nil {
		var f *Failure
		if !errors.As(err, &f) {
			f = &Failure{URL: target, Err: err}
		}
		c.fail(f, onError)
		return
	}
	body, _ := v.(string)
	c.dispatch(func() {
		for _, h := range c.preCallbacks {
			if !h(body) {
				c.logger.Debug("pre-callback stopped continuation", "url", target)
				return
			}
		}
		if onSuccess != nil {
			onSuccess(body)
		}
	})
}

func (c *Client) fail(f *Failure, onError ErrorHandler) {
	h := onError
	if h == nil {
		h = c.defaultError
	}
	c.dispatch(func() { h(f) })
}
