// Package page holds the per-page console context: the handler registries,
// the rule engine, the modal stack and the request client. A Page is built
// once when a page loads and discarded on navigation.
package page

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marcus/adminui/pkg/console/ajax"
	"github.com/marcus/adminui/pkg/console/depend"
	"github.com/marcus/adminui/pkg/console/field"
	"github.com/marcus/adminui/pkg/console/form"
	"github.com/marcus/adminui/pkg/console/lifecycle"
	"github.com/marcus/adminui/pkg/console/lookup"
	"github.com/marcus/adminui/pkg/console/modal"
)

// Options configure a Page.
type Options struct {
	Stack      modal.Config
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Dispatch delivers request continuations on the UI goroutine.
	Dispatch ajax.Dispatcher
	Logger   *slog.Logger
	// Activators replace the default widget activators when non-nil.
	Activators []lifecycle.Activator
	// Location and Redirect enable the session-timeout handler.
	Location func() string
	Redirect func(target string)
}

// Page is the console context of one loaded page.
type Page struct {
	Lifecycle *lifecycle.Registry
	Rules     *depend.Engine
	Modals    *modal.Manager
	AJAX      *ajax.Client

	// Body is the page's main form; Tabs its tab panes, if any.
	Body *form.Container
	Tabs *form.Tabs

	logger *slog.Logger
}

// New wires the registries of a page. Field initialization runs against
// every modal shown, and request failures surface as modals.
func New(opts Options) *Page {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lcOpts := []lifecycle.Option{lifecycle.WithLogger(logger)}
	if opts.Activators != nil {
		lcOpts = append(lcOpts, lifecycle.WithActivators(opts.Activators...))
	}
	p := &Page{
		Lifecycle: lifecycle.New(lcOpts...),
		logger:    logger,
	}
	p.Rules = depend.New(p.Lifecycle, logger)

	clientOpts := []ajax.Option{ajax.WithBaseURL(opts.BaseURL), ajax.WithLogger(logger)}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, ajax.WithTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, ajax.WithHTTPClient(opts.HTTPClient))
	}
	if opts.Dispatch != nil {
		clientOpts = append(clientOpts, ajax.WithDispatcher(opts.Dispatch))
	}
	p.AJAX = ajax.New(clientOpts...)
	p.AJAX.SetDefaultErrorHandler(p.ModalErrorHandler)
	if opts.Location != nil && opts.Redirect != nil {
		p.AJAX.AddPreCallbackHandler(ajax.SessionTimeout(opts.Location, opts.Redirect))
	}

	stack := opts.Stack
	if stack == (modal.Config{}) {
		stack = modal.DefaultConfig()
	}
	p.Modals = modal.NewManager(stack,
		modal.WithFetcher(p.AJAX),
		modal.WithFieldInitializer(p.Lifecycle.InitializeFields),
		modal.WithFallbackContainer(p.ActiveTab),
		modal.WithLogger(logger),
	)
	return p
}

// SetBody installs the page's main form and its tab panes. tabs may be nil.
func (p *Page) SetBody(body *form.Container, tabs *form.Tabs) {
	p.Body = body
	p.Tabs = tabs
}

// ActiveTab returns the shown pane of the page tabs, else the page body.
func (p *Page) ActiveTab() *form.Container {
	if c := p.Tabs.Active(); c != nil {
		return c
	}
	return p.Body
}

// InitializeFields initializes c, or the active container when c is nil.
func (p *Page) InitializeFields(c *form.Container) {
	if c == nil {
		c = p.Modals.ActiveContainer()
	}
	p.Lifecycle.InitializeFields(c)
}

// UpdateFields runs the update handlers on c, or on the active container
// when c is nil.
func (p *Page) UpdateFields(c *form.Container) {
	if c == nil {
		c = p.Modals.ActiveContainer()
	}
	p.Lifecycle.UpdateFields(c)
}

// ModalErrorHandler shows a failed request as a modal: a permission
// message for 403, the response itself when it is a single element, or a
// generic error message otherwise.
func (p *Page) ModalErrorHandler(f *ajax.Failure) {
	msgs := p.Modals.Config().Messages
	if f.Forbidden() {
		p.Modals.ShowMessage(msgs.Error, msgs.Forbidden)
		return
	}

	body := strings.TrimSpace(f.Body)
	if n, err := modal.RootCount(body); err == nil && n == 1 {
		if c, err := modal.ParseFragment(body); err == nil {
			p.Modals.ShowElement(c, nil, nil)
			return
		}
	}
	p.logger.Debug("request failed", "url", f.URL, "status", f.Status, "err", f.Err)
	p.Modals.ShowMessage(msgs.Error, msgs.ErrorOccurred)
}

// Submit runs the submit handlers on the top modal's form and, when
// validation passes, posts it to its action. The response replaces the
// modal's content. It reports whether the form was posted.
func (p *Page) Submit(ctx context.Context) bool {
	e := p.Modals.Current()
	if e == nil || e.Content == nil || e.Content.Form == nil {
		return false
	}
	c := e.Content.Form
	if !p.Lifecycle.RunSubmitHandlers(c) {
		p.logger.Debug("submit blocked by validation", "class", c.Class)
		return false
	}
	if c.Name == "" {
		return false
	}

	e.BeginSubmit()
	p.AJAX.Post(ctx, c.Name, Values(c), func(body string) {
		content, err := modal.ParseFragment(body)
		if err != nil {
			msgs := p.Modals.Config().Messages
			content = modal.Message(msgs.Error, msgs.ErrorOccurred)
		}
		p.Modals.Replace(e, content)
	}, func(f *ajax.Failure) {
		e.SubmitVisible, e.LoaderVisible = true, false
		p.ModalErrorHandler(f)
	})
	return true
}

// SubmitBody runs the submit handlers on the page form and posts it to its
// action. The response opens as a modal. It reports whether the form was
// posted.
func (p *Page) SubmitBody(ctx context.Context) bool {
	c := p.Body
	if c == nil || c.Name == "" {
		return false
	}
	if !p.Lifecycle.RunSubmitHandlers(c) {
		p.logger.Debug("submit blocked by validation", "class", c.Class)
		return false
	}
	p.AJAX.Post(ctx, c.Name, Values(c), func(body string) {
		content, err := modal.ParseFragment(body)
		if err != nil {
			msgs := p.Modals.Config().Messages
			content = modal.Message(msgs.Error, msgs.ErrorOccurred)
		}
		p.Modals.ShowElement(content, nil, nil)
	}, nil)
	return true
}

// Lookup returns a foreign-key picker over source using the page's filter
// rules.
func (p *Page) Lookup(source lookup.Source) *lookup.Lookup {
	return lookup.New(p.Rules, source, p.logger)
}

// Values collects the submitted values of c's fields by name. Fields with
// a Null value are omitted.
func Values(c *form.Container) url.Values {
	out := url.Values{}
	for _, f := range c.Fields() {
		name := f.Name
		if name == "" {
			name = f.ID
		}
		if v := field.ExtractValue(f); v.Valid() {
			out.Add(name, v.String())
		}
	}
	return out
}
