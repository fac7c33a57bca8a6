// Package lifecycle runs the handler lists a page registers at setup time:
// initialization and update handlers for form containers, and the three
// submit phases (pre-validation, validation, post-validation).
//
// Handlers of one class run synchronously in registration order.
package lifecycle

import (
	"log/slog"

	"github.com/marcus/adminui/pkg/console/form"
)

// Handler runs against a form container.
type Handler func(c *form.Container)

// ValidationHandler returns false to block submission.
type ValidationHandler func(c *form.Container) bool

// Registry holds every handler list of one page.
type Registry struct {
	initialization []Handler
	update         []Handler
	preValidation  []Handler
	validation     []ValidationHandler
	postValidation []Handler
	activators     []Activator
	logger         *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithActivators replaces the default widget activators.
func WithActivators(a ...Activator) Option {
	return func(r *Registry) { r.activators = a }
}

// New creates a registry with the default widget activators.
func New(opts ...Option) *Registry {
	r := &Registry{
		activators: DefaultActivators(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddInitializationHandler runs fn on every container initialization.
func (r *Registry) AddInitializationHandler(fn Handler) {
	r.initialization = append(r.initialization, fn)
}

// AddUpdateHandler runs fn on every UpdateFields call.
func (r *Registry) AddUpdateHandler(fn Handler) {
	r.update = append(r.update, fn)
}

// AddPreValidationSubmitHandler runs fn before client-side validation.
func (r *Registry) AddPreValidationSubmitHandler(fn Handler) {
	r.preValidation = append(r.preValidation, fn)
}

// AddValidationSubmitHandler adds a validator. If any validator returns
// false the form is not submitted.
func (r *Registry) AddValidationSubmitHandler(fn ValidationHandler) {
	r.validation = append(r.validation, fn)
}

// AddPostValidationSubmitHandler runs fn after validation, before submit.
func (r *Registry) AddPostValidationSubmitHandler(fn Handler) {
	r.postValidation = append(r.postValidation, fn)
}

// RunPreValidationSubmitHandlers runs the pre-validation handlers.
func (r *Registry) RunPreValidationSubmitHandlers(c *form.Container) {
	for _, fn := range r.preValidation {
		fn(c)
	}
}

// RunValidationSubmitHandlers runs every validator, even after one fails, so
// each can surface its own message. It returns the AND of their results.
func (r *Registry) RunValidationSubmitHandlers(c *form.Container) bool {
	pass := true
	for _, fn := range r.validation {
		if !fn(c) {
			pass = false
		}
	}
	return pass
}

// RunPostValidationSubmitHandlers runs the post-validation handlers.
func (r *Registry) RunPostValidationSubmitHandlers(c *form.Container) {
	for _, fn := range r.postValidation {
		fn(c)
	}
}

// RunSubmitHandlers runs all three phases and reports whether the form
// should be submitted.
func (r *Registry) RunSubmitHandlers(c *form.Container) bool {
	r.RunPreValidationSubmitHandlers(c)
	submit := r.RunValidationSubmitHandlers(c)
	r.RunPostValidationSubmitHandlers(c)
	return submit
}

// InitializeFields activates widgets, fills blank foreign-key displays and
// runs the initialization handlers, once per container. Calling it again on
// an initialized container does nothing until the container is Reset.
func (r *Registry) InitializeFields(c *form.Container) {
	if c == nil || c.Initialized() {
		return
	}

	for _, a := range r.activators {
		for _, f := range c.WithClass(a.Class()) {
			a.Activate(c, f)
		}
	}

	for _, f := range c.Fields() {
		if fk := f.ForeignKey(); fk != nil && fk.Display == "" {
			fk.Display = fk.NoneSelected
		}
	}

	for _, fn := range r.initialization {
		fn(c)
	}

	c.MarkInitialized()
	r.logger.Debug("fields initialized", "class", c.Class, "container", c.Name, "handlers", len(r.initialization))
}

// UpdateFields runs the update handlers against c.
func (r *Registry) UpdateFields(c *form.Container) {
	for _, fn := range r.update {
		fn(c)
	}
}
