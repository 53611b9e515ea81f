package router

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/stagehand/internal/logging"
	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/observability"
	"github.com/aretw0/stagehand/pkg/ports"
	"github.com/aretw0/stagehand/pkg/scene"
	"github.com/aretw0/stagehand/pkg/schedule"
	"github.com/aretw0/stagehand/pkg/session"
	"github.com/aretw0/stagehand/pkg/viewport"
)

// UnhandledMessageFunc applies the host's default action to a text message
// no scene claimed, e.g. deleting it.
type UnhandledMessageFunc func(ctx context.Context, msg domain.Message)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the structured logger shared by the router and its scenes.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithObserver injects the observer receiving dispatch, restore and render events.
func WithObserver(obs observability.Observer) Option {
	return func(r *Router) {
		r.observer = obs
	}
}

// WithScheduler sets the scheduler used for delayed notification cleanup.
// Defaults to a schedule.Timer.
func WithScheduler(s ports.Scheduler) Option {
	return func(r *Router) {
		r.scheduler = s
	}
}

// WithMetadataTTL sets the lifetime of metadata records written on render.
func WithMetadataTTL(ttl time.Duration) Option {
	return func(r *Router) {
		r.metadataTTL = ttl
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}

// WithUnhandledMessage registers the default action for unclaimed messages.
func WithUnhandledMessage(fn UnhandledMessageFunc) Option {
	return func(r *Router) {
		r.unhandled = fn
	}
}

// WithDeleteUnhandled deletes unclaimed messages from the chat, keeping the
// conversation limited to scene output. It replaces any unhandled-message hook.
func WithDeleteUnhandled() Option {
	return func(r *Router) {
		r.unhandled = r.deleteMessage
	}
}

// WithStaleMenuText replaces the alert shown for callbacks nobody claims.
func WithStaleMenuText(text string) Option {
	return func(r *Router) {
		r.staleText = text
	}
}

// Builder collects scenes and validates them into a Router.
type Builder struct {
	transport ports.Transport
	sessions  ports.SessionStore
	metadata  ports.MetadataStore
	entries   []scene.Entry
	opts      []Option
}

// NewBuilder starts a router over the given transport and stores.
func NewBuilder(transport ports.Transport, sessions ports.SessionStore, metadata ports.MetadataStore, opts ...Option) *Builder {
	return &Builder{
		transport: transport,
		sessions:  sessions,
		metadata:  metadata,
		opts:      opts,
	}
}

// Register appends scenes. Registration order is the order of the
// message-matcher scan.
func (b *Builder) Register(entries ...scene.Entry) *Builder {
	b.entries = append(b.entries, entries...)
	return b
}

// With appends options.
func (b *Builder) With(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Build validates the registered scenes and returns the router. The first
// problem in registration order is reported as a *ConfigError.
func (b *Builder) Build() (*Router, error) {
	if err := validate(b.entries); err != nil {
		return nil, err
	}

	r := &Router{
		entries:     append([]scene.Entry(nil), b.entries...),
		byID:        make(map[string]scene.Entry, len(b.entries)),
		transport:   b.transport,
		metadata:    b.metadata,
		metadataTTL: domain.DefaultMetadataTTL,
		staleText:   StaleMenuText,
		now:         time.Now,
	}
	for _, opt := range b.opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.scheduler == nil {
		r.scheduler = schedule.NewTimer(schedule.WithLogger(r.logger))
	}
	for _, e := range r.entries {
		r.byID[e.ID()] = e
	}

	r.sessions = session.NewManager(b.sessions, session.WithLogger(r.logger))
	r.viewport = viewport.New(b.transport, r.sessions, b.metadata,
		viewport.WithLogger(r.logger),
		viewport.WithObserver(r.observer),
		viewport.WithMetadataTTL(r.metadataTTL),
		viewport.WithClock(r.now),
	)
	r.rt = &scene.Runtime{
		Transport: b.transport,
		Sessions:  r.sessions,
		Metadata:  b.metadata,
		Viewport:  r.viewport,
		Scheduler: r.scheduler,
		Logger:    r.logger,
		Observer:  r.observer,
		Now:       r.now,
		Switch:    r.Switch,
	}
	return r, nil
}

// MustBuild is Build for static wiring; it panics on a configuration error.
func (b *Builder) MustBuild() *Router {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

func validate(entries []scene.Entry) error {
	ids := make(map[string]bool, len(entries))
	prefixes := make(map[string]bool, len(entries))
	for i, e := range entries {
		id, prefix := e.ID(), e.Prefix()
		switch {
		case id == "":
			return &ConfigError{Kind: ErrEmptyID, Value: id, Index: i}
		case prefix == "":
			return &ConfigError{Kind: ErrEmptyPrefix, Value: prefix, Index: i}
		case prefix == domain.ReservedNamespace:
			return &ConfigError{Kind: ErrReservedPrefix, Value: prefix, Index: i}
		case strings.Contains(prefix, ":") || !domain.ValidCallbackData(prefix):
			return &ConfigError{Kind: ErrInvalidPrefix, Value: prefix, Index: i}
		case ids[id]:
			return &ConfigError{Kind: ErrDuplicateID, Value: id, Index: i}
		case prefixes[prefix]:
			return &ConfigError{Kind: ErrDuplicatePrefix, Value: prefix, Index: i}
		}
		ids[id] = true
		prefixes[prefix] = true
	}
	return nil
}
