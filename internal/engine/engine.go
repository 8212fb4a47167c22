package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-layouts/internal/blocks"
	"github.com/goliatone/go-layouts/internal/collections"
	"github.com/goliatone/go-layouts/internal/definitions"
	"github.com/goliatone/go-layouts/internal/identity"
	"github.com/goliatone/go-layouts/internal/layouts"
	"github.com/goliatone/go-layouts/internal/logging"
	"github.com/goliatone/go-layouts/pkg/interfaces"
)

// Handlers groups the handlers bound to one transaction. They must not be
// used after the transaction function returns.
type Handlers struct {
	Blocks      *blocks.Handler
	Layouts     *layouts.Handler
	Collections *collections.Linker
}

// Option configures the engine.
type Option func(*Engine)

// WithRegistry sets the block definition and layout type registry.
func WithRegistry(registry *definitions.Registry) Option {
	return func(e *Engine) {
		if registry != nil {
			e.registry = registry
		}
	}
}

// WithIDGenerator overrides the uuid generator shared by every handler.
func WithIDGenerator(generator identity.Generator) Option {
	return func(e *Engine) {
		if generator != nil {
			e.ids = generator
		}
	}
}

// WithLoggerProvider sets the provider the module loggers are taken from.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(e *Engine) {
		e.provider = provider
	}
}

// WithNow overrides the clock used for layout timestamps.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine runs handler operations inside backend transactions.
type Engine struct {
	backend  Backend
	registry *definitions.Registry
	ids      identity.Generator
	provider interfaces.LoggerProvider
	logger   interfaces.Logger
	now      func() time.Time
}

// New constructs an engine over backend.
func New(backend Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:  backend,
		registry: definitions.NewRegistry(),
		ids:      identity.NewGenerator(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.EngineLogger(e.provider)
	return e
}

// Registry returns the registry shared by every transaction.
func (e *Engine) Registry() *definitions.Registry {
	return e.registry
}

// Transaction runs fn inside one transaction. The transaction commits when
// fn returns nil and rolls back when it returns an error or panics.
func (e *Engine) Transaction(ctx context.Context, fn func(ctx context.Context, h *Handlers) error) (err error) {
	session, err := e.backend.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			if rbErr := session.Rollback(ctx); rbErr != nil {
				e.logger.Error("engine.rollback_failed", "error", rbErr)
			}
			panic(recovered)
		}
	}()

	if err := fn(ctx, e.bind(session)); err != nil {
		if rbErr := session.Rollback(ctx); rbErr != nil {
			e.logger.Error("engine.rollback_failed", "error", rbErr)
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		e.logger.Debug("engine.rolled_back", "error", err)
		return err
	}
	return session.Commit(ctx)
}

// View runs fn inside a transaction that is always rolled back.
func (e *Engine) View(ctx context.Context, fn func(ctx context.Context, h *Handlers) error) error {
	session, err := e.backend.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rbErr := session.Rollback(ctx); rbErr != nil {
			e.logger.Error("engine.rollback_failed", "error", rbErr)
		}
	}()
	return fn(ctx, e.bind(session))
}

func (e *Engine) bind(session Session) *Handlers {
	linker := collections.NewLinker(session.Collections(),
		collections.WithIDGenerator(e.ids),
		collections.WithLogger(logging.CollectionsLogger(e.provider)),
	)
	blockHandler := blocks.NewHandler(session.Blocks(), linker, layouts.Resolver(session.Layouts()),
		blocks.WithRegistry(e.registry),
		blocks.WithIDGenerator(e.ids),
		blocks.WithLogger(logging.BlocksLogger(e.provider)),
	)
	layoutHandler := layouts.NewHandler(session.Layouts(), blockHandler,
		layouts.WithRegistry(e.registry),
		layouts.WithIDGenerator(e.ids),
		layouts.WithLogger(logging.LayoutsLogger(e.provider)),
		layouts.WithNow(e.now),
	)
	return &Handlers{
		Blocks:      blockHandler,
		Layouts:     layoutHandler,
		Collections: linker,
	}
}
