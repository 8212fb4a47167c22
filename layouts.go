package layouts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-layouts/internal/blocks"
	"github.com/goliatone/go-layouts/internal/collections"
	"github.com/goliatone/go-layouts/internal/commands"
	layoutscmd "github.com/goliatone/go-layouts/internal/commands/layouts"
	"github.com/goliatone/go-layouts/internal/definitions"
	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/engine"
	"github.com/goliatone/go-layouts/internal/identity"
	layoutsvc "github.com/goliatone/go-layouts/internal/layouts"
	"github.com/goliatone/go-layouts/internal/logging"
	"github.com/goliatone/go-layouts/internal/runtimeconfig"
	"github.com/goliatone/go-layouts/internal/translation"
	"github.com/goliatone/go-layouts/pkg/interfaces"
)

type (
	Engine   = engine.Engine
	Handlers = engine.Handlers
	Status   = domain.Status

	Block                  = blocks.Block
	BlockCreateStruct      = blocks.CreateStruct
	BlockUpdateStruct      = blocks.UpdateStruct
	BlockTranslationUpdate = blocks.TranslationUpdateStruct
	LayoutRef              = blocks.LayoutRef
	Parameters             = translation.Parameters
	Layout                 = layoutsvc.Layout
	Zone                   = layoutsvc.Zone
	LayoutCreateStruct     = layoutsvc.CreateStruct
	LayoutUpdateStruct     = layoutsvc.UpdateStruct
	LayoutCopyStruct       = layoutsvc.CopyStruct
	LayoutListQuery        = layoutsvc.ListQuery
	ZoneMappings           = layoutsvc.ZoneMappings
	LayoutFinder           = layoutsvc.LayoutFinder
	FindQuery              = layoutsvc.FindQuery
	Collection             = collections.Collection
	CollectionReference    = collections.Reference
	CollectionCreateStruct = collections.CreateStruct
	Registry               = definitions.Registry
	BlockDefinition        = definitions.Block
	ParameterDefinition    = definitions.Parameter
	CollectionDefinition   = definitions.Collection
	LayoutType             = definitions.LayoutType
	IDGenerator            = identity.Generator
	CommandHandlers        = layoutscmd.HandlerSet
	PublishLayoutCommand   = layoutscmd.PublishLayoutCommand
	ArchiveLayoutCommand   = layoutscmd.ArchiveLayoutCommand
	DiscardDraftCommand    = layoutscmd.DiscardDraftCommand
	RestoreLayoutCommand   = layoutscmd.RestoreLayoutCommand
	CommandRegistry        = layoutscmd.CommandRegistry
)

const (
	StatusDraft     = domain.StatusDraft
	StatusPublished = domain.StatusPublished
	StatusArchived  = domain.StatusArchived

	// RootPlaceholder holds the children of a zone root block.
	RootPlaceholder = blocks.RootPlaceholder
)

// NewRegistry returns an empty block definition and layout type registry.
func NewRegistry() *Registry {
	return definitions.NewRegistry()
}

// NewSequenceIDs returns an id generator that yields the same uuids when the
// same operations are replayed from seed.
func NewSequenceIDs(seed string) IDGenerator {
	return identity.NewSequence(seed)
}

// Option customises module construction.
type Option func(*moduleOptions)

type moduleOptions struct {
	registry *Registry
	db       *bun.DB
	provider interfaces.LoggerProvider
	ids      IDGenerator
}

// WithRegistry sets the definitions used to validate blocks and layouts.
func WithRegistry(registry *Registry) Option {
	return func(o *moduleOptions) { o.registry = registry }
}

// WithDB reuses an open connection instead of opening Storage.DSN. The
// module does not close it.
func WithDB(db *bun.DB) Option {
	return func(o *moduleOptions) { o.db = db }
}

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(o *moduleOptions) { o.provider = provider }
}

// WithIDGenerator overrides the uuid generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(o *moduleOptions) { o.ids = ids }
}

// Module is the top level runtime of the layouts engine.
type Module struct {
	cfg         Config
	engine      *engine.Engine
	db          *bun.DB
	ownsDB      bool
	finder      *LayoutFinder
	commands    *layoutscmd.HandlerSet
	unsubscribe func()
	logger      interfaces.Logger
}

// New validates cfg and wires the engine over the configured storage.
func New(ctx context.Context, cfg Config, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := moduleOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	provider := options.provider
	if provider == nil {
		built, err := NewLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
		provider = built
	}
	registry := options.registry
	if registry == nil {
		registry = NewRegistry()
	}
	ids := options.ids
	if ids == nil {
		ids = identity.NewGenerator()
	}

	m := &Module{cfg: cfg, logger: logging.ModuleLogger(provider, "layouts")}

	var backend engine.Backend
	if strings.EqualFold(strings.TrimSpace(cfg.Storage.Provider), runtimeconfig.ProviderMemory) {
		backend = engine.NewMemoryBackend()
	} else {
		db := options.db
		if db == nil {
			opened, err := OpenDB(cfg.Storage)
			if err != nil {
				return nil, err
			}
			db = opened
			m.ownsDB = true
		}
		m.db = db
		if cfg.Storage.AutoMigrate {
			if err := Migrate(ctx, db.DB, cfg.Storage.Dialect); err != nil {
				m.closeDB()
				return nil, err
			}
		}
		finder, err := newFinder(db, cfg.Cache)
		if err != nil {
			m.closeDB()
			return nil, err
		}
		m.finder = finder
		backend = engine.NewBunBackend(db)
	}

	m.engine = engine.New(backend,
		engine.WithRegistry(registry),
		engine.WithIDGenerator(ids),
		engine.WithLoggerProvider(provider),
	)
	m.commands = layoutscmd.NewHandlerSet(m.engine, commands.CommandLogger(provider, "layouts"), cfg.Commands.Timeout)
	if cfg.Commands.AutoRegisterDispatcher {
		m.unsubscribe = m.commands.Subscribe()
	}

	m.logger.Debug("layouts.module_ready", "storage", cfg.Storage.Provider, "dialect", cfg.Storage.Dialect)
	return m, nil
}

// OpenDB opens the database named by cfg with the matching bun dialect.
func OpenDB(cfg StorageConfig) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Dialect)) {
	case runtimeconfig.DialectSQLite:
		sqlDB, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite serialises writers; one connection avoids lock errors
		sqlDB.SetMaxOpenConns(1)
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case runtimeconfig.DialectPostgres:
		sqlDB, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrStorageDialectUnknown, cfg.Dialect)
	}
}

func newFinder(db *bun.DB, cfg CacheConfig) (*LayoutFinder, error) {
	if !cfg.Enabled {
		return layoutsvc.NewLayoutFinder(db), nil
	}
	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = cfg.DefaultTTL
	cacheService, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("layout finder cache: %w", err)
	}
	return layoutsvc.NewLayoutFinderWithCache(db, cacheService, repocache.NewDefaultKeySerializer()), nil
}

// Config returns the configuration the module was built with.
func (m *Module) Config() Config {
	return m.cfg
}

// Engine returns the transactional engine.
func (m *Module) Engine() *Engine {
	return m.engine
}

// Registry returns the block definition registry.
func (m *Module) Registry() *Registry {
	return m.engine.Registry()
}

// Commands returns the layout status command handlers.
func (m *Module) Commands() *CommandHandlers {
	return m.commands
}

// Finder returns the read-side layout finder. It is nil for the memory
// provider.
func (m *Module) Finder() *LayoutFinder {
	return m.finder
}

// DB returns the bun connection, nil for the memory provider.
func (m *Module) DB() *bun.DB {
	return m.db
}

// Transaction runs fn inside one engine transaction.
func (m *Module) Transaction(ctx context.Context, fn func(ctx context.Context, h *Handlers) error) error {
	return m.engine.Transaction(ctx, fn)
}

// View runs fn inside a transaction that is always rolled back.
func (m *Module) View(ctx context.Context, fn func(ctx context.Context, h *Handlers) error) error {
	return m.engine.View(ctx, fn)
}

// Close removes dispatcher subscriptions and closes a database opened by New.
func (m *Module) Close() error {
	if m == nil {
		return nil
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	return m.closeDB()
}

func (m *Module) closeDB() error {
	if !m.ownsDB || m.db == nil {
		return nil
	}
	m.ownsDB = false
	return m.db.Close()
}
