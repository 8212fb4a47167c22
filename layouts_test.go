package layouts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	layouts "github.com/goliatone/go-layouts"
)

func testRegistry(t *testing.T) *layouts.Registry {
	t.Helper()
	registry := layouts.NewRegistry()
	require.NoError(t, registry.RegisterBlock(layouts.BlockDefinition{
		Identifier:   "text",
		Translatable: true,
		Parameters:   []layouts.ParameterDefinition{{Name: "title", Translatable: true}},
	}))
	require.NoError(t, registry.RegisterLayoutType(layouts.LayoutType{Identifier: "single", Zones: []string{"main"}}))
	return registry
}

func createLayout(t *testing.T, m *layouts.Module) *layouts.Layout {
	t.Helper()
	var layout *layouts.Layout
	err := m.Transaction(context.Background(), func(ctx context.Context, h *layouts.Handlers) error {
		var err error
		layout, err = h.Layouts.CreateLayout(ctx, layouts.LayoutCreateStruct{Type: "single", Name: "Home", MainLocale: "en"})
		if err != nil {
			return err
		}
		zone, err := h.Layouts.LoadZone(ctx, layout, "main")
		if err != nil {
			return err
		}
		root, err := h.Blocks.LoadBlock(ctx, zone.RootBlockID, layout.Status)
		if err != nil {
			return err
		}
		_, err = h.Blocks.CreateBlock(ctx, layouts.BlockCreateStruct{
			DefinitionIdentifier: "text",
			Parameters:           layouts.Parameters{"title": "Welcome"},
		}, layout.Ref(), root, layouts.RootPlaceholder)
		return err
	})
	require.NoError(t, err)
	return layout
}

func TestNewMemoryModule(t *testing.T) {
	cfg := layouts.DefaultConfig()
	cfg.Storage.Provider = "memory"
	cfg.Logging.Level = "error"

	m, err := layouts.New(context.Background(), cfg, layouts.WithRegistry(testRegistry(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.Nil(t, m.Finder())
	require.Nil(t, m.DB())

	layout := createLayout(t, m)
	require.NoError(t, m.Commands().Publish.Execute(context.Background(), layouts.PublishLayoutCommand{LayoutID: layout.ID}))

	err = m.View(context.Background(), func(ctx context.Context, h *layouts.Handlers) error {
		published, err := h.Layouts.LoadLayout(ctx, layout.ID, layouts.StatusPublished)
		if err != nil {
			return err
		}
		require.Equal(t, "Home", published.Name)
		return nil
	})
	require.NoError(t, err)
}

func TestNewSQLiteModule(t *testing.T) {
	cfg := layouts.DefaultConfig()
	cfg.Storage.DSN = "file:layouts_module_test?mode=memory&cache=shared"
	cfg.Logging.Level = "error"

	m, err := layouts.New(context.Background(), cfg,
		layouts.WithRegistry(testRegistry(t)),
		layouts.WithIDGenerator(layouts.NewSequenceIDs("module")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	require.NotNil(t, m.DB())

	layout := createLayout(t, m)
	require.NoError(t, m.Commands().Publish.Execute(context.Background(), layouts.PublishLayoutCommand{LayoutID: layout.ID}))

	found, total, err := m.Finder().Find(context.Background(), layouts.FindQuery{Status: layouts.StatusPublished})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, layout.UUID, found[0].UUID)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := layouts.DefaultConfig()
	cfg.Storage.Provider = "redis"

	_, err := layouts.New(context.Background(), cfg)
	require.True(t, errors.Is(err, layouts.ErrStorageProviderUnknown), "got %v", err)
}

func TestEngineErrorsAreExported(t *testing.T) {
	cfg := layouts.DefaultConfig()
	cfg.Storage.Provider = "memory"
	cfg.Logging.Level = "error"

	m, err := layouts.New(context.Background(), cfg, layouts.WithRegistry(testRegistry(t)))
	require.NoError(t, err)

	err = m.View(context.Background(), func(ctx context.Context, h *layouts.Handlers) error {
		_, err := h.Layouts.LoadLayout(ctx, 42, layouts.StatusDraft)
		return err
	})
	require.True(t, layouts.IsNotFound(err))
	require.True(t, errors.Is(err, layouts.ErrNotFound))

	var notFound *layouts.NotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "layout", notFound.Resource)
}

func TestNewLoggerProviderRejectsUnknownProvider(t *testing.T) {
	_, err := layouts.NewLoggerProvider(layouts.LoggingConfig{Provider: "syslog"})
	require.True(t, errors.Is(err, layouts.ErrLoggingProviderUnknown))

	provider, err := layouts.NewLoggerProvider(layouts.LoggingConfig{Provider: "gologger", Format: "json", Level: "info"})
	require.NoError(t, err)
	require.NotNil(t, provider.GetLogger("layouts"))
}
