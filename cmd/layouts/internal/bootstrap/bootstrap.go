package bootstrap

import (
	"context"
	"fmt"
	"strings"

	layouts "github.com/goliatone/go-layouts"
)

// Options overrides the environment configuration of the CLI.
type Options struct {
	EnvFiles []string
	Storage  string
	Dialect  string
	DSN      string
	LogLevel string
	// Seed makes generated uuids replayable when set.
	Seed string
}

// LoadConfig reads the environment configuration and applies opts.
func LoadConfig(opts Options) (layouts.Config, error) {
	cfg, err := layouts.LoadConfig(opts.EnvFiles...)
	if err != nil {
		return layouts.Config{}, err
	}
	if v := strings.TrimSpace(opts.Storage); v != "" {
		cfg.Storage.Provider = v
	}
	if v := strings.TrimSpace(opts.Dialect); v != "" {
		cfg.Storage.Dialect = v
	}
	if v := strings.TrimSpace(opts.DSN); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(opts.LogLevel); v != "" {
		cfg.Logging.Level = v
	}
	return cfg, cfg.Validate()
}

// BuildModule constructs the layouts module with the demo definitions.
func BuildModule(ctx context.Context, opts Options) (*layouts.Module, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	registry, err := DemoRegistry()
	if err != nil {
		return nil, err
	}
	moduleOpts := []layouts.Option{layouts.WithRegistry(registry)}
	if seed := strings.TrimSpace(opts.Seed); seed != "" {
		moduleOpts = append(moduleOpts, layouts.WithIDGenerator(layouts.NewSequenceIDs(seed)))
	}
	return layouts.New(ctx, cfg, moduleOpts...)
}

// DemoRegistry registers a small set of block definitions and layout types.
func DemoRegistry() (*layouts.Registry, error) {
	registry := layouts.NewRegistry()
	definitions := []layouts.BlockDefinition{
		{
			Identifier:   "title",
			Name:         "Title",
			Translatable: true,
			Parameters: []layouts.ParameterDefinition{
				{Name: "title", Translatable: true},
				{Name: "tag", Default: "h1"},
			},
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{"type": "string"},
					"tag":   map[string]any{"type": "string", "enum": []any{"h1", "h2", "h3"}},
				},
			},
		},
		{
			Identifier:   "columns",
			Name:         "Two columns",
			Translatable: true,
			Placeholders: []string{"left", "right"},
		},
		{
			Identifier:   "list",
			Name:         "List",
			Translatable: true,
			Parameters:   []layouts.ParameterDefinition{{Name: "heading", Translatable: true}},
			Collections:  []layouts.CollectionDefinition{{Identifier: "default"}},
		},
	}
	for _, def := range definitions {
		if err := registry.RegisterBlock(def); err != nil {
			return nil, fmt.Errorf("register block %s: %w", def.Identifier, err)
		}
	}
	layoutTypes := []layouts.LayoutType{
		{Identifier: "landing", Name: "Landing", Zones: []string{"header", "main"}},
		{Identifier: "sidebar", Name: "Sidebar", Zones: []string{"header", "main", "aside"}},
	}
	for _, layoutType := range layoutTypes {
		if err := registry.RegisterLayoutType(layoutType); err != nil {
			return nil, fmt.Errorf("register layout type %s: %w", layoutType.Identifier, err)
		}
	}
	return registry, nil
}

// SplitLocales parses a comma separated locale list.
func SplitLocales(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if locale := strings.TrimSpace(part); locale != "" {
			out = append(out, locale)
		}
	}
	return out
}
