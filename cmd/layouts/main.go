package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	layouts "github.com/goliatone/go-layouts"
	"github.com/goliatone/go-layouts/cmd/layouts/internal/bootstrap"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("layouts: %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: layouts <migrate|demo> [flags]")
	}
	switch args[0] {
	case "migrate":
		return runMigrate(ctx, args[1:], out)
	case "demo":
		return runDemo(ctx, args[1:], out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// storageFlags registers the storage flags on fs. The returned function
// builds the options once fs has been parsed.
func storageFlags(fs *flag.FlagSet) func() bootstrap.Options {
	envFile := fs.String("env-file", "", "Dotenv file loaded before reading LAYOUTS_ variables")
	storage := fs.String("storage", "", "Storage provider (bun or memory)")
	dialect := fs.String("dialect", "", "SQL dialect (sqlite or postgres)")
	dsn := fs.String("dsn", "", "Database connection string")
	logLevel := fs.String("log-level", "", "Minimum log level")
	seed := fs.String("seed", "", "Seed for replayable uuids")
	return func() bootstrap.Options {
		opts := bootstrap.Options{
			Storage:  *storage,
			Dialect:  *dialect,
			DSN:      *dsn,
			LogLevel: *logLevel,
			Seed:     *seed,
		}
		if *envFile != "" {
			opts.EnvFiles = []string{*envFile}
		}
		return opts
	}
}

func runMigrate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("layouts-migrate", flag.ContinueOnError)
	options := storageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := bootstrap.LoadConfig(options())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.EqualFold(cfg.Storage.Provider, "memory") {
		return fmt.Errorf("migrate requires the bun storage provider")
	}
	db, err := layouts.OpenDB(cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := layouts.Migrate(ctx, db.DB, cfg.Storage.Dialect); err != nil {
		return err
	}
	fmt.Fprintf(out, "migrations applied (%s)\n", cfg.Storage.Dialect)
	return nil
}

func runDemo(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("layouts-demo", flag.ContinueOnError)
	options := storageFlags(fs)
	name := fs.String("name", "Demo landing", "Name of the created layout")
	locales := fs.String("locales", "hr", "Comma separated locales added after creation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(ctx, options())
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	var layout *layouts.Layout
	err = module.Transaction(ctx, func(ctx context.Context, h *layouts.Handlers) error {
		layout, err = h.Layouts.CreateLayout(ctx, layouts.LayoutCreateStruct{
			Type:       "landing",
			Name:       *name,
			MainLocale: module.Config().I18N.DefaultLocale,
		})
		if err != nil {
			return err
		}
		if err := seedDemoBlocks(ctx, h, layout); err != nil {
			return err
		}
		for _, locale := range bootstrap.SplitLocales(*locales) {
			if layout.HasLocale(locale) {
				continue
			}
			if layout, err = h.Layouts.CreateLayoutTranslation(ctx, layout, locale, layout.MainLocale); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create layout: %w", err)
	}

	if err := module.Commands().Publish.Execute(ctx, layouts.PublishLayoutCommand{LayoutID: layout.ID}); err != nil {
		return fmt.Errorf("publish layout: %w", err)
	}

	return module.View(ctx, func(ctx context.Context, h *layouts.Handlers) error {
		published, err := h.Layouts.LoadLayout(ctx, layout.ID, layouts.StatusPublished)
		if err != nil {
			return err
		}
		return printLayout(ctx, out, h, published)
	})
}

func seedDemoBlocks(ctx context.Context, h *layouts.Handlers, layout *layouts.Layout) error {
	header, err := zoneRoot(ctx, h, layout, "header")
	if err != nil {
		return err
	}
	if _, err := h.Blocks.CreateBlock(ctx, layouts.BlockCreateStruct{
		DefinitionIdentifier: "title",
		Parameters:           layouts.Parameters{"title": "Welcome"},
	}, layout.Ref(), header, layouts.RootPlaceholder); err != nil {
		return err
	}

	body, err := zoneRoot(ctx, h, layout, "main")
	if err != nil {
		return err
	}
	columns, err := h.Blocks.CreateBlock(ctx, layouts.BlockCreateStruct{DefinitionIdentifier: "columns"}, layout.Ref(), body, layouts.RootPlaceholder)
	if err != nil {
		return err
	}
	if _, err := h.Blocks.CreateBlock(ctx, layouts.BlockCreateStruct{
		DefinitionIdentifier: "title",
		Parameters:           layouts.Parameters{"title": "Left column", "tag": "h2"},
	}, layout.Ref(), columns, "left"); err != nil {
		return err
	}
	_, err = h.Blocks.CreateBlock(ctx, layouts.BlockCreateStruct{
		DefinitionIdentifier: "list",
		Parameters:           layouts.Parameters{"heading": "Latest"},
	}, layout.Ref(), columns, "right")
	return err
}

func zoneRoot(ctx context.Context, h *layouts.Handlers, layout *layouts.Layout, identifier string) (*layouts.Block, error) {
	zone, err := h.Layouts.LoadZone(ctx, layout, identifier)
	if err != nil {
		return nil, err
	}
	return h.Blocks.LoadBlock(ctx, zone.RootBlockID, layout.Status)
}

func printLayout(ctx context.Context, out io.Writer, h *layouts.Handlers, layout *layouts.Layout) error {
	fmt.Fprintf(out, "layout %d %q (%s, %s) locales=%s\n",
		layout.ID, layout.Name, layout.Type, layout.Status, strings.Join(layout.AvailableLocales, ","))

	zones, err := h.Layouts.LoadZones(ctx, layout)
	if err != nil {
		return err
	}
	records, err := h.Blocks.LoadLayoutBlocks(ctx, layout.Ref())
	if err != nil {
		return err
	}
	children := map[int64][]*layouts.Block{}
	for _, block := range records {
		if block.ParentID != nil {
			children[*block.ParentID] = append(children[*block.ParentID], block)
		}
	}
	for _, list := range children {
		sort.Slice(list, func(i, j int) bool {
			if *list[i].Placeholder != *list[j].Placeholder {
				return *list[i].Placeholder < *list[j].Placeholder
			}
			return *list[i].Position < *list[j].Position
		})
	}

	for _, zone := range zones {
		fmt.Fprintf(out, "  zone %s\n", zone.Identifier)
		printChildren(out, children, zone.RootBlockID, 2)
	}
	return nil
}

func printChildren(out io.Writer, children map[int64][]*layouts.Block, parentID int64, indent int) {
	for _, block := range children[parentID] {
		fmt.Fprintf(out, "%s%s #%d %s[%d] locales=%s\n",
			strings.Repeat("  ", indent), block.DefinitionIdentifier, block.ID,
			*block.Placeholder, *block.Position, strings.Join(block.AvailableLocales, ","))
		printChildren(out, children, block.ID, indent+1)
	}
}
