package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	layouts "github.com/goliatone/go-layouts"
	"github.com/goliatone/go-layouts/cmd/layouts/internal/bootstrap"
)

func TestRunRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected usage error")
	}
	if err := run(context.Background(), []string{"serve"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestDemoPrintsPublishedTree(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"demo", "-storage", "memory", "-log-level", "error", "-seed", "demo"}, &out)
	if err != nil {
		t.Fatalf("demo: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		`"Demo landing" (landing, published) locales=en,hr`,
		"zone header",
		"zone main",
		"columns #",
		"list #",
		"right[0] locales=en,hr",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestDemoReportsBootstrapFailure(t *testing.T) {
	original := moduleBuilder
	t.Cleanup(func() { moduleBuilder = original })
	boom := errors.New("boom")
	moduleBuilder = func(context.Context, bootstrap.Options) (*layouts.Module, error) {
		return nil, boom
	}

	err := run(context.Background(), []string{"demo"}, &bytes.Buffer{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}

func TestMigrateSQLiteFile(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "layouts.db")
	var out bytes.Buffer
	if err := run(context.Background(), []string{"migrate", "-dialect", "sqlite", "-dsn", dsn}, &out); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out.String(), "migrations applied (sqlite)") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestMigrateRejectsMemoryStorage(t *testing.T) {
	if err := run(context.Background(), []string{"migrate", "-storage", "memory"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected memory storage to be rejected")
	}
}
