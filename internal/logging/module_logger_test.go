package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-layouts/pkg/interfaces"
)

type recordingLogger struct {
	fields []map[string]any
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(context.Context) interfaces.Logger {
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, blocksModule)
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger.Debug("noop")
}

func TestModuleLoggerAnnotatesModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = BlocksLogger(provider)

	if len(provider.requested) != 1 || provider.requested[0] != blocksModule {
		t.Fatalf("expected module %s, got %v", blocksModule, provider.requested)
	}
	if got := rec.fields[0]["module"]; got != blocksModule {
		t.Fatalf("expected module field %s, got %v", blocksModule, got)
	}
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	provider := &stubProvider{logger: &recordingLogger{}}
	_ = ModuleLogger(provider, "")
	if provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
}

func TestForOperationSkipsEmptyFields(t *testing.T) {
	rec := &recordingLogger{}
	_ = ForOperation(rec, "blocks.move", map[string]any{
		FieldBlockID: int64(31),
		FieldLocale:  "",
		FieldStatus:  nil,
	})
	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	got := rec.fields[0]
	if got[FieldOperation] != "blocks.move" || got[FieldBlockID] != int64(31) {
		t.Fatalf("unexpected fields %v", got)
	}
	if _, ok := got[FieldLocale]; ok {
		t.Fatalf("expected empty locale to be skipped, got %v", got)
	}
}

func TestContextFieldsMerge(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"a": 1})
	ctx = ContextWithFields(ctx, map[string]any{"b": 2})
	fields := ContextFields(ctx)
	if fields["a"] != 1 || fields["b"] != 2 {
		t.Fatalf("unexpected fields %v", fields)
	}
	fields["c"] = 3
	if _, ok := ContextFields(ctx)["c"]; ok {
		t.Fatal("expected copy of context fields")
	}
}
