package validation

import (
	"errors"
	"testing"
)

func titleSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"count": map[string]any{"type": "integer"},
		},
		"required": []any{"title"},
	}
}

func TestCompileEmptySchemaAcceptsAnything(t *testing.T) {
	schema, err := Compile(nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := schema.Validate("en", map[string]any{"anything": 1}); err != nil {
		t.Fatalf("expected permissive schema, got %v", err)
	}
}

func TestValidateReportsIssues(t *testing.T) {
	schema, err := Compile(titleSchema())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := schema.Validate("en", map[string]any{"title": "Hello", "count": 3}); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}

	err = schema.Validate("hr", map[string]any{"count": "three"})
	if !errors.Is(err, ErrSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
	var paramsErr *ParametersError
	if !errors.As(err, &paramsErr) || paramsErr.Locale != "hr" {
		t.Fatalf("expected parameters error for hr, got %v", err)
	}
	if len(Issues(err)) == 0 {
		t.Fatal("expected issues to be reported")
	}
}

func TestCompileRejectsInvalidSchema(t *testing.T) {
	_, err := Compile(map[string]any{"type": 12})
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected invalid schema error, got %v", err)
	}
}
