package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// Issue captures a single parameter validation failure.
type Issue struct {
	Location string
	Message  string
}

// ParametersError lists every issue found while validating block parameters.
type ParametersError struct {
	Locale string
	Issues []Issue
	Cause  error
}

func (e *ParametersError) Error() string {
	prefix := "parameters"
	if e.Locale != "" {
		prefix = fmt.Sprintf("parameters[%s]", e.Locale)
	}
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return prefix + ": " + e.Cause.Error()
		}
		return prefix + ": " + ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

func (e *ParametersError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts validation issues from an error.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var paramsErr *ParametersError
	if errors.As(err, &paramsErr) && paramsErr != nil {
		return paramsErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectIssues(validationErr)
	}
	return []Issue{{Message: err.Error()}}
}

// Schema is a compiled parameter schema. The zero value accepts every payload.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile validates and compiles a JSON schema document. A nil or empty
// document yields a permissive schema.
func Compile(document map[string]any) (*Schema, error) {
	if len(document) == 0 {
		return &Schema{}, nil
	}
	compiled, err := compileSchema(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks payload against the schema.
func (s *Schema) Validate(locale string, payload map[string]any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	if payload == nil {
		payload = map[string]any{}
	}
	// round trip so typed values (ints, nested maps) match JSON semantics
	normalized, err := normalizePayload(payload)
	if err != nil {
		return &ParametersError{Locale: locale, Cause: err}
	}
	if err := s.compiled.Validate(normalized); err != nil {
		return &ParametersError{Locale: locale, Issues: Issues(err), Cause: err}
	}
	return nil
}

func normalizePayload(payload map[string]any) (any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("parameters.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("parameters.json")
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	if err == nil {
		return nil
	}
	issues := []Issue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
