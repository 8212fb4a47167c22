package definitions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-layouts/internal/persistence"
	"github.com/goliatone/go-layouts/internal/translation"
	"github.com/goliatone/go-layouts/internal/validation"
	"github.com/goliatone/go-slug"
)

var (
	ErrIdentifierRequired = errors.New("definitions: identifier is required")
	ErrDuplicateZone      = errors.New("definitions: duplicate zone identifier")
	ErrDuplicateParameter = errors.New("definitions: duplicate parameter")
)

// Registry stores block definitions and layout types keyed by their
// normalised identifier.
type Registry struct {
	mu          sync.RWMutex
	blocks      map[string]Block
	layoutTypes map[string]LayoutType
	schemas     map[string]*validation.Schema
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		blocks:      make(map[string]Block),
		layoutTypes: make(map[string]LayoutType),
		schemas:     make(map[string]*validation.Schema),
	}
}

// Normalize returns the canonical form of a definition identifier.
func Normalize(identifier string) string {
	candidate := strings.TrimSpace(identifier)
	if candidate == "" {
		return ""
	}
	normalized, err := slug.Normalize(candidate)
	if err != nil || normalized == "" {
		return strings.ToLower(candidate)
	}
	return strings.ReplaceAll(normalized, "-", "_")
}

// RegisterBlock records a block definition. A definition with the same
// identifier is replaced.
func (r *Registry) RegisterBlock(def Block) error {
	key := Normalize(def.Identifier)
	if key == "" {
		return ErrIdentifierRequired
	}
	seen := map[string]struct{}{}
	for _, param := range def.Parameters {
		if _, ok := seen[param.Name]; ok {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateParameter, key, param.Name)
		}
		seen[param.Name] = struct{}{}
	}
	schema, err := validation.Compile(def.Schema)
	if err != nil {
		return fmt.Errorf("definitions: block %q: %w", key, err)
	}
	def.Identifier = key

	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[key] = def
	r.schemas[key] = schema
	return nil
}

// RegisterLayoutType records a layout type.
func (r *Registry) RegisterLayoutType(layoutType LayoutType) error {
	key := Normalize(layoutType.Identifier)
	if key == "" {
		return ErrIdentifierRequired
	}
	seen := map[string]struct{}{}
	for _, zone := range layoutType.Zones {
		if _, ok := seen[zone]; ok || strings.TrimSpace(zone) == "" {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateZone, key, zone)
		}
		seen[zone] = struct{}{}
	}
	layoutType.Identifier = key

	r.mu.Lock()
	defer r.mu.Unlock()
	r.layoutTypes[key] = layoutType
	return nil
}

// Block resolves a block definition.
func (r *Registry) Block(identifier string) (Block, error) {
	key := Normalize(identifier)
	r.mu.RLock()
	def, ok := r.blocks[key]
	r.mu.RUnlock()
	if !ok {
		return Block{}, persistence.NewNotFound("blockDefinition", identifier)
	}
	return def, nil
}

// LayoutType resolves a layout type.
func (r *Registry) LayoutType(identifier string) (LayoutType, error) {
	key := Normalize(identifier)
	r.mu.RLock()
	layoutType, ok := r.layoutTypes[key]
	r.mu.RUnlock()
	if !ok {
		return LayoutType{}, persistence.NewNotFound("layoutType", identifier)
	}
	return layoutType, nil
}

// Blocks lists registered block definitions sorted by identifier.
func (r *Registry) Blocks() []Block {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Block, 0, len(r.blocks))
	for _, def := range r.blocks {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

// LayoutTypes lists registered layout types sorted by identifier.
func (r *Registry) LayoutTypes() []LayoutType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]LayoutType, 0, len(r.layoutTypes))
	for _, layoutType := range r.layoutTypes {
		out = append(out, layoutType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

// ValidateParameters checks every locale's parameters against the schema of
// the definition.
func (r *Registry) ValidateParameters(identifier string, parameters map[string]translation.Parameters) error {
	def, err := r.Block(identifier)
	if err != nil {
		return err
	}
	r.mu.RLock()
	schema := r.schemas[def.Identifier]
	r.mu.RUnlock()
	locales := make([]string, 0, len(parameters))
	for locale := range parameters {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	for _, locale := range locales {
		if err := schema.Validate(locale, parameters[locale]); err != nil {
			return err
		}
	}
	return nil
}
