package definitions

import (
	"slices"

	"github.com/goliatone/go-layouts/internal/translation"
)

// Parameter describes one block parameter.
type Parameter struct {
	Name string
	// Translatable parameters hold a distinct value per locale. Untranslatable
	// parameters are kept identical across every locale of a block.
	Translatable bool
	Default      any
}

// Collection declares a collection slot created alongside every block of the
// definition.
type Collection struct {
	Identifier string
	Shared     bool
	Offset     int
	Limit      *int
}

// Block describes a block type: its parameters, the placeholders its
// children may be placed into and its collection slots.
type Block struct {
	Identifier   string
	Name         string
	Parameters   []Parameter
	Placeholders []string
	Collections  []Collection
	// Translatable is the default translatability of new blocks.
	Translatable bool
	// Schema is an optional JSON schema checked against every locale's
	// parameters.
	Schema map[string]any
}

// IsContainer reports whether blocks of this definition accept children.
func (b Block) IsContainer() bool {
	return len(b.Placeholders) > 0
}

// HasPlaceholder reports whether placeholder is declared by the definition.
func (b Block) HasPlaceholder(placeholder string) bool {
	return slices.Contains(b.Placeholders, placeholder)
}

// Parameter returns the named parameter.
func (b Block) Parameter(name string) (Parameter, bool) {
	for _, param := range b.Parameters {
		if param.Name == name {
			return param, true
		}
	}
	return Parameter{}, false
}

// IsTranslatable implements translation.ParameterPolicy. Undeclared
// parameters are treated as translatable.
func (b Block) IsTranslatable(name string) bool {
	param, ok := b.Parameter(name)
	if !ok {
		return true
	}
	return param.Translatable
}

// Defaults returns the default value of every parameter that declares one.
func (b Block) Defaults() translation.Parameters {
	out := translation.Parameters{}
	for _, param := range b.Parameters {
		if param.Default != nil {
			out[param.Name] = param.Default
		}
	}
	return out
}

// LayoutType lists the zones every layout of the type owns.
type LayoutType struct {
	Identifier string
	Name       string
	Zones      []string
}

// HasZone reports whether zone is declared by the layout type.
func (t LayoutType) HasZone(zone string) bool {
	return slices.Contains(t.Zones, zone)
}

var _ translation.ParameterPolicy = Block{}
