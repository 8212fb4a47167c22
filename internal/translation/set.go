package translation

import (
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-layouts/internal/persistence"
)

// Parameters maps a parameter name to its value within one locale.
type Parameters map[string]any

// Set is the translation state of a translatable entity: the main locale, the
// sorted available locales and one parameter map per available locale.
type Set struct {
	MainLocale       string
	AvailableLocales []string
	Parameters       map[string]Parameters
}

// ParameterPolicy reports which parameters carry per-locale values.
type ParameterPolicy interface {
	IsTranslatable(parameter string) bool
}

// PolicyFunc adapts a function into a ParameterPolicy.
type PolicyFunc func(parameter string) bool

func (f PolicyFunc) IsTranslatable(parameter string) bool {
	if f == nil {
		return true
	}
	return f(parameter)
}

// AllTranslatable treats every parameter as translatable.
var AllTranslatable ParameterPolicy = PolicyFunc(func(string) bool { return true })

// NewSet builds a set holding only the main locale.
func NewSet(mainLocale string, params Parameters) Set {
	locale := NormalizeLocale(mainLocale)
	return Set{
		MainLocale:       locale,
		AvailableLocales: []string{locale},
		Parameters:       map[string]Parameters{locale: CloneParameters(params)},
	}
}

// NormalizeLocale trims locale codes. Casing is preserved because locale
// identifiers are compared verbatim across the engine.
func NormalizeLocale(locale string) string {
	return strings.TrimSpace(locale)
}

// Has reports whether locale is available.
func (s Set) Has(locale string) bool {
	return slices.Contains(s.AvailableLocales, locale)
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	out := Set{
		MainLocale:       s.MainLocale,
		AvailableLocales: slices.Clone(s.AvailableLocales),
		Parameters:       make(map[string]Parameters, len(s.Parameters)),
	}
	for locale, params := range s.Parameters {
		out.Parameters[locale] = CloneParameters(params)
	}
	return out
}

// Main returns the parameters of the main locale.
func (s Set) Main() Parameters {
	return s.Parameters[s.MainLocale]
}

// Create adds locale, cloning its parameters from sourceLocale.
func (s *Set) Create(locale, sourceLocale string) error {
	if s.Has(locale) {
		return persistence.NewBadState("locale", "Translation for locale \""+locale+"\" already exists.")
	}
	if !s.Has(sourceLocale) {
		return persistence.NewBadState("sourceLocale", "Translation for locale \""+sourceLocale+"\" does not exist.")
	}
	s.ensureParameters()
	s.Parameters[locale] = CloneParameters(s.Parameters[sourceLocale])
	s.AvailableLocales = sortedLocales(append(s.AvailableLocales, locale))
	return nil
}

// Delete removes a non-main locale.
func (s *Set) Delete(locale string) error {
	if !s.Has(locale) {
		return persistence.NewBadState("locale", "Translation for locale \""+locale+"\" does not exist.")
	}
	if locale == s.MainLocale {
		return persistence.NewBadState("locale", "Main translation cannot be removed.")
	}
	s.AvailableLocales = slices.DeleteFunc(slices.Clone(s.AvailableLocales), func(v string) bool { return v == locale })
	delete(s.Parameters, locale)
	return nil
}

// SetMain switches the main locale. Parameter maps stay untouched.
func (s *Set) SetMain(locale string) error {
	if !s.Has(locale) {
		return persistence.NewBadState("locale", "Translation for locale \""+locale+"\" does not exist.")
	}
	s.MainLocale = locale
	return nil
}

// Update applies values to locale while keeping untranslatable parameters
// identical across every locale.
//
// Updating the main locale writes the values and then copies every
// untranslatable parameter of main into the other locales. Updating another
// locale first resets its untranslatable parameters from main and then
// applies only the translatable values.
func (s *Set) Update(locale string, values Parameters, policy ParameterPolicy) error {
	if !s.Has(locale) {
		return persistence.NewNotFound("translation", locale)
	}
	if policy == nil {
		policy = AllTranslatable
	}
	s.ensureParameters()

	current := CloneParameters(s.Parameters[locale])
	if current == nil {
		current = Parameters{}
	}

	if locale == s.MainLocale {
		maps.Copy(current, values)
		s.Parameters[locale] = current
		s.PropagateUntranslatable(policy)
		return nil
	}

	for name, value := range s.Main() {
		if !policy.IsTranslatable(name) {
			current[name] = cloneValue(value)
		}
	}
	for name, value := range values {
		if policy.IsTranslatable(name) {
			current[name] = cloneValue(value)
		}
	}
	s.Parameters[locale] = current
	return nil
}

// PropagateUntranslatable copies untranslatable parameters of the main locale
// into every other locale.
func (s *Set) PropagateUntranslatable(policy ParameterPolicy) {
	if policy == nil {
		return
	}
	main := s.Main()
	for _, locale := range s.AvailableLocales {
		if locale == s.MainLocale {
			continue
		}
		params := s.Parameters[locale]
		if params == nil {
			params = Parameters{}
		}
		for name, value := range main {
			if !policy.IsTranslatable(name) {
				params[name] = cloneValue(value)
			}
		}
		s.Parameters[locale] = params
	}
}

// Reconcile aligns the set with the locales of the owning layout: missing
// locales are created from main, locales unknown to the layout are removed and
// main becomes mainLocale when the layout declares it.
func (s *Set) Reconcile(mainLocale string, locales []string) {
	s.ensureParameters()
	for _, locale := range locales {
		if !s.Has(locale) {
			s.Parameters[locale] = CloneParameters(s.Main())
			s.AvailableLocales = append(s.AvailableLocales, locale)
		}
	}
	if mainLocale != "" && s.Has(mainLocale) {
		s.MainLocale = mainLocale
	}
	kept := make([]string, 0, len(s.AvailableLocales))
	for _, locale := range s.AvailableLocales {
		if locale == s.MainLocale || slices.Contains(locales, locale) {
			kept = append(kept, locale)
			continue
		}
		delete(s.Parameters, locale)
	}
	s.AvailableLocales = sortedLocales(kept)
}

// Collapse drops every locale except main.
func (s *Set) Collapse() []string {
	removed := make([]string, 0, len(s.AvailableLocales))
	for _, locale := range s.AvailableLocales {
		if locale != s.MainLocale {
			removed = append(removed, locale)
			delete(s.Parameters, locale)
		}
	}
	s.AvailableLocales = []string{s.MainLocale}
	return removed
}

func (s *Set) ensureParameters() {
	if s.Parameters == nil {
		s.Parameters = map[string]Parameters{}
	}
}

func sortedLocales(locales []string) []string {
	out := slices.Clone(locales)
	slices.Sort(out)
	return slices.Compact(out)
}

// SortLocales returns a sorted, de-duplicated copy of locales.
func SortLocales(locales []string) []string {
	return sortedLocales(locales)
}

// CloneParameters deep copies a parameter map.
func CloneParameters(src Parameters) Parameters {
	if src == nil {
		return nil
	}
	out := make(Parameters, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = cloneValue(v)
		}
		return out
	case Parameters:
		return CloneParameters(typed)
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = cloneValue(v)
		}
		return out
	case []string:
		return slices.Clone(typed)
	default:
		return value
	}
}
