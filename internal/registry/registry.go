// Package registry maps language ids and file extensions to
// LanguageDefinitions. It is an explicit value threaded through the
// indexer rather than a process-global singleton, keeping registration
// injectable and test-friendly.
package registry

import (
	"fmt"
	"strings"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/behavior"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// Parser is the per-language pure-function contract.
// Implementations live under internal/lang/<language>.
type Parser interface {
	Parse(source []byte, fileID symbol.FileID, nextID func() (symbol.ID, error)) (ParseResult, error)
}

// ParseResult bundles everything a single-file parse produces.
type ParseResult struct {
	Symbols       []symbol.Symbol
	Imports       []symbol.Import
	Relationships []symbol.UnresolvedRelationship
	MethodCalls   []symbol.MethodCall
	// VariableTypes holds a conservative (name -> type name) hint table for
	// this file, populated by direct-construction/constructor-call walks.
	VariableTypes map[string]string
	// Inheritance feeds the per-language inheritance resolver:
	// class/trait/interface edges and method ownership
	// discovered while parsing this file. The indexer replays these into
	// behavior.InheritanceResolver() right after a successful parse, since
	// that hierarchy state is additive across files like import state.
	Inheritance InheritanceInfo
}

// InheritanceInfo is the subset of one file's parse devoted to hierarchy
// bookkeeping (the add_trait_impl / add_inherent_methods
// / add_trait_methods hooks).
type InheritanceInfo struct {
	Edges []InheritanceEdge
	// InherentMethods maps a type name to methods it directly declares.
	InherentMethods map[string][]string
	// TraitMethods maps a type name to {trait/interface name -> methods it
	// contributes to that type}, e.g. Rust's impl Trait for Type { .. }.
	TraitMethods map[string]map[string][]string
}

// InheritanceEdge is one child/parent hierarchy edge discovered by a parser.
type InheritanceEdge struct {
	Child  string
	Parent string
	Kind   string // parser-specific, e.g. "extends", "implements", "uses", "embeds", "base_class"; see Behavior.MapRelationship
}

// MakeParser constructs a new stateless Parser instance for one file.
type MakeParser func(settings ParserSettings) Parser

// ParserSettings is an opaque per-language options bag sourced from
// config.Settings.Languages[id].ParserOptions.
type ParserSettings map[string]string

// MakeBehavior constructs a new per-language Behavior bound to a fresh
// behavior.State.
type MakeBehavior func() behavior.Behavior

// Definition is the static description of a supported language.
type Definition struct {
	ID             symbol.Language
	DisplayName    string
	Extensions     []string
	DefaultEnabled bool
	MakeParser     MakeParser
	MakeBehavior   MakeBehavior
}

// Registry is an explicit, non-global map from language id/extension to
// Definition. Create one with New: the zero value's maps are nil, so
// Register on it panics.
type Registry struct {
	byID  map[symbol.Language]Definition
	byExt map[string]Definition
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID:  make(map[symbol.Language]Definition),
		byExt: make(map[string]Definition),
	}
}

// Register adds a language definition. It rejects a definition whose id is
// already registered (even an identical one) and a definition that claims
// an extension already owned by another language: last-write-wins is
// disallowed, and a rejected definition registers nothing.
func (r *Registry) Register(def Definition) error {
	if _, exists := r.byID[def.ID]; exists {
		return fmt.Errorf("registry: language %q already registered", def.ID)
	}
	for _, ext := range def.Extensions {
		ext = strings.ToLower(ext)
		if owner, exists := r.byExt[ext]; exists {
			return fmt.Errorf("registry: extension %q already claimed by %q, cannot register %q", ext, owner.ID, def.ID)
		}
	}
	r.byID[def.ID] = def
	for _, ext := range def.Extensions {
		r.byExt[strings.ToLower(ext)] = def
	}
	return nil
}

// ByID looks up a definition by language id.
func (r *Registry) ByID(id symbol.Language) (Definition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// ByExtension looks up a definition by (case-insensitive) file extension,
// e.g. ".go", ".py".
func (r *Registry) ByExtension(ext string) (Definition, bool) {
	def, ok := r.byExt[strings.ToLower(ext)]
	return def, ok
}

// IterAll returns every registered definition.
func (r *Registry) IterAll() []Definition {
	out := make([]Definition, 0, len(r.byID))
	for _, def := range r.byID {
		out = append(out, def)
	}
	return out
}
