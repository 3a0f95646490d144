package behavior

import (
	"github.com/shivasurya/code-pathfinder/codeindex/internal/inherit"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/scope"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// DocStore is the subset of the document store a Behavior needs to
// resolve imports and qualified symbols: a narrow view of store.Store so
// internal/lang/* packages don't import internal/store directly.
type DocStore interface {
	FindSymbolsByName(name string, lang symbol.Language) ([]symbol.Symbol, error)
}

// Behavior bundles everything language-specific that is not pure syntax.
// One instance is created per language by its
// MakeBehavior and lives for the whole indexing run, accumulating state
// across files.
type Behavior interface {
	// ModulePathFromFile computes the canonical module/package path for a
	// file given the project root, e.g. "src/a/b.rs" -> "crate::a::b".
	ModulePathFromFile(filePath, projectRoot string) (string, bool)
	// FormatModulePath produces a symbol's fully qualified path from its
	// containing module path and name. Some languages append the name
	// (Rust, C++); others don't (Python, Go, PHP, C#).
	FormatModulePath(base, name string) string
	// ModuleSeparator returns this language's path separator ("::", ".",
	// "/", "\").
	ModuleSeparator() string
	// ParseVisibility derives a Visibility from a signature's native
	// modifier tokens.
	ParseVisibility(signature string) symbol.Visibility
	// SupportsTraits reports whether this language has a trait/interface
	// mixin construct distinct from single inheritance.
	SupportsTraits() bool
	// SupportsInherentMethods reports whether this language distinguishes
	// a type's own methods from trait-provided ones (Rust).
	SupportsInherentMethods() bool
	// CreateResolutionContext produces a fresh, empty per-file scope in
	// this language's resolution order.
	CreateResolutionContext(fileID symbol.FileID) scope.Scope
	// InheritanceResolver returns this language's (shared, run-lifetime)
	// hierarchy engine.
	InheritanceResolver() *inherit.Resolver

	// RegisterFile, AddImport, GetImportsForFile, GetModulePath delegate to
	// the language's embedded *State.
	RegisterFile(path string, fileID symbol.FileID, modulePath string)
	AddImport(imp symbol.Import)
	GetImportsForFile(fileID symbol.FileID) []symbol.Import
	GetModulePath(fileID symbol.FileID) (string, bool)

	// IsResolvableSymbol decides whether a symbol participates in
	// cross-file resolution at all (block locals typically don't).
	IsResolvableSymbol(sym symbol.Symbol) bool
	// IsSymbolVisibleFromFile applies this language's visibility rules.
	// Same-file is always visible; callers should short-circuit that case
	// before calling this.
	IsSymbolVisibleFromFile(sym symbol.Symbol, fromFile symbol.FileID) bool
	// ImportMatchesSymbol decides whether importPath brings a symbol at
	// symbolModulePath into scope for a file whose own module path is
	// importingModule.
	ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool

	// MapRelationship translates a language-specific relation label (as
	// produced by that language's parser) onto the common RelationKind
	// set, e.g. Go's "implements" vs TypeScript's "extends" for the same
	// syntactic shape.
	MapRelationship(languageSpecificKind string) symbol.RelationKind

	// ResolveExternalCallTarget optionally synthesizes a placeholder
	// target for a call this behavior recognizes as going through a
	// well-known external import (e.g. C#'s `using` directives) even
	// though the callee itself was never indexed. Returns ok=false when
	// the behavior does not opt into external synthesis or does not
	// recognize name.
	ResolveExternalCallTarget(name string, fromFile symbol.FileID) (modulePath, leafName string, ok bool)
	// CreateExternalSymbol materializes a placeholder Symbol for a
	// ResolveExternalCallTarget hit. Only called when ResolveExternalCallTarget
	// returned ok=true.
	CreateExternalSymbol(modulePath, leafName string, fileID symbol.FileID, nextID func() (symbol.ID, error)) (symbol.Symbol, error)
}

// Base gives a language's Behavior the shared *State for free; language
// packages embed Base and only need to implement the language-specific
// methods Behavior requires.
type Base struct {
	*State
}

// NewBase creates a Base with a fresh State.
func NewBase() Base {
	return Base{State: NewState()}
}

func (b Base) RegisterFile(path string, fileID symbol.FileID, modulePath string) {
	b.State.RegisterFile(path, fileID, modulePath)
}

func (b Base) AddImport(imp symbol.Import) {
	b.State.AddImport(imp)
}

func (b Base) GetImportsForFile(fileID symbol.FileID) []symbol.Import {
	return b.State.GetImportsForFile(fileID)
}

func (b Base) GetModulePath(fileID symbol.FileID) (string, bool) {
	return b.State.GetModulePath(fileID)
}

// ResolveExternalCallTarget defaults to opting out; languages that
// synthesize external placeholders (C#) override this method.
func (b Base) ResolveExternalCallTarget(_ string, _ symbol.FileID) (string, string, bool) {
	return "", "", false
}

// CreateExternalSymbol defaults to a no-op; paired with the default
// ResolveExternalCallTarget it is never called.
func (b Base) CreateExternalSymbol(_, _ string, _ symbol.FileID, _ func() (symbol.ID, error)) (symbol.Symbol, error) {
	return symbol.Symbol{}, nil
}
