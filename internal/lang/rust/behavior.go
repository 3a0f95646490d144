// Package rust implements the Rust Parser and Behavior: crate-rooted
// module paths, pub/pub(crate) visibility, use-declaration imports, and
// impl/trait edges feeding internal/inherit's inherent-before-trait
// method lookup.
package rust

import (
	"path/filepath"
	"strings"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/behavior"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/inherit"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/scope"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// order is Rust's resolution order: local -> imports -> module (current
// file) -> crate (public across files) -> qualified path fallback.
var order = []scope.Level{scope.LevelLocal, scope.LevelImports, scope.LevelModule, scope.LevelGlobal, scope.LevelQualified}

// Behavior is the Rust language behavior. PreferInherent is set: a type's
// own inherent methods win over a trait method of the same name.
type Behavior struct {
	behavior.Base
	inherit *inherit.Resolver
}

func New() behavior.Behavior {
	return &Behavior{Base: behavior.NewBase(), inherit: inherit.New(true, inherit.LinearizationDFS)}
}

// ModulePathFromFile computes "crate::a::b" from "src/a/b.rs", folding
// mod.rs/lib.rs/main.rs into their containing directory's own path.
func (b *Behavior) ModulePathFromFile(filePath, projectRoot string) (string, bool) {
	rel := filePath
	if projectRoot != "" {
		if r, err := filepath.Rel(projectRoot, filePath); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimPrefix(rel, "src/")
	rel = strings.TrimSuffix(rel, ".rs")
	rel = strings.TrimSuffix(rel, "/mod")
	switch rel {
	case "lib", "main":
		return "crate", true
	}
	if rel == "" {
		return "crate", true
	}
	return "crate::" + strings.ReplaceAll(rel, "/", "::"), true
}

// FormatModulePath appends the symbol name: Rust's module path identifies
// the symbol itself, not just its containing module (unlike Python/Go/PHP/
// C#, which keep module path and name separate).
func (b *Behavior) FormatModulePath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "::" + name
}

func (b *Behavior) ModuleSeparator() string { return "::" }

// ParseVisibility reads Rust's visibility_modifier tokens: "pub" is
// Public, "pub(crate)" is Crate, "pub(super)"/"pub(in ...)" is
// approximated as Module, and the absence of any modifier is Private,
// Rust's own default.
func (b *Behavior) ParseVisibility(signature string) symbol.Visibility {
	sig := strings.TrimSpace(signature)
	switch {
	case strings.HasPrefix(sig, "pub(crate)"):
		return symbol.VisibilityCrate
	case strings.HasPrefix(sig, "pub(super)"), strings.HasPrefix(sig, "pub(in "):
		return symbol.VisibilityModule
	case strings.HasPrefix(sig, "pub"):
		return symbol.VisibilityPublic
	default:
		return symbol.VisibilityPrivate
	}
}

func (b *Behavior) SupportsTraits() bool          { return true }
func (b *Behavior) SupportsInherentMethods() bool { return true }

func (b *Behavior) CreateResolutionContext(symbol.FileID) scope.Scope {
	return scope.New(order)
}

func (b *Behavior) InheritanceResolver() *inherit.Resolver { return b.inherit }

// IsResolvableSymbol excludes block-local let-bindings and parameters;
// everything declared at module/crate scope (including nested `mod`
// blocks, which this core treats as flattened into their file) resolves
// cross-file.
func (b *Behavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	if sym.ScopeContext.Kind == symbol.ScopeLocal {
		return false
	}
	return sym.ScopeContext.Kind != symbol.ScopeParameter
}

// IsSymbolVisibleFromFile: Public is visible everywhere; Crate is visible
// from any file in the same indexing run (this core indexes one crate at
// a time); Module requires the same module path; Private never crosses
// files.
func (b *Behavior) IsSymbolVisibleFromFile(sym symbol.Symbol, fromFile symbol.FileID) bool {
	switch sym.Visibility {
	case symbol.VisibilityPublic, symbol.VisibilityCrate:
		return true
	case symbol.VisibilityModule:
		fromModule, ok := b.GetModulePath(fromFile)
		return ok && fromModule == containingModule(sym.ModulePath)
	default:
		return false
	}
}

func containingModule(modulePath string) string {
	idx := strings.LastIndex(modulePath, "::")
	if idx < 0 {
		return modulePath
	}
	return modulePath[:idx]
}

// ImportMatchesSymbol handles `use crate::a::b::name;` (exact match against
// the symbol's full "crate::...::name" path) and glob imports
// `use crate::a::b::*;` (prefix match against the symbol's containing
// module).
func (b *Behavior) ImportMatchesSymbol(importPath, symbolModulePath, _ string) bool {
	importPath = strings.TrimPrefix(importPath, "self::")
	if importPath == symbolModulePath {
		return true
	}
	if strings.HasSuffix(importPath, "::*") {
		prefix := strings.TrimSuffix(importPath, "::*")
		return containingModule(symbolModulePath) == prefix
	}
	return false
}

func (b *Behavior) MapRelationship(kind string) symbol.RelationKind {
	switch kind {
	case "impl":
		return symbol.RelImplements
	case "impl_trait":
		return symbol.RelImplements
	default:
		return symbol.RelationKind(kind)
	}
}
