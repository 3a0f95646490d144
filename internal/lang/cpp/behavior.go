// Package cpp implements the C++ Parser and Behavior: namespace-qualified
// module paths that append the symbol name (like Rust), multiple
// inheritance via base-clause lists, and name-only virtual-method lookup
// (no vtable modeling).
package cpp

import (
	"path/filepath"
	"strings"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/behavior"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/inherit"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/scope"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// order is C++'s resolution order: local -> enclosing namespace -> using
// declarations -> global -> qualified Ns::Type::Member fallback.
var order = []scope.Level{scope.LevelLocal, scope.LevelModule, scope.LevelImports, scope.LevelGlobal, scope.LevelQualified}

// Behavior is the C++ language behavior. PreferInherent is false: C++
// method resolution is plain single/multiple-inheritance override, already
// modeled by AddInheritance's DFS chain without an inherent/trait split.
type Behavior struct {
	behavior.Base
	inherit *inherit.Resolver
}

func New() behavior.Behavior {
	return &Behavior{Base: behavior.NewBase(), inherit: inherit.New(false, inherit.LinearizationDFS)}
}

// ModulePathFromFile derives a namespace-shaped path from the file
// location. The parser does not record a file's `namespace` blocks on its
// symbols, so every symbol's module path is built from this path, whether
// or not it sits inside a namespace.
func (b *Behavior) ModulePathFromFile(filePath, projectRoot string) (string, bool) {
	rel := filePath
	if projectRoot != "" {
		if r, err := filepath.Rel(projectRoot, filePath); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	if rel == "" {
		return "", true
	}
	return strings.ReplaceAll(rel, "/", "::"), true
}

// FormatModulePath appends the symbol name, like Rust: a C++ symbol's
// module path identifies the symbol itself (Ns::Type::member), since
// qualified lookups compare full paths directly.
func (b *Behavior) FormatModulePath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "::" + name
}

func (b *Behavior) ModuleSeparator() string { return "::" }

// ParseVisibility reads a class member's section label, carried in the
// signature by the parser as a leading "public:"/"protected:"/"private:"
// hint. Free functions at namespace scope have no such hint and default to
// Public. Class members always carry a hint: before any access label the
// parser supplies "private:" for a `class` body and "public:" for a
// `struct` body, C++'s own defaults.
func (b *Behavior) ParseVisibility(signature string) symbol.Visibility {
	switch {
	case strings.HasPrefix(signature, "public:"):
		return symbol.VisibilityPublic
	case strings.HasPrefix(signature, "protected:"):
		return symbol.VisibilityModule
	case strings.HasPrefix(signature, "private:"):
		return symbol.VisibilityPrivate
	default:
		return symbol.VisibilityPublic
	}
}

func (b *Behavior) SupportsTraits() bool          { return false }
func (b *Behavior) SupportsInherentMethods() bool { return false }

func (b *Behavior) CreateResolutionContext(symbol.FileID) scope.Scope {
	return scope.New(order)
}

func (b *Behavior) InheritanceResolver() *inherit.Resolver { return b.inherit }

func (b *Behavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	if sym.ScopeContext.Kind == symbol.ScopeLocal {
		return false
	}
	return sym.ScopeContext.Kind != symbol.ScopeParameter
}

// IsSymbolVisibleFromFile: Public is visible everywhere; Module (this
// core's stand-in for a shared-namespace visibility) and Private fall back
// to requiring the same module path, since C++ has no file-private keyword
// distinct from class-private.
func (b *Behavior) IsSymbolVisibleFromFile(sym symbol.Symbol, fromFile symbol.FileID) bool {
	if sym.Visibility == symbol.VisibilityPublic {
		return true
	}
	fromModule, ok := b.GetModulePath(fromFile)
	return ok && fromModule == containingNamespace(sym.ModulePath)
}

func containingNamespace(modulePath string) string {
	idx := strings.LastIndex(modulePath, "::")
	if idx < 0 {
		return modulePath
	}
	return modulePath[:idx]
}

// ImportMatchesSymbol handles `using Ns::name;` (exact match) and
// `using namespace Ns;` (prefix match against the symbol's namespace).
func (b *Behavior) ImportMatchesSymbol(importPath, symbolModulePath, _ string) bool {
	if importPath == symbolModulePath {
		return true
	}
	return containingNamespace(symbolModulePath) == importPath
}

func (b *Behavior) MapRelationship(kind string) symbol.RelationKind {
	switch kind {
	case "base_class":
		return symbol.RelExtends
	default:
		return symbol.RelationKind(kind)
	}
}
