// Package typescript implements the TypeScript/JavaScript Parser and
// Behavior: class/interface heritage clauses, function-declaration hoisting,
// and tsconfig path-alias imports via internal/project's
// TSConfigProvider.
package typescript

import (
	"path/filepath"
	"strings"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/behavior"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/inherit"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/scope"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// order is TypeScript's resolution order: local (with function-declaration
// hoisting to the enclosing function top) -> module top level -> imports
// (including tsconfig path aliases via the project provider) -> namespace
// imports -> qualified dotted fallback -> global.
var order = []scope.Level{scope.LevelLocal, scope.LevelHoisted, scope.LevelModule, scope.LevelImports, scope.LevelNamespace, scope.LevelQualified, scope.LevelGlobal}

type Behavior struct {
	behavior.Base
	inherit *inherit.Resolver
}

func New() behavior.Behavior {
	return &Behavior{Base: behavior.NewBase(), inherit: inherit.New(true, inherit.LinearizationDFS)}
}

func (b *Behavior) ModulePathFromFile(filePath, projectRoot string) (string, bool) {
	rel := filePath
	if projectRoot != "" {
		if r, err := filepath.Rel(projectRoot, filePath); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	for _, ext := range []string{".tsx", ".ts", ".jsx", ".js"} {
		rel = strings.TrimSuffix(rel, ext)
	}
	rel = strings.TrimSuffix(rel, "/index")
	return rel, true
}

func (b *Behavior) FormatModulePath(base, _ string) string { return base }
func (b *Behavior) ModuleSeparator() string                { return "/" }

// ParseVisibility maps TS access modifiers: "private" -> Private,
// "protected" -> Module (visible to subclasses, approximated as
// module-scoped since the core has no subclass-only visibility level),
// everything else (including bare "public") -> Public.
func (b *Behavior) ParseVisibility(signature string) symbol.Visibility {
	switch {
	case strings.Contains(signature, "private "):
		return symbol.VisibilityPrivate
	case strings.Contains(signature, "protected "):
		return symbol.VisibilityModule
	default:
		return symbol.VisibilityPublic
	}
}

func (b *Behavior) SupportsTraits() bool          { return false }
func (b *Behavior) SupportsInherentMethods() bool { return true }

func (b *Behavior) CreateResolutionContext(symbol.FileID) scope.Scope {
	return scope.New(order)
}

func (b *Behavior) InheritanceResolver() *inherit.Resolver { return b.inherit }

// IsResolvableSymbol excludes block-scoped locals and parameters unless
// hoisted. The parser marks nested function declarations Local+Hoisted, so
// they stay resolvable; top-level bindings are Module scope. Bindings
// declared inside a function (var, let or const) are not emitted as
// symbols, so var is not hoisted.
func (b *Behavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	if sym.ScopeContext.Kind == symbol.ScopeLocal && !sym.ScopeContext.Hoisted {
		return false
	}
	return sym.ScopeContext.Kind != symbol.ScopeParameter
}

func (b *Behavior) IsSymbolVisibleFromFile(sym symbol.Symbol, _ symbol.FileID) bool {
	return sym.Visibility != symbol.VisibilityPrivate
}

// ImportMatchesSymbol compares a resolved import specifier (after the
// TSConfigProvider has rewritten any path alias) against a symbol's module
// path, with and without a trailing "/index".
func (b *Behavior) ImportMatchesSymbol(importPath, symbolModulePath, _ string) bool {
	trim := func(s string) string {
		s = strings.TrimSuffix(s, "/index")
		return strings.TrimSuffix(s, "/")
	}
	return trim(importPath) == trim(symbolModulePath)
}

func (b *Behavior) MapRelationship(kind string) symbol.RelationKind {
	switch kind {
	case "extends_type":
		return symbol.RelExtends
	case "implements_type":
		return symbol.RelImplements
	default:
		return symbol.RelationKind(kind)
	}
}
