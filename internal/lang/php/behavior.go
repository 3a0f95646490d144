// Package php implements the PHP Parser and Behavior: namespace-based
// module paths, trait "use" with later-wins override fed into
// internal/inherit, and PHP's public/private/protected visibility.
package php

import (
	"path/filepath"
	"strings"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/behavior"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/inherit"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/scope"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// order is PHP's resolution order: local (vars) -> class members ->
// namespace (current file) -> use statements/global -> qualified
// Class::member fallback.
var order = []scope.Level{scope.LevelLocal, scope.LevelClassMember, scope.LevelModule, scope.LevelImports, scope.LevelGlobal, scope.LevelQualified}

// Behavior is the PHP language behavior. PreferInherent is false: PHP has
// no inherent-vs-trait distinction the way Rust does (a class's own
// methods simply shadow a used trait's by declaration, already handled
// by AddTraitMethods' later-wins overwrite).
type Behavior struct {
	behavior.Base
	inherit *inherit.Resolver
}

func New() behavior.Behavior {
	return &Behavior{Base: behavior.NewBase(), inherit: inherit.New(false, inherit.LinearizationDFS)}
}

// ModulePathFromFile derives a best-effort path from the file location the
// way PSR-4 autoloading would, rooted under the project. The file's own
// `namespace` declaration is not consulted.
func (b *Behavior) ModulePathFromFile(filePath, projectRoot string) (string, bool) {
	rel := filePath
	if projectRoot != "" {
		if r, err := filepath.Rel(projectRoot, filePath); err == nil {
			rel = r
		}
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".php")
	parts := strings.Split(rel, "/")
	return `\` + strings.Join(parts, `\`), true
}

// FormatModulePath does not append the name: PHP resolves a symbol by
// namespace path plus the Name field, matching Python/Go/C#.
func (b *Behavior) FormatModulePath(base, _ string) string { return base }

func (b *Behavior) ModuleSeparator() string { return `\` }

// ParseVisibility reads PHP's visibility modifier keywords directly;
// absence of one (a bare method/property declaration) defaults to Public,
// matching PHP's own default visibility.
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

func (b *Behavior) SupportsTraits() bool          { return true }
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

// IsSymbolVisibleFromFile: Public is visible everywhere; Module
// (protected) and Private restrict to the defining namespace/file, which
// this core approximates as "not visible cross-file" since protected's
// real rule (subclass access) needs the Inheritance Resolver, not plain
// visibility.
func (b *Behavior) IsSymbolVisibleFromFile(sym symbol.Symbol, fromFile symbol.FileID) bool {
	if sym.Visibility == symbol.VisibilityPublic {
		return true
	}
	fromModule, ok := b.GetModulePath(fromFile)
	return ok && fromModule == sym.ModulePath
}

// ImportMatchesSymbol handles `use App\Services\Auth;` (exact match) and
// `use App\Services\Auth as Svc;` (alias carried separately on the Import).
func (b *Behavior) ImportMatchesSymbol(importPath, symbolModulePath, _ string) bool {
	return importPath == symbolModulePath
}

func (b *Behavior) MapRelationship(kind string) symbol.RelationKind {
	switch kind {
	case "trait_use":
		return symbol.RelUses
	default:
		return symbol.RelationKind(kind)
	}
}
