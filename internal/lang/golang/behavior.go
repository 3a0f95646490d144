// Package golang implements the Go Parser and Behavior, using
// tree-sitter walkers adapted to the core's Symbol/Import/Relationship
// model.
package golang

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/behavior"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/inherit"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/scope"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// order is Go's resolution order: local -> same
// package (hoisted) -> imports -> qualified pkg.name fallback -> global ->
// module.
var order = []scope.Level{scope.LevelLocal, scope.LevelHoisted, scope.LevelImports, scope.LevelQualified, scope.LevelGlobal, scope.LevelModule}

// Behavior is the Go language behavior. Package visibility (capitalization)
// is structural, so unlike Rust/PHP it needs no inheritance "implements"
// tracking beyond method-set ownership: Go's structural interface
// satisfaction is out of scope for the resolver, which only tracks
// explicit type-method ownership.
type Behavior struct {
	behavior.Base
	inherit *inherit.Resolver
}

// New constructs a fresh Go Behavior with empty state.
func New() behavior.Behavior {
	return &Behavior{Base: behavior.NewBase(), inherit: inherit.New(false, inherit.LinearizationDFS)}
}

func (b *Behavior) ModulePathFromFile(filePath, projectRoot string) (string, bool) {
	rel := filePath
	if projectRoot != "" {
		if r, err := filepath.Rel(projectRoot, filePath); err == nil {
			rel = r
		}
	}
	dir := filepath.ToSlash(filepath.Dir(rel))
	if dir == "." {
		return "", true
	}
	return dir, true
}

// FormatModulePath does not append the symbol name: Go identifies a symbol
// by package path plus name kept as separate Symbol fields, matching
// some languages append the symbol name to their module path and some
// do not (Python, Go, PHP, C# do not).
func (b *Behavior) FormatModulePath(base, _ string) string {
	return base
}

func (b *Behavior) ModuleSeparator() string { return "/" }

// ParseVisibility applies Go's capitalization rule: an exported identifier
// (leading uppercase) is Public; everything else is Module (package-
// private).
func (b *Behavior) ParseVisibility(signature string) symbol.Visibility {
	name := firstIdentifier(signature)
	if name == "" {
		return symbol.VisibilityModule
	}
	r := []rune(name)[0]
	if unicode.IsUpper(r) {
		return symbol.VisibilityPublic
	}
	return symbol.VisibilityModule
}

// firstIdentifier extracts the declared name from a one-line signature like
// "func Foo(...)", "func (w *Widget) Draw()" or "type foo struct". The Go
// parser leaves Visibility unset, so the indexer derives every Go symbol's
// visibility from this name.
func firstIdentifier(signature string) string {
	fields := strings.Fields(signature)
	for i, f := range fields {
		switch f {
		case "func", "type", "const", "var":
			rest := fields[i+1:]
			// A method's receiver list "(w *Widget)" precedes its name.
			if f == "func" && len(rest) > 0 && strings.HasPrefix(rest[0], "(") {
				for len(rest) > 0 && !strings.Contains(rest[0], ")") {
					rest = rest[1:]
				}
				if len(rest) > 0 {
					rest = rest[1:]
				}
			}
			if len(rest) > 0 {
				name := rest[0]
				name = strings.TrimPrefix(name, "(")
				if idx := strings.IndexAny(name, "(["); idx >= 0 {
					name = name[:idx]
				}
				return name
			}
		}
	}
	if len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func (b *Behavior) SupportsTraits() bool          { return false }
func (b *Behavior) SupportsInherentMethods() bool { return false }

func (b *Behavior) CreateResolutionContext(symbol.FileID) scope.Scope {
	return scope.New(order)
}

func (b *Behavior) InheritanceResolver() *inherit.Resolver { return b.inherit }

// IsResolvableSymbol excludes function-local declarations and parameters:
// Go's cross-file resolver only ever needs package-level symbols.
func (b *Behavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	if sym.ScopeContext.Kind == symbol.ScopeLocal && !sym.ScopeContext.Hoisted {
		return false
	}
	return sym.ScopeContext.Kind != symbol.ScopeParameter
}

// IsSymbolVisibleFromFile: Public is visible everywhere; Module (package-
// private) is visible only from another file in the same package
// (matching module_path).
func (b *Behavior) IsSymbolVisibleFromFile(sym symbol.Symbol, fromFile symbol.FileID) bool {
	if sym.Visibility == symbol.VisibilityPublic {
		return true
	}
	fromModule, ok := b.GetModulePath(fromFile)
	if !ok {
		return false
	}
	return fromModule == packageDirOf(sym.ModulePath)
}

func packageDirOf(modulePath string) string {
	return modulePath
}

// ImportMatchesSymbol: a Go import "a/b/pkg" brings every exported symbol
// in package directory "a/b/pkg" into scope under the package's last path
// segment. Exact match is always a match.
func (b *Behavior) ImportMatchesSymbol(importPath, symbolModulePath, _ string) bool {
	if importPath == symbolModulePath {
		return true
	}
	return strings.TrimSuffix(importPath, "/") == strings.TrimSuffix(symbolModulePath, "/")
}

func (b *Behavior) MapRelationship(kind string) symbol.RelationKind {
	switch kind {
	case "embeds":
		return symbol.RelUses
	case "returns":
		return symbol.RelReferences
	default:
		return symbol.RelationKind(kind)
	}
}
