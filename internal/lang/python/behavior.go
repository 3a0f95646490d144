// Package python implements the Python Parser and Behavior, grounded on
// tree-sitter walkers for decorator extraction, constant-name convention,
// and constructor detection, built on the core's Symbol/Relationship model.
package python

import (
	"path/filepath"
	"strings"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/behavior"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/inherit"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/scope"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// order is Python's LEGB resolution order: local
// -> enclosing -> global (module) -> imports -> builtins -> dotted
// fallback. Enclosing never actually receives bindings under this core's
// flat per-file scope (see IsResolvableSymbol below), but the level is
// kept in the order for documentation fidelity with Python's own model.
var order = []scope.Level{scope.LevelLocal, scope.LevelEnclosing, scope.LevelModule, scope.LevelImports, scope.LevelBuiltin, scope.LevelQualified}

// Behavior is the Python language behavior. Uses C3-like linearization for
// get_inheritance_chain, matching CPython's MRO.
type Behavior struct {
	behavior.Base
	inherit *inherit.Resolver
}

func New() behavior.Behavior {
	return &Behavior{Base: behavior.NewBase(), inherit: inherit.New(false, inherit.LinearizationC3)}
}

func (b *Behavior) ModulePathFromFile(filePath, projectRoot string) (string, bool) {
	rel := filePath
	if projectRoot != "" {
		if r, err := filepath.Rel(projectRoot, filePath); err == nil {
			rel = r
		}
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".py")
	rel = strings.TrimSuffix(rel, "/__init__")
	return strings.ReplaceAll(rel, "/", "."), true
}

// FormatModulePath does not append the name: Python identifies symbols by
// module path plus the separate Name field.
func (b *Behavior) FormatModulePath(base, _ string) string { return base }

func (b *Behavior) ModuleSeparator() string { return "." }

// ParseVisibility applies Python's underscore convention: a single leading
// underscore is a module-internal convention (Module), a name-mangled
// dunder prefix without a matching dunder suffix is Private, everything
// else is Public. There is no enforced privacy in Python; this only
// affects whether internal tooling surfaces the symbol by default.
func (b *Behavior) ParseVisibility(signature string) symbol.Visibility {
	name := firstDefName(signature)
	switch {
	case strings.HasPrefix(name, "__") && !strings.HasSuffix(name, "__"):
		return symbol.VisibilityPrivate
	case strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"):
		return symbol.VisibilityPublic
	case strings.HasPrefix(name, "_"):
		return symbol.VisibilityModule
	default:
		return symbol.VisibilityPublic
	}
}

func firstDefName(signature string) string {
	fields := strings.Fields(signature)
	for i, f := range fields {
		if (f == "def" || f == "class") && i+1 < len(fields) {
			name := fields[i+1]
			if idx := strings.IndexAny(name, "(:"); idx >= 0 {
				name = name[:idx]
			}
			return name
		}
	}
	return ""
}

func (b *Behavior) SupportsTraits() bool          { return false }
func (b *Behavior) SupportsInherentMethods() bool { return false }

func (b *Behavior) CreateResolutionContext(symbol.FileID) scope.Scope {
	return scope.New(order)
}

func (b *Behavior) InheritanceResolver() *inherit.Resolver { return b.inherit }

// IsResolvableSymbol excludes plain local variable bindings and
// parameters, so a local shadowing assignment (e.g. "helper = 1" inside a
// function) never enters the per-file scope at all: Python's
// nested-function rule treats such a binding as not captured by a nested
// function's own name lookups. Nested function/class
// defs are similarly excluded from cross-file resolution since they are
// not visible outside their enclosing function.
func (b *Behavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	return sym.ScopeContext.Kind != symbol.ScopeLocal && sym.ScopeContext.Kind != symbol.ScopeParameter
}

// IsSymbolVisibleFromFile: Python enforces no real cross-module privacy
// (underscore is convention only), so every resolvable symbol is visible
// once imported.
func (b *Behavior) IsSymbolVisibleFromFile(symbol.Symbol, symbol.FileID) bool {
	return true
}

// ImportMatchesSymbol handles absolute ("pkg.mod"), "from pkg import
// name", and relative ("from . import x", "from ..pkg import y") imports.
func (b *Behavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	ip := importPath
	if strings.HasPrefix(ip, ".") {
		ip = resolveRelative(ip, importingModule)
	}
	if ip == symbolModulePath {
		return true
	}
	return strings.HasPrefix(symbolModulePath, ip+".")
}

// resolveRelative resolves a relative import specifier ("." or "..pkg")
// against the importing file's own module path by stripping one trailing
// segment per leading dot.
func resolveRelative(spec, importingModule string) string {
	dots := 0
	for dots < len(spec) && spec[dots] == '.' {
		dots++
	}
	rest := spec[dots:]
	parts := strings.Split(importingModule, ".")
	// First dot means "current package"; each additional dot strips one
	// more segment.
	strip := dots - 1
	if strip > len(parts) {
		strip = len(parts)
	}
	if strip > 0 {
		parts = parts[:len(parts)-strip]
	}
	base := strings.Join(parts, ".")
	if rest == "" {
		return base
	}
	if base == "" {
		return rest
	}
	return base + "." + rest
}

func (b *Behavior) MapRelationship(kind string) symbol.RelationKind {
	return symbol.RelationKind(kind)
}
