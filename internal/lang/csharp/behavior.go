// Package csharp implements the C# Parser and Behavior: namespace/using
// based module paths, single-inheritance classes with multi-interface
// implementation, and external-symbol synthesis for qualified calls that
// resolve through a `using` directive but whose target file was never
// indexed.
package csharp

import (
	"path/filepath"
	"strings"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/behavior"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/inherit"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/scope"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// order is C#'s resolution order: local -> class members -> using-imported
// namespaces -> namespace (current file) -> global -> qualified
// Ns.Type.Member fallback.
var order = []scope.Level{scope.LevelLocal, scope.LevelClassMember, scope.LevelImports, scope.LevelModule, scope.LevelGlobal, scope.LevelQualified}

// Behavior is the C# language behavior. PreferInherent is false: C# has no
// inherent/trait split, only single-class-inheritance method override,
// which AddTypeMethods/AddInheritance already models without it.
type Behavior struct {
	behavior.Base
	inherit *inherit.Resolver
}

func New() behavior.Behavior {
	return &Behavior{Base: behavior.NewBase(), inherit: inherit.New(false, inherit.LinearizationDFS)}
}

// ModulePathFromFile derives a best-effort dotted path from the file
// location. A file's declared `namespace` is not consulted: the parser
// tracks namespace blocks but does not record them on symbols or imports.
func (b *Behavior) ModulePathFromFile(filePath, projectRoot string) (string, bool) {
	rel := filePath
	if projectRoot != "" {
		if r, err := filepath.Rel(projectRoot, filePath); err == nil {
			rel = r
		}
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".cs")
	parts := strings.Split(rel, "/")
	return strings.Join(parts, "."), true
}

// FormatModulePath does not append the name: a C# symbol's module path is
// its namespace, with Name carrying the type/member itself, matching
// Python/Go/PHP.
func (b *Behavior) FormatModulePath(base, _ string) string { return base }

func (b *Behavior) ModuleSeparator() string { return "." }

// ParseVisibility reads C#'s access modifier keywords; a member with none
// defaults to Private for class members (C#'s actual default) and Module
// (internal) is approximated from the explicit "internal" keyword.
func (b *Behavior) ParseVisibility(signature string) symbol.Visibility {
	sig := strings.TrimSpace(signature)
	switch {
	case strings.Contains(sig, "public "):
		return symbol.VisibilityPublic
	case strings.Contains(sig, "internal "):
		return symbol.VisibilityModule
	case strings.Contains(sig, "protected "):
		return symbol.VisibilityModule
	case strings.Contains(sig, "private "):
		return symbol.VisibilityPrivate
	default:
		return symbol.VisibilityPrivate
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

// IsSymbolVisibleFromFile: Public is visible everywhere; Module (internal)
// requires the same assembly, which this single-project core approximates
// as "always visible" since it indexes one project at a time; Private
// never crosses files.
func (b *Behavior) IsSymbolVisibleFromFile(sym symbol.Symbol, fromFile symbol.FileID) bool {
	switch sym.Visibility {
	case symbol.VisibilityPublic, symbol.VisibilityModule:
		return true
	default:
		return false
	}
}

// ImportMatchesSymbol handles `using My.Namespace;` (prefix match against
// the symbol's namespace) and `using Alias = My.Namespace.Type;` (exact
// match, alias carried separately on the Import).
func (b *Behavior) ImportMatchesSymbol(importPath, symbolModulePath, _ string) bool {
	if importPath == symbolModulePath {
		return true
	}
	return symbolModulePath == importPath || strings.HasPrefix(symbolModulePath+".", importPath+".")
}

func (b *Behavior) MapRelationship(kind string) symbol.RelationKind {
	switch kind {
	case "base_type":
		return symbol.RelExtends
	case "interface_impl":
		return symbol.RelImplements
	default:
		return symbol.RelationKind(kind)
	}
}

// ResolveExternalCallTarget is overridden for C#: a qualified call through a
// `using` directive (e.g. `Ns.Helper.Do()`) whose target type was never
// indexed (an external library, or a file outside this run) still carries
// useful information (the qualified namespace and member name), so unlike
// the default no-op, C# opts in to synthesizing a placeholder symbol for it
// instead of dropping the edge. Only names carrying at least one "." are
// treated as qualified external references; bare names are left unresolved
// rather than guessed at.
func (b *Behavior) ResolveExternalCallTarget(name string, _ symbol.FileID) (string, string, bool) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

// CreateExternalSymbol synthesizes a placeholder symbol representing an
// out-of-project type/member reached through a `using` directive, so the
// relationship graph records the call even though the real declaration was
// never parsed.
func (b *Behavior) CreateExternalSymbol(modulePath, leafName string, _ symbol.FileID, nextID func() (symbol.ID, error)) (symbol.Symbol, error) {
	id, err := nextID()
	if err != nil {
		return symbol.Symbol{}, err
	}
	return symbol.Symbol{
		ID:           id,
		Name:         leafName,
		Kind:         symbol.KindFunction,
		ModulePath:   modulePath,
		Visibility:   symbol.VisibilityPublic,
		Language:     symbol.LangCSharp,
		ScopeContext: symbol.ScopeContext{Kind: symbol.ScopeGlobal},
	}, nil
}
