// Package scope implements the per-file resolution scope: a layered
// symbol table producing, at most, one SymbolID for any name. Rather than
// one bespoke resolver per language, a single generic Layered
// implementation is driven by a per-language Level order, so each
// language supplies data instead of its own lookup algorithm.
package scope

import "github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"

// Level names one layer in a language's resolution order. The same level
// name appears in multiple languages' orders with the same meaning; only
// the order and presence of levels differs.
type Level string

const (
	LevelLocal       Level = "local"
	LevelEnclosing   Level = "enclosing" // Python: enclosing function scope (LEGB's E)
	LevelHoisted     Level = "hoisted"   // Go/TS: package- or file-scope hoisted decls
	LevelClassMember Level = "class_member"
	LevelImports     Level = "imports"
	LevelModule      Level = "module"
	LevelNamespace   Level = "namespace" // TS: namespace imports; `import * as N` aliases are looked up via Layered.NamespaceAlias
	LevelTypeSpace   Level = "type_space"
	LevelGlobal      Level = "global"
	LevelBuiltin     Level = "builtin"
	LevelQualified   Level = "qualified" // fallback: qualified-path lookup
)

// Scope is the interface the indexer's two-phase resolver drives. Each
// language's Behavior.CreateResolutionContext returns one, already
// populated with that file's own declarations.
type Scope interface {
	// AddSymbol binds name -> id at scopeLevel, added in declaration order.
	AddSymbol(name string, id symbol.ID, level Level)
	// AddSymbolWithContext binds name -> id honoring scopeCtx's hoisting
	// flag: a hoisted Local binding is visible to references that
	// textually precede it (JS/TS var and function hoisting; Go same-
	// package top-level declarations).
	AddSymbolWithContext(name string, id symbol.ID, scopeCtx symbol.ScopeContext)
	// Resolve looks up name through every level in this scope's order,
	// returning the first match.
	Resolve(name string) (symbol.ID, bool)
	// EnterScope pushes a new local frame (function/class/block).
	EnterScope(kind Level)
	// ExitScope pops the most recently entered local frame.
	ExitScope()
	// ClearLocalScope discards all local bindings but keeps
	// imports/module/global layers, used between top-level declarations
	// within one file.
	ClearLocalScope()
	// PopulateImports binds the symbols an import set resolves to.
	PopulateImports(bindings []ImportBinding)
	// RegisterImportBinding adds a single alias -> id binding, used for
	// namespace-alias imports resolved incrementally (TypeScript `import *
	// as N`).
	RegisterImportBinding(binding ImportBinding)
	// ResolveRelationship lets a language override resolution per
	// relationship kind; the default implementation delegates to Resolve.
	ResolveRelationship(fromName, toName string, kind symbol.RelationKind) (symbol.ID, bool)
}

// ImportBinding is a resolved import: the local alias (or namespace name)
// bound to a concrete symbol, file, or synthetic module alias.
type ImportBinding struct {
	Alias string
	ID    symbol.ID
	// ModuleAlias, when non-empty, registers Alias as a namespace alias
	// (TypeScript `import * as N from 'm'`): references to `N.x` are
	// rewritten by resolving x against the imported module's exports
	// rather than treating `N` itself as a symbol.
	ModuleAlias string
}
