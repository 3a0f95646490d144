package scope

import "github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"

// frame is one local scope frame (function/class/block) pushed by EnterScope.
type frame struct {
	kind    Level
	symbols map[string]symbol.ID
}

// Layered is the generic Scope implementation shared by every language.
// Construct one per file via New, passing the language's resolution order.
type Layered struct {
	order []Level

	// non-local layers: one flat map per level name present in order.
	layers map[Level]map[string]symbol.ID

	// local frames, innermost last; searched before any non-local layer
	// whenever LevelLocal appears in order (it always does).
	frames []frame

	// namespaceAliases holds TypeScript-style `import * as N` bindings:
	// alias -> module path, consulted for `N.x` qualified references.
	// Per-file state, so it lives on the scope rather than the behavior.
	namespaceAliases map[string]string

	// resolveOverride, if set, lets a language customize
	// ResolveRelationship beyond the default of delegating to Resolve.
	resolveOverride func(l *Layered, fromName, toName string, kind symbol.RelationKind) (symbol.ID, bool)
}

// New creates a Layered scope with the given level search order. order
// must list LevelLocal first if local bindings should shadow everything
// else (true for every language's resolution-order table).
func New(order []Level) *Layered {
	l := &Layered{
		order:            order,
		layers:           make(map[Level]map[string]symbol.ID),
		namespaceAliases: make(map[string]string),
	}
	for _, lvl := range order {
		if lvl != LevelLocal {
			l.layers[lvl] = make(map[string]symbol.ID)
		}
	}
	return l
}

// WithResolveOverride installs a per-relationship-kind override, used by
// languages whose Resolve does not cover every relationship kind (e.g.
// Python's `pkg.name` call expansion).
func (l *Layered) WithResolveOverride(fn func(l *Layered, fromName, toName string, kind symbol.RelationKind) (symbol.ID, bool)) *Layered {
	l.resolveOverride = fn
	return l
}

func (l *Layered) AddSymbol(name string, id symbol.ID, level Level) {
	if level == LevelLocal {
		l.ensureFrame()
		l.frames[len(l.frames)-1].symbols[name] = id
		return
	}
	m, ok := l.layers[level]
	if !ok {
		m = make(map[string]symbol.ID)
		l.layers[level] = m
	}
	m[name] = id
}

func (l *Layered) ensureFrame() {
	if len(l.frames) == 0 {
		l.frames = append(l.frames, frame{kind: LevelLocal, symbols: make(map[string]symbol.ID)})
	}
}

// AddSymbolWithContext places a symbol according to its declared scope
// kind. Hoisted locals (scopeCtx.Hoisted) are bound into the outermost
// local frame rather than the current innermost one, so a reference that
// textually precedes the declaration still resolves (Go/JS/TS hoisting).
func (l *Layered) AddSymbolWithContext(name string, id symbol.ID, scopeCtx symbol.ScopeContext) {
	switch scopeCtx.Kind {
	case symbol.ScopeLocal:
		if scopeCtx.Hoisted && len(l.frames) > 0 {
			l.frames[0].symbols[name] = id
			return
		}
		l.AddSymbol(name, id, LevelLocal)
	case symbol.ScopeClassMember:
		l.AddSymbol(name, id, LevelClassMember)
	case symbol.ScopeModule:
		l.AddSymbol(name, id, LevelModule)
	case symbol.ScopePackage:
		l.AddSymbol(name, id, LevelHoisted)
	case symbol.ScopeGlobal:
		l.AddSymbol(name, id, LevelGlobal)
	default:
		l.AddSymbol(name, id, LevelModule)
	}
}

func (l *Layered) Resolve(name string) (symbol.ID, bool) {
	for _, lvl := range l.order {
		if lvl == LevelLocal {
			for i := len(l.frames) - 1; i >= 0; i-- {
				if id, ok := l.frames[i].symbols[name]; ok {
					return id, true
				}
			}
			continue
		}
		if m, ok := l.layers[lvl]; ok {
			if id, ok := m[name]; ok {
				return id, true
			}
		}
	}
	return 0, false
}

func (l *Layered) EnterScope(kind Level) {
	l.frames = append(l.frames, frame{kind: kind, symbols: make(map[string]symbol.ID)})
}

func (l *Layered) ExitScope() {
	if len(l.frames) > 0 {
		l.frames = l.frames[:len(l.frames)-1]
	}
}

func (l *Layered) ClearLocalScope() {
	l.frames = nil
}

func (l *Layered) PopulateImports(bindings []ImportBinding) {
	for _, b := range bindings {
		l.RegisterImportBinding(b)
	}
}

func (l *Layered) RegisterImportBinding(b ImportBinding) {
	if b.ModuleAlias != "" {
		l.namespaceAliases[b.Alias] = b.ModuleAlias
		return
	}
	l.AddSymbol(b.Alias, b.ID, LevelImports)
}

// NamespaceAlias returns the module path an `import * as N` alias points
// to, if any, consulted by languages that support namespace imports when
// resolving `N.x` qualified references.
func (l *Layered) NamespaceAlias(alias string) (string, bool) {
	mod, ok := l.namespaceAliases[alias]
	return mod, ok
}

func (l *Layered) ResolveRelationship(fromName, toName string, kind symbol.RelationKind) (symbol.ID, bool) {
	if l.resolveOverride != nil {
		return l.resolveOverride(l, fromName, toName, kind)
	}
	return l.Resolve(toName)
}
