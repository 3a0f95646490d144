package indexer

import (
	"sort"
	"strings"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/behavior"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/scope"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// qualifiedSeparators lists every separator a qualified reference might use
// across the supported languages, checked in this order.
var qualifiedSeparators = []string{"::", "->", "\\", "."}

// Resolve runs the two-phase cross-file resolver (ingest already ran,
// steps A-D) over every relationship buffered since the last Resolve call,
// then clears the buffers (they are memory-only).
func (ix *Indexer) Resolve() (Stats, error) {
	ix.mu.Lock()
	buffers := ix.buffers
	ix.buffers = make(map[symbol.FileID]*fileBuffer)
	ix.mu.Unlock()

	ix.batchMu.Lock()
	defer ix.batchMu.Unlock()

	if err := ix.store.StartBatch(); err != nil {
		return Stats{}, &Error{Kind: ErrDocumentStore, Err: err}
	}

	var stats Stats
	for fileID, buf := range buffers {
		fileStats, err := ix.resolveFile(fileID, buf)
		if err != nil {
			_ = ix.store.DiscardBatch()
			return stats, err
		}
		stats.merge(fileStats)
	}

	if err := ix.store.CommitBatch(); err != nil {
		return stats, &Error{Kind: ErrDocumentStore, Err: err}
	}
	return stats, nil
}

func (ix *Indexer) resolveFile(fileID symbol.FileID, buf *fileBuffer) (Stats, *Error) {
	var stats Stats
	if len(buf.relationships) == 0 {
		return stats, nil
	}

	path, _, err := ix.store.GetFilePath(fileID)
	if err != nil {
		return stats, &Error{Kind: ErrDocumentStore, Err: err}
	}

	def, b, sc, ownSymbols, scopeErr := ix.buildScope(fileID)
	if scopeErr != nil {
		return stats, scopeErr
	}
	_ = path

	ownByName := make(map[string][]symbol.Symbol)
	for _, s := range ownSymbols {
		ownByName[s.Name] = append(ownByName[s.Name], s)
	}

	methodCallsByTarget := make(map[string][]symbol.MethodCall)
	for _, mc := range buf.methodCalls {
		methodCallsByTarget[mc.CallerName+"::"+mc.MethodName] = append(methodCallsByTarget[mc.CallerName+"::"+mc.MethodName], mc)
	}

	for _, rel := range buf.relationships {
		fromCandidates := ownByName[rel.FromName]
		if len(fromCandidates) == 0 {
			stats.RelationshipsDropped++
			continue
		}
		from := fromCandidates[0]

		toSym, ok := ix.resolveTarget(def, b, sc, fileID, ownByName, methodCallsByTarget, rel, buf)
		if !ok {
			stats.RelationshipsDropped++
			continue
		}

		if !isCompatibleRelationship(from.Kind, toSym.Kind, rel.Kind) {
			stats.RelationshipsDropped++
			continue
		}
		if rel.Kind != symbol.RelDefines && toSym.FileID != fileID {
			if !b.IsSymbolVisibleFromFile(toSym, fileID) {
				stats.RelationshipsDropped++
				continue
			}
		}

		if err := ix.store.StoreRelationship(symbol.Relationship{
			FromID:   from.ID,
			ToID:     toSym.ID,
			Kind:     rel.Kind,
			Metadata: rel.Metadata,
		}); err != nil {
			return stats, &Error{Kind: ErrDocumentStore, Err: err}
		}
		stats.RelationshipsResolved++
	}
	return stats, nil
}

// buildScope constructs the per-file resolution scope: own symbols (honoring
// scope_context for hoisting), imports (through the project provider when
// one is registered), and visible symbols from the rest of the store.
func (ix *Indexer) buildScope(fileID symbol.FileID) (registry.Definition, behavior.Behavior, scope.Scope, []symbol.Symbol, *Error) {
	path, _, err := ix.store.GetFilePath(fileID)
	if err != nil {
		return registry.Definition{}, nil, nil, nil, &Error{Kind: ErrDocumentStore, Err: err}
	}
	def, ok := ix.registry.ByExtension(extOf(path))
	if !ok {
		return registry.Definition{}, nil, nil, nil, &Error{Kind: ErrUnsupportedFileType, Path: path}
	}
	b := ix.behaviorFor(def)

	sc := b.CreateResolutionContext(fileID)

	ownSymbols, err := ix.store.FindSymbolsByFile(fileID)
	if err != nil {
		return registry.Definition{}, nil, nil, nil, &Error{Kind: ErrDocumentStore, Err: err}
	}
	for _, s := range ownSymbols {
		if !b.IsResolvableSymbol(s) {
			continue
		}
		sc.AddSymbolWithContext(s.Name, s.ID, s.ScopeContext)
	}

	for _, imp := range b.GetImportsForFile(fileID) {
		ix.bindImport(def, b, sc, fileID, path, imp)
	}

	ix.addVisibleExternalSymbols(b, sc, fileID)

	return def, b, sc, ownSymbols, nil
}

func extOf(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}

func (ix *Indexer) bindImport(def registry.Definition, b behavior.Behavior, sc scope.Scope, fileID symbol.FileID, fromPath string, imp symbol.Import) {
	importPath := imp.Path

	ix.mu.Lock()
	provider, hasProvider := ix.providers[def.ID]
	ix.mu.Unlock()
	if hasProvider && !strings.HasPrefix(importPath, ".") {
		if enhanced, ok := provider.EnhanceImportPath(importPath, fromPath); ok {
			importPath = enhanced
		}
	}

	modulePath, _ := b.GetModulePath(fileID)

	all, err := ix.store.GetAllSymbols(maxScanSymbols)
	if err != nil {
		return
	}
	alias := imp.Alias
	if alias == "" {
		alias = lastSegment(importPath)
	}
	matched := false
	for _, s := range all {
		if s.FileID == fileID {
			continue
		}
		if b.ImportMatchesSymbol(importPath, s.ModulePath, modulePath) {
			if imp.IsGlob {
				sc.RegisterImportBinding(scope.ImportBinding{Alias: s.Name, ID: s.ID})
			} else if lastSegment(s.ModulePath) == lastSegment(importPath) || s.Name == alias {
				sc.RegisterImportBinding(scope.ImportBinding{Alias: alias, ID: s.ID})
				matched = true
			}
		}
	}
	if !matched && !imp.IsGlob {
		// TypeScript-style namespace import: `import * as N from 'm'` binds
		// N to the module itself, not a single symbol.
		sc.RegisterImportBinding(scope.ImportBinding{Alias: alias, ModuleAlias: importPath})
	}
}

const maxScanSymbols = 200000

func lastSegment(path string) string {
	for _, sep := range qualifiedSeparators {
		if idx := strings.LastIndex(path, sep); idx >= 0 {
			return path[idx+len(sep):]
		}
	}
	return path
}

// addVisibleExternalSymbols adds every other file's symbols that pass this
// language's visibility rule into the Global/Module layer, so an
// unqualified reference to a public symbol resolves even without an
// explicit import (Go package-level visibility within the same package,
// Rust's pub(crate), etc).
func (ix *Indexer) addVisibleExternalSymbols(b behavior.Behavior, sc scope.Scope, fileID symbol.FileID) {
	all, err := ix.store.GetAllSymbols(maxScanSymbols)
	if err != nil {
		return
	}
	for _, s := range all {
		if s.FileID == fileID {
			continue
		}
		if !b.IsResolvableSymbol(s) {
			continue
		}
		if s.Visibility == symbol.VisibilityPublic {
			sc.AddSymbol(s.Name, s.ID, scope.LevelGlobal)
		} else if b.IsSymbolVisibleFromFile(s, fileID) {
			sc.AddSymbol(s.Name, s.ID, scope.LevelModule)
		}
	}
}

func (ix *Indexer) resolveTarget(
	def registry.Definition,
	b behavior.Behavior,
	sc scope.Scope,
	fileID symbol.FileID,
	ownByName map[string][]symbol.Symbol,
	methodCallsByTarget map[string][]symbol.MethodCall,
	rel symbol.UnresolvedRelationship,
	buf *fileBuffer,
) (symbol.Symbol, bool) {
	switch {
	case rel.Kind == symbol.RelDefines:
		return ix.resolveDefines(ownByName, rel)
	case containsAnySeparator(rel.ToName):
		if sym, ok := ix.resolveQualified(def, b, sc, fileID, rel.ToName); ok {
			return sym, true
		}
	case isSelfReceiver(rel.ToName):
		stripped := stripReceiver(rel.ToName)
		if id, ok := sc.Resolve(stripped); ok {
			if sym, err := ix.store.FindSymbolByID(id); err == nil && sym != nil {
				return *sym, true
			}
		}
	}

	if rel.Metadata.HasReceiver {
		if sym, ok := ix.resolveMethodCall(def, b, buf, rel); ok {
			return sym, true
		}
	}

	if id, ok := sc.ResolveRelationship(rel.FromName, rel.ToName, rel.Kind); ok {
		if sym, err := ix.store.FindSymbolByID(id); err == nil && sym != nil {
			return *sym, true
		}
	}

	if modPath, leaf, ok := b.ResolveExternalCallTarget(rel.ToName, fileID); ok {
		if sym, err := b.CreateExternalSymbol(modPath, leaf, fileID, ix.store.GetNextSymbolID); err == nil {
			_ = ix.store.IndexSymbol(sym)
			return sym, true
		}
	}

	return symbol.Symbol{}, false
}

// resolveDefines bypasses scope entirely: it looks for a same-file symbol
// literally named rel.ToName. When more than one candidate exists (a type
// has multiple members with the same name across impl blocks), it prefers
// the one whose range is contained within the defining container's range
// and falls back to source-order disambiguation, which cannot tell two
// out-of-container members apart.
func (ix *Indexer) resolveDefines(ownByName map[string][]symbol.Symbol, rel symbol.UnresolvedRelationship) (symbol.Symbol, bool) {
	candidates := ownByName[rel.ToName]
	if len(candidates) == 0 {
		return symbol.Symbol{}, false
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	container, hasContainer := ownByName[rel.FromName]
	if hasContainer && len(container) > 0 {
		for _, c := range candidates {
			if withinRange(c.Range, container[0].Range) {
				return c, true
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Range.StartLine < candidates[j].Range.StartLine })
	return candidates[0], true
}

func withinRange(inner, outer symbol.Range) bool {
	return inner.StartLine >= outer.StartLine && inner.EndLine <= outer.EndLine
}

func containsAnySeparator(name string) bool {
	for _, sep := range qualifiedSeparators {
		if strings.Contains(name, sep) {
			return true
		}
	}
	return false
}

func isSelfReceiver(name string) bool {
	for _, prefix := range []string{"self.", "this.", "$this->"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func stripReceiver(name string) string {
	for _, prefix := range []string{"self.", "this.", "$this->"} {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	return name
}

// resolveQualified tries a full qualified-path lookup in module/global
// scopes first; on a miss it splits head/tail, resolves the head as a
// type/namespace, then resolves the tail against that type via the
// inheritance resolver.
func (ix *Indexer) resolveQualified(def registry.Definition, b behavior.Behavior, sc scope.Scope, fileID symbol.FileID, qualified string) (symbol.Symbol, bool) {
	all, err := ix.store.GetAllSymbols(maxScanSymbols)
	if err != nil {
		return symbol.Symbol{}, false
	}
	modulePath, _ := b.GetModulePath(fileID)
	for _, s := range all {
		if s.ModulePath == qualified {
			return s, true
		}
	}

	var sep string
	for _, candidate := range qualifiedSeparators {
		if strings.Contains(qualified, candidate) {
			sep = candidate
			break
		}
	}
	if sep == "" {
		return symbol.Symbol{}, false
	}
	idx := strings.LastIndex(qualified, sep)
	head, tail := qualified[:idx], qualified[idx+len(sep):]

	if alias, ok := layeredNamespaceAlias(sc, head); ok {
		for _, s := range all {
			if s.Name == tail && strings.HasPrefix(s.ModulePath, alias) {
				return s, true
			}
		}
	}

	if headID, ok := sc.Resolve(head); ok {
		headSym, err := ix.store.FindSymbolByID(headID)
		if err == nil && headSym != nil {
			if owner, ok := b.InheritanceResolver().ResolveMethod(headSym.Name, tail); ok {
				for _, s := range all {
					if s.Name == tail && (s.ModulePath == b.FormatModulePath(owner, tail) || lastSegment(s.ModulePath) == tail) {
						return s, true
					}
				}
			}
		}
	}

	if b.ImportMatchesSymbol(head, head, modulePath) {
		if tailID, ok := sc.Resolve(tail); ok {
			if s, err := ix.store.FindSymbolByID(tailID); err == nil && s != nil {
				return *s, true
			}
		}
	}

	_ = def
	return symbol.Symbol{}, false
}

func layeredNamespaceAlias(sc scope.Scope, alias string) (string, bool) {
	if l, ok := sc.(*scope.Layered); ok {
		return l.NamespaceAlias(alias)
	}
	return "", false
}

// resolveMethodCall drives receiver + is_static-aware method resolution:
// static calls try Type::method then bare method; instance calls look up
// the receiver's static type via the file's variable_types hint table,
// then ask the inheritance resolver which type defines the method.
func (ix *Indexer) resolveMethodCall(def registry.Definition, b behavior.Behavior, buf *fileBuffer, rel symbol.UnresolvedRelationship) (symbol.Symbol, bool) {
	receiver := rel.Metadata.Receiver
	method := rel.ToName

	all, err := ix.store.GetAllSymbols(maxScanSymbols)
	if err != nil {
		return symbol.Symbol{}, false
	}

	if rel.Metadata.IsStatic {
		for _, s := range all {
			if s.Name == method && lastSegment(s.ModulePath) == method && strings.Contains(s.ModulePath, receiver) {
				return s, true
			}
		}
		for _, s := range all {
			if s.Name == method {
				return s, true
			}
		}
		return symbol.Symbol{}, false
	}

	typeName, ok := buf.variableTypes[receiver]
	if !ok {
		return symbol.Symbol{}, false
	}
	owner, ok := b.InheritanceResolver().ResolveMethod(typeName, method)
	if !ok {
		owner = typeName
	}
	for _, s := range all {
		if s.Name == method && strings.Contains(s.ModulePath, owner) {
			return s, true
		}
	}
	_ = def
	return symbol.Symbol{}, false
}
