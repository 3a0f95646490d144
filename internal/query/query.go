// Package query implements the read-only lookups the CLI's `query`
// subcommand exposes over an already-indexed store.Store: symbol lookup by
// name, direct callers/callees, a transitive impact set, and a naive
// substring search. These sit directly on top of the document store the
// same way the indexer's resolver does, without needing indexer.Indexer
// itself.
package query

import (
	"strings"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/store"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// maxScanSymbols bounds the full-table scans Search and the indexer's own
// resolver fall back to; matches internal/indexer/resolve.go's cap.
const maxScanSymbols = 200000

// Engine answers query-subcommand lookups against a Store.
type Engine struct {
	store *store.Store
}

func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// Symbol finds every symbol named name, optionally narrowed to lang.
func (e *Engine) Symbol(name string, lang symbol.Language) ([]symbol.Symbol, error) {
	return e.store.FindSymbolsByName(name, lang)
}

// Callers returns every symbol with a "calls" relationship pointing at id.
func (e *Engine) Callers(id symbol.ID) ([]symbol.Symbol, error) {
	rels, err := e.store.GetRelationshipsTo(id, symbol.RelCalls)
	if err != nil {
		return nil, err
	}
	return e.resolveFromIDs(rels, func(r symbol.Relationship) symbol.ID { return r.FromID })
}

// Callees returns every symbol id's own "calls" relationships point at.
func (e *Engine) Callees(id symbol.ID) ([]symbol.Symbol, error) {
	rels, err := e.store.GetRelationshipsFrom(id, symbol.RelCalls)
	if err != nil {
		return nil, err
	}
	return e.resolveFromIDs(rels, func(r symbol.Relationship) symbol.ID { return r.ToID })
}

// Impact performs a breadth-first walk of the reverse call graph from id,
// up to maxDepth hops, returning every symbol that would be affected by a
// change to id (everything that transitively calls it). maxDepth <= 0
// means unbounded.
func (e *Engine) Impact(id symbol.ID, maxDepth int) ([]symbol.Symbol, error) {
	visited := map[symbol.ID]bool{id: true}
	frontier := []symbol.ID{id}
	var out []symbol.Symbol

	for depth := 0; len(frontier) > 0 && (maxDepth <= 0 || depth < maxDepth); depth++ {
		var next []symbol.ID
		for _, cur := range frontier {
			rels, err := e.store.GetRelationshipsTo(cur, symbol.RelCalls)
			if err != nil {
				return nil, err
			}
			for _, rel := range rels {
				if visited[rel.FromID] {
					continue
				}
				visited[rel.FromID] = true
				sym, err := e.store.FindSymbolByID(rel.FromID)
				if err != nil || sym == nil {
					continue
				}
				out = append(out, *sym)
				next = append(next, rel.FromID)
			}
		}
		frontier = next
	}
	return out, nil
}

// Search does a case-insensitive substring match over every indexed
// symbol's name, capped at limit results. This is a deliberately simple
// fallback; the semantic_search settings (embedding-based ranking) belong
// to an external collaborator.
func (e *Engine) Search(pattern string, limit int) ([]symbol.Symbol, error) {
	all, err := e.store.GetAllSymbols(maxScanSymbols)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(pattern)
	var out []symbol.Symbol
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.Name), needle) {
			out = append(out, s)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (e *Engine) resolveFromIDs(rels []symbol.Relationship, pick func(symbol.Relationship) symbol.ID) ([]symbol.Symbol, error) {
	var out []symbol.Symbol
	seen := map[symbol.ID]bool{}
	for _, rel := range rels {
		id := pick(rel)
		if seen[id] {
			continue
		}
		seen[id] = true
		sym, err := e.store.FindSymbolByID(id)
		if err != nil {
			return nil, err
		}
		if sym != nil {
			out = append(out, *sym)
		}
	}
	return out, nil
}
