// Package indexer implements the orchestrator: per-file
// ingestion plus the two-phase cross-file
// relationship resolver, using a worker-pool-over-channels pattern for
// concurrency and an ingest/resolve split to keep cross-file relationship
// data out of the document store until it has been checked.
package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/behavior"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/inherit"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/project"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/store"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// Status is the per-file outcome of IndexFile.
type Status string

const (
	StatusIndexed Status = "indexed"
	StatusCached  Status = "cached"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Stats accumulates the user-visible indexing counters.
type Stats struct {
	FilesIndexed          int
	FilesCached           int
	FilesFailed           int
	SymbolsFound          int
	RelationshipsResolved int
	RelationshipsDropped  int
}

func (s *Stats) merge(other Stats) {
	s.FilesIndexed += other.FilesIndexed
	s.FilesCached += other.FilesCached
	s.FilesFailed += other.FilesFailed
	s.SymbolsFound += other.SymbolsFound
	s.RelationshipsResolved += other.RelationshipsResolved
	s.RelationshipsDropped += other.RelationshipsDropped
}

// fileBuffer holds the in-memory, resolve-phase-only data produced by
// ingesting one file: unresolved relationships, method calls, and
// variable-type hints. None of it touches the document store until the
// resolve phase has checked it.
type fileBuffer struct {
	relationships []symbol.UnresolvedRelationship
	methodCalls   []symbol.MethodCall
	variableTypes map[string]string
}

// Indexer is the orchestrator. One Indexer serves one workspace.
type Indexer struct {
	registry    *registry.Registry
	store       *store.Store
	cache       *store.Cache
	projectRoot string
	parallelism int

	// batchMu serializes StartBatch..CommitBatch sections across workers:
	// the store holds one shared transaction, so two in-flight batches
	// would otherwise interleave their writes. Parsing stays outside it.
	batchMu sync.Mutex

	mu           sync.Mutex
	behaviors    map[symbol.Language]behavior.Behavior
	parsers      map[symbol.Language]registry.Parser
	buffers      map[symbol.FileID]*fileBuffer
	providers    map[symbol.Language]project.Provider
	symbolsFound int
}

// New creates an Indexer. parallelism <= 0 means "use runtime.NumCPU()",
// applied by IndexDirectory (cmd/ passes indexing.parallel_threads).
func New(reg *registry.Registry, st *store.Store, cache *store.Cache, projectRoot string, parallelism int) *Indexer {
	return &Indexer{
		registry:    reg,
		store:       st,
		cache:       cache,
		projectRoot: projectRoot,
		parallelism: parallelism,
		behaviors:   make(map[symbol.Language]behavior.Behavior),
		parsers:     make(map[symbol.Language]registry.Parser),
		buffers:     make(map[symbol.FileID]*fileBuffer),
		providers:   make(map[symbol.Language]project.Provider),
	}
}

// RegisterProvider wires a Project Resolution Provider for a language.
func (ix *Indexer) RegisterProvider(lang symbol.Language, p project.Provider) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.providers[lang] = p
}

func (ix *Indexer) behaviorFor(def registry.Definition) behavior.Behavior {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if b, ok := ix.behaviors[def.ID]; ok {
		return b
	}
	b := def.MakeBehavior()
	ix.behaviors[def.ID] = b
	return b
}

func (ix *Indexer) parserFor(def registry.Definition) registry.Parser {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if p, ok := ix.parsers[def.ID]; ok {
		return p
	}
	p := def.MakeParser(nil)
	ix.parsers[def.ID] = p
	return p
}

// applyInheritance replays one file's discovered hierarchy edges and method
// ownership into the language's (run-lifetime, shared) inherit.Resolver.
// Hierarchy state is additive across files, like import state: behavior
// state accumulates across every file in one indexing run.
func applyInheritance(r *inherit.Resolver, info registry.InheritanceInfo) {
	if r == nil {
		return
	}
	for _, e := range info.Edges {
		r.AddInheritance(e.Child, e.Parent, inherit.EdgeKind(e.Kind))
	}
	for typ, methods := range info.InherentMethods {
		r.AddTypeMethods(typ, methods)
	}
	for typ, sources := range info.TraitMethods {
		for source, methods := range sources {
			r.AddTraitMethods(typ, source, methods)
		}
	}
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// IndexFile ingests one file. The parse runs outside the store critical
// section (parsers are stateless and safe to run concurrently across the
// worker pool); everything that touches the store happens under batchMu,
// so one file's StartBatch..CommitBatch section never interleaves with
// another's on the store's single shared transaction.
func (ix *Indexer) IndexFile(path string, source []byte) (Status, *Error) {
	ext := filepath.Ext(path)
	def, ok := ix.registry.ByExtension(ext)
	if !ok {
		return StatusSkipped, &Error{Kind: ErrUnsupportedFileType, Path: path, Err: fmt.Errorf("no language registered for %s", ext)}
	}

	hash := hashBytes(source)

	// Parse with provisional symbol ids; real ids are allocated from the
	// store's counter inside the serialized write section below and
	// remapped in order. Nothing produced by a parse refers to a symbol by
	// id (relationships and method calls are name-based), so the remap is
	// a plain overwrite.
	var provisional uint32
	p := ix.parserFor(def)
	result, perr := p.Parse(source, 0, func() (symbol.ID, error) {
		provisional++
		return symbol.ID(provisional), nil
	})
	if perr != nil {
		return StatusFailed, &Error{Kind: ErrParse, Path: path, Err: perr}
	}

	ix.batchMu.Lock()
	defer ix.batchMu.Unlock()

	prior, err := ix.store.GetFileInfo(path)
	if err != nil {
		return StatusFailed, &Error{Kind: ErrDocumentStore, Path: path, Err: err}
	}
	if prior != nil && prior.Hash == hash {
		return StatusCached, nil
	}

	if err := ix.store.StartBatch(); err != nil {
		return StatusFailed, &Error{Kind: ErrDocumentStore, Path: path, Err: err}
	}
	if ferr := ix.ingest(path, hash, prior, def, &result); ferr != nil {
		_ = ix.store.DiscardBatch()
		return StatusFailed, ferr
	}
	if err := ix.store.CommitBatch(); err != nil {
		return StatusFailed, &Error{Kind: ErrDocumentStore, Path: path, Err: err}
	}
	return StatusIndexed, nil
}

// ingest writes one parsed file into the store. Caller holds batchMu and
// an open batch.
func (ix *Indexer) ingest(path, hash string, prior *store.FileInfo, def registry.Definition, result *registry.ParseResult) *Error {
	b := ix.behaviorFor(def)

	if prior != nil {
		if err := ix.store.RemoveFileDocuments(path); err != nil {
			return &Error{Kind: ErrDocumentStore, Path: path, Err: err}
		}
	}

	fileID, err := ix.store.GetNextFileID()
	if err != nil {
		return &Error{Kind: ErrIDExhausted, Path: path, Err: err}
	}
	if err := ix.store.StoreFileInfo(fileID, path, hash, time.Now().Unix()); err != nil {
		return &Error{Kind: ErrDocumentStore, Path: path, Err: err}
	}

	modulePath, _ := b.ModulePathFromFile(path, ix.projectRoot)
	b.RegisterFile(path, fileID, modulePath)

	for i := range result.Symbols {
		sym := &result.Symbols[i]
		id, err := ix.store.GetNextSymbolID()
		if err != nil {
			return &Error{Kind: ErrIDExhausted, Path: path, Err: err}
		}
		sym.ID = id
		sym.Language = def.ID
		sym.FileID = fileID
		if sym.ModulePath == "" {
			sym.ModulePath = b.FormatModulePath(modulePath, sym.Name)
		} else {
			// A parser-qualified path ("Circle::area" for an impl method) is
			// relative to the file's module; prefix it.
			sym.ModulePath = b.FormatModulePath(modulePath, sym.ModulePath)
		}
		if sym.Visibility == "" && sym.Signature != "" {
			sym.Visibility = b.ParseVisibility(sym.Signature)
		}
		if err := ix.store.IndexSymbol(*sym); err != nil {
			return &Error{Kind: ErrDocumentStore, Path: path, Err: err}
		}
		if ix.cache != nil {
			ix.cache.Put(sym.Name, sym.ID)
		}
		// Semantic-search embedding submission is an out-of-scope opaque
		// collaborator; the core only needs a place to
		// hand doc-commented symbols off, which a caller wires externally.
	}

	for _, imp := range result.Imports {
		imp.FileID = fileID
		b.AddImport(imp)
	}

	applyInheritance(b.InheritanceResolver(), result.Inheritance)

	// Hierarchy edges become stored relationships too, mapped through the
	// behavior's language-specific kind translation (Go's struct embedding
	// is Uses, TS heritage clauses split into Extends/Implements, etc).
	relationships := result.Relationships
	for _, e := range result.Inheritance.Edges {
		relationships = append(relationships, symbol.UnresolvedRelationship{
			FromName: e.Child,
			ToName:   e.Parent,
			FileID:   fileID,
			Kind:     b.MapRelationship(e.Kind),
		})
	}

	ix.mu.Lock()
	ix.symbolsFound += len(result.Symbols)
	buf := &fileBuffer{
		relationships: relationships,
		methodCalls:   result.MethodCalls,
		variableTypes: result.VariableTypes,
	}
	for i := range buf.relationships {
		buf.relationships[i].FileID = fileID
	}
	ix.buffers[fileID] = buf
	ix.mu.Unlock()

	return nil
}

// IndexDirectory walks dir with a bounded worker pool
// and ingests every file whose extension the registry recognizes, skipping
// paths matching ignore (simple substring/glob patterns, not a full
// .codeignore engine; that belongs to the CLI layer).
func (ix *Indexer) IndexDirectory(dir string, ignore []string) (Stats, []*Error) {
	files := ix.discover(dir, ignore)

	workers := ix.parallelism
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}
	if workers == 0 {
		workers = 1
	}

	type result struct {
		status Status
		err    *Error
	}

	fileChan := make(chan string, len(files))
	resultChan := make(chan result, len(files))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for path := range fileChan {
				source, readErr := readFile(path)
				if readErr != nil {
					resultChan <- result{status: StatusFailed, err: &Error{Kind: ErrFileRead, Path: path, Err: readErr}}
					continue
				}
				status, ferr := ix.IndexFile(path, source)
				resultChan <- result{status: status, err: ferr}
			}
		}()
	}
	for _, f := range files {
		fileChan <- f
	}
	close(fileChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var stats Stats
	var errs []*Error
	for r := range resultChan {
		switch r.status {
		case StatusIndexed:
			stats.FilesIndexed++
		case StatusCached:
			stats.FilesCached++
		case StatusFailed, StatusSkipped:
			stats.FilesFailed++
		}
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	ix.mu.Lock()
	stats.SymbolsFound = ix.symbolsFound
	ix.mu.Unlock()
	return stats, errs
}

func (ix *Indexer) discover(dir string, ignore []string) []string {
	var out []string
	walkFiles(dir, func(path string) {
		if shouldIgnore(path, ignore) {
			return
		}
		if _, ok := ix.registry.ByExtension(filepath.Ext(path)); ok {
			out = append(out, path)
		}
	})
	return out
}

func shouldIgnore(path string, patterns []string) bool {
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		if strings.Contains(path, pat) {
			return true
		}
		if ok, _ := filepath.Match(pat, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}
