package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/lang"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/project"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/store"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

func newTestIndexer(t *testing.T) (*Indexer, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg := registry.New()
	require.NoError(t, lang.RegisterDefaults(reg))
	return New(reg, st, store.NewCache(), "", 1), st
}

func indexAll(t *testing.T, ix *Indexer, files map[string]string) {
	t.Helper()
	for path, src := range files {
		status, ferr := ix.IndexFile(path, []byte(src))
		require.Nil(t, ferr, "indexing %s", path)
		require.Equal(t, StatusIndexed, status, "indexing %s", path)
	}
	_, err := ix.Resolve()
	require.NoError(t, err)
}

func findSymbol(t *testing.T, st *store.Store, name string, modulePath string) symbol.Symbol {
	t.Helper()
	syms, err := st.FindSymbolsByName(name, "")
	require.NoError(t, err)
	for _, s := range syms {
		if modulePath == "" || s.ModulePath == modulePath {
			return s
		}
	}
	t.Fatalf("symbol %s (module %s) not found", name, modulePath)
	return symbol.Symbol{}
}

func TestRustCrossModuleCallDisambiguation(t *testing.T) {
	ix, st := newTestIndexer(t)
	indexAll(t, ix, map[string]string{
		"src/config.rs":  "pub fn create_config() -> Config {\n    Config {}\n}\n",
		"src/another.rs": "pub fn create_config() -> Another {\n    Another {}\n}\n",
		"src/main.rs":    "use crate::config::create_config;\n\nfn main() {\n    let c = create_config();\n}\n",
	})

	main := findSymbol(t, st, "main", "")
	rels, err := st.GetRelationshipsFrom(main.ID, symbol.RelCalls)
	require.NoError(t, err)
	require.Len(t, rels, 1, "exactly one call edge from main")

	target, err := st.FindSymbolByID(rels[0].ToID)
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, "crate::config::create_config", target.ModulePath,
		"the imported create_config wins over the same-named one in another module")
}

func TestRustTraitImplementation(t *testing.T) {
	ix, st := newTestIndexer(t)
	indexAll(t, ix, map[string]string{
		"src/lib.rs": `pub trait MyTrait {
    fn describe(&self) -> String;
}

pub struct MyStruct;

impl MyTrait for MyStruct {
    fn describe(&self) -> String {
        String::new()
    }
}
`,
	})

	trait := findSymbol(t, st, "MyTrait", "")
	rels, err := st.GetRelationshipsTo(trait.ID, symbol.RelImplements)
	require.NoError(t, err)
	require.Len(t, rels, 1)

	impl, err := st.FindSymbolByID(rels[0].FromID)
	require.NoError(t, err)
	require.NotNil(t, impl)
	assert.Equal(t, "MyStruct", impl.Name)

	def, ok := ix.registry.ByID(symbol.LangRust)
	require.True(t, ok)
	resolver := ix.behaviorFor(def).InheritanceResolver()
	assert.Contains(t, resolver.GetInheritanceChain("MyStruct"), "MyTrait")
	assert.Contains(t, resolver.GetImplementations("MyTrait"), "MyStruct")
}

func TestRustInherentMethodPreferredOverTrait(t *testing.T) {
	ix, st := newTestIndexer(t)
	indexAll(t, ix, map[string]string{
		"src/lib.rs": `pub trait X {
    fn foo(&self);
}

pub struct T;

impl T {
    pub fn new() -> T {
        T
    }

    pub fn foo(&self) {}
}

impl X for T {
    fn foo(&self) {}
}

pub fn run() {
    let t = T::new();
    t.foo();
}
`,
	})

	run := findSymbol(t, st, "run", "crate::run")
	rels, err := st.GetRelationshipsFrom(run.ID, symbol.RelCalls)
	require.NoError(t, err)

	var fooTargets []string
	for _, rel := range rels {
		target, err := st.FindSymbolByID(rel.ToID)
		require.NoError(t, err)
		require.NotNil(t, target)
		if target.Name == "foo" {
			fooTargets = append(fooTargets, target.ModulePath)
		}
	}
	require.NotEmpty(t, fooTargets, "t.foo() should resolve")
	assert.Contains(t, fooTargets, "crate::T::foo", "the inherent foo wins over the trait's")
	assert.NotContains(t, fooTargets, "crate::X::foo")
}

func TestTypeScriptPathAlias(t *testing.T) {
	ix, st := newTestIndexer(t)

	tsconfig := `{
	"compilerOptions": {
		"baseUrl": "./src",
		"paths": { "@utils/*": ["utils/*"] }
	}
}`
	provider := project.NewTSConfigProvider(func(path string) ([]byte, error) {
		return []byte(tsconfig), nil
	})
	_, err := provider.Load("tsconfig.json")
	require.NoError(t, err)
	provider.RegisterSourceRoot("src", "tsconfig.json")
	ix.RegisterProvider(symbol.LangTypeScript, provider)

	indexAll(t, ix, map[string]string{
		"src/utils/x.ts": "export function f() {\n\treturn 1;\n}\n",
		"src/a.ts":       "import { f } from \"@utils/x\";\n\nexport function caller() {\n\tf();\n}\n",
	})

	caller := findSymbol(t, st, "caller", "")
	rels, err := st.GetRelationshipsFrom(caller.ID, symbol.RelCalls)
	require.NoError(t, err)
	require.Len(t, rels, 1)

	target, err := st.FindSymbolByID(rels[0].ToID)
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, "f", target.Name)
	assert.Equal(t, "src/utils/x", target.ModulePath)
}

func TestPythonModuleHelperWinsOverLocalShadow(t *testing.T) {
	ix, st := newTestIndexer(t)
	indexAll(t, ix, map[string]string{
		"m.py": `def helper():
    return 1

def outer():
    helper = 1
    def inner():
        helper()
`,
	})

	moduleHelper := findSymbol(t, st, "helper", "m")
	inner := findSymbol(t, st, "inner", "")
	rels, err := st.GetRelationshipsFrom(inner.ID, symbol.RelCalls)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, moduleHelper.ID, rels[0].ToID,
		"inner's call resolves to the module-level def, not the shadowing local int")
}

func TestGoCapitalizationVisibility(t *testing.T) {
	ix, st := newTestIndexer(t)
	indexAll(t, ix, map[string]string{
		"pkg/a/a.go": "package a\n\nfunc Public() {}\n",
		"pkg/b/b.go": "package b\n\nfunc private() {}\n",
		"pkg/c/c.go": "package c\n\nfunc use() {\n\tPublic()\n\tprivate()\n}\n",
	})

	use := findSymbol(t, st, "use", "")
	rels, err := st.GetRelationshipsFrom(use.ID, symbol.RelCalls)
	require.NoError(t, err)
	require.Len(t, rels, 1, "only the exported Public resolves from another package")

	target, err := st.FindSymbolByID(rels[0].ToID)
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, "Public", target.Name)
}

func TestIncrementalReindexPurgesOldSymbolsAndEdges(t *testing.T) {
	ix, st := newTestIndexer(t)

	first := `package d

func one() { two() }

func two() {}

func three() {}

func four() {}

func five() {}
`
	status, ferr := ix.IndexFile("pkg/d/d.go", []byte(first))
	require.Nil(t, ferr)
	require.Equal(t, StatusIndexed, status)
	_, err := ix.Resolve()
	require.NoError(t, err)

	info, err := st.GetFileInfo("pkg/d/d.go")
	require.NoError(t, err)
	require.NotNil(t, info)
	oldFileID := info.ID

	oldSyms, err := st.FindSymbolsByFile(oldFileID)
	require.NoError(t, err)
	require.Len(t, oldSyms, 5)

	one := findSymbol(t, st, "one", "")
	rels, err := st.GetRelationshipsFrom(one.ID, symbol.RelCalls)
	require.NoError(t, err)
	require.Len(t, rels, 1)

	second := `package d

func alpha() {}

func beta() {}

func gamma() {}
`
	status, ferr = ix.IndexFile("pkg/d/d.go", []byte(second))
	require.Nil(t, ferr)
	require.Equal(t, StatusIndexed, status)
	_, err = ix.Resolve()
	require.NoError(t, err)

	info, err = st.GetFileInfo("pkg/d/d.go")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.NotEqual(t, oldFileID, info.ID, "re-ingest allocates a fresh FileID")

	newSyms, err := st.FindSymbolsByFile(info.ID)
	require.NoError(t, err)
	assert.Len(t, newSyms, 3)

	remnants, err := st.FindSymbolsByFile(oldFileID)
	require.NoError(t, err)
	assert.Empty(t, remnants, "nothing survives from the previous content")

	for _, s := range oldSyms {
		from, err := st.GetRelationshipsFrom(s.ID, "")
		require.NoError(t, err)
		assert.Empty(t, from)
		to, err := st.GetRelationshipsTo(s.ID, "")
		require.NoError(t, err)
		assert.Empty(t, to)
	}
}

func TestIndexDirectoryParallelWorkersLoseNoFiles(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg := registry.New()
	require.NoError(t, lang.RegisterDefaults(reg))

	dir := t.TempDir()
	const fileCount = 16
	for i := 0; i < fileCount; i++ {
		src := fmt.Sprintf("package p%d\n\nfunc Exported%d() {}\n\nfunc helper%d() { Exported%d() }\n", i, i, i, i)
		pkgDir := filepath.Join(dir, fmt.Sprintf("p%d", i))
		require.NoError(t, os.MkdirAll(pkgDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "f.go"), []byte(src), 0o644))
	}

	ix := New(reg, st, store.NewCache(), dir, 4)
	stats, errs := ix.IndexDirectory(dir, nil)
	for _, e := range errs {
		assert.Nil(t, e)
	}
	assert.Equal(t, fileCount, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Equal(t, 2*fileCount, stats.SymbolsFound)

	count, err := st.CountSymbols()
	require.NoError(t, err)
	assert.Equal(t, 2*fileCount, count, "every worker's batch must commit; none may collide")

	_, err = ix.Resolve()
	require.NoError(t, err)
	resolved, err := st.CountRelationships(symbol.RelCalls)
	require.NoError(t, err)
	assert.Equal(t, fileCount, resolved, "each file's internal call resolves")
}

func TestUnchangedFileIsCached(t *testing.T) {
	ix, _ := newTestIndexer(t)
	src := []byte("package a\n\nfunc Public() {}\n")

	status, ferr := ix.IndexFile("pkg/a/a.go", src)
	require.Nil(t, ferr)
	require.Equal(t, StatusIndexed, status)

	status, ferr = ix.IndexFile("pkg/a/a.go", src)
	require.Nil(t, ferr)
	assert.Equal(t, StatusCached, status, "indexing unchanged content is a no-op")
}

func TestUnknownExtensionIsSkipped(t *testing.T) {
	ix, _ := newTestIndexer(t)
	status, ferr := ix.IndexFile("notes.txt", []byte("hello"))
	assert.Equal(t, StatusSkipped, status)
	require.NotNil(t, ferr)
	assert.Equal(t, ErrUnsupportedFileType, ferr.Kind)
	assert.False(t, ferr.Fatal())
}

func TestDroppedRelationshipsAreCountedNotFatal(t *testing.T) {
	ix, _ := newTestIndexer(t)
	status, ferr := ix.IndexFile("pkg/a/a.go", []byte("package a\n\nfunc run() {\n\tnowhere()\n}\n"))
	require.Nil(t, ferr)
	require.Equal(t, StatusIndexed, status)

	stats, err := ix.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.RelationshipsResolved)
	assert.Equal(t, 1, stats.RelationshipsDropped)
}
