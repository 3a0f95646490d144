package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGoMod(t *testing.T, dir, module string) {
	t.Helper()
	content := "module " + module + "\n\ngo 1.22\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(content), 0o644))
}

func TestModuleRootedImportRewrites(t *testing.T) {
	dir := t.TempDir()
	writeGoMod(t, dir, "github.com/acme/widgets")

	p, err := NewGoModuleProvider(dir)
	require.NoError(t, err)

	got, ok := p.EnhanceImportPath("github.com/acme/widgets/pkg/util", "")
	require.True(t, ok)
	assert.Equal(t, "pkg/util", got)

	got, ok = p.EnhanceImportPath("github.com/acme/widgets", "")
	require.True(t, ok)
	assert.Equal(t, ".", got)
}

func TestForeignImportIsLeftAlone(t *testing.T) {
	dir := t.TempDir()
	writeGoMod(t, dir, "github.com/acme/widgets")

	p, err := NewGoModuleProvider(dir)
	require.NoError(t, err)

	_, ok := p.EnhanceImportPath("github.com/other/thing", "")
	assert.False(t, ok)
	assert.Nil(t, p.GetImportCandidates("fmt", ""))
}

func TestMissingGoModIsNotAnError(t *testing.T) {
	p, err := NewGoModuleProvider(t.TempDir())
	require.NoError(t, err)
	_, ok := p.EnhanceImportPath("github.com/acme/widgets/pkg", "")
	assert.False(t, ok)
}

func TestConfigSHAChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tsconfig.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
	first, err := ConfigSHA(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"compilerOptions":{}}`), 0o644))
	second, err := ConfigSHA(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Len(t, first, 64)
}
