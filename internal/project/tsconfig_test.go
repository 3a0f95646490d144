package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubFS(files map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		if data, ok := files[path]; ok {
			return []byte(data), nil
		}
		return nil, &fsError{path}
	}
}

type fsError struct{ path string }

func (e *fsError) Error() string { return "not found: " + e.path }

func TestPathAliasRewrite(t *testing.T) {
	p := NewTSConfigProvider(stubFS(map[string]string{
		"tsconfig.json": `{
			// path aliases for the src tree
			"compilerOptions": {
				"baseUrl": "./src",
				"paths": { "@utils/*": ["utils/*"] }
			}
		}`,
	}))
	_, err := p.Load("tsconfig.json")
	require.NoError(t, err)
	p.RegisterSourceRoot("src", "tsconfig.json")

	got, ok := p.EnhanceImportPath("@utils/x", "src/a.ts")
	require.True(t, ok)
	assert.Equal(t, "src/utils/x", got)
}

func TestRelativeSpecifierBypassesProvider(t *testing.T) {
	p := NewTSConfigProvider(stubFS(map[string]string{
		"tsconfig.json": `{"compilerOptions": {"baseUrl": "."}}`,
	}))
	_, err := p.Load("tsconfig.json")
	require.NoError(t, err)
	p.RegisterSourceRoot("src", "tsconfig.json")

	assert.Nil(t, p.GetImportCandidates("./local", "src/a.ts"))
	assert.Nil(t, p.GetImportCandidates("../up", "src/a.ts"))
}

func TestExtendsChainMergesChildOverParent(t *testing.T) {
	p := NewTSConfigProvider(stubFS(map[string]string{
		"app/tsconfig.json": `{
			"extends": "../base.json",
			"compilerOptions": { "paths": { "@app/*": ["app/*"] } }
		}`,
		"base.json": `{
			"compilerOptions": {
				"baseUrl": "./src",
				"paths": { "@lib/*": ["lib/*"] }
			}
		}`,
	}))
	rules, err := p.Load("app/tsconfig.json")
	require.NoError(t, err)

	patterns := map[string]bool{}
	for _, r := range rules.Rules {
		patterns[r.Pattern] = true
	}
	assert.True(t, patterns["@app/*"], "child's own paths survive the merge")
	assert.True(t, patterns["@lib/*"], "inherited paths survive the merge")
}

func TestCircularExtendsFallsBackToOwnSettings(t *testing.T) {
	p := NewTSConfigProvider(stubFS(map[string]string{
		"a.json": `{"extends": "./b.json", "compilerOptions": {"baseUrl": "./src"}}`,
		"b.json": `{"extends": "./a.json"}`,
	}))
	rules, err := p.Load("a.json")
	require.NoError(t, err, "a circular extends chain is a warning, not a hard failure")
	assert.Contains(t, rules.BaseURL, "src")
}

func TestNearestConfigWinsForNestedDirs(t *testing.T) {
	p := NewTSConfigProvider(stubFS(map[string]string{
		"tsconfig.json": `{"compilerOptions": {"baseUrl": ".", "paths": {"@x/*": ["x/*"]}}}`,
	}))
	_, err := p.Load("tsconfig.json")
	require.NoError(t, err)
	p.RegisterSourceRoot(".", "tsconfig.json")

	got, ok := p.EnhanceImportPath("@x/deep", "a/b/c/file.ts")
	require.True(t, ok)
	assert.Equal(t, "x/deep", got)
}

func TestRebaseAgainstRootDir(t *testing.T) {
	p := NewTSConfigProvider(stubFS(map[string]string{
		"/proj/tsconfig.json": `{"compilerOptions": {"baseUrl": "./src", "paths": {"@utils/*": ["utils/*"]}}}`,
	}))
	_, err := p.Load("/proj/tsconfig.json")
	require.NoError(t, err)
	p.SetRootDir("/proj")
	p.RegisterSourceRoot("/proj", "/proj/tsconfig.json")

	got, ok := p.EnhanceImportPath("@utils/x", "/proj/src/a.ts")
	require.True(t, ok)
	assert.Equal(t, "src/utils/x", got)
}
