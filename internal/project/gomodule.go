package project

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// GoModuleProvider rewrites a Go import path rooted at the project's own
// module (as declared in go.mod) into the relative package directory, so
// ImportMatchesSymbol can compare it against a symbol's module path
// without needing a GOPATH-style lookup.
type GoModuleProvider struct {
	modulePath string // e.g. "github.com/acme/widgets", from go.mod's `module` line
	rootDir    string // directory containing go.mod
}

// NewGoModuleProvider reads go.mod under rootDir (if present) to learn the
// module's own import path.
func NewGoModuleProvider(rootDir string) (*GoModuleProvider, error) {
	p := &GoModuleProvider{rootDir: rootDir}
	f, err := os.Open(filepath.Join(rootDir, "go.mod"))
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			p.modulePath = strings.TrimSpace(strings.TrimPrefix(line, "module"))
			break
		}
	}
	return p, scanner.Err()
}

func (p *GoModuleProvider) LanguageID() string { return "go" }

// EnhanceImportPath rewrites an import path rooted at this module into a
// package directory relative to rootDir, e.g.
// "github.com/acme/widgets/pkg/util" -> "pkg/util".
func (p *GoModuleProvider) EnhanceImportPath(specifier, _ string) (string, bool) {
	if p.modulePath == "" || !strings.HasPrefix(specifier, p.modulePath) {
		return "", false
	}
	rel := strings.TrimPrefix(specifier, p.modulePath)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return ".", true
	}
	return rel, true
}

// GetImportCandidates returns the single rewritten candidate, if any.
func (p *GoModuleProvider) GetImportCandidates(specifier, fromFile string) []string {
	if rel, ok := p.EnhanceImportPath(specifier, fromFile); ok {
		return []string{rel}
	}
	return nil
}
