package project

import (
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// tsconfigRaw mirrors the subset of tsconfig.json this provider cares
// about: baseUrl + paths for alias resolution, and extends for config
// inheritance.
type tsconfigRaw struct {
	Extends         string `json:"extends"`
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// PathRule is one compiled "@utils/*": ["utils/*"] entry.
type PathRule struct {
	Pattern string   // e.g. "@utils/*"
	Targets []string // e.g. ["utils/*"]
	HasStar bool
	Prefix  string // pattern text before the "*"
	Suffix  string // pattern text after the "*"
}

// ResolutionRules is the compiled, flattened result of one tsconfig.json
// (with its extends chain resolved), rooted at the directory containing
// the config.
type ResolutionRules struct {
	ConfigDir string
	BaseURL   string // absolute, resolved against ConfigDir
	Rules     []PathRule
}

// TSConfigProvider resolves TypeScript path aliases via tsconfig.json
// baseUrl + paths.
type TSConfigProvider struct {
	readFile func(path string) ([]byte, error)
	// rulesByConfig caches a compiled ResolutionRules per config file path,
	// invalidated by the caller recomputing ConfigSHA and re-calling Load.
	// Bounded so a workspace with many independent tsconfig.json files
	// (monorepos) doesn't grow this without limit.
	rulesByConfig *lru.Cache[string, *ResolutionRules]
	// fileToConfig maps a source file's directory to the nearest config it
	// should use; callers populate this via RegisterSourceRoot.
	fileToConfig map[string]string
	// rootDir, when set, rebases candidate module paths to be relative to
	// the project root, matching how symbol module paths are stored.
	rootDir string
}

// NewTSConfigProvider creates a provider using os.ReadFile. Tests may
// construct one directly with a stub readFile for hermetic fixtures.
func NewTSConfigProvider(readFile func(path string) ([]byte, error)) *TSConfigProvider {
	cache, _ := lru.New[string, *ResolutionRules](128)
	return &TSConfigProvider{
		readFile:      readFile,
		rulesByConfig: cache,
		fileToConfig:  make(map[string]string),
	}
}

func (p *TSConfigProvider) LanguageID() string { return "typescript" }

// Load parses configPath (and its extends chain, cycle-safe) into
// ResolutionRules and caches it.
func (p *TSConfigProvider) Load(configPath string) (*ResolutionRules, error) {
	merged, err := p.loadChain(configPath, make(map[string]bool))
	if err != nil {
		return nil, err
	}
	rules := compileRules(merged, filepath.Dir(configPath))
	p.rulesByConfig.Add(configPath, rules)
	return rules, nil
}

// loadChain walks the extends chain, innermost config's settings winning
// over what it extends, detecting cycles via visited.
func (p *TSConfigProvider) loadChain(configPath string, visited map[string]bool) (tsconfigRaw, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	if visited[abs] {
		return tsconfigRaw{}, fmt.Errorf("project: circular tsconfig extends at %s", configPath)
	}
	visited[abs] = true

	data, err := p.readFile(configPath)
	if err != nil {
		return tsconfigRaw{}, fmt.Errorf("project: read tsconfig %s: %w", configPath, err)
	}
	var cfg tsconfigRaw
	if err := json.Unmarshal(stripJSONComments(data), &cfg); err != nil {
		return tsconfigRaw{}, fmt.Errorf("project: parse tsconfig %s: %w", configPath, err)
	}

	if cfg.Extends == "" {
		return cfg, nil
	}

	parentPath := cfg.Extends
	if !strings.HasSuffix(parentPath, ".json") {
		parentPath += ".json"
	}
	if strings.HasPrefix(parentPath, ".") {
		parentPath = filepath.Join(filepath.Dir(configPath), parentPath)
	}
	parent, err := p.loadChain(parentPath, visited)
	if err != nil {
		// Demoted to a warning (ProviderConfig): fall
		// back to this config's own settings, dropping the broken extends.
		return cfg, nil
	}
	merged := parent
	if cfg.CompilerOptions.BaseURL != "" {
		merged.CompilerOptions.BaseURL = cfg.CompilerOptions.BaseURL
	}
	if len(cfg.CompilerOptions.Paths) > 0 {
		if merged.CompilerOptions.Paths == nil {
			merged.CompilerOptions.Paths = make(map[string][]string)
		}
		for k, v := range cfg.CompilerOptions.Paths {
			merged.CompilerOptions.Paths[k] = v
		}
	}
	return merged, nil
}

func compileRules(cfg tsconfigRaw, configDir string) *ResolutionRules {
	baseURL := cfg.CompilerOptions.BaseURL
	if baseURL == "" {
		baseURL = "."
	}
	resolved := &ResolutionRules{
		ConfigDir: configDir,
		BaseURL:   filepath.Join(configDir, baseURL),
	}
	for pattern, targets := range cfg.CompilerOptions.Paths {
		rule := PathRule{Pattern: pattern, Targets: targets}
		if idx := strings.Index(pattern, "*"); idx >= 0 {
			rule.HasStar = true
			rule.Prefix = pattern[:idx]
			rule.Suffix = pattern[idx+1:]
		}
		resolved.Rules = append(resolved.Rules, rule)
	}
	return resolved
}

// stripJSONComments removes // and /* */ comments so tsconfig.json's JSONC
// dialect parses with the standard library's JSON decoder. It does not
// attempt to preserve comment text inside string literals' escape rules
// beyond a simple quote-tracking pass, which is sufficient for tsconfig's
// shape.
func stripJSONComments(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if c == '/' && i+1 < len(data) && data[i+1] == '/' {
			for i < len(data) && data[i] != '\n' {
				i++
			}
			out = append(out, '\n')
			continue
		}
		if c == '/' && i+1 < len(data) && data[i+1] == '*' {
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
			continue
		}
		out = append(out, c)
	}
	return out
}

// EnhanceImportPath returns the first of GetImportCandidates' candidates
// for the config governing fromFile: the rule target joined onto BaseURL
// (e.g. "src/utils/x" for baseUrl "./src"), rebased to the project root
// when one is set.
func (p *TSConfigProvider) EnhanceImportPath(specifier, fromFile string) (string, bool) {
	candidates := p.GetImportCandidates(specifier, fromFile)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

// GetImportCandidates returns every candidate module path specifier could
// resolve to under the tsconfig governing fromFile.
func (p *TSConfigProvider) GetImportCandidates(specifier, fromFile string) []string {
	if strings.HasPrefix(specifier, ".") {
		return nil // relative specifiers bypass the provider
	}
	configPath, ok := p.configFor(filepath.Dir(fromFile))
	if !ok {
		return nil
	}
	rules, ok := p.rulesByConfig.Get(configPath)
	if !ok {
		return nil
	}
	var out []string
	for _, rule := range rules.Rules {
		if rule.HasStar {
			if !strings.HasPrefix(specifier, rule.Prefix) || !strings.HasSuffix(specifier, rule.Suffix) {
				continue
			}
			star := strings.TrimSuffix(strings.TrimPrefix(specifier, rule.Prefix), rule.Suffix)
			for _, target := range rule.Targets {
				resolved := strings.Replace(target, "*", star, 1)
				out = append(out, p.rebase(path.Join(filepath.ToSlash(rules.BaseURL), resolved)))
			}
		} else if rule.Pattern == specifier {
			for _, target := range rule.Targets {
				out = append(out, p.rebase(path.Join(filepath.ToSlash(rules.BaseURL), target)))
			}
		}
	}
	if len(rules.Rules) == 0 || len(out) == 0 {
		out = append(out, p.rebase(path.Join(filepath.ToSlash(rules.BaseURL), specifier)))
	}
	return out
}

// rebase rewrites a candidate path to be relative to the project root when
// one is set, so candidates compare directly against symbol module paths.
func (p *TSConfigProvider) rebase(candidate string) string {
	if p.rootDir == "" {
		return candidate
	}
	rel, err := filepath.Rel(p.rootDir, filepath.FromSlash(candidate))
	if err != nil || strings.HasPrefix(rel, "..") {
		return candidate
	}
	return filepath.ToSlash(rel)
}

// SetRootDir records the project root candidate module paths should be
// relative to.
func (p *TSConfigProvider) SetRootDir(dir string) { p.rootDir = dir }

// configFor walks dir and its ancestors looking for a registered source
// root, so a file anywhere under a registered root picks up that root's
// config, the "nearest tsconfig" rule.
func (p *TSConfigProvider) configFor(dir string) (string, bool) {
	for {
		if cfg, ok := p.fileToConfig[dir]; ok {
			return cfg, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// RegisterSourceRoot associates every file under sourceDir with configPath,
// so later EnhanceImportPath/GetImportCandidates calls know which config
// governs a given file. Mirrors TypeScript's own
// config-to-file mapping persisted in its resolution index.
func (p *TSConfigProvider) RegisterSourceRoot(sourceDir, configPath string) {
	p.fileToConfig[sourceDir] = configPath
}
