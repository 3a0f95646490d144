// Package config loads layered Settings: built-in defaults ->
// settings.toml at the workspace root -> CI_-prefixed environment
// variables (double underscore as the nesting separator) -> CLI flags
// bound by the caller via viper.BindPFlag. A .env file is loaded first via
// godotenv so secrets in it reach the environment layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const envPrefix = "CI"

// LanguageSettings is per-language configuration: whether the language is
// enabled, its recognized file extensions, an opaque parser options bag,
// and the project config files its Project Resolution Provider should
// read (e.g. tsconfig.json, go.mod, composer.json).
type LanguageSettings struct {
	Enabled       bool              `mapstructure:"enabled" toml:"enabled"`
	Extensions    []string          `mapstructure:"extensions" toml:"extensions"`
	ParserOptions map[string]string `mapstructure:"parser_options" toml:"parser_options"`
	ConfigFiles   []string          `mapstructure:"config_files" toml:"config_files"`
}

type IndexingSettings struct {
	ParallelThreads int      `mapstructure:"parallel_threads" toml:"parallel_threads" validate:"min=1"`
	ProjectRoot     string   `mapstructure:"project_root" toml:"project_root"`
	IgnorePatterns  []string `mapstructure:"ignore_patterns" toml:"ignore_patterns"`
}

// MCPSettings, SemanticSearchSettings, FileWatchSettings, ServerSettings,
// and GuidanceSettings are parsed and carried through unchanged: the MCP
// server, semantic search, file watcher, and guidance-template engine they
// configure live outside the indexing core, but a
// settings.toml written for the full system must still round-trip without
// the indexer rejecting unknown-to-it sections.
type MCPSettings struct {
	MaxContextSize int  `mapstructure:"max_context_size" toml:"max_context_size"`
	Debug          bool `mapstructure:"debug" toml:"debug"`
}

type SemanticSearchSettings struct {
	Enabled   bool    `mapstructure:"enabled" toml:"enabled"`
	Model     string  `mapstructure:"model" toml:"model"`
	Threshold float64 `mapstructure:"threshold" toml:"threshold"`
}

type FileWatchSettings struct {
	Enabled    bool `mapstructure:"enabled" toml:"enabled"`
	DebounceMs int  `mapstructure:"debounce_ms" toml:"debounce_ms"`
}

type ServerSettings struct {
	Mode          string `mapstructure:"mode" toml:"mode" validate:"omitempty,oneof=stdio http"`
	Bind          string `mapstructure:"bind" toml:"bind"`
	WatchInterval int    `mapstructure:"watch_interval" toml:"watch_interval"`
}

type GuidanceTemplate struct {
	NoResults       string                   `mapstructure:"no_results" toml:"no_results"`
	SingleResult    string                   `mapstructure:"single_result" toml:"single_result"`
	MultipleResults string                   `mapstructure:"multiple_results" toml:"multiple_results"`
	Custom          []GuidanceCustomTemplate `mapstructure:"custom" toml:"custom"`
}

type GuidanceCustomTemplate struct {
	Min      int    `mapstructure:"min" toml:"min"`
	Max      *int   `mapstructure:"max" toml:"max"`
	Template string `mapstructure:"template" toml:"template"`
}

type GuidanceSettings struct {
	Enabled   bool                        `mapstructure:"enabled" toml:"enabled"`
	Templates map[string]GuidanceTemplate `mapstructure:"templates" toml:"templates"`
	Variables map[string]string           `mapstructure:"variables" toml:"variables"`
}

// Settings is the root configuration object the indexer and CLI consume.
type Settings struct {
	Version        string                      `mapstructure:"version" toml:"version"`
	IndexPath      string                      `mapstructure:"index_path" toml:"index_path" validate:"required"`
	WorkspaceRoot  string                      `mapstructure:"workspace_root" toml:"workspace_root"`
	Debug          bool                        `mapstructure:"debug" toml:"debug"`
	Indexing       IndexingSettings            `mapstructure:"indexing" toml:"indexing"`
	Languages      map[string]LanguageSettings `mapstructure:"languages" toml:"languages"`
	MCP            MCPSettings                 `mapstructure:"mcp" toml:"mcp"`
	SemanticSearch SemanticSearchSettings      `mapstructure:"semantic_search" toml:"semantic_search"`
	FileWatch      FileWatchSettings           `mapstructure:"file_watch" toml:"file_watch"`
	Server         ServerSettings              `mapstructure:"server" toml:"server"`
	Guidance       GuidanceSettings            `mapstructure:"guidance" toml:"guidance"`
}

// Defaults returns the built-in configuration, the first and lowest-
// priority layer.
func Defaults() Settings {
	return Settings{
		Version:       "1",
		IndexPath:     ".codeindex/index",
		WorkspaceRoot: "",
		Debug:         false,
		Indexing: IndexingSettings{
			ParallelThreads: runtime.NumCPU(),
			IgnorePatterns:  []string{".git", "node_modules", "vendor", "target", "dist", "build"},
		},
		Languages: map[string]LanguageSettings{},
		Server:    ServerSettings{Mode: "stdio"},
	}
}

var validate = validator.New()

// Load layers built-in defaults, settings.toml at workspaceRoot, CI_-
// prefixed environment variables, and whatever the caller has already
// bound onto v via BindPFlag (CLI flags outrank everything else). A .env
// file in workspaceRoot is loaded first so CI_-prefixed secrets in it are
// visible to the environment layer.
func Load(v *viper.Viper, workspaceRoot string) (*Settings, error) {
	_ = godotenv.Load(filepath.Join(workspaceRoot, ".env"))

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))

	settings := Defaults()
	if err := applyDefaults(v, settings); err != nil {
		return nil, fmt.Errorf("config: applying defaults: %w", err)
	}

	tomlPath := filepath.Join(workspaceRoot, "settings.toml")
	if data, err := os.ReadFile(tomlPath); err == nil {
		var fileSettings Settings
		if err := toml.Unmarshal(data, &fileSettings); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", tomlPath, err)
		}
		v.SetConfigType("toml")
		if err := v.MergeConfig(strings.NewReader(string(data))); err != nil {
			return nil, fmt.Errorf("config: loading %s into viper: %w", tomlPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: reading %s: %w", tomlPath, err)
	}

	var out Settings
	if err := v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("config: unmarshaling settings: %w", err)
	}
	if out.WorkspaceRoot == "" {
		out.WorkspaceRoot = workspaceRoot
	}
	if out.Indexing.ParallelThreads <= 0 {
		out.Indexing.ParallelThreads = runtime.NumCPU()
	}

	if err := validate.Struct(&out); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}
	return &out, nil
}

// applyDefaults seeds v with Defaults() so viper.Unmarshal has something
// to fall back to for every key a settings.toml or environment variable
// doesn't override.
func applyDefaults(v *viper.Viper, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	v.SetConfigType("toml")
	return v.MergeConfig(strings.NewReader(string(data)))
}
