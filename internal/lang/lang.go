// Package lang wires every supported language's Parser and Behavior into a
// registry.Registry. It is the single place that knows the full set of
// languages this build supports; adding a language means adding one
// Definition here.
package lang

import (
	"github.com/shivasurya/code-pathfinder/codeindex/internal/lang/cpp"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/lang/csharp"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/lang/golang"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/lang/php"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/lang/python"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/lang/rust"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/lang/typescript"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

// RegisterDefaults registers all seven built-in languages into r. Callers
// that only want a subset (e.g. a config-driven allowlist) can instead
// construct their own Definition slice and call r.Register selectively.
func RegisterDefaults(r *registry.Registry) error {
	for _, def := range Definitions() {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Definitions returns the static Definition for every built-in language,
// in no particular order.
func Definitions() []registry.Definition {
	return []registry.Definition{
		{
			ID:             symbol.LangGo,
			DisplayName:    "Go",
			Extensions:     []string{".go"},
			DefaultEnabled: true,
			MakeParser:     golang.NewParser,
			MakeBehavior:   golang.New,
		},
		{
			ID:             symbol.LangPython,
			DisplayName:    "Python",
			Extensions:     []string{".py", ".pyi"},
			DefaultEnabled: true,
			MakeParser:     python.NewParser,
			MakeBehavior:   python.New,
		},
		{
			ID:             symbol.LangTypeScript,
			DisplayName:    "TypeScript",
			Extensions:     []string{".ts", ".tsx"},
			DefaultEnabled: true,
			MakeParser:     typescript.NewParser,
			MakeBehavior:   typescript.New,
		},
		{
			ID:             symbol.LangRust,
			DisplayName:    "Rust",
			Extensions:     []string{".rs"},
			DefaultEnabled: true,
			MakeParser:     rust.NewParser,
			MakeBehavior:   rust.New,
		},
		{
			ID:             symbol.LangPHP,
			DisplayName:    "PHP",
			Extensions:     []string{".php"},
			DefaultEnabled: true,
			MakeParser:     php.NewParser,
			MakeBehavior:   php.New,
		},
		{
			ID:             symbol.LangCSharp,
			DisplayName:    "C#",
			Extensions:     []string{".cs"},
			DefaultEnabled: true,
			MakeParser:     csharp.NewParser,
			MakeBehavior:   csharp.New,
		},
		{
			ID:             symbol.LangCPP,
			DisplayName:    "C++",
			Extensions:     []string{".cpp", ".cc", ".cxx", ".hpp", ".h", ".hh"},
			DefaultEnabled: true,
			MakeParser:     cpp.NewParser,
			MakeBehavior:   cpp.New,
		},
	}
}
