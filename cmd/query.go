package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/analytics"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/config"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/query"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/store"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Answer read-only lookups against an already-built index",
}

var querySymbolCmd = &cobra.Command{
	Use:   "symbol <name>",
	Short: "Find symbols by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		langFlag, _ := cmd.Flags().GetString("lang")
		return runQuery(cmd, func(e *query.Engine) ([]symbol.Symbol, error) {
			return e.Symbol(args[0], symbol.Language(langFlag))
		})
	},
}

var queryCallersCmd = &cobra.Command{
	Use:   "callers <symbol-id>",
	Short: "List every symbol that calls the given symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSymbolID(args[0])
		if err != nil {
			return err
		}
		return runQuery(cmd, func(e *query.Engine) ([]symbol.Symbol, error) {
			return e.Callers(id)
		})
	},
}

var queryCalleesCmd = &cobra.Command{
	Use:   "callees <symbol-id>",
	Short: "List every symbol the given symbol calls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSymbolID(args[0])
		if err != nil {
			return err
		}
		return runQuery(cmd, func(e *query.Engine) ([]symbol.Symbol, error) {
			return e.Callees(id)
		})
	},
}

var queryImpactCmd = &cobra.Command{
	Use:   "impact <symbol-id>",
	Short: "Find every symbol transitively affected by changing the given symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSymbolID(args[0])
		if err != nil {
			return err
		}
		maxDepth, _ := cmd.Flags().GetInt("max-depth")
		return runQuery(cmd, func(e *query.Engine) ([]symbol.Symbol, error) {
			return e.Impact(id, maxDepth)
		})
	},
}

var querySearchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Case-insensitive substring search over every indexed symbol name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runQuery(cmd, func(e *query.Engine) ([]symbol.Symbol, error) {
			return e.Search(args[0], limit)
		})
	},
}

func parseSymbolID(s string) (symbol.ID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid symbol id %q: %w", s, err)
	}
	return symbol.ID(n), nil
}

// runQuery opens the store at the workspace root's configured index path,
// runs fn against a fresh query.Engine, and prints the results as JSON to
// stdout so the CLI stays scriptable.
func runQuery(cmd *cobra.Command, fn func(*query.Engine) ([]symbol.Symbol, error)) error {
	workspaceRoot, _ := cmd.Flags().GetString("workspace")
	if workspaceRoot == "" {
		var err error
		workspaceRoot, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving workspace root: %w", err)
		}
	}

	v := viper.New()
	settings, err := config.Load(v, workspaceRoot)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	indexPath := settings.IndexPath
	if !filepath.IsAbs(indexPath) {
		indexPath = filepath.Join(workspaceRoot, indexPath)
	}

	st, err := store.Open(storePath(indexPath))
	if err != nil {
		return fmt.Errorf("opening store at %s: %w", indexPath, err)
	}
	defer st.Close()

	analytics.ReportEvent(analytics.QueryStarted)
	results, err := fn(query.New(st))
	if err != nil {
		return err
	}
	analytics.ReportEvent(analytics.QueryCompleted)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func init() {
	queryCmd.PersistentFlags().String("workspace", "", "Workspace root (defaults to the current directory)")
	querySymbolCmd.Flags().String("lang", "", "Restrict to one language id, e.g. go, python, rust")
	queryImpactCmd.Flags().Int("max-depth", 2, "Maximum BFS depth (0 means unbounded)")
	querySearchCmd.Flags().Int("limit", 50, "Maximum number of results")

	queryCmd.AddCommand(querySymbolCmd, queryCallersCmd, queryCalleesCmd, queryImpactCmd, querySearchCmd)
	rootCmd.AddCommand(queryCmd)
}
