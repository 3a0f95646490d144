package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/analytics"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/config"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/indexer"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/lang"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/output"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/project"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/registry"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/report"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/store"
)

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index a directory into the code intelligence store",
	Long: `index walks <dir>, parses every file the registered languages
recognize, and resolves cross-file relationships (calls, inheritance,
imports) into a SQLite-backed document store at indexing.index_path.

Examples:
  codeindex index .
  codeindex index --sarif-out diagnostics.sarif /path/to/project`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectRoot, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving project path: %w", err)
		}
		sarifOut, _ := cmd.Flags().GetString("sarif-out")

		v := viper.New()
		settings, err := config.Load(v, projectRoot)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger := output.NewLogger(verbosityFromFlags())
		noBanner, _ := cmd.Flags().GetBool("no-banner")
		if output.ShouldShowBanner(logger.IsTTY(), noBanner) {
			output.PrintBanner(logger.GetWriter(), Version, output.DefaultBannerOptions())
		}

		analytics.ReportEventWithProperties(analytics.IndexStarted, map[string]interface{}{
			"parallel_threads": settings.Indexing.ParallelThreads,
		})

		reg := registry.New()
		if err := lang.RegisterDefaults(reg); err != nil {
			analytics.ReportEvent(analytics.IndexFailed)
			return fmt.Errorf("registering languages: %w", err)
		}

		indexPath := settings.IndexPath
		if !filepath.IsAbs(indexPath) {
			indexPath = filepath.Join(projectRoot, indexPath)
		}
		if err := os.MkdirAll(indexPath, 0o755); err != nil {
			analytics.ReportEvent(analytics.IndexFailed)
			return fmt.Errorf("creating index directory: %w", err)
		}
		if _, err := store.ProjectID(filepath.Dir(indexPath)); err != nil {
			logger.Warning("could not persist project id: %v", err)
		}

		st, err := store.Open(storePath(indexPath))
		if err != nil {
			analytics.ReportEvent(analytics.IndexFailed)
			return fmt.Errorf("opening store at %s: %w", indexPath, err)
		}
		defer st.Close()

		cache, err := store.LoadCache(symbolCachePath(indexPath))
		if err != nil {
			logger.Warning("discarding unreadable symbol cache: %v", err)
			cache = store.NewCache()
		}
		defer func() {
			if err := cache.Save(); err != nil {
				logger.Warning("could not persist symbol cache: %v", err)
			}
		}()
		ix := indexer.New(reg, st, cache, projectRoot, settings.Indexing.ParallelThreads)
		registerProviders(ix, projectRoot)

		logger.Progress("Indexing %s...", projectRoot)
		stats, errs := ix.IndexDirectory(projectRoot, settings.Indexing.IgnorePatterns)
		for _, e := range errs {
			if e != nil {
				logger.Warning("%v", e)
			}
		}

		resolveStats, err := ix.Resolve()
		if err != nil {
			analytics.ReportEvent(analytics.IndexFailed)
			return fmt.Errorf("resolving relationships: %w", err)
		}
		stats.RelationshipsResolved += resolveStats.RelationshipsResolved
		stats.RelationshipsDropped += resolveStats.RelationshipsDropped

		logger.Statistic("%d files indexed, %d cached, %d failed", stats.FilesIndexed, stats.FilesCached, stats.FilesFailed)
		logger.Statistic("%d symbols found, %d relationships resolved, %d dropped", stats.SymbolsFound, stats.RelationshipsResolved, stats.RelationshipsDropped)

		if sarifOut != "" {
			if err := writeSARIF(sarifOut, errs, stats); err != nil {
				return fmt.Errorf("writing sarif report: %w", err)
			}
		}

		analytics.ReportEventWithProperties(analytics.IndexCompleted, map[string]interface{}{
			"files_indexed":          stats.FilesIndexed,
			"symbols_found":          stats.SymbolsFound,
			"relationships_resolved": stats.RelationshipsResolved,
		})
		return nil
	},
}

// registerProviders wires the project resolution providers the core
// ships with. Languages without a provider fall back to the bare
// Behavior.ImportMatchesSymbol comparison.
func registerProviders(ix *indexer.Indexer, projectRoot string) {
	if goProvider, err := project.NewGoModuleProvider(projectRoot); err == nil {
		ix.RegisterProvider("go", goProvider)
	}
	tsconfigPath := filepath.Join(projectRoot, "tsconfig.json")
	if _, err := os.Stat(tsconfigPath); err == nil {
		tsProvider := project.NewTSConfigProvider(os.ReadFile)
		if _, err := tsProvider.Load(tsconfigPath); err == nil {
			tsProvider.SetRootDir(projectRoot)
			tsProvider.RegisterSourceRoot(projectRoot, tsconfigPath)
			ix.RegisterProvider("typescript", tsProvider)
		}
	}
}

func writeSARIF(path string, errs []*indexer.Error, stats indexer.Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.NewFormatterWithWriter(f).Format(errs, stats)
}

func init() {
	indexCmd.Flags().String("sarif-out", "", "Write a SARIF diagnostics log of parse failures and dropped relationships")
	rootCmd.AddCommand(indexCmd)
}
