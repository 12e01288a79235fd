package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/cmap-bc/pkg/config"
	"github.com/ritzau/cmap-bc/pkg/cxl"
	"github.com/ritzau/cmap-bc/pkg/finder"
	"github.com/ritzau/cmap-bc/pkg/logging"
	"github.com/ritzau/cmap-bc/pkg/pipeline"
	"github.com/ritzau/cmap-bc/pkg/pubsub"
	"github.com/ritzau/cmap-bc/pkg/report"
	"github.com/ritzau/cmap-bc/pkg/store"
	"github.com/ritzau/cmap-bc/pkg/watcher"
	"github.com/ritzau/cmap-bc/pkg/web"
)

func main() {
	flags := pflag.NewFlagSet("cmap-bc", pflag.ExitOnError)
	config.RegisterFlags(flags)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cmap-bc [flags] [file.cxl]\n\n")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	// A positional argument is shorthand for --cxl
	if flags.NArg() > 0 && !flags.Changed("cxl") {
		_ = flags.Set("cxl", flags.Arg(0))
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the configuration and applies the log settings
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := logging.LevelFromVerbosity(cfg.Verbosity, cfg.VerboseCnt)
	if cfg.JSONLog {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}
	return cfg, nil
}

func run(ctx context.Context, flags *pflag.FlagSet, cfg *config.Config) error {
	var db *store.Store
	if cfg.Database != "" {
		var err error
		db, err = store.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	info, err := os.Stat(cfg.CXLFile)
	if err != nil {
		return err
	}
	if info.IsDir() {
		if cfg.WebMode || cfg.Watch {
			return fmt.Errorf("%s is a directory; --web and --watch need a single CXL file", cfg.CXLFile)
		}
		return extractAll(ctx, cfg, db)
	}

	var publisher pubsub.Publisher
	if cfg.WebMode {
		publisher = pubsub.NewSSEPublisher()
	}

	runner, err := newRunner(cfg, db, publisher)
	if err != nil {
		return err
	}
	current := &currentRunner{}
	current.Store(runner)

	if !cfg.WebMode && !cfg.Watch {
		return extractOnce(ctx, runner, cfg.CXLFile)
	}

	if cfg.WebMode {
		server := web.NewServer(current, publisher, db)
		go func() {
			if err := server.Start(ctx, cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("web server stopped", "error", err)
			}
		}()
	}

	// In long-running modes a failed extraction is reported, not fatal
	if _, err := runner.Run(ctx, "initial run"); err != nil {
		logging.Error("extraction failed", "error", err)
	} else {
		report.PrintSummary(os.Stdout, runner.Last().Summary(cfg.CXLFile))
	}

	if cfg.Watch {
		return watch(ctx, flags, cfg, current, db, publisher)
	}

	<-ctx.Done()
	return nil
}

func newRunner(cfg *config.Config, db *store.Store, publisher pubsub.Publisher) (*pipeline.Runner, error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}

	return pipeline.NewRunner(pipeline.Settings{
		Loader:      cxl.NewFileLoader(cfg.CXLFile, catalog),
		Catalog:     catalog,
		Terminology: cfg.Terminology,
		OutputDir:   cfg.OutputDir,
		BaseName:    baseName(cfg.CXLFile),
		GraphML:     cfg.GraphML,
		DOT:         cfg.DOT,
		Report:      cfg.Report,
		Store:       db,
		Publisher:   publisher,
	})
}

// extractOnce runs one extraction and prints the summary. Warnings are
// printed even when the run fails.
func extractOnce(ctx context.Context, runner *pipeline.Runner, source string) error {
	result, err := runner.Run(ctx, "command line")
	if result != nil && result.Graph != nil {
		report.PrintSummary(os.Stdout, result.Summary(source))
	}
	if err != nil {
		return err
	}
	for _, f := range result.Files {
		fmt.Printf("Wrote %s\n", f)
	}
	return nil
}

// extractAll runs every concept map below the configured directory. A
// failing map is reported and the others still run.
func extractAll(ctx context.Context, cfg *config.Config, db *store.Store) error {
	maps, err := finder.FindConceptMaps(cfg.CXLFile)
	if err != nil {
		return fmt.Errorf("finding concept maps: %w", err)
	}
	if len(maps) == 0 {
		return fmt.Errorf("no %s files in %s", finder.ConceptMapExt, cfg.CXLFile)
	}

	var failed []string
	for _, path := range maps {
		single := *cfg
		single.CXLFile = path
		runner, err := newRunner(&single, db, nil)
		if err != nil {
			return err
		}
		if err := extractOnce(ctx, runner, path); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			failed = append(failed, filepath.Base(path))
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d concept maps failed: %s", len(failed), len(maps), strings.Join(failed, ", "))
	}
	return nil
}

// watch re-runs the extraction whenever an input file changes. A config
// change rebuilds the runner; the database and web settings stay as started.
func watch(ctx context.Context, flags *pflag.FlagSet, cfg *config.Config, current *currentRunner, db *store.Store, publisher pubsub.Publisher) error {
	configFile, _ := flags.GetString("config")
	if configFile == "" {
		configFile = config.DefaultFile
	}

	fw, err := watcher.NewFileWatcher(map[watcher.ChangeType]string{
		watcher.ChangeTypeConceptMap:  cfg.CXLFile,
		watcher.ChangeTypeTerminology: cfg.Terminology,
		watcher.ChangeTypeConfig:      configFile,
	})
	if err != nil {
		return err
	}
	defer fw.Stop()

	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 500*time.Millisecond, 3*time.Second)
	debouncer.Start(ctx)
	logging.Info("watching for changes", "cxl", cfg.CXLFile, "terminology", cfg.Terminology)

	for event := range debouncer.Output() {
		analysis := watcher.AnalyzeChanges(event)
		logging.Info("input changed", "reason", analysis.Reason)

		if analysis.ReloadConfig {
			reloaded, err := loadConfig(flags)
			if err != nil {
				logging.Error("keeping previous configuration", "error", err)
				continue
			}
			runner, err := newRunner(reloaded, db, publisher)
			if err != nil {
				logging.Error("keeping previous configuration", "error", err)
				continue
			}
			if reloaded.CXLFile != cfg.CXLFile || reloaded.Terminology != cfg.Terminology {
				logging.Warn("input paths changed; restart to watch the new files")
			}
			current.Store(runner)
		}

		runner := current.Load()
		if _, err := runner.Run(ctx, analysis.Reason); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logging.Error("extraction failed", "error", err)
			continue
		}
		report.PrintSummary(os.Stdout, runner.Last().Summary(cfg.CXLFile))
	}
	return nil
}

// currentRunner lets the web server follow runner swaps on config reload
type currentRunner struct {
	atomic.Pointer[pipeline.Runner]
}

func (c *currentRunner) Status() pubsub.RunStatus { return c.Load().Status() }

func (c *currentRunner) Last() *pipeline.Result { return c.Load().Last() }

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
