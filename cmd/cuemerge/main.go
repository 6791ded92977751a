package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/cuemerge/internal/config"
	"github.com/bamsammich/cuemerge/internal/cue"
	"github.com/bamsammich/cuemerge/internal/engine"
	"github.com/bamsammich/cuemerge/internal/event"
	"github.com/bamsammich/cuemerge/internal/stats"
	"github.com/bamsammich/cuemerge/internal/ui"
	"github.com/bamsammich/cuemerge/internal/ui/tui"
)

var version = "dev"

const (
	exitOK        = 0
	exitCancelled = 1
	exitFailure   = 2
)

func main() {
	os.Exit(run())
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	cfg         config.Config
	bwLimitStr  string
	logFile     string
	baseDir     string
	workers     int
	verbose     bool
	quiet       bool
	noProgress  bool
	tuiFlag     bool
	verifyFlag  bool
	force       bool
	lf          bool
	showVersion bool
}

func run() int {
	var g globalFlags
	return exitCode(newRootCmd(&g).Execute())
}

// exitCode maps the error returned by the root command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitFailure
}

func newRootCmd(g *globalFlags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cuemerge",
		Short: "Merge multi-file CUE/BIN disc images into one binary, or split them back per track",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if g.showVersion {
				fmt.Fprintf(os.Stdout, "cuemerge %s\n", version)
				return nil
			}
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().BoolVar(&g.showVersion, "version", false, "print version and exit")

	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&g.workers, "workers", "n", 0, "number of copy workers (default: min(NumCPU*2, 8))")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "suppress all output except errors")
	pf.BoolVar(&g.noProgress, "no-progress", false, "disable progress display")
	pf.BoolVar(&g.tuiFlag, "tui", false, "full-screen TUI (Bubble Tea)")
	pf.BoolVar(&g.verifyFlag, "verify", false, "verify outputs against their sources after writing (BLAKE3)")
	pf.BoolVarP(&g.force, "force", "f", false, "overwrite existing outputs")
	pf.BoolVar(&g.lf, "lf", false, "write the cue sheet with LF line endings instead of CRLF")
	pf.StringVar(&g.bwLimitStr, "bwlimit", "", "bandwidth limit in bytes per second (e.g. 50M, 1G)")
	pf.StringVar(&g.logFile, "log", "", "write structured JSON log to FILE")
	pf.StringVar(&g.baseDir, "base-dir", "", "resolve FILE entries against DIR instead of the cue's directory")

	rootCmd.AddCommand(newMergeCmd(g))
	rootCmd.AddCommand(newSplitCmd(g))
	rootCmd.AddCommand(newInfoCmd(g))
	rootCmd.AddCommand(newDocsCmd())
	return rootCmd
}

// load reads the config file and applies its defaults to flags not set on
// the command line.
func (g *globalFlags) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config %s: %w", config.Path(), err)
	}
	g.cfg = cfg

	flags := cmd.Flags()
	d := cfg.Defaults
	if !flags.Changed("verify") && d.Verify != nil {
		g.verifyFlag = *d.Verify
	}
	if !flags.Changed("workers") && d.Workers != nil {
		g.workers = *d.Workers
	}
	if !flags.Changed("tui") && d.TUI != nil {
		g.tuiFlag = *d.TUI
	}
	if !flags.Changed("force") && d.Force != nil {
		g.force = *d.Force
	}
	if !flags.Changed("bwlimit") && d.BWLimit != nil {
		g.bwLimitStr = *d.BWLimit
	}
	if !flags.Changed("lf") && d.LineEnding != nil {
		le, err := config.ParseLineEnding(*d.LineEnding)
		if err != nil {
			return err
		}
		g.lf = le == cue.LF
	}
	if g.workers <= 0 {
		g.workers = engine.DefaultWorkers()
	}
	return nil
}

func (g *globalFlags) lineEnding() string {
	if g.lf {
		return cue.LF
	}
	return cue.CRLF
}

func (g *globalFlags) bwLimit() (int64, error) {
	if g.bwLimitStr == "" {
		return 0, nil
	}
	n, err := config.ParseSize(g.bwLimitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid --bwlimit: %w", err)
	}
	return n, nil
}

// setupLogging installs the default slog logger. The returned closer
// releases the --log file, if any.
func (g *globalFlags) setupLogging() (io.Closer, error) {
	logLevel := slog.LevelInfo
	switch {
	case g.verbose:
		logLevel = slog.LevelDebug
	case g.quiet:
		logLevel = slog.LevelWarn
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})

	var closer io.Closer = io.NopCloser(nil)
	var handler slog.Handler = textHandler
	if g.logFile != "" {
		lf, err := os.Create(g.logFile)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		closer = lf
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		handler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(handler))
	return closer, nil
}

// job runs one engine operation while a presenter consumes its events.
type job struct {
	run     func(ctx context.Context, events chan<- event.Event, collector *stats.Collector) engine.Result
	mode    string
	cuePath string
	dstRoot string
}

func (g *globalFlags) execute(j job) error {
	closer, err := g.setupLogging()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer engine.CleanupTmpFiles()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)

	presenterEvents := (<-chan event.Event)(events)
	if g.logFile != "" {
		presenterEvents = ui.TeeEvents(slog.Default(), events)
	}

	isTTY := ui.IsTTY(os.Stderr)
	useTUI := g.tuiFlag && isTTY && !g.quiet
	if g.tuiFlag && !isTTY {
		slog.Warn("--tui requires a terminal, falling back to inline output")
	}

	var presenter ui.Presenter
	if useTUI {
		presenter = tui.NewPresenter(tui.Config{
			Stats:   collector,
			Theme:   g.cfg.Theme,
			Mode:    j.mode,
			CuePath: j.cuePath,
			DstRoot: j.dstRoot,
			Workers: g.workers,
		})
	} else {
		presenter = ui.NewPresenter(ui.Config{
			Writer:     os.Stdout,
			ErrWriter:  os.Stderr,
			Stats:      collector,
			DstRoot:    j.dstRoot,
			Workers:    g.workers,
			Width:      ui.TermWidth(os.Stderr),
			IsTTY:      isTTY,
			Quiet:      g.quiet,
			NoProgress: g.noProgress,
		})
	}

	slog.Debug("starting "+j.mode,
		"cue", j.cuePath,
		"dst", j.dstRoot,
		"workers", g.workers,
		"verify", g.verifyFlag,
		"bwlimit", g.bwLimitStr,
	)

	var result engine.Result
	if useTUI {
		// Bubble Tea needs the foreground to capture stdin.
		engineCtx, engineCancel := context.WithCancel(ctx)
		defer engineCancel()

		var engineWg sync.WaitGroup
		engineWg.Add(1)
		go func() {
			defer engineWg.Done()
			result = j.run(engineCtx, events, collector)
			close(events)
		}()

		_ = presenter.Run(presenterEvents) //nolint:errcheck // presenter error is non-fatal

		// User quit the TUI, cancel the engine if still running.
		engineCancel()
		engineWg.Wait()
	} else {
		var presenterErr error
		var presenterWg sync.WaitGroup
		presenterWg.Add(1)
		go func() {
			defer presenterWg.Done()
			presenterErr = presenter.Run(presenterEvents)
		}()

		result = j.run(ctx, events, collector)
		close(events)
		presenterWg.Wait()
		if presenterErr != nil {
			fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
		}
	}
	stop()

	if summary := presenter.Summary(); summary != "" && !g.quiet {
		fmt.Fprintln(os.Stderr, summary)
	}

	if result.Err != nil {
		return reportError(j.mode, result.Err)
	}
	slog.Debug(j.mode+" complete", "cue", result.CuePath, "outputs", len(result.Outputs), "stats", result.Stats.String())
	return nil
}

// reportError logs err and converts it to the process exit code.
func reportError(mode string, err error) error {
	if errors.Is(err, engine.ErrCancelled) {
		slog.Warn(mode+" cancelled, no outputs were kept")
		return &exitError{code: exitCancelled}
	}
	slog.Error(mode+" failed", "error", describe(err))
	return &exitError{code: exitFailure}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
