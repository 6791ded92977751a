package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bamsammich/cuemerge/internal/cue"
	"github.com/bamsammich/cuemerge/internal/engine"
	"github.com/bamsammich/cuemerge/internal/event"
	"github.com/bamsammich/cuemerge/internal/layout"
	"github.com/bamsammich/cuemerge/internal/stats"
)

func newMergeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <src.cue> <dst.cue|dst-stem|dst-dir>",
		Short: "Concatenate every binary of a multi-file sheet into one binary with a rewritten cue",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			bw, err := g.bwLimit()
			if err != nil {
				return err
			}
			cfg := engine.MergeConfig{
				SectorTable: g.cfg.SectorTable(),
				CuePath:     args[0],
				Dst:         args[1],
				BaseDir:     g.baseDir,
				LineEnding:  g.lineEnding(),
				BWLimit:     bw,
				Workers:     g.workers,
				Verify:      g.verifyFlag,
				Overwrite:   g.force,
			}
			return g.execute(job{
				mode:    "merge",
				cuePath: args[0],
				dstRoot: displayRoot(args[1]),
				run: func(ctx context.Context, events chan<- event.Event, collector *stats.Collector) engine.Result {
					cfg.Events = events
					cfg.Stats = collector
					return engine.RunMerge(ctx, cfg)
				},
			})
		},
	}
}

func newSplitCmd(g *globalFlags) *cobra.Command {
	var (
		namingStr string
		name      string
	)

	cmd := &cobra.Command{
		Use:   "split <src.cue> <dst-dir>",
		Short: "Cut a single-binary sheet into one binary per track with a rewritten cue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("naming") && g.cfg.Defaults.Naming != nil {
				namingStr = *g.cfg.Defaults.Naming
			}
			naming, err := engine.ParseNaming(namingStr)
			if err != nil {
				return err
			}
			bw, err := g.bwLimit()
			if err != nil {
				return err
			}
			cfg := engine.SplitConfig{
				SectorTable: g.cfg.SectorTable(),
				CuePath:     args[0],
				DstDir:      args[1],
				Name:        name,
				BaseDir:     g.baseDir,
				LineEnding:  g.lineEnding(),
				BWLimit:     bw,
				Workers:     g.workers,
				Naming:      naming,
				Verify:      g.verifyFlag,
				Overwrite:   g.force,
			}
			return g.execute(job{
				mode:    "split",
				cuePath: args[0],
				dstRoot: args[1],
				run: func(ctx context.Context, events chan<- event.Event, collector *stats.Collector) engine.Result {
					cfg.Events = events
					cfg.Stats = collector
					return engine.RunSplit(ctx, cfg)
				},
			})
		},
	}

	cmd.Flags().StringVar(&namingStr, "naming", "redump",
		`track file naming: "redump" (Track 1 .. Track 9, Track 01 above nine tracks) or "padded" (always two digits)`)
	cmd.Flags().StringVar(&name, "name", "", "output stem (default: the source cue's stem)")
	return cmd
}

// displayRoot returns the directory merge outputs land in, for shortening
// paths in progress output.
func displayRoot(dst string) string {
	if st, err := os.Stat(dst); err == nil && st.IsDir() {
		return filepath.Clean(dst)
	}
	return filepath.Dir(dst)
}

// describe renders err with a hint for the common failure kinds.
func describe(err error) string {
	var perr *cue.ParseError
	var verr *layout.ValidationError
	var lerr *layout.LayoutError
	var ioerr *engine.IOError
	var vferr *engine.VerifyError

	switch {
	case errors.As(err, &perr):
		return fmt.Sprintf("cue sheet is malformed: %v", perr)
	case errors.As(err, &verr) && verr.Kind == layout.MissingFile:
		return fmt.Sprintf("%v (use --base-dir if the binaries live elsewhere)", verr)
	case errors.As(err, &verr):
		return fmt.Sprintf("sheet does not match its binaries: %v", verr)
	case errors.As(err, &lerr) && lerr.Kind == layout.AmbiguousSplitSource:
		return fmt.Sprintf("%v (merge the image first)", lerr)
	case errors.As(err, &lerr):
		return fmt.Sprintf("cannot lay out tracks: %v", lerr)
	case errors.As(err, &ioerr):
		return ioerr.Error()
	case errors.As(err, &vferr):
		return fmt.Sprintf("verification failed: %v", err)
	default:
		return err.Error()
	}
}
