package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bamsammich/cuemerge/internal/cue"
	"github.com/bamsammich/cuemerge/internal/engine"
	"github.com/bamsammich/cuemerge/internal/layout"
	"github.com/bamsammich/cuemerge/internal/ui"
)

func newInfoCmd(g *globalFlags) *cobra.Command {
	var (
		hash    bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "info <src.cue>",
		Short: "Show the tracks, sizes and byte layout of a sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			closer, err := g.setupLogging()
			if err != nil {
				return err
			}
			defer closer.Close()

			s, err := cue.Load(args[0])
			if err != nil {
				return reportError("info", err)
			}
			mode := layout.Merge
			if len(s.Files) == 1 {
				mode = layout.Split
			}
			r, p, err := engine.PrepareSheet(s, args[0], g.baseDir, g.cfg.SectorTable(), mode)
			if err != nil {
				return reportError("info", err)
			}

			var digests []engine.TrackDigest
			if hash {
				digests, err = hashTracks(p, noCache)
				if err != nil {
					return reportError("info", err)
				}
			}
			return printInfo(os.Stdout, args[0], r, p, digests)
		},
	}

	cmd.Flags().BoolVar(&hash, "hash", false, "print the BLAKE3 digest of every track's bytes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not read or update the digest cache")
	return cmd
}

func hashTracks(p *layout.Plan, noCache bool) ([]engine.TrackDigest, error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cache *engine.HashCache
	if !noCache {
		c, err := engine.OpenHashCache(engine.DefaultHashCachePath())
		if err != nil {
			slog.Warn("digest cache unavailable", "error", err)
		} else {
			cache = c
			defer func() {
				if err := cache.Close(); err != nil {
					slog.Warn("close digest cache", "path", cache.Path(), "error", err)
				}
			}()
		}
	}
	return engine.HashTracks(ctx, p, cache)
}

// printInfo writes a per-track table of the plan.
func printInfo(w io.Writer, cuePath string, r *layout.Resolved, p *layout.Plan, digests []engine.TrackDigest) error {
	tracks := make(map[int]*cue.Track)
	for _, t := range r.Sheet.Tracks() {
		tracks[t.Number] = t
	}

	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	fmt.Fprintf(w, "%s: %d files, %d tracks, %s (%s layout)\n",
		cuePath, len(r.Files), r.Sheet.TrackCount(), ui.FormatBytes(total), p.Mode)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "TRACK\tTYPE\tFILE\tOFFSET\tLENGTH\tINDICES"
	if digests != nil {
		header += "\tBLAKE3"
	}
	fmt.Fprintln(tw, header)

	for i, e := range p.Extents {
		f := r.Files[e.SourceFile]
		t := tracks[e.Track]

		var idx []string
		for _, x := range t.Indices {
			idx = append(idx, fmt.Sprintf("%02d@%s", x.Number, x.Position))
		}

		line := fmt.Sprintf("%s\t%s\t%s\t%d\t%s\t%s",
			ui.TrackLabel(e.Track), t.Type, f.Path, e.SourceOffset,
			ui.FormatSectors(e.Length, f.SectorSize), strings.Join(idx, " "))
		if digests != nil && i < len(digests) {
			d := digests[i].Digest
			if digests[i].Cached {
				d += " (cached)"
			}
			line += "\t" + d
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}
