package cli

import (
	"context"
	"errors"
	"io"
	"math"
	"path/filepath"
	"runtime"

	flag "github.com/spf13/pflag"

	"osuprune/internal/beatmap"
	"osuprune/internal/collection"
	"osuprune/internal/fs"
	"osuprune/internal/prune"
)

const scanHelp = `  scan [flags]            Scan the library and stage deletion candidates`

// lockFileName lives inside the Songs directory and serializes
// concurrent osuprune runs against the same library.
const lockFileName = ".osuprune.lock"

// scanOptions holds parsed scan command options.
type scanOptions struct {
	criteria   prune.Criteria
	jobs       int
	reportPath string
}

func cmdScan(ctx context.Context, out, errOut io.Writer, cfg prune.Config, args []string) int {
	if hasHelpFlag(args) {
		printScanHelp(out)

		return 0
	}

	opts, code := parseScanFlags(errOut, args)
	if code != 0 {
		return code
	}

	if !opts.criteria.Active() {
		fprintln(errOut, "error: no filter given; set at least one of --min-bpm/--max-bpm,"+
			" --min-ar/--max-ar, --min-cs/--max-cs, or --require-collection")

		return 1
	}

	songsDir := resolvePath(cfg.SongsDir)
	if songsDir == "" {
		fprintln(errOut, "error: no Songs directory; pass --songs or set songs_dir in the config")

		return 1
	}

	real := fs.NewReal()

	var db *collection.Database

	if opts.criteria.RequireCollection {
		dbPath := resolvePath(cfg.CollectionDB)
		if dbPath == "" {
			fprintln(errOut, "error: --require-collection needs a collection.db;"+
				" pass --collection or set collection_db in the config")

			return 1
		}

		data, err := real.ReadFile(dbPath)
		if err != nil {
			fprintln(errOut, "error: reading collection database:", err)

			return 1
		}

		// A half-read collection set would silently under-protect
		// mapsets, so any decode error aborts the scan outright.
		db, err = collection.Decode(data)
		if err != nil {
			fprintf(errOut, "error: decoding %s: %v\n", dbPath, err)

			return 1
		}

		fprintf(out, "collection.db: %d collections, %d referenced difficulties\n",
			db.CollectionCount(), db.Len())
	}

	lock, err := fs.AcquireLock(joinLockPath(songsDir))
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}
	defer func() { _ = lock.Close() }()

	session := prune.NewSession(real, &prune.DirSource{FS: real, Root: songsDir},
		opts.criteria, db, opts.jobs)

	cands, err := session.BeginScan(ctx)
	if err != nil {
		fprintln(errOut, "error: scan failed:", err)

		return 1
	}

	printCandidates(out, cands)

	stats := session.Stats()
	fprintf(out, "\nscanned %d mapsets (%d difficulties, %d unreadable); staged %d candidate(s)\n",
		stats.Mapsets, stats.Difficulties, stats.ParseFailures, len(cands))

	if stats.ParseFailures > 0 {
		fprintln(errOut, "warning: some difficulties could not be evaluated;"+
			" their mapsets are marked uncertain above")
	}

	if opts.reportPath == "" {
		if len(cands) > 0 {
			fprintln(out, "\nre-run with --report <file> to stage these for deletion")
		}

		return 0
	}

	reportPath := resolvePath(opts.reportPath)
	report := prune.NewReport(songsDir, resolvePath(cfg.CollectionDB), opts.criteria, session)

	if err := prune.WriteReport(real, reportPath, report); err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	fprintf(out, "\nreport written to %s\nreview it, then run: osuprune apply --report %s\n",
		reportPath, reportPath)

	return 0
}

func parseScanFlags(errOut io.Writer, args []string) (scanOptions, int) {
	flagSet := flag.NewFlagSet("scan", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	minBPM := flagSet.Float64("min-bpm", 0, "Minimum primary BPM")
	maxBPM := flagSet.Float64("max-bpm", 0, "Maximum primary BPM")
	minAR := flagSet.Float64("min-ar", 0, "Minimum approach rate")
	maxAR := flagSet.Float64("max-ar", 0, "Maximum approach rate")
	minCS := flagSet.Float64("min-cs", 0, "Minimum circle size")
	maxCS := flagSet.Float64("max-cs", 0, "Maximum circle size")
	requireCollection := flagSet.Bool("require-collection", false,
		"Keep only mapsets referenced by a collection")
	wholeMapsets := flagSet.Bool("whole-mapsets", true,
		"Stage whole mapsets (false stages single failing difficulties)")
	tolerance := flagSet.Float64("bpm-tolerance", beatmap.DefaultBPMTolerance,
		"Merge tempos closer than this many BPM")
	jobs := flagSet.Int("jobs", runtime.NumCPU(), "Parallel parse workers")
	reportPath := flagSet.String("report", "", "Write the staged candidates to this file")

	if err := flagSet.Parse(args); err != nil {
		fprintln(errOut, "error:", err)

		return scanOptions{}, 1
	}

	opts := scanOptions{
		jobs:       *jobs,
		reportPath: *reportPath,
	}

	var err error

	opts.criteria.BPM, err = buildRange(flagSet, "min-bpm", "max-bpm", *minBPM, *maxBPM)
	if err != nil {
		fprintln(errOut, "error:", err)

		return scanOptions{}, 1
	}

	opts.criteria.AR, err = buildRange(flagSet, "min-ar", "max-ar", *minAR, *maxAR)
	if err != nil {
		fprintln(errOut, "error:", err)

		return scanOptions{}, 1
	}

	opts.criteria.CS, err = buildRange(flagSet, "min-cs", "max-cs", *minCS, *maxCS)
	if err != nil {
		fprintln(errOut, "error:", err)

		return scanOptions{}, 1
	}

	opts.criteria.RequireCollection = *requireCollection
	opts.criteria.WholeMapsets = *wholeMapsets
	opts.criteria.BPMTolerance = *tolerance

	return opts, 0
}

// buildRange turns an optionally one-sided min/max flag pair into a
// Range, or nil when neither side was given.
func buildRange(flagSet *flag.FlagSet, minName, maxName string, minVal, maxVal float64) (*prune.Range, error) {
	hasMin := flagSet.Changed(minName)
	hasMax := flagSet.Changed(maxName)

	if !hasMin && !hasMax {
		return nil, nil //nolint:nilnil // nil range means "axis disabled"
	}

	r := &prune.Range{Min: math.Inf(-1), Max: math.Inf(1)}

	if hasMin {
		r.Min = minVal
	}

	if hasMax {
		r.Max = maxVal
	}

	if r.Min > r.Max {
		return nil, errors.New("--" + minName + " is greater than --" + maxName)
	}

	return r, nil
}

func printCandidates(out io.Writer, cands []*prune.Candidate) {
	for _, c := range cands {
		marker := ""
		if c.Uncertain {
			marker = " (uncertain)"
		}

		label := ""
		if c.Label != "" {
			label = "  # " + c.Label
		}

		fprintf(out, "%s  %s%s%s\n", c.Kind, c.Path, marker, label)

		for _, reason := range c.Reasons {
			fprintf(out, "    - %s\n", reason)
		}
	}
}

func joinLockPath(songsDir string) string {
	return filepath.Join(songsDir, lockFileName)
}

func hasHelpFlag(args []string) bool {
	for _, a := range args {
		if a == "-h" || a == helpFlag {
			return true
		}
	}

	return false
}

func printScanHelp(out io.Writer) {
	fprintln(out, `Usage: osuprune scan [flags]

Scans every mapset under the Songs directory, resolves each
difficulty's primary BPM, and stages deletion candidates. A mapset is
staged only when none of its difficulties satisfy the active filters;
with --require-collection, only when no difficulty checksum appears in
collection.db. Nothing is deleted by this command.

Flags:
      --min-bpm / --max-bpm     Primary BPM range (inclusive)
      --min-ar  / --max-ar      Approach rate range (inclusive)
      --min-cs  / --max-cs      Circle size range (inclusive)
      --require-collection      Keep only collection-referenced mapsets
      --whole-mapsets           Stage whole mapsets (default true);
                                =false stages single failing .osu files
      --bpm-tolerance <n>       Tempo merge tolerance in BPM (default 0.01)
      --jobs <n>                Parallel parse workers
      --report <file>           Write staged candidates for 'apply'`)
}
