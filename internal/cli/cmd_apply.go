package cli

import (
	"context"
	"errors"
	"io"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"osuprune/internal/fs"
	"osuprune/internal/prune"
)

const applyHelp = `  apply --report <file>   Confirm and execute a staged report`

// confirmWord must be typed verbatim at the prompt before anything is
// deleted. Deletions are permanent; there is no recycle bin.
const confirmWord = "delete"

// applyOptions holds parsed apply command options.
type applyOptions struct {
	reportPath string
	yes        bool
	skip       []string
}

func cmdApply(ctx context.Context, out, errOut io.Writer, args []string) int {
	if hasHelpFlag(args) {
		printApplyHelp(out)

		return 0
	}

	opts, code := parseApplyFlags(errOut, args)
	if code != 0 {
		return code
	}

	real := fs.NewReal()

	report, err := prune.LoadReport(real, resolvePath(opts.reportPath))
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	session := prune.ResumeSession(real, report)

	for _, path := range opts.skip {
		if err := session.Skip(resolvePath(path)); err != nil {
			fprintln(errOut, "error:", err)

			return 1
		}
	}

	pending := pendingCandidates(session)
	if len(pending) == 0 {
		fprintln(out, "nothing to delete: the report has no pending candidates")

		return 0
	}

	printCandidates(out, pending)
	fprintf(out, "\n%d item(s) staged for PERMANENT deletion from %s\n", len(pending), report.SongsDir)

	if !opts.yes && !promptConfirm(out, errOut) {
		fprintln(out, "aborted; nothing was deleted")

		return 1
	}

	lock, err := fs.AcquireLock(joinLockPath(report.SongsDir))
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}
	defer func() { _ = lock.Close() }()

	results, ctxErr := session.Confirm(ctx, nil)

	var deleted, failed int

	for _, r := range results {
		switch r.Status {
		case prune.StatusDeleted:
			deleted++

			fprintf(out, "deleted  %s\n", r.Path)
		case prune.StatusFailed:
			failed++

			fprintf(errOut, "failed   %s: %s\n", r.Path, r.Cause)
		}
	}

	fprintf(out, "\n%d deleted, %d failed, %d staged\n", deleted, failed, len(pending))

	if ctxErr != nil {
		fprintln(errOut, "error: interrupted; remaining candidates were left untouched")

		return 1
	}

	if failed > 0 {
		fprintln(errOut, "error: some deletions failed; re-run scan to rebuild the report")

		return 1
	}

	return 0
}

// promptConfirm asks the user to type the confirmation word. Any read
// error (no terminal, ctrl-c, EOF) counts as a refusal: when in doubt,
// delete nothing.
func promptConfirm(out, errOut io.Writer) bool {
	prompt := liner.NewLiner()
	defer func() { _ = prompt.Close() }()

	prompt.SetCtrlCAborts(true)

	line, err := prompt.Prompt("type '" + confirmWord + "' to confirm: ")
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fprintln(out)

			return false
		}

		fprintln(errOut, "error: reading confirmation:", err)

		return false
	}

	return line == confirmWord
}

func pendingCandidates(session *prune.Session) []*prune.Candidate {
	var pending []*prune.Candidate

	for _, c := range session.Candidates() {
		if c.Status == prune.StatusPending {
			pending = append(pending, c)
		}
	}

	return pending
}

func parseApplyFlags(errOut io.Writer, args []string) (applyOptions, int) {
	flagSet := flag.NewFlagSet("apply", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	reportPath := flagSet.String("report", "", "Report file written by 'osuprune scan --report'")
	yes := flagSet.Bool("yes", false, "Skip the interactive confirmation prompt")
	skip := flagSet.StringArray("skip", nil, "Candidate path to leave untouched (repeatable)")

	if err := flagSet.Parse(args); err != nil {
		fprintln(errOut, "error:", err)

		return applyOptions{}, 1
	}

	if *reportPath == "" {
		fprintln(errOut, "error: --report is required")

		return applyOptions{}, 1
	}

	return applyOptions{reportPath: *reportPath, yes: *yes, skip: *skip}, 0
}

func printApplyHelp(out io.Writer) {
	fprintln(out, `Usage: osuprune apply --report <file> [--yes] [--skip <path>]...

Loads a report staged by 'osuprune scan --report', shows what is about
to be removed, asks for confirmation, and then permanently deletes the
confirmed candidates. Paths that vanished since the scan are reported
as failed; one failure never blocks the remaining deletions.

Flags:
      --report <file>   The staged report to execute (required)
      --yes             Do not prompt (for scripted use)
      --skip <path>     Exclude one candidate; may be repeated`)
}
