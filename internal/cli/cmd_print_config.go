package cli

import (
	"io"

	"osuprune/internal/prune"
)

func cmdPrintConfig(out, errOut io.Writer, cfg prune.Config, sources prune.ConfigSources, args []string) int {
	if len(args) > 0 && !hasHelpFlag(args) {
		fprintln(errOut, "error: print-config takes no arguments")

		return 1
	}

	fprintln(out, "songs_dir:", orUnset(cfg.SongsDir))
	fprintln(out, "collection_db:", orUnset(cfg.CollectionDB))
	fprintln(out, "global config:", orUnset(sources.Global))
	fprintln(out, "project config:", orUnset(sources.Project))

	return 0
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}

	return s
}
