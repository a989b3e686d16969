// Package cli implements the osuprune command-line interface: scan a
// library for deletable mapsets, review the staged report, apply it.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"osuprune/internal/prune"
)

const helpFlag = "--help"

// globalFlags are the options accepted before the command name.
type globalFlags struct {
	configPath string
	songsDir   string
	collection string
	remaining  []string
}

// Run is the main entry point. Returns the process exit code. The
// reader argument is unused: the apply prompt talks to the terminal
// directly via liner.
func Run(_ io.Reader, out, errOut io.Writer, args []string, env map[string]string, sig <-chan os.Signal) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sig != nil {
		go func() {
			select {
			case <-sig:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if len(args) < 2 {
		printUsage(out)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if len(flags.remaining) == 0 {
		printUsage(out)

		return 0
	}

	cmd := flags.remaining[0]
	if cmd == "-h" || cmd == helpFlag {
		printUsage(out)

		return 0
	}

	workDir, err := os.Getwd()
	if err != nil {
		fprintln(errOut, "error: cannot get working directory:", err)

		return 1
	}

	cfg, sources, err := prune.LoadConfig(workDir, flags.configPath, env)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	// CLI overrides win over every config layer.
	if flags.songsDir != "" {
		cfg.SongsDir = flags.songsDir
	}

	if flags.collection != "" {
		cfg.CollectionDB = flags.collection
	}

	cmdArgs := flags.remaining[1:]

	switch cmd {
	case "scan":
		return cmdScan(ctx, out, errOut, cfg, cmdArgs)
	case "apply":
		return cmdApply(ctx, out, errOut, cmdArgs)
	case "print-config":
		return cmdPrintConfig(out, errOut, cfg, sources, cmdArgs)
	default:
		fprintln(errOut, "error: unknown command:", cmd)
		printUsage(errOut)

		return 1
	}
}

// parseGlobalFlags consumes leading global options; everything from the
// command name on is left in remaining.
func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	i := 0

	for i < len(args) {
		arg := args[i]

		var target *string

		switch arg {
		case "-c", "--config":
			target = &flags.configPath
		case "--songs":
			target = &flags.songsDir
		case "--collection":
			target = &flags.collection
		default:
			flags.remaining = args[i:]

			return flags, nil
		}

		if i+1 >= len(args) {
			return globalFlags{}, fmt.Errorf("flag %s requires an argument", arg)
		}

		*target = args[i+1]
		i += 2
	}

	return flags, nil
}

// resolvePath makes relative user-supplied paths absolute against the
// current directory, leaving absolute ones alone.
func resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return abs
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func fprintf(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}

func printUsage(w io.Writer) {
	fprintln(w, `osuprune - prune osu! mapsets by difficulty stats or collection membership

Usage: osuprune [options] <command> [args]

Options:
  -c, --config <file>    Use specified config file
      --songs <dir>      Override the Songs directory
      --collection <file> Override the collection.db path

Commands:`)
	fprintln(w, scanHelp)
	fprintln(w, applyHelp)
	fprintln(w, `  print-config            Show resolved configuration

Nothing is deleted until 'apply' confirms a staged report.`)
}
