// Package main provides osuprune, a cleaner for osu! Songs libraries:
// it stages mapsets for deletion by BPM/AR/CS criteria or missing
// collection membership, and deletes them only after confirmation.
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"osuprune/internal/cli"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env, sigCh)

	os.Exit(exitCode)
}
