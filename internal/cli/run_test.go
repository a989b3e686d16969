package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"osuprune/internal/cli"
)

// runCLI invokes the CLI with an isolated environment so tests never
// pick up a real global config.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	env := map[string]string{"XDG_CONFIG_HOME": t.TempDir()}

	var stdout, stderr bytes.Buffer

	exitCode := cli.Run(nil, &stdout, &stderr, args, env, nil)

	return exitCode, stdout.String(), stderr.String()
}

func assertContains(t *testing.T, got, substr string) {
	t.Helper()

	if !strings.Contains(got, substr) {
		t.Errorf("output should contain %q\noutput:\n%s", substr, got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestRunUsage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: []string{"osuprune"}},
		{name: "-h", args: []string{"osuprune", "-h"}},
		{name: "--help", args: []string{"osuprune", "--help"}},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			exitCode, stdout, _ := runCLI(t, testCase.args...)

			if exitCode != 0 {
				t.Errorf("exit code = %d, want 0", exitCode)
			}

			assertContains(t, stdout, "Usage: osuprune")
			assertContains(t, stdout, "scan")
			assertContains(t, stdout, "apply")
		})
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantStderr string
	}{
		{
			name:       "unknown command",
			args:       []string{"osuprune", "frobnicate"},
			wantStderr: "unknown command: frobnicate",
		},
		{
			name:       "global flag without argument",
			args:       []string{"osuprune", "--songs"},
			wantStderr: "flag --songs requires an argument",
		},
		{
			name:       "explicit config file missing",
			args:       []string{"osuprune", "-c", "/nonexistent/osuprune.json", "print-config"},
			wantStderr: "config file not found",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			exitCode, _, stderr := runCLI(t, testCase.args...)

			if exitCode != 1 {
				t.Errorf("exit code = %d, want 1", exitCode)
			}

			assertContains(t, stderr, testCase.wantStderr)
		})
	}
}

func TestPrintConfigShowsOverrides(t *testing.T) {
	t.Parallel()

	exitCode, stdout, _ := runCLI(t,
		"osuprune", "--songs", "/srv/osu/Songs", "--collection", "/srv/osu/collection.db",
		"print-config")

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0", exitCode)
	}

	assertContains(t, stdout, "songs_dir: /srv/osu/Songs")
	assertContains(t, stdout, "collection_db: /srv/osu/collection.db")
	assertContains(t, stdout, "global config: (unset)")
}

func TestPrintConfigReadsExplicitFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "cfg.json")

	// JWCC: comments and trailing commas are accepted.
	writeFile(t, cfgPath, `{
		// my library
		"songs_dir": "/media/osu/Songs",
	}`)

	exitCode, stdout, _ := runCLI(t, "osuprune", "-c", cfgPath, "print-config")

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0", exitCode)
	}

	assertContains(t, stdout, "songs_dir: /media/osu/Songs")
	assertContains(t, stdout, "project config: "+cfgPath)
}

func TestPrintConfigRejectsArguments(t *testing.T) {
	t.Parallel()

	exitCode, _, stderr := runCLI(t, "osuprune", "print-config", "extra")

	if exitCode != 1 {
		t.Errorf("exit code = %d, want 1", exitCode)
	}

	assertContains(t, stderr, "print-config takes no arguments")
}
