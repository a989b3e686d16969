package prune_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osuprune/internal/prune"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	work := t.TempDir()

	writeConfig(t, filepath.Join(home, "osuprune", "config.json"), `{
		// global config with a comment: hujson must accept this
		"songs_dir": "/global/songs",
		"collection_db": "/global/collection.db",
	}`)

	env := map[string]string{"XDG_CONFIG_HOME": home}

	t.Run("global only", func(t *testing.T) {
		t.Parallel()

		cfg, sources, err := prune.LoadConfig(work, "", env)
		require.NoError(t, err)
		assert.Equal(t, "/global/songs", cfg.SongsDir)
		assert.Equal(t, "/global/collection.db", cfg.CollectionDB)
		assert.Equal(t, filepath.Join(home, "osuprune", "config.json"), sources.Global)
		assert.Empty(t, sources.Project)
	})

	t.Run("project overrides global partially", func(t *testing.T) {
		t.Parallel()

		projWork := t.TempDir()
		writeConfig(t, filepath.Join(projWork, prune.ConfigFileName), `{"songs_dir": "/project/songs"}`)

		cfg, sources, err := prune.LoadConfig(projWork, "", env)
		require.NoError(t, err)
		assert.Equal(t, "/project/songs", cfg.SongsDir)
		assert.Equal(t, "/global/collection.db", cfg.CollectionDB, "unset fields fall through")
		assert.Equal(t, filepath.Join(projWork, prune.ConfigFileName), sources.Project)
	})

	t.Run("explicit config file wins over project default", func(t *testing.T) {
		t.Parallel()

		projWork := t.TempDir()
		writeConfig(t, filepath.Join(projWork, prune.ConfigFileName), `{"songs_dir": "/project/songs"}`)
		writeConfig(t, filepath.Join(projWork, "other.json"), `{"songs_dir": "/explicit/songs"}`)

		cfg, _, err := prune.LoadConfig(projWork, "other.json", env)
		require.NoError(t, err)
		assert.Equal(t, "/explicit/songs", cfg.SongsDir)
	})
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	env := map[string]string{"XDG_CONFIG_HOME": t.TempDir()}

	t.Run("explicit file must exist", func(t *testing.T) {
		t.Parallel()

		_, _, err := prune.LoadConfig(t.TempDir(), "nope.json", env)
		require.ErrorIs(t, err, prune.ErrConfigNotFound)
	})

	t.Run("invalid json rejected", func(t *testing.T) {
		t.Parallel()

		work := t.TempDir()
		writeConfig(t, filepath.Join(work, prune.ConfigFileName), `{"songs_dir": }`)

		_, _, err := prune.LoadConfig(work, "", env)
		require.ErrorIs(t, err, prune.ErrConfigInvalid)
	})

	t.Run("missing project config is fine", func(t *testing.T) {
		t.Parallel()

		cfg, sources, err := prune.LoadConfig(t.TempDir(), "", env)
		require.NoError(t, err)
		assert.Empty(t, sources.Project)
		assert.Empty(t, cfg.SongsDir)
	})
}
