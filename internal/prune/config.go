package prune

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

var (
	// ErrConfigNotFound is returned when an explicitly requested config
	// file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid is returned for unreadable or unparseable config
	// files.
	ErrConfigInvalid = errors.New("invalid config file")
)

// ConfigFileName is the project-level config file looked up in the
// working directory.
const ConfigFileName = ".osuprune.json"

// Config holds the resolved tool configuration. Files are JWCC
// (JSON with comments and trailing commas).
type Config struct {
	// SongsDir is the osu! Songs library root.
	SongsDir string `json:"songs_dir,omitempty"`

	// CollectionDB is the path to collection.db.
	CollectionDB string `json:"collection_db,omitempty"`
}

// ConfigSources tracks which config files contributed to the result.
type ConfigSources struct {
	Global  string // global config path if loaded, empty otherwise
	Project string // project or explicit config path if loaded
}

// DefaultConfig probes the stock osu! install locations on Windows and
// falls back to empty fields elsewhere (the flags become required).
func DefaultConfig(env map[string]string) Config {
	var cfg Config

	if local := env["LOCALAPPDATA"]; local != "" {
		songs := filepath.Join(local, "osu!", "Songs")
		if _, err := os.Stat(songs); err == nil {
			cfg.SongsDir = songs
		}

		db := filepath.Join(local, "osu!", "collection.db")
		if _, err := os.Stat(db); err == nil {
			cfg.CollectionDB = db
		}
	}

	return cfg
}

// LoadConfig loads configuration with the following precedence
// (highest wins):
//  1. Defaults (Windows osu! probe)
//  2. Global user config ($XDG_CONFIG_HOME/osuprune/config.json or
//     ~/.config/osuprune/config.json)
//  3. Project config (.osuprune.json in workDir), or the explicit file
//     given via configPath
//  4. CLI flag overrides (applied by the caller)
func LoadConfig(workDir, configPath string, env map[string]string) (Config, ConfigSources, error) {
	cfg := DefaultConfig(env)

	var sources ConfigSources

	globalCfg, globalPath, err := loadConfigFile(globalConfigPath(env), false)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	return cfg, sources, nil
}

// globalConfigPath resolves the global config location, or "" when no
// home directory can be determined.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "osuprune", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "osuprune", "config.json")
}

func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	if configPath == "" {
		return loadConfigFile(filepath.Join(workDir, ConfigFileName), false)
	}

	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(workDir, configPath)
	}

	if _, err := os.Stat(configPath); err != nil {
		return Config{}, "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}

	return loadConfigFile(configPath, true)
}

// loadConfigFile reads and parses one config file. Missing files are
// not an error unless mustExist is set. Returns the path actually
// loaded, or "" when skipped.
func loadConfigFile(path string, mustExist bool) (Config, string, error) {
	if path == "" {
		return Config{}, "", nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, "", nil
		}

		return Config{}, "", fmt.Errorf("%w: reading %s: %w", ErrConfigInvalid, path, err)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, path, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

// mergeConfig overlays non-empty fields of override onto base.
func mergeConfig(base, override Config) Config {
	if override.SongsDir != "" {
		base.SongsDir = override.SongsDir
	}

	if override.CollectionDB != "" {
		base.CollectionDB = override.CollectionDB
	}

	return base
}
