package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tidwall/jsonc"
)

// Config holds the runtime configuration.
type Config struct {
	// WorkDir is the directory tool paths resolve against.
	WorkDir string `json:"workDir,omitempty"`
	// Port the HTTP API listens on.
	Port int `json:"port,omitempty"`
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty"`
	// DataDir overrides where settings blobs are stored.
	DataDir string `json:"dataDir,omitempty"`
	// BashTimeoutMS overrides the default foreground command timeout.
	BashTimeoutMS int `json:"bashTimeoutMs,omitempty"`
	// WatchFiles enables the read-record invalidation watcher.
	WatchFiles *bool `json:"watchFiles,omitempty"`
}

// Load loads configuration from multiple sources (priority order):
// 1. Global config (~/.config/warden/warden.json)
// 2. Project config (.warden/warden.json)
// 3. WARDEN_CONFIG file
// 4. Environment variables
func Load(directory string) (*Config, error) {
	config := &Config{}

	loaded := make(map[string]bool)

	loadOnce := func(path string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config) == nil {
			loaded[absPath] = true
		}
	}

	loadOnce(GlobalConfigPath())
	loadOnce(filepath.Join(GetPaths().Config, "warden.jsonc"))

	if directory != "" {
		loadOnce(ProjectConfigPath(directory))
		loadOnce(filepath.Join(directory, ".warden", "warden.jsonc"))
	}

	if configPath := os.Getenv("WARDEN_CONFIG"); configPath != "" {
		loadOnce(configPath)
	}

	applyEnvOverrides(config)
	applyDefaults(config, directory)

	return config, nil
}

// loadConfigFile loads a single config file, stripping JSONC comments.
func loadConfigFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	data = jsonc.ToJSON(data)

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// mergeConfig overlays src on top of dst. Set fields win.
func mergeConfig(dst, src *Config) {
	if src.WorkDir != "" {
		dst.WorkDir = src.WorkDir
	}
	if src.Port != 0 {
		dst.Port = src.Port
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.BashTimeoutMS != 0 {
		dst.BashTimeoutMS = src.BashTimeoutMS
	}
	if src.WatchFiles != nil {
		dst.WatchFiles = src.WatchFiles
	}
}

// applyEnvOverrides applies environment variables (highest priority).
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("WARDEN_WORKDIR"); v != "" {
		config.WorkDir = v
	}
	if v := os.Getenv("WARDEN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Port = port
		}
	}
	if v := os.Getenv("WARDEN_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("WARDEN_DATA_DIR"); v != "" {
		config.DataDir = v
	}
}

func applyDefaults(config *Config, directory string) {
	if config.WorkDir == "" {
		if directory != "" {
			config.WorkDir = directory
		} else if cwd, err := os.Getwd(); err == nil {
			config.WorkDir = cwd
		}
	}
	if config.Port == 0 {
		config.Port = 7433
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.DataDir == "" {
		config.DataDir = GetPaths().StoragePath()
	}
}
