package count

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"
	_ "time/tzdata" // timezone lookups must not depend on the host's zoneinfo

	"github.com/tailscale/hujson"
	"go.uber.org/zap"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	DataDir        string   `json:"data_dir"`
	AssignmentsCSV string   `json:"assignments_csv,omitempty"`
	SubmissionsCSV string   `json:"submissions_csv,omitempty"`
	LogDir         string   `json:"log_dir,omitempty"`
	Timezone       string   `json:"timezone,omitempty"`
	Workers        []string `json:"workers,omitempty"`
	Lang           string   `json:"lang,omitempty"`
	Port           int      `json:"port,omitempty"`

	// Resolved values (computed, not serialized)
	EffectiveCwd    string         `json:"-"`
	DataDirAbs      string         `json:"-"`
	AssignmentsPath string         `json:"-"`
	SubmissionsPath string         `json:"-"`
	LogDirAbs       string         `json:"-"`
	IndexPath       string         `json:"-"` // derived SQLite index used by the dashboard
	Location        *time.Location `json:"-"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultWorkers is the worker roster used when no config names one.
var DefaultWorkers = []string{
	"Aldo", "Alex", "Carlos", "Clayton", "Cody", "Enrique", "Eric", "James", "Jake",
	"Johntai", "Karen", "Kevin", "Luis", "Nyahok", "Stephanie", "Tyteanna",
}

// Supported UI languages.
const (
	LangEnglish = "en"
	LangSpanish = "es"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DataDir:  "data",
		Timezone: "America/Chicago",
		Workers:  slices.Clone(DefaultWorkers),
		Lang:     LangEnglish,
		Port:     8080,
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".ccount.json"

// Environment variables read by [LoadConfig].
const (
	EnvDataDir        = "CC_DATA_DIR"
	EnvTimezone       = "CC_TZ"
	EnvAssignmentsCSV = "CC_ASSIGNMENTS_CSV"
	EnvSubmissionsCSV = "CC_SUBMISSIONS_CSV"
	EnvLogDir         = "CC_LOG_DIR"
	EnvLang           = "CC_LANG"
	EnvPort           = "PORT"
)

const indexFileName = "index.sqlite"

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/ccount/config.json if set, otherwise ~/.config/ccount/config.json.
// Returns empty string if home directory cannot be determined.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "ccount", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "ccount", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	DataDirOverride string            // --data-dir flag value; empty means no override
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/ccount/config.json or $XDG_CONFIG_HOME/ccount/config.json)
// 3. Project config file at default location (.ccount.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. Environment variables (CC_TZ, CC_ASSIGNMENTS_CSV, ...)
// 6. CLI overrides.
//
// All paths in the returned Config are resolved to absolute paths.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	envCfg, err := configFromEnv(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, envCfg)

	if input.DataDirOverride != "" {
		cfg.DataDir = input.DataDirOverride
	}

	err = validateConfig(cfg)
	if err != nil {
		return Config{}, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownTimezone, cfg.Timezone)
	}

	cfg.Location = loc
	cfg.EffectiveCwd = workDir
	cfg.DataDirAbs = absPath(workDir, cfg.DataDir)
	cfg.AssignmentsPath = absPathOr(workDir, cfg.AssignmentsCSV, filepath.Join(cfg.DataDirAbs, "assignments.csv"))
	cfg.SubmissionsPath = absPathOr(workDir, cfg.SubmissionsCSV, filepath.Join(cfg.DataDirAbs, "submissions.csv"))
	cfg.LogDirAbs = absPathOr(workDir, cfg.LogDir, cfg.DataDirAbs)
	cfg.IndexPath = filepath.Join(cfg.DataDirAbs, ".ccount", indexFileName)

	return cfg, nil
}

// TrackerOptions returns the [Options] for opening the tables named by cfg.
func (c *Config) TrackerOptions(log *zap.Logger) Options {
	return Options{
		AssignmentsPath: c.AssignmentsPath,
		SubmissionsPath: c.SubmissionsPath,
		Location:        c.Location,
		Logger:          log,
	}
}

// IsWorker reports whether name is on the configured roster.
func (c *Config) IsWorker(name string) bool {
	return slices.Contains(c.Workers, name)
}

// loadGlobalConfig loads the global user config file if it exists.
// Returns the config, the path if loaded, and any error.
func loadGlobalConfig(env map[string]string) (Config, string, error) {
	globalCfgPath := getGlobalConfigPath(env)
	if globalCfgPath == "" {
		return Config{}, "", nil
	}

	globalCfg, explicitEmpty, loaded, err := loadConfigFile(globalCfgPath, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitEmpty["data_dir"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, globalCfgPath, ErrDataDirEmpty)
	}

	return globalCfg, globalCfgPath, nil
}

// loadProjectConfig loads the project config file (.ccount.json) or an explicit config file.
// Returns the config, the path if loaded, and any error.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = absPath(workDir, configPath)
		mustExist = true

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
	}

	fileCfg, explicitEmpty, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitEmpty["data_dir"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, cfgFile, ErrDataDirEmpty)
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files return zero config.
// Returns the config, a map of explicitly empty fields, whether file was loaded, and any error.
func loadConfigFile(path string, mustExist bool) (Config, map[string]bool, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil, false, nil
		}

		if mustExist {
			return Config{}, nil, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, nil, false, nil
	}

	cfg, explicitEmpty, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, nil, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, explicitEmpty, true, nil
}

func parseConfig(data []byte) (Config, map[string]bool, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, nil, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	// Check which fields were explicitly set to empty
	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	explicitEmpty := make(map[string]bool)

	if val, exists := raw["data_dir"]; exists {
		if str, ok := val.(string); ok && str == "" {
			explicitEmpty["data_dir"] = true
		}
	}

	if val, exists := raw["workers"]; exists {
		if list, ok := val.([]any); ok && len(list) == 0 {
			return Config{}, nil, ErrNoWorkers
		}
	}

	return cfg, explicitEmpty, nil
}

func configFromEnv(env map[string]string) (Config, error) {
	cfg := Config{
		DataDir:        env[EnvDataDir],
		AssignmentsCSV: env[EnvAssignmentsCSV],
		SubmissionsCSV: env[EnvSubmissionsCSV],
		LogDir:         env[EnvLogDir],
		Timezone:       env[EnvTimezone],
		Lang:           env[EnvLang],
	}

	if raw := env[EnvPort]; raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalidPort, EnvPort, raw)
		}

		cfg.Port = port
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.DataDir != "" {
		base.DataDir = overlay.DataDir
	}

	if overlay.AssignmentsCSV != "" {
		base.AssignmentsCSV = overlay.AssignmentsCSV
	}

	if overlay.SubmissionsCSV != "" {
		base.SubmissionsCSV = overlay.SubmissionsCSV
	}

	if overlay.LogDir != "" {
		base.LogDir = overlay.LogDir
	}

	if overlay.Timezone != "" {
		base.Timezone = overlay.Timezone
	}

	if len(overlay.Workers) > 0 {
		base.Workers = slices.Clone(overlay.Workers)
	}

	if overlay.Lang != "" {
		base.Lang = overlay.Lang
	}

	if overlay.Port != 0 {
		base.Port = overlay.Port
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrDataDirEmpty
	}

	if cfg.Lang != LangEnglish && cfg.Lang != LangSpanish {
		return fmt.Errorf("%w: %s", ErrUnsupportedLang, cfg.Lang)
	}

	if len(cfg.Workers) == 0 {
		return ErrNoWorkers
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Port)
	}

	return nil
}

func absPath(workDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(workDir, p)
}

func absPathOr(workDir, p, fallback string) string {
	if p == "" {
		return fallback
	}

	return absPath(workDir, p)
}
