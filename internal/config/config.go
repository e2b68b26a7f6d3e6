// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/octopack/octopack/internal/issue"
	"github.com/octopack/octopack/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "octopack"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// ProjectFileName is the per-project config file looked up in the project directory.
	ProjectFileName = "octopack.cue"
	// EnvPrefix prefixes every environment override, e.g. OCTOPACK_ARCHIVER_PATH.
	EnvPrefix = "OCTOPACK"
	// ConfigDirEnv replaces the platform config directory when set.
	ConfigDirEnv = EnvPrefix + "_CONFIG_DIR"

	schemaPath = "#Config"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the octopack configuration directory. OCTOPACK_CONFIG_DIR
// wins when set; otherwise Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(ConfigDirEnv)); dir != "" {
		return dir, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, "", err
	}

	v := newViper()

	path, err := resolveConfigPath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithCode(issue.CodeInvalidArguments).
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'octopack config init' to write a file with every default").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithCode(issue.CodeInvalidArguments).
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check OCTOPACK_* environment variables as well as the config file").
			Wrap(err).
			BuildError()
	}

	return &cfg, path, nil
}

// newViper returns a Viper instance seeded with the defaults and bound to
// OCTOPACK_* environment variables.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("archiver.path", defaults.Archiver.Path)
	v.SetDefault("archiver.extra_args", defaults.Archiver.ExtraArgs)
	v.SetDefault("archiver.properties", defaults.Archiver.Properties)
	v.SetDefault("publish.teamcity", defaults.Publish.TeamCity)
	v.SetDefault("publish.file_share", defaults.Publish.FileShare)
	v.SetDefault("exclude.content", defaults.Exclude.Content)
	v.SetDefault("exclude.binaries", defaults.Exclude.Binaries)
	v.SetDefault("disk.required_bytes", defaults.Disk.RequiredBytes)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// resolveConfigPath picks the single file to load: the explicit path, then
// the project file, then the user file. An empty result means defaults only.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithCode(issue.CodeInvalidArguments).
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'octopack config show' to see the effective configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	if opts.ProjectDir != "" {
		projectPath := filepath.Join(opts.ProjectDir, ProjectFileName)
		if fileExists(projectPath) {
			return projectPath, nil
		}
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	userPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(userPath) {
		return userPath, nil
	}

	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into Viper.
// Fields are optional so the value is checked with Concrete(false).
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	unified, err := cueutil.Unify(configSchema, data, schemaPath,
		cueutil.WithFilename(path), cueutil.WithConcrete(false))
	if err != nil {
		return err
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// DefaultConfigPath returns the user config file path.
func DefaultConfigPath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// CreateDefaultConfig writes the defaults to path unless a file already
// exists there. It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := Save(DefaultConfig(), path); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes cfg to path as CUE, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// OctoPack Configuration File\n\n")

	sb.WriteString("archiver: {\n")
	sb.WriteString(fmt.Sprintf("\tpath: %q\n", cfg.Archiver.Path))
	sb.WriteString(fmt.Sprintf("\textra_args: %s\n", cueList(cfg.Archiver.ExtraArgs)))
	if len(cfg.Archiver.Properties) > 0 {
		sb.WriteString("\tproperties: {\n")
		keys := make([]string, 0, len(cfg.Archiver.Properties))
		for k := range cfg.Archiver.Properties {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("\t\t%q: %q\n", k, cfg.Archiver.Properties[k]))
		}
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\npublish: {\n")
	sb.WriteString(fmt.Sprintf("\tteamcity: %v\n", cfg.Publish.TeamCity))
	if cfg.Publish.FileShare != "" {
		sb.WriteString(fmt.Sprintf("\tfile_share: %q\n", cfg.Publish.FileShare))
	}
	sb.WriteString("}\n")

	sb.WriteString("\nexclude: {\n")
	sb.WriteString(fmt.Sprintf("\tcontent: %s\n", cueList(cfg.Exclude.Content)))
	sb.WriteString(fmt.Sprintf("\tbinaries: %s\n", cueList(cfg.Exclude.Binaries)))
	sb.WriteString("}\n")

	sb.WriteString("\ndisk: {\n")
	sb.WriteString(fmt.Sprintf("\trequired_bytes: %d\n", cfg.Disk.RequiredBytes))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	if cfg.UI.ColorScheme != "" {
		sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.UI.ColorScheme))
	}
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
