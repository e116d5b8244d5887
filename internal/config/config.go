// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/tagscope/tagscope/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "tagscope"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. TAGSCOPE_LAYOUT.
	EnvPrefix = "TAGSCOPE"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the tagscope configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
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
	default: // Linux and others
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

// CacheDir returns the directory of the persistent parse cache. An explicit
// dir from the configuration wins over the platform user cache directory.
func CacheDir(dir CacheDirPath) (string, error) {
	if dir != "" {
		return string(dir), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(base, AppName, "parse"), nil
}

// FilePath returns the config file that Load would read for opts, whether
// or not it exists.
func FilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level cache state. Callers that want caching can wrap this function.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// A custom config file path set via --config is used exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'tagscope config show' to see the default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", cueLoadError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cuePath, err := FilePath(opts)
		if err != nil {
			return nil, "", err
		}
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", cueLoadError(cuePath, err)
			}
			resolvedPath = cuePath
		}
		// If no config file found, use defaults (no error)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema, so the decoded result is
	// validated again.
	if valid, errs := cfg.IsValid(); !valid {
		ctxErr := issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Check TAGSCOPE_* environment variables and the config file").
			WithIssue(issue.ConfigLoadFailedId)
		if resolvedPath != "" {
			ctxErr = ctxErr.WithResource(resolvedPath)
		}
		return nil, "", ctxErr.Wrap(errs[0]).BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("layout", defaults.Layout)
	v.SetDefault("statistics", defaults.Statistics)
	v.SetDefault("include", defaults.Include)
	v.SetDefault("ignore", defaults.Ignore)
	v.SetDefault("module_markers", defaults.ModuleMarkers)
	v.SetDefault("content_roots", defaults.ContentRoots)
	v.SetDefault("use_default_mappings", defaults.UseDefaultMappings)
	v.SetDefault("mappings", defaults.Mappings)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("watch.clear_screen", defaults.Watch.ClearScreen)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.dir", defaults.Cache.Dir)
	v.SetDefault("serve.ssh_host", defaults.Serve.SSHHost)
	v.SetDefault("serve.ssh_port", defaults.Serve.SSHPort)
	v.SetDefault("serve.http_addr", defaults.Serve.HTTPAddr)
}

func cueLoadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'tagscope config --help' for configuration options").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper validates the file at path against #Config and merges
// the decoded values into v, keeping defaults for unset fields.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var configMap map[string]any
	if err := decodeFile(configSchema, "#Config", data, path, &configMap); err != nil {
		return err
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

// CreateDefaultConfig writes the default configuration to path unless a
// file already exists there. It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// tagscope configuration file\n\n")

	fmt.Fprintf(&sb, "layout: %q\n", cfg.Layout)
	fmt.Fprintf(&sb, "statistics: %q\n", cfg.Statistics)
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)

	writeCUEList(&sb, "include", cfg.Include)
	writeCUEList(&sb, "ignore", cfg.Ignore)
	writeCUEList(&sb, "module_markers", cfg.ModuleMarkers)
	writeCUEList(&sb, "content_roots", cfg.ContentRoots)

	fmt.Fprintf(&sb, "\nuse_default_mappings: %v\n", cfg.UseDefaultMappings)
	if len(cfg.Mappings) > 0 {
		sb.WriteString("mappings: [\n")
		for _, m := range cfg.Mappings {
			fmt.Fprintf(&sb, "\t{category: %q, tags: %q},\n", m.Category, m.Tags)
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Watch.Debounce.String())
	fmt.Fprintf(&sb, "\tclear_screen: %v\n", cfg.Watch.ClearScreen)
	sb.WriteString("}\n")

	sb.WriteString("\ncache: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", cfg.Cache.Enabled)
	if cfg.Cache.Dir != "" {
		fmt.Fprintf(&sb, "\tdir: %q\n", cfg.Cache.Dir)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nserve: {\n")
	fmt.Fprintf(&sb, "\tssh_host: %q\n", cfg.Serve.SSHHost)
	fmt.Fprintf(&sb, "\tssh_port: %d\n", cfg.Serve.SSHPort)
	fmt.Fprintf(&sb, "\thttp_addr: %q\n", cfg.Serve.HTTPAddr)
	sb.WriteString("}\n")

	return sb.String()
}

func writeCUEList(sb *strings.Builder, name string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s: [", name)
	for i, v := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%q", v)
	}
	sb.WriteString("]\n")
}
