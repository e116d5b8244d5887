// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tagscope/tagscope/internal/category"
	"github.com/tagscope/tagscope/internal/tagtree"
)

const (
	// LogLevelDebug logs everything, including per-document reconciliation.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs scans, batches and server lifecycle.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs only recoverable problems.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs only failures.
	LogLevelError LogLevel = "error"

	// DefaultSSHHost is the interface the SSH browser binds to.
	DefaultSSHHost = "127.0.0.1"
	// DefaultSSHPort is the port the SSH browser listens on.
	DefaultSSHPort = 23235
	// DefaultHTTPAddr is the listen address of the HTTP API.
	DefaultHTTPAddr = "127.0.0.1:8089"
	// DefaultDebounce coalesces bursts of file system events.
	DefaultDebounce = 500 * time.Millisecond
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidCacheDirPath is returned when a CacheDirPath value is whitespace-only.
	ErrInvalidCacheDirPath = errors.New("invalid cache dir path")
	// ErrInvalidMapping is the sentinel error wrapped by InvalidMappingError.
	ErrInvalidMapping = errors.New("invalid mapping")
	// ErrInvalidServeConfig is the sentinel error wrapped by InvalidServeConfigError.
	ErrInvalidServeConfig = errors.New("invalid serve config")
	// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
	ErrInvalidWatchConfig = errors.New("invalid watch config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of emitted log records.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// CacheDirPath represents a filesystem path to the parse cache directory.
	// The zero value ("") is valid and means "use default cache directory".
	// Non-zero values must not be whitespace-only.
	CacheDirPath string

	// InvalidCacheDirPathError is returned when a CacheDirPath value is
	// non-empty but whitespace-only.
	InvalidCacheDirPathError struct {
		Value CacheDirPath
	}

	// InvalidMappingError is returned when a mapping has no category name.
	InvalidMappingError struct {
		Index   int
		Mapping category.Mapping
	}

	// InvalidServeConfigError is returned when a ServeConfig has invalid fields.
	InvalidServeConfigError struct {
		FieldErrors []error
	}

	// InvalidWatchConfigError is returned when a WatchConfig has invalid fields.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Layout selects the initial tree layout.
		Layout tagtree.LayoutKind `json:"layout" mapstructure:"layout"`
		// Statistics selects how much counting detail labels carry.
		Statistics tagtree.Statistics `json:"statistics" mapstructure:"statistics"`
		// Include lists doublestar globs selecting documents.
		Include []string `json:"include" mapstructure:"include"`
		// Ignore lists doublestar globs excluded from discovery.
		Ignore []string `json:"ignore" mapstructure:"ignore"`
		// ModuleMarkers lists file names that mark a module root.
		ModuleMarkers []string `json:"module_markers" mapstructure:"module_markers"`
		// ContentRoots lists project-relative directories used as generic roots.
		ContentRoots []string `json:"content_roots" mapstructure:"content_roots"`
		// UseDefaultMappings enables the built-in category mappings.
		UseDefaultMappings bool `json:"use_default_mappings" mapstructure:"use_default_mappings"`
		// Mappings are the application-level category mappings.
		Mappings []category.Mapping `json:"mappings" mapstructure:"mappings"`
		// LogLevel sets the minimum log level.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
		// Watch configures the file watcher.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// Cache configures the persistent parse cache.
		Cache CacheConfig `json:"cache" mapstructure:"cache"`
		// Serve configures the HTTP API and the SSH browser.
		Serve ServeConfig `json:"serve" mapstructure:"serve"`
	}

	// WatchConfig configures the file watcher.
	WatchConfig struct {
		// Debounce is the quiet period before a batch of changes is applied.
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
		// ClearScreen clears the terminal before each re-render.
		ClearScreen bool `json:"clear_screen" mapstructure:"clear_screen"`
	}

	// CacheConfig configures the persistent parse cache.
	CacheConfig struct {
		// Enabled turns the on-disk cache on.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Dir overrides the cache directory.
		Dir CacheDirPath `json:"dir" mapstructure:"dir"`
	}

	// ServeConfig configures the network front ends.
	ServeConfig struct {
		SSHHost  string `json:"ssh_host" mapstructure:"ssh_host"`
		SSHPort  int    `json:"ssh_port" mapstructure:"ssh_port"`
		HTTPAddr string `json:"http_addr" mapstructure:"http_addr"`
	}
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels,
// and a list of validation errors if it is not.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level converts the LogLevel to a charm log level. Unknown values map to info.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the CacheDirPath.
func (p CacheDirPath) String() string { return string(p) }

// IsValid returns whether the CacheDirPath is valid.
// The zero value ("") is valid (means "use default cache directory").
// Non-zero values must not be whitespace-only.
func (p CacheDirPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidCacheDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCacheDirPathError.
func (e *InvalidCacheDirPathError) Error() string {
	return fmt.Sprintf("invalid cache dir path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidCacheDirPath for errors.Is() compatibility.
func (e *InvalidCacheDirPathError) Unwrap() error { return ErrInvalidCacheDirPath }

// Error implements the error interface for InvalidMappingError.
func (e *InvalidMappingError) Error() string {
	return fmt.Sprintf("mappings[%d]: category name must not be empty (tags %q)", e.Index, e.Mapping.Tags)
}

// Unwrap returns ErrInvalidMapping for errors.Is() compatibility.
func (e *InvalidMappingError) Unwrap() error { return ErrInvalidMapping }

// IsValid returns whether the ServeConfig has valid fields.
func (c ServeConfig) IsValid() (bool, []error) {
	var errs []error
	if c.SSHPort < 0 || c.SSHPort > 65535 {
		errs = append(errs, fmt.Errorf("ssh_port %d out of range", c.SSHPort))
	}
	if strings.TrimSpace(c.HTTPAddr) == "" && c.HTTPAddr != "" {
		errs = append(errs, fmt.Errorf("http_addr %q must not be whitespace-only", c.HTTPAddr))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidServeConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidServeConfigError.
func (e *InvalidServeConfigError) Error() string {
	return fmt.Sprintf("invalid serve config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidServeConfig for errors.Is() compatibility.
func (e *InvalidServeConfigError) Unwrap() error { return ErrInvalidServeConfig }

// IsValid returns whether the WatchConfig has valid fields.
func (c WatchConfig) IsValid() (bool, []error) {
	if c.Debounce < 0 {
		return false, []error{&InvalidWatchConfigError{
			FieldErrors: []error{fmt.Errorf("debounce %s must not be negative", c.Debounce)},
		}}
	}
	return true, nil
}

// Error implements the error interface for InvalidWatchConfigError.
func (e *InvalidWatchConfigError) Error() string {
	return fmt.Sprintf("invalid watch config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// IsValid returns whether the Config has valid fields. It delegates to the
// tree enums, every mapping, LogLevel and the nested sections.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if err := c.Layout.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Statistics.Validate(); err != nil {
		errs = append(errs, err)
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := validateMappings(c.Mappings); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Watch.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Cache.Dir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Serve.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

func validateMappings(mappings []category.Mapping) (bool, []error) {
	var errs []error
	for i, m := range mappings {
		if strings.TrimSpace(m.Category) == "" {
			errs = append(errs, &InvalidMappingError{Index: i, Mapping: m})
		}
	}
	return len(errs) == 0, errs
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Layout:             tagtree.LayoutGrouped,
		Statistics:         tagtree.StatisticsSimplified,
		Include:            []string{},
		Ignore:             []string{},
		ModuleMarkers:      []string{},
		ContentRoots:       []string{},
		UseDefaultMappings: true,
		Mappings:           []category.Mapping{},
		LogLevel:           LogLevelInfo,
		Watch: WatchConfig{
			Debounce:    DefaultDebounce,
			ClearScreen: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "", // Will use the user cache dir if empty
		},
		Serve: ServeConfig{
			SSHHost:  DefaultSSHHost,
			SSHPort:  DefaultSSHPort,
			HTTPAddr: DefaultHTTPAddr,
		},
	}
}
