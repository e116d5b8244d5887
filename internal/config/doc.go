// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/tagscope/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/tagscope/config.cue on macOS, %APPDATA%\tagscope\config.cue
// on Windows), then overridden by TAGSCOPE_* environment variables. A project may carry its
// own category mappings in a .tagscope.cue file at its root.
//
// Category mappings are layered: the built-in defaults (default_mappings.toml), then the
// application mappings, then the project mappings. See MappingScopes.
//
// Both files are validated against embedded CUE schemas (config_schema.cue and
// project_schema.cue).
package config
