// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/tagscope/tagscope/internal/category"
)

//go:embed default_mappings.toml
var defaultMappingsTOML []byte

var (
	defaultMappingsOnce sync.Once
	defaultMappings     []category.Mapping
	defaultMappingsErr  error
)

type defaultMappingsFile struct {
	Mapping []category.Mapping `toml:"mapping"`
}

// DefaultMappings returns the built-in category mappings in file order.
func DefaultMappings() ([]category.Mapping, error) {
	defaultMappingsOnce.Do(func() {
		var file defaultMappingsFile
		if err := toml.Unmarshal(defaultMappingsTOML, &file); err != nil {
			defaultMappingsErr = fmt.Errorf("internal error: failed to decode default mappings: %w", err)
			return
		}
		defaultMappings = file.Mapping
	})
	return slices.Clone(defaultMappings), defaultMappingsErr
}

// MappingScopes returns the mapping scopes in the order they are applied to
// the registry: built-in defaults, application mappings, project mappings.
// Later scopes override exact tags of earlier ones.
func MappingScopes(cfg *Config, project *ProjectFile) ([][]category.Mapping, error) {
	var scopes [][]category.Mapping
	if cfg.UseDefaultMappings {
		defaults, err := DefaultMappings()
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, defaults)
	}
	if len(cfg.Mappings) > 0 {
		scopes = append(scopes, cfg.Mappings)
	}
	if m := project.ActiveMappings(); len(m) > 0 {
		scopes = append(scopes, m)
	}
	return scopes, nil
}
