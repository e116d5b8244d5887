// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tagscope/tagscope/internal/category"
	"github.com/tagscope/tagscope/internal/issue"
)

// ProjectFileName is the per-project configuration file, read from the
// project root.
const ProjectFileName = ".tagscope.cue"

//go:embed project_schema.cue
var projectSchema string

// ProjectFile is the per-project configuration.
type ProjectFile struct {
	// UseProjectMappings gates whether Mappings are applied at all.
	UseProjectMappings bool `json:"use_project_mappings,omitempty"`
	// Mappings are applied after the application mappings.
	Mappings []category.Mapping `json:"mappings,omitempty"`
	// Path is the file the values were read from; empty when absent.
	Path string `json:"-"`
}

// LoadProject reads the project file under root. A missing file yields an
// empty ProjectFile and no error.
func LoadProject(root string) (*ProjectFile, error) {
	path := filepath.Join(root, ProjectFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ProjectFile{}, nil
	}
	if err != nil {
		return nil, issue.WrapWithContext(err, "read project configuration", path)
	}

	var project ProjectFile
	if err := decodeFile(projectSchema, "#Project", data, path, &project); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load project configuration").
			WithResource(path).
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion(fmt.Sprintf("Only use_project_mappings and mappings are allowed in %s", ProjectFileName)).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	project.Path = path
	return &project, nil
}

// ActiveMappings returns the project mappings when they are enabled.
func (p *ProjectFile) ActiveMappings() []category.Mapping {
	if p == nil || !p.UseProjectMappings {
		return nil
	}
	return p.Mappings
}
