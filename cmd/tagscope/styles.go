// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tagscope/tagscope/internal/render"
)

// Message styles use the tree palette so command output and rendered
// trees agree on color.
var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(render.ColorPrimary)
	SubtitleStyle = lipgloss.NewStyle().Foreground(render.ColorMuted)
	SuccessStyle  = lipgloss.NewStyle().Foreground(render.ColorSuccess)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(render.ColorError)
	WarningStyle  = lipgloss.NewStyle().Foreground(render.ColorWarning)

	// CmdStyle highlights tag names, paths and commands.
	CmdStyle = lipgloss.NewStyle().Foreground(render.ColorHighlight)

	// VerboseStyle is for supplementary detail printed with --verbose.
	VerboseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	// ArrowStyle marks progress lines such as "→ Watching for changes".
	ArrowStyle = lipgloss.NewStyle().Foreground(render.ColorHighlight)
)
