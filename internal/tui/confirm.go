// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("user aborted")

// ConfirmOptions configures Confirm.
type ConfirmOptions struct {
	Title       string
	Description string
	// Affirmative and Negative label the two answers; "Yes" and "No" when empty.
	Affirmative string
	Negative    string
	// Default is the preselected answer.
	Default bool
	Config  Config
}

// Confirm prompts the user to confirm an action. It returns ErrCancelled
// when the prompt is aborted.
func Confirm(opts ConfirmOptions) (bool, error) {
	affirmative := opts.Affirmative
	if affirmative == "" {
		affirmative = "Yes"
	}
	negative := opts.Negative
	if negative == "" {
		negative = "No"
	}

	result := opts.Default
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(opts.Title).
			Description(opts.Description).
			Affirmative(affirmative).
			Negative(negative).
			Value(&result),
	))

	if err := opts.Config.apply(form).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, ErrCancelled
		}
		return false, fmt.Errorf("confirm prompt: %w", err)
	}
	return result, nil
}
