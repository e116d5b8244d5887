// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tagscope/tagscope/internal/document"
	"github.com/tagscope/tagscope/internal/engine"
	"github.com/tagscope/tagscope/internal/issue"
	"github.com/tagscope/tagscope/internal/render"
	"github.com/tagscope/tagscope/internal/tagtree"
	"github.com/tagscope/tagscope/internal/tui"
)

const tagMarker = "@"

// tagsRemoveFlagValues holds the flags of `tagscope tags remove`.
type tagsRemoveFlagValues struct {
	yes    bool
	dryRun bool
}

// newTagsCommand creates the `tagscope tags` command tree.
func newTagsCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Inspect and edit tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	removeFlags := &tagsRemoveFlagValues{}
	removeCmd := &cobra.Command{
		Use:   "remove <tag> [dir]",
		Short: "Delete a tag from every document that carries it",
		Long: `Delete every occurrence of a tag from the documents of a project.

Tag lines (Gherkin) and meta lines (JBehave) left empty are removed; all
other lines are written back unchanged. The documents are listed and a
confirmation is requested before anything is written.`,
		Example: `  tagscope tags remove wip
  tagscope tags remove @flaky ./specs --yes
  tagscope tags remove smoke --dry-run`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTagsRemove(cmd.Context(), app, rootFlags, removeFlags, args[0], dirArg(args[1:]))
		},
	}
	removeCmd.Flags().BoolVarP(&removeFlags.yes, "yes", "y", false, "do not ask for confirmation")
	removeCmd.Flags().BoolVar(&removeFlags.dryRun, "dry-run", false, "only list the documents that would change")

	var dir string
	categoryCmd := &cobra.Command{
		Use:   "category <tag>...",
		Short: "Show the category each tag is assigned to",
		Long: `Show the category each tag is assigned to by the active mappings.
Tags that no mapping matches belong to the Other category.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTagsCategory(cmd.Context(), app, rootFlags, dir, args)
		},
	}
	categoryCmd.Flags().StringVar(&dir, "dir", "", "project directory whose mappings apply (default: current directory)")

	tagsCmd.AddCommand(removeCmd, categoryCmd)
	return tagsCmd
}

func runTagsRemove(ctx context.Context, app *App, rootFlags *rootFlagValues, flags *tagsRemoveFlagValues, tagArg, dir string) error {
	name := strings.TrimPrefix(tagArg, tagMarker)
	if name == "" {
		return fmt.Errorf("invalid tag %q", tagArg)
	}

	p, err := app.openProject(ctx, rootFlags, openOptions{dir: dir, quiet: true})
	if err != nil {
		return err
	}
	defer p.Close()

	var ids []document.ID
	p.session.View(func(e *engine.Engine) {
		ids = e.DocumentsWithTag(name)
	})
	if len(ids) == 0 {
		return tagNotFoundError(name, p.workspace.ProjectRoot())
	}

	root := p.workspace.ProjectRoot()
	fmt.Fprintf(app.stdout, "%s %s appears in %d document(s):\n",
		ArrowStyle.Render("→"), CmdStyle.Render(tagMarker+name), len(ids))
	for _, id := range ids {
		fmt.Fprintf(app.stdout, "  %s\n", render.RelativePath(id, root))
	}

	if flags.dryRun {
		fmt.Fprintf(app.stdout, "%s Dry run, nothing was changed\n", WarningStyle.Render("!"))
		return nil
	}

	if !flags.yes {
		confirmCfg := tui.DefaultConfig()
		confirmCfg.Input = app.stdin
		ok, confirmErr := tui.Confirm(tui.ConfirmOptions{
			Title:       fmt.Sprintf("Remove %s from %d document(s)?", tagMarker+name, len(ids)),
			Description: "The documents are rewritten in place.",
			Affirmative: "Remove",
			Negative:    "Keep",
			Config:      confirmCfg,
		})
		if errors.Is(confirmErr, tui.ErrCancelled) {
			return &ExitError{Code: ExitCancelled, Err: confirmErr}
		}
		if confirmErr != nil {
			return confirmErr
		}
		if !ok {
			fmt.Fprintf(app.stdout, "%s Nothing was changed\n", WarningStyle.Render("!"))
			return nil
		}
	}

	var (
		changed []document.ID
		removed int
		errs    []error
	)
	for _, id := range ids {
		n, removeErr := document.RemoveTag(id, name)
		if removeErr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", render.RelativePath(id, root), removeErr))
			continue
		}
		if n > 0 {
			changed = append(changed, id)
			removed += n
		}
	}

	if len(changed) > 0 {
		if _, applyErr := p.session.Apply(ctx, changed...); applyErr != nil {
			errs = append(errs, applyErr)
		}
	}

	fmt.Fprintf(app.stdout, "%s Removed %d occurrence(s) of %s from %d document(s)\n",
		SuccessStyle.Render("✓"), removed, CmdStyle.Render(tagMarker+name), len(changed))

	if len(errs) > 0 {
		return issue.NewErrorContext().
			WithOperation("remove tag " + tagMarker + name).
			WithResource(root).
			WithSuggestion("Check the permissions of the listed documents").
			WithIssue(issue.DocumentUnreadableId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}
	return nil
}

func runTagsCategory(ctx context.Context, app *App, rootFlags *rootFlagValues, dir string, tags []string) error {
	p, err := app.openProject(ctx, rootFlags, openOptions{dir: dir, quiet: true})
	if err != nil {
		return err
	}
	defer p.Close()

	var out []string
	p.session.View(func(e *engine.Engine) {
		for _, arg := range tags {
			name := strings.TrimPrefix(arg, tagMarker)
			cat, mapped := e.Registry().CategoryOf(name)
			if !mapped {
				out = append(out, fmt.Sprintf("%s\t%s", tagMarker+name, SubtitleStyle.Render(tagtree.OtherCategory)))
				continue
			}
			out = append(out, fmt.Sprintf("%s\t%s", tagMarker+name, SuccessStyle.Render(cat)))
		}
	})
	for _, line := range out {
		fmt.Fprintln(app.stdout, line)
	}
	return nil
}

func tagNotFoundError(name, root string) error {
	return issue.NewErrorContext().
		WithOperation("find tag " + tagMarker + name).
		WithResource(root).
		WithSuggestion("Tag names are case sensitive").
		WithSuggestion("List every tag with 'tagscope tree --layout flat'").
		WithIssue(issue.TagNotFoundId).
		Wrap(fmt.Errorf("tag %s not found", tagMarker+name)).
		BuildError()
}
