// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tagscope/tagscope/internal/config"
)

// newConfigCommand creates the `tagscope config` command tree.
// Subcommands that read configuration use the App's config provider.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tagscope configuration",
		Long: `Manage tagscope configuration.

Configuration is stored in:
  - Linux: ~/.config/tagscope/config.cue
  - macOS: ~/Library/Application Support/tagscope/config.cue
  - Windows: %APPDATA%\tagscope\config.cue

Per-project category mappings live in .tagscope.cue at the project root.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, rootFlags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app, rootFlags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, rootFlags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			_, err = io.WriteString(app.stdout, config.GenerateCUE(cfg))
			return err
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, rootFlags *rootFlagValues) error {
	cfg, cfgPath, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := app.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfgPath != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfgPath)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("layout"), valueStyle.Render(cfg.Layout.String()))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("statistics"), valueStyle.Render(string(cfg.Statistics)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("log_level"), valueStyle.Render(cfg.LogLevel.String()))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("use_default_mappings"), valueStyle.Render(fmt.Sprintf("%v", cfg.UseDefaultMappings)))

	for _, list := range []struct {
		name   string
		values []string
	}{
		{"include", cfg.Include},
		{"ignore", cfg.Ignore},
		{"module_markers", cfg.ModuleMarkers},
		{"content_roots", cfg.ContentRoots},
	} {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", keyStyle.Render(list.name))
		if len(list.values) == 0 {
			fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(built-in defaults)"))
			continue
		}
		for _, v := range list.values {
			fmt.Fprintf(w, "  - %s\n", valueStyle.Render(v))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("mappings"))
	if len(cfg.Mappings) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
	}
	for _, m := range cfg.Mappings {
		fmt.Fprintf(w, "  - %s: %s\n", valueStyle.Render(m.Category), m.Tags)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("watch"))
	fmt.Fprintf(w, "  debounce: %s\n", valueStyle.Render(cfg.Watch.Debounce.String()))
	fmt.Fprintf(w, "  clear_screen: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Watch.ClearScreen)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("cache"))
	fmt.Fprintf(w, "  enabled: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Cache.Enabled)))
	cacheDir, dirErr := config.CacheDir(cfg.Cache.Dir)
	if dirErr == nil {
		fmt.Fprintf(w, "  dir: %s\n", valueStyle.Render(cacheDir))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("serve"))
	fmt.Fprintf(w, "  ssh_host: %s\n", valueStyle.Render(cfg.Serve.SSHHost))
	fmt.Fprintf(w, "  ssh_port: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Serve.SSHPort)))
	fmt.Fprintf(w, "  http_addr: %s\n", valueStyle.Render(cfg.Serve.HTTPAddr))

	return nil
}

func initConfig(app *App, rootFlags *rootFlagValues) error {
	path, err := config.FilePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return err
	}

	created, err := config.CreateDefaultConfig(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}

	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App, rootFlags *rootFlagValues) error {
	path, err := config.FilePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, path)
	return nil
}
