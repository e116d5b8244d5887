// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tagscope/tagscope/internal/httpapi"
	"github.com/tagscope/tagscope/internal/issue"
	"github.com/tagscope/tagscope/internal/sshserver"
)

// serveFlagValues holds the flags of `tagscope serve`.
type serveFlagValues struct {
	layout         string
	sshHost        string
	sshPort        int
	httpAddr       string
	noSSH          bool
	noHTTP         bool
	hostKey        string
	authorizedKeys string
}

var errNothingToServe = errors.New("--no-ssh and --no-http leave nothing to serve")

// newServeCommand creates the `tagscope serve` command.
func newServeCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &serveFlagValues{}

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve the live tag tree over SSH and HTTP",
		Long: `Index a project, keep the index current while documents change and
serve it to several clients at once.

  SSH   every connection gets its own tree browser (ssh -p 23235 localhost)
  HTTP  JSON API under /v1, Prometheus metrics under /metrics

Both listeners bind to the loopback interface unless configured otherwise.`,
		Example: `  tagscope serve
  tagscope serve --no-ssh --http-addr :8080
  tagscope serve --authorized-keys ~/.ssh/authorized_keys --ssh-host 0.0.0.0`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), app, rootFlags, cmd, flags, dirArg(args))
		},
	}

	cmd.Flags().StringVar(&flags.layout, "layout", "", "initial tree layout: flat or grouped")
	cmd.Flags().StringVar(&flags.sshHost, "ssh-host", "", "SSH listen host (default from configuration)")
	cmd.Flags().IntVar(&flags.sshPort, "ssh-port", 0, "SSH listen port (default from configuration)")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", "", "HTTP listen address (default from configuration)")
	cmd.Flags().BoolVar(&flags.noSSH, "no-ssh", false, "do not start the SSH browser")
	cmd.Flags().BoolVar(&flags.noHTTP, "no-http", false, "do not start the HTTP API")
	cmd.Flags().StringVar(&flags.hostKey, "host-key", "", "SSH host key file, created when missing (default: ephemeral key)")
	cmd.Flags().StringVar(&flags.authorizedKeys, "authorized-keys", "", "only accept SSH clients listed in this file")

	return cmd
}

// stoppable is a started front end.
type stoppable interface {
	Stop() error
	Err() <-chan error
}

func runServe(ctx context.Context, app *App, rootFlags *rootFlagValues, cmd *cobra.Command, flags *serveFlagValues, dir string) error {
	if flags.noSSH && flags.noHTTP {
		return errNothingToServe
	}
	layout, err := parseLayout(flags.layout)
	if err != nil {
		return err
	}

	p, err := app.openProject(ctx, rootFlags, openOptions{dir: dir, layout: layout})
	if err != nil {
		return err
	}
	defer p.Close()

	g, gctx := errgroup.WithContext(ctx)
	if err := p.startLive(gctx, g, liveOptions{}); err != nil {
		return err
	}

	var servers []stoppable
	stopAll := func() {
		for _, srv := range servers {
			if stopErr := srv.Stop(); stopErr != nil {
				p.logger.Warn("failed to stop server", "error", stopErr)
			}
		}
	}
	defer stopAll()

	if !flags.noSSH {
		sshCfg := sshserver.DefaultConfig()
		sshCfg.Host = firstNonEmpty(flags.sshHost, p.cfg.Serve.SSHHost)
		sshCfg.Port = p.cfg.Serve.SSHPort
		if cmd.Flags().Changed("ssh-port") {
			sshCfg.Port = flags.sshPort
		}
		sshCfg.HostKeyPath = flags.hostKey
		sshCfg.AuthorizedKeysPath = flags.authorizedKeys
		sshCfg.Statistics = p.cfg.Statistics
		sshCfg.Logger = p.logger.WithPrefix("ssh")
		sshCfg.Recorder = p.recorder

		srv := sshserver.New(sshCfg, p.session)
		if err := srv.Start(gctx); err != nil {
			return serverStartError("SSH browser", fmt.Sprintf("%s:%d", sshCfg.Host, sshCfg.Port), err)
		}
		servers = append(servers, srv)
		fmt.Fprintf(app.stdout, "%s SSH browser listening on %s (ssh -p %d %s)\n",
			SuccessStyle.Render("✓"), CmdStyle.Render(srv.Address()), srv.Port(), srv.Host())
	}

	if !flags.noHTTP {
		httpCfg := httpapi.DefaultConfig()
		httpCfg.Addr = firstNonEmpty(flags.httpAddr, p.cfg.Serve.HTTPAddr)
		httpCfg.Gatherer = p.metrics
		httpCfg.Recorder = p.recorder
		httpCfg.Logger = p.logger.WithPrefix("http")

		srv := httpapi.New(httpCfg, p.session)
		if err := srv.Start(gctx); err != nil {
			return serverStartError("HTTP API", httpCfg.Addr, err)
		}
		servers = append(servers, srv)
		fmt.Fprintf(app.stdout, "%s HTTP API listening on %s\n",
			SuccessStyle.Render("✓"), CmdStyle.Render("http://"+srv.Address()))
	}

	fmt.Fprintf(app.stdout, "%s Serving %s (Ctrl+C to stop)\n",
		ArrowStyle.Render("→"), CmdStyle.Render(p.workspace.ProjectRoot()))

	for _, srv := range servers {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			case err, ok := <-srv.Err():
				if !ok || err == nil {
					return nil
				}
				return err
			}
		})
	}

	return g.Wait()
}

func serverStartError(name, addr string, err error) error {
	return issue.NewErrorContext().
		WithOperation("start " + name).
		WithResource(addr).
		WithSuggestion("Check that no other process listens on the address").
		WithSuggestion("Choose another address with --ssh-port, --http-addr or the serve section of your configuration").
		WithIssue(issue.ServerStartFailedId).
		Wrap(err).
		BuildError()
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
