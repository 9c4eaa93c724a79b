package cli

import (
	"cmp"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowbuilder/internal/server"
	"github.com/matzehuels/flowbuilder/pkg/editor"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		origin  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve graph drafts over HTTP",
		Long: `Serve graph drafts over HTTP.

Drafts are kept in the configured store (file, redis or mongo). The API
stores, lays out, checks and snapshots drafts; see GET /healthz for status.
The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			opts, cc, err := c.editorOptions(ctx, noCache)
			if err != nil {
				return err
			}
			defer cc.Close()
			opts.Notifier = editor.LogNotifier{Logger: c.Logger}

			cfg := c.Config.Server
			srv := server.New(st, server.Options{
				Addr:          cmp.Or(addr, cfg.Addr),
				ReadTimeout:   cfg.ReadTimeout.Duration,
				WriteTimeout:  cfg.WriteTimeout.Duration,
				AllowedOrigin: origin,
				Editor:        opts,
				Logger:        c.Logger,
			})

			listen := cmp.Or(addr, cfg.Addr, server.DefaultAddr)
			printSuccess("Serving drafts from %s", c.Config.Store.String())
			printKeyValue("Address", "http://"+listen)
			printNextStep("Health", fmt.Sprintf("curl http://%s/healthz", listen))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&origin, "allow-origin", "", "CORS allowed origin for browser clients")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
