package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/leapstack-labs/efscan/internal/server"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port    int
	NoWatch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the model over a JSON API",
		Long: `Scan the model directory and serve the result over HTTP: health,
the full manifest, per-table detail, the relationship graph, and scan
diagnostics.

By default the server watches the directory and rescans on every change,
so the API always reflects the sources on disk. A failed rescan keeps the
last good model and surfaces the error through /healthz and
/api/diagnostics. Use --no-watch to scan once and serve that snapshot.`,
		Example: `  # Serve on the default port
  efscan serve

  # Serve on port 9000 without watching
  efscan serve --port 9000 --no-watch

  # Query it
  curl localhost:8087/api/tables`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "Port to listen on (default 8087)")
	cmd.Flags().BoolVar(&opts.NoWatch, "no-watch", false, "Scan once instead of rescanning on change")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := os.Stat(cmdCtx.Cfg.Dir); err != nil {
		return fmt.Errorf("cannot serve %s: %w", cmdCtx.Cfg.Dir, err)
	}

	serveCfg := cmdCtx.Cfg.GetServeConfig()

	port := opts.Port
	if port == 0 {
		port = portFromAddr(serveCfg.Addr)
	}

	watch := serveCfg.Watch
	if opts.NoWatch {
		watch = false
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	srv := server.New(server.Config{
		Engine: cmdCtx.Engine,
		Port:   port,
		Watch:  watch,
		Logger: cmdCtx.Logger,
	})

	cmdCtx.Renderer.Printf("Serving model API on http://localhost:%d (Ctrl+C to stop)\n", port)
	return srv.Run(ctx)
}

// portFromAddr extracts the port of a listen address like ":8087".
func portFromAddr(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 8087
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 8087
	}
	return port
}
