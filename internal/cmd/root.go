package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sndbox/httpd/pkg/config"
	"github.com/sndbox/httpd/pkg/httpd"
	"github.com/sndbox/httpd/pkg/logging"
	"github.com/sndbox/httpd/pkg/version"
)

var (
	configPath  string
	port        int
	workers     int
	debug       bool
	showVersion bool
	cfg         *config.Config
)

// NewRootCmd creates the root command for httpd
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   version.AppName,
		Short: version.Description,
		Long: fmt.Sprintf(`%s - %s

A connection-per-request HTTP server: /hello returns a greeting,
/headers echoes the request headers, anything else is a 404.
`, version.AppName, version.Description),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg = config.LoadOrDefault(configPath)
			} else {
				cfg = config.Default()
			}

			// Flags override the config file
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("workers") {
				cfg.Server.Workers = workers
			}

			logging.InitGlobalLogger(debug, cfg)
			if debug {
				logging.Debug("Debug logging enabled")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
				return nil
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 8090, "TCP port to listen on (overrides config)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "Worker pool size, 0 means number of CPUs (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version information")

	return rootCmd
}

// runServer binds the listener, prints the listening banner and serves
// until a quit signal cancels the context.
func runServer(ctx context.Context, cfg *config.Config) error {
	router := httpd.NewRouter()
	router.Handle("/hello", httpd.HelloHandler)
	router.Handle("/headers", httpd.HeadersHandler)

	srv := httpd.NewServer(cfg, router, logging.WithComponent("httpd"))
	if err := srv.Listen(); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(os.Stdout, "Listening on http://%s\n", srv.Addr())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		return ctx.Err()
	})

	g.Go(func() error {
		return srv.Serve(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info("Server stopped")
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
