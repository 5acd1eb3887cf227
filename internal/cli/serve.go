package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/postdesk/internal/app"
	"github.com/raysh454/postdesk/internal/demoserver"
	"github.com/raysh454/postdesk/internal/frontend"
	"github.com/raysh454/postdesk/internal/logging"
	"github.com/raysh454/postdesk/internal/metrics"
	"github.com/raysh454/postdesk/internal/presenter"
	"github.com/raysh454/postdesk/internal/tui"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newServeCommand(o *options) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web page with the form, action buttons and live display",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.ListenAddr = listen
			}
			logger := o.logger(cfg, o.errOut)

			hub := frontend.NewHub()
			a := app.NewApplication(cfg, logger, hub, metrics.New())
			srv := frontend.NewServer(a, hub, logger).HTTPServer(cfg.Server.ListenAddr)

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("frontend listening",
					logging.Field{Key: "addr", Value: cfg.Server.ListenAddr},
					logging.Field{Key: "base_url", Value: cfg.BaseURL})
				fmt.Fprintf(o.out, "postdesk listening on %s (target %s)\n", cfg.Server.ListenAddr, cfg.BaseURL)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				shutdown(a)
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return errors.Join(srv.Shutdown(shutdownCtx), a.Shutdown(shutdownCtx))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default "+app.DefaultConfig().Server.ListenAddr+")")
	return cmd
}

func newTUICommand(o *options) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal front-end",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}

			// The alternate screen owns the terminal, so logs go to a file or nowhere.
			var w io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				w = f
			}

			sink := presenter.NewChan()
			a := app.NewApplication(cfg, o.logger(cfg, w), sink, nil)
			defer shutdown(a)

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return tui.Run(ctx, a, sink.C(), cfg.BaseURL)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")
	return cmd
}

func newDemoCommand(o *options) *cobra.Command {
	var (
		port int
		db   string
		seed int
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a local posts collection to point postdesk at",
		Long: `demo serves /posts and /posts/{id} backed by SQLite, plus /status/{code}
which answers with any status code. With no --db the data lives in memory.`,
		Example: `  postdesk demo --port 9999
  postdesk --base-url http://localhost:9999/posts run fetch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			dc := cfg.Demo
			if cmd.Flags().Changed("port") {
				dc.Port = port
			}
			if cmd.Flags().Changed("db") {
				dc.DBPath = db
			}
			if cmd.Flags().Changed("seed") {
				dc.SeedPosts = seed
			}
			if dc.Port < 1 || dc.Port > 65535 {
				return fmt.Errorf("invalid port %d", dc.Port)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			srv, err := demoserver.NewDemoServer(ctx, dc, o.logger(cfg, o.errOut))
			if err != nil {
				return err
			}
			defer srv.Close()

			fmt.Fprintf(o.out, "posts collection on http://localhost:%d/posts\n", dc.Port)
			return srv.Start(ctx)
		},
	}
	d := demoserver.DefaultConfig()
	cmd.Flags().IntVar(&port, "port", d.Port, "listen port")
	cmd.Flags().StringVar(&db, "db", d.DBPath, "SQLite file (empty for in-memory)")
	cmd.Flags().IntVar(&seed, "seed", d.SeedPosts, "posts to create when the store is empty")
	return cmd
}
