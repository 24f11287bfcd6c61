package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/koapa/koapa"
	"github.com/koapa/koapa/internal/cli"
	"github.com/koapa/koapa/pkg/api"
	"github.com/koapa/koapa/pkg/engine"
)

var (
	serveAddr   string
	serveDryRun bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the demo routes over HTTP",
	Long: `Open the configured database and serve the demo routes:

  GET /                       hello world
  GET /create-users-table     create the users table
  GET /create-user            ?username=&password=&email=
  GET /select-all-from-users  every user
  GET /where-clause           ?username=
  GET /update-user            ?username=&password=
  GET /delete-user            ?username=

Every request gets its own query builder. The server stops gracefully on
SIGINT or SIGTERM.`,
	Example: `  # Serve on the configured address with the default SQLite file
  koapa serve

  # Serve against PostgreSQL
  KOAPA_DATABASE_DRIVER=pgx KOAPA_DATABASE_URL=postgres://localhost/app koapa serve

  # Print statements instead of running them
  koapa serve --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd.ErrOrStderr())

		ec, err := cfg.EngineConfig()
		if err != nil {
			return cli.ConfigError("resolving database settings", err)
		}

		db, err := engine.Open(cmd.Context(), ec)
		if err != nil {
			return cli.DBConnectError("connecting to database", err)
		}
		defer func() { _ = db.Close() }()

		var dryRun io.Writer
		if serveDryRun {
			dryRun = &lockedWriter{w: cmd.OutOrStdout()}
		}
		factory := func() *koapa.QueryBuilder {
			opts := cfg.BuilderOptions()
			if dryRun != nil {
				opts = append(opts, koapa.WithDryRun(dryRun))
			}
			return db.NewBuilder(opts...)
		}

		mux := http.NewServeMux()
		api.Routes(mux, factory, logger)

		addr := resolveString(serveAddr, cfg.Server.Addr)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return cli.ServerError("listening on "+addr, err)
		}

		srv := &http.Server{
			Handler:     mux,
			ReadTimeout: cfg.Server.ReadTimeout,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("serving", "addr", ln.Addr().String(), "driver", db.Driver(), "dry_run", serveDryRun)
		if err := runServer(ctx, srv, ln, cfg.Server.ShutdownTimeout, logger); err != nil {
			return cli.ServerError("serving", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().BoolVar(&serveDryRun, "dry-run", false, "print statements instead of running them")
}

// defaultShutdownTimeout applies when server.shutdown_timeout is not positive.
const defaultShutdownTimeout = 5 * time.Second

// runServer serves on ln until ctx is done, then shuts down within timeout.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, logger *slog.Logger) error {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// lockedWriter serializes dry-run output from concurrent requests.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
