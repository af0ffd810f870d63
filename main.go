package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stevemurr/gwconsole/config"
	"github.com/stevemurr/gwconsole/handler"
	"github.com/stevemurr/gwconsole/logging"
	"github.com/stevemurr/gwconsole/metrics"
	"github.com/stevemurr/gwconsole/records"
	"github.com/stevemurr/gwconsole/schema"
	"github.com/stevemurr/gwconsole/store"
)

// app is the state shared by every command once the root command has read
// the configuration.
type app struct {
	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var backend, dataDir, logLevel string

	root := &cobra.Command{
		Use:           "gwconsole",
		Short:         "gwconsole - managed record lists of the gateway console",
		Long:          "gwconsole serves the VPN, SIP and RADIUS list pages of the gateway console and edits them offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if backend != "" {
				cfg.Backend = backend
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger
			return nil
		},
	}

	root.PersistentFlags().StringVar(&backend, "backend", "", "Store backend: json, sqlite, postgres, s3 or memory (env STORE_BACKEND)")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory of the json and sqlite backends (env DATA_DIR)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (env LOG_LEVEL)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newListsCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newAddCmd(a))
	root.AddCommand(newEditCmd(a))
	root.AddCommand(newDeleteCmd(a))
	root.AddCommand(newClearCmd(a))
	return root
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	s, err := store.New(ctx, a.cfg.Backend, a.cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open store (backend=%s): %w", a.cfg.Backend, err)
	}
	return s, nil
}

func (a *app) openList(ctx context.Context, slot store.Store, name string, opts ...records.Option) (*records.List, error) {
	s, ok := schema.Preset(name)
	if !ok {
		return nil, fmt.Errorf("unknown list %q (available: %s)", name, strings.Join(schema.Presets(), ", "))
	}
	opts = append([]records.Option{records.WithLogger(a.log.With().Str("component", "records").Logger())}, opts...)
	return records.Open(ctx, name, s, slot, opts...)
}

// corsMiddleware wraps an http.Handler with CORS headers.
func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	// Fast path: wildcard allows everything.
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowAll {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			for _, o := range allowedOrigins {
				if o == origin {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
					break
				}
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the lists over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			slot, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer slot.Close()

			m, err := metrics.New(prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			var lists []*records.List
			for _, name := range a.cfg.ListNames() {
				l, err := a.openList(ctx, slot, name, records.WithObserver(m))
				if err != nil {
					return err
				}
				lists = append(lists, l)
			}

			h := handler.New(lists,
				handler.WithLogger(a.log.With().Str("component", "http").Logger()),
				handler.WithGatherer(prometheus.DefaultGatherer),
			)
			srv := &http.Server{
				Addr:              a.cfg.Addr(),
				Handler:           corsMiddleware(h, a.cfg.AllowedOrigins),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				a.log.Info().
					Str("addr", srv.Addr).
					Str("store", a.cfg.Backend).
					Str("data", a.cfg.DataDir).
					Strs("lists", a.cfg.ListNames()).
					Msg("gateway console starting")
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info().Msg("shutdown signal received, stopping server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			for _, l := range lists {
				if l.View().Dirty {
					if err := l.Flush(shutdownCtx); err != nil {
						a.log.Error().Err(err).Str("list", l.Name()).Msg("unsaved changes lost")
					}
				}
			}
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
