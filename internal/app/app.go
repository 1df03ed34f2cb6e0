// Package app wires notesd: settings, logging, storage, the session Engine
// and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	goNotes "github.com/MrEthical07/goNotes"
	"github.com/MrEthical07/goNotes/internal/httpapi"
	promexport "github.com/MrEthical07/goNotes/metrics/export/prometheus"
	"github.com/MrEthical07/goNotes/store/memory"
	"github.com/MrEthical07/goNotes/store/migrations"
	"github.com/MrEthical07/goNotes/store/mysql"
	"github.com/MrEthical07/goNotes/store/postgres"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type storage interface {
	goNotes.UserStore
	goNotes.NoteStore
}

// App owns every long-lived resource of the server process.
type App struct {
	settings Settings
	log      zerolog.Logger

	engine  *goNotes.Engine
	handler http.Handler

	rdb       redis.UniversalClient
	embedded  *miniredis.Miniredis
	closeRepo func() error
}

// New opens storage and Redis and builds the Engine. On error every resource
// opened so far is released.
func New(ctx context.Context, s Settings, cfg goNotes.Config, log zerolog.Logger) (*App, error) {
	a := &App{settings: s, log: log, closeRepo: func() error { return nil }}
	if err := a.init(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, cfg goNotes.Config) error {
	repo, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	if err := a.openRedis(ctx); err != nil {
		return err
	}

	builder := goNotes.New().
		WithConfig(cfg).
		WithRedis(a.rdb).
		WithUserStore(repo).
		WithNoteStore(repo).
		WithLogger(a.log.With().Str("component", "engine").Logger()).
		WithMetricsEnabled(a.settings.MetricsEnabled)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(goNotes.NewLogSink(a.log))
	}
	a.engine, err = builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	var metrics http.Handler
	if a.settings.MetricsEnabled {
		metrics = promexport.Handler(promexport.NewCollector(a.engine))
	}
	a.handler = httpapi.New(a.engine, a.log, httpapi.Options{
		Metrics:           metrics,
		TrustForwardedFor: a.settings.TrustForwardedFor,
	})
	return nil
}

func (a *App) openStorage(ctx context.Context) (storage, error) {
	switch a.settings.DatabaseDriver {
	case DriverPostgres:
		st, err := postgres.Open(ctx, a.settings.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closeRepo = st.Close
		if err := migrations.Up(ctx, st.DB(), migrations.Postgres); err != nil {
			return nil, err
		}
		return st, nil
	case DriverMySQL:
		st, err := mysql.Open(ctx, a.settings.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closeRepo = st.Close
		if err := migrations.Up(ctx, st.DB(), migrations.MySQL); err != nil {
			return nil, err
		}
		return st, nil
	default:
		a.log.Warn().Msg("using in-memory storage; data is lost on exit")
		return memory.New(nil), nil
	}
}

// openRedis connects to REDIS_ADDR or starts an embedded miniredis when it is
// empty. Rotation touches two keys in one script, so a single node is
// required.
func (a *App) openRedis(ctx context.Context) error {
	addr := strings.TrimSpace(a.settings.RedisAddr)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("embedded redis: %w", err)
		}
		a.embedded = mr
		addr = mr.Addr()
		a.log.Warn().Str("addr", addr).Msg("REDIS_ADDR not set; using embedded miniredis")
	}

	a.rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Handler returns the routed HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Engine returns the session engine.
func (a *App) Engine() *goNotes.Engine { return a.engine }

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.settings.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.settings.HTTPAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: a.settings.ReadHeaderTimeout,
		ReadTimeout:       a.settings.ReadTimeout,
		WriteTimeout:      a.settings.WriteTimeout,
		IdleTimeout:       a.settings.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	a.log.Info().
		Str("addr", ln.Addr().String()).
		Str("database", a.settings.DatabaseDriver).
		Bool("metrics", a.settings.MetricsEnabled).
		Msg("server.start")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("server.stop")
	case err := <-errCh:
		if err != nil {
			a.log.Error().Err(err).Msg("server.fail")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.settings.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("server.shutdown.fail")
		return err
	}
	a.log.Info().Msg("server.stopped")
	return nil
}

// Close releases the Engine, Redis and storage. It is safe to call on a
// partially constructed App.
func (a *App) Close() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.embedded != nil {
		a.embedded.Close()
	}
	if a.closeRepo != nil {
		if err := a.closeRepo(); err != nil {
			a.log.Error().Err(err).Msg("store.close.fail")
		}
	}
}
