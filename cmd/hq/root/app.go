package root

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"habitquest/internal/config"
	"habitquest/internal/logger"
	"habitquest/internal/notify"
	"habitquest/internal/reconcile"
	"habitquest/internal/remote"
	"habitquest/internal/storage"
	"habitquest/internal/ui"
)

type app struct {
	cfg *config.Config
	rec *reconcile.Reconciler
}

// openApp loads config and wires the local store, the optional remote store
// and the reconciler. The returned cleanup closes both stores.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	db, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	local := storage.NewStore(db, storage.Options{WriteWorkers: cfg.WriteWorkers, Logger: log})
	closers := []closer{{"local store", local.Close}}

	var rs remote.Store
	if cfg.Online() {
		mongo, err := remote.Connect(ctx, remote.MongoOptions{
			URI:      cfg.Remote.URI,
			Database: cfg.Remote.Database,
			Timeout:  cfg.Remote.Timeout,
			Logger:   log,
		})
		if err != nil {
			logger.LogError("Remote store unavailable, running local-only", err)
		} else {
			rs = mongo
			closers = append(closers, closer{"remote store", func() error {
				return mongo.Close(context.Background())
			}})
		}
	}
	cleanup := func() { closeAll(closers) }

	sink := notify.Multi{
		&notify.WriterSink{W: cmd.OutOrStdout(), Render: ui.Notification},
		notify.LogSink{Logger: log},
	}
	rec, err := reconcile.New(local, reconcile.Options{
		Remote:   rs,
		Location: loc,
		Sink:     sink,
		Logger:   log,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.LogSystem("Stores ready", slog.Bool("online", rs != nil), slog.String("db", cfg.DBPath))
	return &app{cfg: cfg, rec: rec}, cleanup, nil
}

type closer struct {
	name  string
	close func() error
}

// closeAll closes in reverse opening order. Every closer runs even when an
// earlier one fails.
func closeAll(closers []closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].close(); err != nil {
			logger.LogError("Close "+closers[i].name, err)
		}
	}
}

// withApp runs fn with an open app bound to the command context.
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, cleanup, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		return fn(ctx, cmd, a, args)
	}
}

// settle turns a remote-only failure into a warning. Local state is already
// committed, so the command still succeeds.
func settle(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	var pe *reconcile.PendingError
	if errors.As(err, &pe) {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Warn.Render(ui.IconWarn+" "+pe.Op+" saved locally; run `hq sync push` once the remote store is reachable"))
		slog.Warn("Remote write deferred", slog.String("type", "sync"), slog.String("op", pe.Op), slog.Any("error", pe.Err))
		return nil
	}
	switch {
	case errors.Is(err, reconcile.ErrAuthRequired):
		return fmt.Errorf("%w: run `hq login <username> <email>` first", err)
	case errors.Is(err, storage.ErrConstraintViolation):
		return fmt.Errorf("%w: still referenced by tasks", err)
	}
	return err
}
