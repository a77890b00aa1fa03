package commands

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dotcommander/nowpanel/internal/app"
	"github.com/dotcommander/nowpanel/internal/host"
	"github.com/dotcommander/nowpanel/internal/notify"
	"github.com/dotcommander/nowpanel/internal/output"
	"github.com/dotcommander/nowpanel/internal/panel"
	"github.com/dotcommander/nowpanel/internal/store"
	"github.com/dotcommander/nowpanel/internal/uistate"
)

// DB is an alias so command code doesn't need to import database/sql.
type DB = sql.DB

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// The JSON error response is the output.
	return "error already printed"
}

func (e printedError) Unwrap() error { return e.err }

// cmdContext is the command's context, or Background when RunE is called
// directly.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func openDB() (*DB, func(), error) {
	dbPath, err := app.GetDBPath()
	if err != nil {
		return nil, nil, err
	}

	db, err := store.InitDBWithPath(dbPath)
	if err != nil {
		return nil, nil, err
	}

	return db, func() { _ = db.Close() }, nil
}

func withDB(fn func(db *DB) error) error {
	db, closeDB, err := openDB()
	if err != nil {
		return cmdErr(err)
	}
	defer closeDB()

	if err := fn(db); err != nil {
		return cmdErr(err)
	}
	return nil
}

// cmdErr prints the error envelope, logs the failure and marks it printed.
func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	attrs := []any{"error", err.Error()}
	type slogAttrError interface {
		SlogAttrs() []any
	}
	var detailed slogAttrError
	if errors.As(err, &detailed) {
		attrs = append(attrs, detailed.SlogAttrs()...)
	}
	slog.Error("command error", attrs...)
	_ = output.PrintError(err)
	return printedError{err: err}
}

// session is everything a panel-backed command needs: the block store as the
// document, the UI state file as the editor chrome, and a panel over both.
type session struct {
	db       *DB
	store    *store.BlockStore
	ui       *uistate.Source
	panel    *panel.Panel
	runtime  app.Runtime
	settings app.Settings
}

func openSession() (*session, func(), error) {
	settings, err := app.LoadSettings()
	if err != nil {
		return nil, nil, err
	}
	uiPath, err := app.GetUIStatePath()
	if err != nil {
		return nil, nil, err
	}
	db, closeDB, err := openDB()
	if err != nil {
		return nil, nil, err
	}

	rt := app.RuntimeFrom(settings)
	logger := slog.Default()
	bs := store.NewBlockStore(db)
	ui := uistate.NewSource(uiPath, rt.DateFormat, logger)
	p := panel.New(host.Compose(bs, ui),
		panel.WithRuntime(rt),
		panel.WithLogger(logger),
		panel.WithNotifier(buildNotifier(settings, db, logger)),
	)

	s := &session{db: db, store: bs, ui: ui, panel: p, runtime: rt, settings: settings}
	return s, func() {
		p.Stop()
		ui.Close()
		closeDB()
	}, nil
}

// withSession opens a session, waits for the store and runs fn.
func withSession(ctx context.Context, fn func(s *session) error) error {
	s, closeSession, err := openSession()
	if err != nil {
		return cmdErr(err)
	}
	defer closeSession()

	if err := host.WaitReady(ctx, s.store.Ping, s.runtime.CallTimeout); err != nil {
		return cmdErr(err)
	}
	if err := fn(s); err != nil {
		return cmdErr(err)
	}
	return nil
}

// buildNotifier always logs a toast and adds the desktop and web push
// channels the settings enable. A channel that cannot start is skipped.
func buildNotifier(s app.Settings, db *DB, logger *slog.Logger) notify.Notifier {
	out := notify.Multi{notify.Toast{Logger: logger}}
	if s.Notifications.Desktop {
		d, err := notify.NewDesktop(runtime.GOOS)
		if err != nil {
			logger.Warn("desktop notifications unavailable", "error", err)
		} else {
			out = append(out, d)
		}
	}
	if wp := s.Notifications.WebPush; wp.Enabled() {
		w, err := notify.NewWebPush(db, notify.WebPushConfig{
			PublicKey:  wp.VAPIDPublicKey,
			PrivateKey: wp.VAPIDPrivateKey,
			Subscriber: wp.Subscriber,
			TTL:        wp.TTL,
		}, logger)
		if err != nil {
			logger.Warn("web push unavailable", "error", err)
		} else {
			out = append(out, w)
		}
	}
	return out
}
