package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ukydev/maintenance-tracker/internal/config"
	"github.com/ukydev/maintenance-tracker/internal/db"
	"github.com/ukydev/maintenance-tracker/internal/lifecycle"
	"github.com/ukydev/maintenance-tracker/internal/notify"
	"github.com/ukydev/maintenance-tracker/internal/reminder"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	dbPath   string
	logLevel string
	envFile  string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:          "maintctl",
		Short:        "maintctl - vehicle maintenance log",
		Long:         "maintctl records completed service, plans upcoming work and shows what is due.",
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default: $XDG_DATA_HOME/maintenance-tracker/maintenance.db)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional .env file")

	cmd.AddCommand(newVehicleCmd(opts))
	cmd.AddCommand(newAddCmd(opts))
	cmd.AddCommand(newPlanCmd(opts))
	cmd.AddCommand(newEditCmd(opts))
	cmd.AddCommand(newRmCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newTokenCmd(opts))

	return cmd
}

// session is an open engine plus the resources backing it.
type session struct {
	engine *lifecycle.Engine
	log    *logrus.Logger
	close  func()
}

// openSession opens the SQLite store and builds the engine. Reminders go to Redis
// when REDIS_ADDR is set and are otherwise discarded with the process.
func openSession(cmd *cobra.Command, opts *globalOptions) (*session, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, err
	}
	log, err := config.NewLogger(opts.logLevel, "text")
	if err != nil {
		return nil, err
	}
	log.SetOutput(cmd.ErrOrStderr())

	path := opts.dbPath
	if path == "" {
		path = cfg.SQLitePath
	}
	store, err := db.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	closers := []func(){func() { _ = store.Close(context.Background()) }}

	var notifier reminder.Notifier
	if cfg.RedisAddr != "" {
		client, err := notify.NewRedisClient(notify.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			_ = store.Close(context.Background())
			return nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		notifier = notify.NewRedisNotifier(client, "maintenance").WithLogger(log)
	} else {
		log.Debug("REDIS_ADDR not set, reminders are not persisted")
		notifier = notify.NewMemoryNotifier()
	}

	return &session{
		engine: lifecycle.New(store, reminder.NewScheduler(notifier), lifecycle.WithLogger(log)),
		log:    log,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

// parseDate accepts YYYY-MM-DD (UTC midnight) or RFC 3339.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD or RFC 3339)", s)
	}
	return t, nil
}
