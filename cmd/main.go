package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/maintenance-tracker/internal/auth"
	"github.com/ukydev/maintenance-tracker/internal/config"
	"github.com/ukydev/maintenance-tracker/internal/db"
	"github.com/ukydev/maintenance-tracker/internal/handlers"
	"github.com/ukydev/maintenance-tracker/internal/lifecycle"
	"github.com/ukydev/maintenance-tracker/internal/middleware"
	"github.com/ukydev/maintenance-tracker/internal/notify"
	"github.com/ukydev/maintenance-tracker/internal/reminder"
)

const shutdownTimeout = 10 * time.Second

// reminderQueue is a notifier the dispatcher can drain.
type reminderQueue interface {
	reminder.Notifier
	notify.Queue
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

// run serves the API and dispatches reminders until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = notify.NewRedisClient(notify.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer redisClient.Close()
		log.WithField("addr", cfg.RedisAddr).Info("Connected to Redis")
	}

	var (
		queue   reminderQueue
		counter middleware.Counter
	)
	if redisClient != nil {
		queue = notify.NewRedisNotifier(redisClient, "maintenance").WithLogger(log)
		counter = middleware.NewRedisCounter(redisClient)
	} else {
		log.Warn("REDIS_ADDR not set, reminders and rate limits are kept in memory")
		queue = notify.NewMemoryNotifier()
		counter = middleware.NewMemoryCounter()
	}

	publisher, closePublisher, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	engine := lifecycle.New(store, reminder.NewScheduler(queue), lifecycle.WithLogger(log))
	authMW := middleware.NewAuthMiddleware(auth.NewService(cfg.JWTSecret, cfg.JWTExpiry))
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, using the development secret")
	}
	router := handlers.NewRouter(engine, authMW, handlers.RateLimit{
		Limiter:     middleware.NewRateLimitMiddleware(counter, log),
		MaxRequests: cfg.RateLimitMax,
		Window:      cfg.RateLimitWindow,
	}, log)

	dispatcher := notify.NewDispatcher(queue, publisher, cfg.DispatchInterval, log)
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		dispatcher.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	<-dispatchDone
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (db.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		store, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.SQLitePath).Info("Opened SQLite database")
		return store, nil
	case config.StoreMemory:
		log.Warn("Using the in-memory store, data is lost on exit")
		return db.NewMemoryStore(), nil
	default:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		store := db.NewMongoStore(client, cfg.MongoDB)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(context.Background())
			return nil, err
		}
		log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
		return store, nil
	}
}

func openPublisher(cfg *config.Config, log logrus.FieldLogger) (notify.Publisher, func(), error) {
	if cfg.MQTTBroker == "" {
		return notify.NewLogPublisher(log), func() {}, nil
	}
	pub, err := notify.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("broker", cfg.MQTTBroker).Info("Connected to MQTT broker")
	return pub, pub.Close, nil
}
