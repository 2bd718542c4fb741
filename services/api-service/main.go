package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"safe-haven/pkg/config"
	"safe-haven/pkg/database"
	"safe-haven/pkg/logger"
	"safe-haven/pkg/mailer"
	"safe-haven/pkg/objectstore"
	"safe-haven/pkg/queue"
	"safe-haven/services/api-service/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	var log *zap.Logger
	var closeLog func()
	if cfg.Log.File != "" {
		log, closeLog = logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File,
			cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays)
	} else {
		log, closeLog = logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	defer closeLog()

	if cfg.JWT.Secret == "" {
		log.Fatal("APP_JWT_SECRET must be set")
	}

	db, err := database.Connect(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal("failed to connect to mongo", zap.Error(err))
	}
	log.Info("connected to mongo", zap.String("database", cfg.Mongo.Database))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		cancel()
		log.Fatal("failed to ensure indexes", zap.Error(err))
	}
	cancel()

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.Queue.URI != "" {
		conn, ch, err := queue.Connect(cfg.Queue.URI)
		if err != nil {
			log.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer conn.Close()
		defer ch.Close()
		events = queue.NewChannelPublisher(ch)
		log.Info("connected to rabbitmq", zap.String("queue", cfg.Queue.Name))
	} else {
		log.Warn("no queue configured; incident events disabled")
	}

	var photos objectstore.Store
	if cfg.ObjectStore.Endpoint != "" {
		photos, err = objectstore.NewMinio(context.Background(), cfg.ObjectStore)
		if err != nil {
			log.Fatal("failed to connect to object storage", zap.Error(err))
		}
		log.Info("connected to object storage", zap.String("bucket", cfg.ObjectStore.Bucket))
	} else {
		log.Warn("no object storage configured; photo uploads disabled")
	}

	app := NewApp(
		cfg,
		log,
		store.NewMongoUserStore(db),
		store.NewMongoIncidentStore(db),
		store.NewMongoArchiveStore(db),
		mailer.NewSMTP(cfg.SMTP),
		events,
		photos,
	)
	app.ping = func(ctx context.Context) error {
		return db.Client().Ping(ctx, nil)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      app.Routes(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.HTTP.IdleTimeoutSec) * time.Second,
	}

	log.Info("api service listening", zap.Int("port", cfg.HTTP.Port))
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
