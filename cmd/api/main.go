package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/market-backend/internal/auth"
	"github.com/shinyyama/market-backend/internal/cache"
	"github.com/shinyyama/market-backend/internal/config"
	"github.com/shinyyama/market-backend/internal/db"
	"github.com/shinyyama/market-backend/internal/events"
	"github.com/shinyyama/market-backend/internal/mailer"
	"github.com/shinyyama/market-backend/internal/media"
	"github.com/shinyyama/market-backend/internal/server"
)

// Set with -ldflags at build time.
var (
	sha       = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[redis] ping failed addr=%s err=%v", cfg.RedisAddr, err)
	}

	var publisher events.Publisher = events.Noop{}
	var kafka *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, 256)
		kafka.Start()
		publisher = kafka
	} else {
		log.Printf("[events] KAFKA_BROKERS empty, events are dropped")
	}

	store, closeStore, err := media.New(ctx, cfg.StorageBucket, cfg.GCPCredentialsFile)
	if err != nil {
		log.Fatalf("media store error: %v", err)
	}

	mail, err := mailer.New(cfg)
	if err != nil {
		log.Fatalf("mailer error: %v", err)
	}

	social, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID)
	if errors.Is(err, auth.ErrSocialNotConfigured) {
		social = auth.DisabledVerifier{}
	} else if err != nil {
		log.Fatalf("firebase init error: %v", err)
	}

	srv := server.New(server.Deps{
		Config:    cfg,
		DB:        conn,
		Cache:     cache.NewRedis(rdb),
		Media:     store,
		Mailer:    mail,
		Social:    social,
		Events:    publisher,
		SHA:       sha,
		BuildTime: buildTime,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Printf("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if kafka != nil {
		kafka.Close()
		kafka.WaitClosed()
	}
	if err := closeStore(); err != nil {
		log.Printf("media close error: %v", err)
	}
	if err := rdb.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
