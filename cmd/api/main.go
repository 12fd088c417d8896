package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/shinyyama/centace-backend/internal/config"
	"github.com/shinyyama/centace-backend/internal/db"
	"github.com/shinyyama/centace-backend/internal/email"
	"github.com/shinyyama/centace-backend/internal/feed"
	"github.com/shinyyama/centace-backend/internal/logging"
	appmw "github.com/shinyyama/centace-backend/internal/middleware"
	"github.com/shinyyama/centace-backend/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config load error")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var broker feed.Broker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logging.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logging.Warn().Err(err).Msg("redis ping failed; live sessions will retry on subscribe")
		}
		broker = feed.NewRedisBroker(client, cfg.RedisChannelPrefix, cfg.LiveConnectTimeout)
		logging.Info().Str("prefix", cfg.RedisChannelPrefix).Msg("change feed: redis")
	} else {
		broker = feed.NewMemoryBroker(0)
		logging.Info().Msg("change feed: in-process")
	}

	authMw, err := appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID)
	if err != nil {
		logging.Warn().Err(err).Msg("firebase auth disabled")
		authMw = nil
	}

	srv, err := server.New(cfg, nil, server.Deps{
		Broker:    broker,
		Transport: email.NewTransport(cfg.SMTP),
		Auth:      authMw,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("server init error")
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("starting server")
		errCh <- srv.Start(addr)
	}()

	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			logging.Error().Err(err).Msg("db connect error")
			return
		}
		if err := db.Migrate(conn); err != nil {
			logging.Error().Err(err).Msg("auto migrate error")
		}
		srv.SetDB(conn)
		logging.Info().Msg("database ready")
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.EmailDispatchTimeout+5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("shutdown error")
		}
	}
}
