package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/auth"
	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/config"
	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/database"
	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/gateway"
	"github.com/aleksei-klak-polimi/MeshPlay-Lab/internal/pubsub"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// --- Infrastructure ---

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	rdb, err := pubsub.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	tokenSvc := auth.NewTokenService(cfg.JWTSecret, database.NewUserLookup(pool))

	// --- Gateway ---

	publisher := pubsub.NewPublisher(cfg.RedisPrefix)
	publisher.Init(rdb)

	gw := gateway.New(tokenSvc, publisher)
	gw.Router().Register("chat", gateway.Forward(publisher, pubsub.ChannelChatIncoming))
	gw.Router().Register("game", gateway.Forward(publisher, pubsub.ChannelGameIncoming))
	gw.Router().Register("system", gateway.System(gw.Registry()))

	subscriber := pubsub.NewSubscriber(rdb, cfg.RedisPrefix, gw.Registry())
	if err := subscriber.Start(ctx); err != nil {
		log.Fatalf("redis subscriber: %v", err)
	}
	gw.BindSubscriber(subscriber)
	gw.Start()

	// --- Echo ---

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.GET("/", gw.HandleWebSocket)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Web Socket server is running.")
	})

	// --- Start ---

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("gateway-ws starting", "addr", cfg.ServerAddr, "env", cfg.Env)
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-sigCtx.Done()
	slog.Info("shutting down")
	gw.Shutdown()
	if err := e.Shutdown(context.Background()); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
