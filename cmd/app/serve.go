package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"colourwars/internal/config"
	"colourwars/internal/db"
	httpServer "colourwars/internal/http"
	"colourwars/internal/logger"
	"colourwars/internal/repository"
	"colourwars/internal/service"
	"colourwars/internal/ws"

	"github.com/gin-gonic/gin"
)

func runServe() error {
	cfg := config.Load(envFiles...)

	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Get()

	service.InitJWT(cfg.JWTSecret)

	ctx := context.Background()
	accounts := service.NewAccountService(nil)
	if cfg.GuestMode() {
		log.Warn("DATABASE_URL not set, running in guest mode")
	} else if pool, err := db.Connect(ctx, cfg.DatabaseURL); err != nil {
		log.Error("accounts database unreachable, running in guest mode", "error", err)
	} else {
		defer pool.Close()
		var store service.AccountStore = repository.NewUserRepository(pool)

		if cfg.RedisURL != "" {
			rdb, err := repository.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				log.Warn("leaderboard cache disabled", "error", err)
			} else {
				defer rdb.Close()
				store = repository.NewCachedStore(store, rdb, cfg.LeaderboardCacheTTL)
				log.Info("leaderboard cache enabled", "ttl", cfg.LeaderboardCacheTTL)
			}
		}
		accounts = service.NewAccountService(store)
	}

	hub := ws.NewHub(accounts, ws.Options{
		Rows:        cfg.BoardRows,
		Cols:        cfg.BoardCols,
		TurnBudget:  cfg.TurnBudget,
		FinishGrace: cfg.FinishGrace,
		AIMoveDelay: cfg.AIMoveDelay,
	})
	go hub.Run()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpServer.NewRouter(hub, accounts, httpServer.RouterConfig{
		AllowedOrigin:   cfg.AllowedOrigin,
		ClientRateLimit: cfg.ClientRateLimit,
		ClientRateBurst: cfg.ClientRateBurst,
		Version:         Version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version, "guest_mode", !accounts.Available())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		log.Error("listen failed", "error", err)
		hub.Stop()
		return err
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	hub.Stop()

	log.Info("server exited")
	return nil
}
