package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"laptopstore/pkg/policy"
	"laptopstore/pkg/token"
)

func main() {
	cfg := loadConfig()

	// Support a lightweight migrate command: `./laptopstore migrate`
	// It runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB(cfg)
		fmt.Println("migration and seeding completed")
		return
	}

	initDB(cfg)

	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer logger.Sync()

	store := token.NewStore(db)
	signer := token.NewSigner([]byte(cfg.JWTSecret))
	tokens = token.NewService(signer, store, cfg.TokenTTL, cfg.MaxTokensPerUser, logger)

	authPolicy = policy.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.PolicyFile != "" {
		rules, err := policy.LoadFile(cfg.PolicyFile)
		if err != nil {
			log.Fatal("failed to load policy file:", err)
		}
		authPolicy.Replace(rules)
		go func() {
			if err := policy.Watch(ctx, cfg.PolicyFile, authPolicy, logger); err != nil {
				logger.Warn("policy watcher stopped", zap.Error(err))
			}
		}()
	}

	cleaner := token.NewCleaner(store, cfg.CleanupInterval, cfg.CleanupGrace, logger)
	go cleaner.Run(ctx)

	r := gin.Default()
	setupRoutes(r)
	// The catalog backend is an external collaborator. Mount its routes here
	// once an implementation is wired in:
	//
	//	registerCatalogRoutes(r, cat)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}
