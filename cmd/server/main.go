package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/skill-strike-backend/internal/auth"
	"github.com/DoyleJ11/skill-strike-backend/internal/catalog"
	"github.com/DoyleJ11/skill-strike-backend/internal/config"
	"github.com/DoyleJ11/skill-strike-backend/internal/httpapi"
	"github.com/DoyleJ11/skill-strike-backend/internal/hub"
	"github.com/DoyleJ11/skill-strike-backend/internal/logging"
	"github.com/DoyleJ11/skill-strike-backend/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cards, err := catalog.Load(cfg.DeckFile)
	if err != nil {
		return err
	}
	logger.Info("deck loaded", zap.Int("cards", len(cards)), zap.String("file", cfg.DeckFile))

	var st store.Store = store.NewMemory()
	if cfg.DatabaseURL != "" {
		st, err = store.OpenPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("DATABASE_URL not set, games live in memory only")
	}
	defer st.Close()

	authority := auth.NewAuthority(cfg.AuthSecret, cfg.AuthTTL)
	if authority.DevMode() {
		logger.Warn("AUTH_SECRET not set, trusting client supplied player ids")
	}

	h := hub.NewHub(ctx, st, logger)

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(&httpapi.Server{
		Hub:    h,
		Auth:   authority,
		Rules:  cfg.Rules(),
		Cards:  cards,
		Logger: logger,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		<-h.Done()
		return err
	})
	return g.Wait()
}
