// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
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

	"github.com/sirupsen/logrus"

	"github.com/Himansh-u2000/QPlan/internal/assistant"
	"github.com/Himansh-u2000/QPlan/internal/config"
	"github.com/Himansh-u2000/QPlan/internal/database"
	"github.com/Himansh-u2000/QPlan/internal/handler"
	"github.com/Himansh-u2000/QPlan/internal/logging"
	"github.com/Himansh-u2000/QPlan/internal/service"
	"github.com/Himansh-u2000/QPlan/internal/store"
	"github.com/Himansh-u2000/QPlan/internal/store/memory"
	mongostore "github.com/Himansh-u2000/QPlan/internal/store/mongo"
	"github.com/Himansh-u2000/QPlan/internal/store/postgres"
)

func main() {
	ctx := context.Background()

	// ── 1. Configuration and logging ─────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	// ── 2. Open the document store ───────────────────────────────────────
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).WithField("backend", cfg.StoreBackend).Fatal("open store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.WithError(err).Warn("close store")
		}
	}()
	log.WithField("backend", cfg.StoreBackend).Info("store ready")

	// ── 3. Wire up layers ────────────────────────────────────────────────
	catalog := service.NewCatalogService(st, log)
	workflow := service.NewRequestWorkflow(st, log)

	if cfg.SeedDemoData {
		n, err := catalog.SeedDemoResources(ctx)
		if err != nil {
			log.WithError(err).Fatal("seed demo resources")
		}
		log.WithField("created", n).Info("demo resources seeded")
	}

	var answers assistant.AnswerService = assistant.Unconfigured{}
	if cfg.Assistant.APIKey != "" {
		answers = assistant.NewOpenAIService(cfg.Assistant)
	} else {
		log.Warn("OPENAI_KEY not set, assistant will answer with the fallback text")
	}

	h := handler.New(catalog, workflow, assistant.New(answers, log), cfg.AdminIdentity, log)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      h.Routes(cfg.AllowedOrigin),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down server")
	case err := <-errCh:
		log.WithError(err).Error("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		return
	}
	log.Info("server stopped")
}

// openStore connects the backend named by STORE_BACKEND and prepares its
// schema or indexes.
func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return postgres.NewStore(pool), nil

	case config.BackendMongo:
		client, err := database.OpenMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		ms := mongostore.NewStore(client, cfg.Mongo.Database)
		if err := ms.EnsureIndexes(ctx); err != nil {
			_ = ms.Close(ctx)
			return nil, err
		}
		return ms, nil

	case config.BackendMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
