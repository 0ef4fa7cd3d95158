// Package gateway is the long-running daemon exposing the review pipeline
// over a localhost REST API: PR listing, per-stage analysis, full reviews,
// approve/reject shortcuts, and the review history.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/internal/history"
	"github.com/CosmoTheDev/prreview-agent/internal/hosting"
	"github.com/CosmoTheDev/prreview-agent/internal/review"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// Gateway serves the review pipeline over HTTP.
type Gateway struct {
	cfg      *config.Config
	provider hosting.Provider
	engine   *review.Engine
	store    history.Store // may be nil

	mu              sync.Mutex
	startedAt       time.Time
	reviewsRun      int
	reviewsFailed   int
	lastReviewAt    time.Time
	lastReviewError string
}

// New creates a Gateway. Call Start() to begin serving.
func New(cfg *config.Config, provider hosting.Provider, engine *review.Engine, store history.Store) *Gateway {
	return &Gateway{
		cfg:       cfg,
		provider:  provider,
		engine:    engine,
		store:     store,
		startedAt: time.Now(),
	}
}

// Start serves until ctx is cancelled. The listener binds to localhost
// only; the gateway has no authentication of its own.
func (gw *Gateway) Start(ctx context.Context) error {
	port := gw.cfg.Gateway.Port
	if port == 0 {
		port = 6280
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	srv := &http.Server{
		Addr:    addr,
		Handler: buildHandler(gw),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("gateway: listening", "addr", "http://"+addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// repoFromRequest resolves the repository named in the "repository" query
// parameter, falling back to the configured default.
func (gw *Gateway) repoFromRequest(r *http.Request) models.Repository {
	return hosting.DefaultRepository(gw.cfg, r.URL.Query().Get("repository"))
}

func (gw *Gateway) recordRun(err error) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	gw.reviewsRun++
	gw.lastReviewAt = time.Now()
	if err != nil {
		gw.reviewsFailed++
		gw.lastReviewError = err.Error()
	} else {
		gw.lastReviewError = ""
	}
}
