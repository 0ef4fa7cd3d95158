// Package watch polls the hosting provider on a cron schedule and reviews
// every pull request waiting on the authenticated user.
package watch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/internal/hosting"
	"github.com/CosmoTheDev/prreview-agent/internal/review"
	"github.com/CosmoTheDev/prreview-agent/models"
)

const defaultSchedule = "*/15 * * * *"

// Watcher runs the review engine against every watched repository on a
// cron schedule.
type Watcher struct {
	cfg    *config.Config
	engine *review.Engine
	cron   *cron.Cron
	repos  []models.Repository
}

// New builds a Watcher from the watch config section. An empty repository
// list means the configured default repository only.
func New(cfg *config.Config, engine *review.Engine) (*Watcher, error) {
	names := cfg.Watch.Repositories
	if len(names) == 0 {
		names = []string{""}
	}
	repos := make([]models.Repository, 0, len(names))
	for _, name := range names {
		repos = append(repos, hosting.DefaultRepository(cfg, name))
	}
	return &Watcher{
		cfg:    cfg,
		engine: engine,
		cron:   cron.New(),
		repos:  repos,
	}, nil
}

// Run sweeps once immediately, then on every cron tick until ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	schedule := w.cfg.Watch.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}
	if _, err := w.cron.AddFunc(schedule, func() {
		w.Sweep(ctx)
	}); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
	}

	slog.Info("watch loop started", "schedule", schedule, "repositories", len(w.repos))
	w.Sweep(ctx)
	w.cron.Start()

	<-ctx.Done()
	stopped := w.cron.Stop()
	<-stopped.Done()
	return ctx.Err()
}

// Sweep reviews every PR needing attention across the watched
// repositories. Failures are logged per repository and never abort the
// sweep.
func (w *Watcher) Sweep(ctx context.Context) {
	for _, repo := range w.repos {
		results, err := w.engine.ReviewAll(ctx, repo)
		if err != nil {
			slog.Error("sweep failed", "repository", repo.Name, "error", err)
			continue
		}
		published := 0
		for _, res := range results {
			if !res.Posting.Duplicate {
				published++
			}
		}
		slog.Info("sweep finished",
			"repository", repo.Name,
			"reviewed", len(results),
			"published", published)
	}
}
