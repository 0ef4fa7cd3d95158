package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CosmoTheDev/prreview-agent/internal/watch"
)

var watchSchedule string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Review PRs needing attention on a cron schedule",
	Long: `Runs an immediate sweep, then polls on a cron schedule and reviews
every pull request waiting on the authenticated user.

Example schedules:
  "*/15 * * * *"  — every 15 minutes (default)
  "0 9 * * 1-5"   — weekday mornings at 09:00
  "@hourly"       — once per hour

Configure watched repositories with 'prreview config set watch.repositories'.
Press Ctrl+C to stop.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "",
		"cron expression (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("\nStopping watch loop...")
		cancel()
	}()

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if watchSchedule != "" {
		rt.cfg.Watch.Schedule = watchSchedule
	}

	w, err := watch.New(rt.cfg, rt.engine)
	if err != nil {
		return err
	}
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
