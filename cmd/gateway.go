package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CosmoTheDev/prreview-agent/internal/gateway"
)

var gatewayPort int

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the prreview gateway daemon",
	Long: `Starts a long-running daemon exposing the review pipeline over a local
HTTP API (default: http://127.0.0.1:6280).

Quick API reference:
  GET  /health                       liveness check
  GET  /api/status                   daemon status snapshot
  GET  /api/prs                      list active pull requests
  GET  /api/prs/needing-review       list PRs waiting on you
  GET  /api/prs/{id}                 pull request details
  GET  /api/prs/{id}/changes         changed files (content-free)
  GET  /api/prs/{id}/analysis        classification, findings, packages
  POST /api/review                   run a review ({"pull_request": N, "dry_run": bool})
  POST /api/review/all               review everything needing attention
  POST /api/prs/{id}/approve         approve ({"comment": "..."})
  POST /api/prs/{id}/reject          reject ({"reason": "...", "require_changes": bool})
  GET  /api/history                  published review history`,
	RunE: runGateway,
}

func init() {
	gatewayCmd.Flags().IntVar(&gatewayPort, "port", 0,
		"HTTP port to listen on (default 6280, overrides config)")
}

func runGateway(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("\nShutting down gateway gracefully...")
		cancel()
	}()

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if gatewayPort > 0 {
		rt.cfg.Gateway.Port = gatewayPort
	}
	if rt.cfg.Gateway.Port == 0 {
		rt.cfg.Gateway.Port = 6280
	}

	fmt.Println("prreview gateway starting")
	fmt.Printf("  Provider : %s\n", rt.provider.Name())
	fmt.Printf("  API      : http://127.0.0.1:%d\n", rt.cfg.Gateway.Port)
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop gracefully.")

	gw := gateway.New(rt.cfg, rt.provider, rt.engine, rt.store)
	return gw.Start(ctx)
}
