package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CosmoTheDev/prreview-agent/internal/ai"
	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/internal/history"
	"github.com/CosmoTheDev/prreview-agent/internal/hosting"
	"github.com/CosmoTheDev/prreview-agent/internal/notify"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify hosting credentials, AI provider, and history store",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	allOK := true

	fmt.Println("=== prreview doctor ===")
	fmt.Println()

	// Hosting provider credentials.
	fmt.Print("Hosting provider ......... ")
	provider, err := hosting.New(cfg)
	if err != nil {
		fmt.Printf("FAIL (%s)\n", err)
		allOK = false
	} else {
		fmt.Printf("OK (%s)\n", provider.Name())
	}

	// Connectivity: listing PRs needs a repository to target.
	if provider != nil {
		fmt.Print("Hosting connectivity ..... ")
		repo := hosting.DefaultRepository(cfg, repoName)
		if repo.Name == "" {
			fmt.Println("skipped (pass --repository to test a live listing)")
		} else if _, err := provider.ListPullRequests(ctx, repo, "active"); err != nil {
			fmt.Printf("FAIL (%s)\n", err)
			allOK = false
		} else {
			fmt.Println("OK")
		}
	}

	// AI reviewing agent.
	fmt.Print("AI provider .............. ")
	agent, err := ai.New(cfg.AI)
	switch {
	case err != nil:
		fmt.Printf("FAIL (%s)\n", err)
		allOK = false
	case !agent.IsAvailable(ctx):
		fmt.Printf("WARN (%s configured but not reachable)\n", agent.Name())
		allOK = false
	default:
		fmt.Printf("OK (%s)\n", agent.Name())
	}

	// History store.
	fmt.Print("History store ............ ")
	store, err := history.New(cfg.History)
	if err != nil {
		fmt.Printf("FAIL (%s)\n", err)
		allOK = false
	} else {
		if err := store.Ping(ctx); err != nil {
			fmt.Printf("FAIL (%s)\n", err)
			allOK = false
		} else {
			fmt.Printf("OK (%s)\n", store.Driver())
		}
		store.Close()
	}

	// Notifications are optional; report without failing.
	fmt.Print("Notifications ............ ")
	if notify.NewDispatcher(cfg.Notify).IsAnyConfigured() {
		fmt.Println("OK (configured)")
	} else {
		fmt.Println("disabled (optional)")
	}

	fmt.Println()
	if !allOK {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("All checks passed.")
	return nil
}
