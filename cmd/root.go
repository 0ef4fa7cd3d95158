package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CosmoTheDev/prreview-agent/internal/ai"
	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/internal/history"
	"github.com/CosmoTheDev/prreview-agent/internal/hosting"
	"github.com/CosmoTheDev/prreview-agent/internal/notify"
	"github.com/CosmoTheDev/prreview-agent/internal/posting"
	"github.com/CosmoTheDev/prreview-agent/internal/review"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile  string
	verbose  bool
	repoName string
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "prreview",
	Short: "AI-powered pull request review agent",
	Long: `prreview reviews pull requests on Azure DevOps, GitHub, or GitLab:
it fetches the change set, scans it for security issues and vulnerable
dependencies, asks an AI reviewing agent for a structured verdict, and
publishes consolidated inline comments, a summary, and a vote.

Get started:
  prreview config set hosting.azure.token <pat>   Store credentials
  prreview doctor                                 Verify setup
  prreview prs                                    List PRs needing review
  prreview review <pr-id>                         Review one PR
  prreview watch                                  Review on a cron schedule
  prreview gateway                                Serve the pipeline as a REST API`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.prreview/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")
	rootCmd.PersistentFlags().StringVarP(&repoName, "repository", "r", "",
		"repository to operate on (default from config)")

	rootCmd.Version = Version
	rootCmd.AddCommand(
		reviewCmd,
		approveCmd,
		rejectCmd,
		prsCmd,
		watchCmd,
		gatewayCmd,
		doctorCmd,
		configCmd,
	)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}
}

// runtime bundles everything a review command needs.
type runtime struct {
	cfg      *config.Config
	provider hosting.Provider
	engine   *review.Engine
	store    history.Store // nil when the history store cannot be opened
}

// buildRuntime wires provider, agent, orchestrator, history, and
// notifications from the loaded config. A broken history store degrades
// to a warning; a missing provider or agent is fatal.
func buildRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	provider, err := hosting.New(cfg)
	if err != nil {
		return nil, err
	}
	agent, err := ai.New(cfg.AI)
	if err != nil {
		return nil, err
	}

	engine := review.NewEngine(cfg, provider, agent, posting.NewOrchestrator(provider, posting.NewLedger()))

	store, err := history.New(cfg.History)
	if err != nil {
		slog.Warn("history store unavailable, reviews will not be recorded", "error", err)
	} else if err := store.Migrate(ctx); err != nil {
		slog.Warn("history migration failed, reviews will not be recorded", "error", err)
		store.Close()
		store = nil
	}
	if store != nil {
		engine.SetHistory(store)
	}

	if d := notify.NewDispatcher(cfg.Notify); d.IsAnyConfigured() {
		engine.SetNotifier(d)
	}

	return &runtime{cfg: cfg, provider: provider, engine: engine, store: store}, nil
}

func (rt *runtime) Close() {
	if rt.store != nil {
		rt.store.Close()
	}
}

func (rt *runtime) repo() models.Repository {
	return hosting.DefaultRepository(rt.cfg, repoName)
}
