package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and manage prreview configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		// Redact secrets.
		if cfg.Hosting.Azure.Token != "" {
			cfg.Hosting.Azure.Token = "***"
		}
		if cfg.Hosting.GitHub.Token != "" {
			cfg.Hosting.GitHub.Token = "ghp-***"
		}
		if cfg.Hosting.GitLab.Token != "" {
			cfg.Hosting.GitLab.Token = "glpat-***"
		}
		if cfg.AI.OpenAIKey != "" {
			cfg.AI.OpenAIKey = "sk-***"
		}
		if cfg.AI.AnthropicKey != "" {
			cfg.AI.AnthropicKey = "sk-ant-***"
		}
		if cfg.Notify.Email.Password != "" {
			cfg.Notify.Email.Password = "***"
		}
		if cfg.History.DSN != "" {
			cfg.History.DSN = "***"
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.ConfigPath(cfgFile)
		if err != nil {
			return err
		}
		fmt.Println(p)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Sets one configuration key and writes the file back.

Examples:
  prreview config set hosting.provider azure
  prreview config set hosting.azure.token <pat>
  prreview config set hosting.azure.org myorg
  prreview config set ai.provider anthropic
  prreview config set ai.anthropic_api_key sk-ant-...`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.ConfigPath(cfgFile)
		if err != nil {
			return err
		}
		v := viper.New()
		v.SetConfigFile(p)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			// A missing file is fine; it gets created on write.
			if _, statErr := os.Stat(p); statErr == nil {
				return fmt.Errorf("reading config: %w", err)
			}
		}
		v.Set(args[0], args[1])
		if err := v.WriteConfigAs(p); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("Set %s in %s\n", args[0], p)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.ConfigPath(cfgFile)
		if err != nil {
			return err
		}
		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "nano"
		}
		fmt.Printf("Opening %s with %s...\n", p, editor)
		c := exec.Command(editor, p) // #nosec G204 -- editor is from $EDITOR env var, intentional user-controlled binary
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configSetCmd, configEditCmd)
}
