package config

// Config is the root configuration structure for prreview.
// Serialised to ~/.prreview/config.json.
type Config struct {
	Hosting HostingConfig `mapstructure:"hosting" json:"hosting"`
	AI      AIConfig      `mapstructure:"ai"      json:"ai"`
	Review  ReviewConfig  `mapstructure:"review"  json:"review"`
	History HistoryConfig `mapstructure:"history" json:"history"`
	Notify  NotifyConfig  `mapstructure:"notify"  json:"notify"`
	Gateway GatewayConfig `mapstructure:"gateway" json:"gateway"`
	Watch   WatchConfig   `mapstructure:"watch"   json:"watch"`
}

// HostingConfig holds credentials for each supported PR hosting platform.
type HostingConfig struct {
	// Provider selects the default platform: azure (default), github, gitlab.
	Provider string       `mapstructure:"provider" json:"provider"`
	Azure    AzureConfig  `mapstructure:"azure"    json:"azure"`
	GitHub   GitHubConfig `mapstructure:"github"   json:"github"`
	GitLab   GitLabConfig `mapstructure:"gitlab"   json:"gitlab"`
}

// AzureConfig holds credentials for an Azure DevOps organisation.
type AzureConfig struct {
	Token   string `mapstructure:"token"   json:"token"`
	Org     string `mapstructure:"org"     json:"org"`
	Project string `mapstructure:"project" json:"project"`
	// Host allows Azure DevOps Server (default: dev.azure.com).
	Host string `mapstructure:"host" json:"host"`
}

// GitHubConfig holds credentials for a GitHub instance.
type GitHubConfig struct {
	Token string `mapstructure:"token" json:"token"`
	// Host allows enterprise GitHub (e.g. github.mycompany.com).
	Host string `mapstructure:"host" json:"host"`
}

// GitLabConfig holds credentials for a GitLab instance.
type GitLabConfig struct {
	Token string `mapstructure:"token" json:"token"`
	Host  string `mapstructure:"host" json:"host"`
}

// AIConfig controls the reviewing agent provider.
type AIConfig struct {
	// Provider is "anthropic" (default), "openai", or "ollama".
	Provider     string `mapstructure:"provider"          json:"provider"`
	AnthropicKey string `mapstructure:"anthropic_api_key" json:"anthropic_api_key"`
	OpenAIKey    string `mapstructure:"openai_api_key"    json:"openai_api_key"`
	Model        string `mapstructure:"model"             json:"model"`
	// BaseURL overrides the API endpoint (Azure OpenAI, proxies).
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// OllamaURL is used when Provider == "ollama".
	OllamaURL string `mapstructure:"ollama_url" json:"ollama_url"`
	// Fallback lists providers tried in order when the primary is down.
	Fallback []string `mapstructure:"fallback" json:"fallback"`
}

// ReviewConfig holds review policy knobs.
type ReviewConfig struct {
	// CustomPromptFile replaces all per-category instruction selection
	// when set.
	CustomPromptFile string `mapstructure:"custom_prompt_file" json:"custom_prompt_file"`
	// BugfixKeywords in the PR title/description mark it as a bug fix,
	// which then requires at least one test-category change.
	BugfixKeywords []string `mapstructure:"bugfix_keywords" json:"bugfix_keywords"`
	// RequireTestsForBugfix enables the missing-tests policy comment.
	RequireTestsForBugfix bool `mapstructure:"require_tests_for_bugfix" json:"require_tests_for_bugfix"`
	// CloneFallback fetches full file content via a shallow git clone
	// when the hosting content API fails.
	CloneFallback bool `mapstructure:"clone_fallback" json:"clone_fallback"`
	// OSVEnrich queries api.osv.dev for advisories beyond the built-in
	// table. Best-effort, never blocks a review.
	OSVEnrich bool `mapstructure:"osv_enrich" json:"osv_enrich"`
}

// HistoryConfig controls the review-history store.
type HistoryConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path" json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn" json:"dsn"`
}

// NotifyConfig controls notification channels fired on published reviews.
type NotifyConfig struct {
	// MinSeverity gates notifications: critical (default), major, minor.
	MinSeverity string              `mapstructure:"min_severity" json:"min_severity"`
	Slack       SlackNotifyConfig   `mapstructure:"slack"        json:"slack"`
	Email       EmailNotifyConfig   `mapstructure:"email"        json:"email"`
	Webhook     WebhookNotifyConfig `mapstructure:"webhook"      json:"webhook"`
}

// SlackNotifyConfig configures the Slack webhook channel.
type SlackNotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url"`
	Channel    string `mapstructure:"channel"     json:"channel"`
}

// EmailNotifyConfig configures SMTP delivery.
type EmailNotifyConfig struct {
	Host     string   `mapstructure:"host"     json:"host"`
	Port     int      `mapstructure:"port"     json:"port"`
	Username string   `mapstructure:"username" json:"username"`
	Password string   `mapstructure:"password" json:"password"`
	From     string   `mapstructure:"from"     json:"from"`
	To       []string `mapstructure:"to"       json:"to"`
}

// WebhookNotifyConfig configures a generic JSON POST channel.
type WebhookNotifyConfig struct {
	URL string `mapstructure:"url" json:"url"`
}

// GatewayConfig controls the persistent gateway daemon.
type GatewayConfig struct {
	// Port is the localhost HTTP port the gateway listens on (default: 6280).
	Port int `mapstructure:"port" json:"port"`
}

// WatchConfig controls the scheduled review loop.
type WatchConfig struct {
	// Schedule is a cron expression (default: every 15 minutes).
	Schedule string `mapstructure:"schedule" json:"schedule"`
	// Repositories lists repo names to poll; empty means the configured
	// default repository only.
	Repositories []string `mapstructure:"repositories" json:"repositories"`
}
