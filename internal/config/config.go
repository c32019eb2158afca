package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when the text-generation credential is absent.
var ErrMissingAPIKey = errors.New("gemini API key is required")

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	Logging    Logging    `mapstructure:"logging"`
	Gemini     Gemini     `mapstructure:"gemini"`
	Output     Output     `mapstructure:"output"`
	Catalog    Catalog    `mapstructure:"catalog"`
	Generation Generation `mapstructure:"generation"`
	Sources    Sources    `mapstructure:"sources"`
	Dedup      Dedup      `mapstructure:"dedup"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	ConfigFile string `mapstructure:"config_file"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Gemini holds text-generation service configuration
type Gemini struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
	Timeout     string  `mapstructure:"timeout"`
}

// Output holds document store configuration
type Output struct {
	Directory string `mapstructure:"directory"`
	Extension string `mapstructure:"extension"`
}

// Catalog points at the topic catalog file. An empty path selects the
// built-in catalog.
type Catalog struct {
	Path string `mapstructure:"path"`
}

// Generation holds batch and prompt settings
type Generation struct {
	Topic             string `mapstructure:"topic"`
	MaxAttemptsFactor int    `mapstructure:"max_attempts_factor"`
	Pause             string `mapstructure:"pause"`
	MinWords          int    `mapstructure:"min_words"`
	MaxWords          int    `mapstructure:"max_words"`
	Voice             string `mapstructure:"voice"`
}

// Sources holds configuration for the trend source clients
type Sources struct {
	UserAgent  string           `mapstructure:"user_agent"`
	Timeout    string           `mapstructure:"timeout"`
	GitHub     GitHubSource     `mapstructure:"github"`
	HackerNews HackerNewsSource `mapstructure:"hackernews"`
	DevTo      DevToSource      `mapstructure:"devto"`
	Reddit     RedditSource     `mapstructure:"reddit"`
	Feeds      FeedSource       `mapstructure:"feeds"`
}

// GitHubSource configures the repository search client
type GitHubSource struct {
	BaseURL      string `mapstructure:"base_url"`
	PerPage      int    `mapstructure:"per_page"`
	LookbackDays int    `mapstructure:"lookback_days"`
}

// HackerNewsSource configures the top stories client
type HackerNewsSource struct {
	BaseURL string `mapstructure:"base_url"`
	Limit   int    `mapstructure:"limit"`
}

// DevToSource configures the developer article client
type DevToSource struct {
	BaseURL string `mapstructure:"base_url"`
	PerPage int    `mapstructure:"per_page"`
	TopDays int    `mapstructure:"top_days"`
	Tag     string `mapstructure:"tag"`
}

// RedditSource configures the community hot posts client
type RedditSource struct {
	BaseURL   string `mapstructure:"base_url"`
	Subreddit string `mapstructure:"subreddit"`
	Limit     int    `mapstructure:"limit"`
}

// FeedSource lists optional RSS/Atom feeds
type FeedSource struct {
	URLs  []string `mapstructure:"urls"`
	Limit int      `mapstructure:"limit"`
}

// Dedup tunes the duplicate detector
type Dedup struct {
	MinFirstTokenLen int `mapstructure:"min_first_token_len"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".trendpress")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.SetEnvPrefix("TRENDPRESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = viper.ConfigFileUsed()

	postProcessConfig(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.max_tokens", 8192)
	viper.SetDefault("gemini.temperature", 0.8)
	viper.SetDefault("gemini.timeout", "120s")

	viper.SetDefault("output.directory", "posts")
	viper.SetDefault("output.extension", ".md")

	viper.SetDefault("catalog.path", "")

	viper.SetDefault("generation.topic", "")
	viper.SetDefault("generation.max_attempts_factor", 3)
	viper.SetDefault("generation.pause", "2s")
	viper.SetDefault("generation.min_words", 700)
	viper.SetDefault("generation.max_words", 1200)
	viper.SetDefault("generation.voice", "a pragmatic senior engineer writing for working developers: concrete, direct, no hype")

	viper.SetDefault("sources.user_agent", "trendpress/1.0 (+https://github.com/trendpress/trendpress)")
	viper.SetDefault("sources.timeout", "15s")
	viper.SetDefault("sources.github.base_url", "https://api.github.com")
	viper.SetDefault("sources.github.per_page", 10)
	viper.SetDefault("sources.github.lookback_days", 7)
	viper.SetDefault("sources.hackernews.base_url", "https://hacker-news.firebaseio.com")
	viper.SetDefault("sources.hackernews.limit", 5)
	viper.SetDefault("sources.devto.base_url", "https://dev.to")
	viper.SetDefault("sources.devto.per_page", 10)
	viper.SetDefault("sources.devto.top_days", 7)
	viper.SetDefault("sources.reddit.base_url", "https://www.reddit.com")
	viper.SetDefault("sources.reddit.subreddit", "programming")
	viper.SetDefault("sources.reddit.limit", 10)
	viper.SetDefault("sources.feeds.urls", []string{})
	viper.SetDefault("sources.feeds.limit", 10)

	viper.SetDefault("dedup.min_first_token_len", 0)
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("gemini.model", []string{
		"GEMINI_MODEL",
	})

	// Forced topic for single runs
	bindEnvKeys("generation.topic", []string{
		"TOPIC",
		"TRENDPRESS_TOPIC",
	})

	bindEnvKeys("output.directory", []string{
		"POSTS_DIR",
	})

	bindEnvKeys("logging.level", []string{
		"LOG_LEVEL",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) {
	if config.Output.Directory != "" {
		config.Output.Directory = expandPath(config.Output.Directory)
	}
	if config.Catalog.Path != "" {
		config.Catalog.Path = expandPath(config.Catalog.Path)
	}
	if config.Output.Extension != "" && !strings.HasPrefix(config.Output.Extension, ".") {
		config.Output.Extension = "." + config.Output.Extension
	}
	if config.App.Debug {
		config.Logging.Level = "debug"
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// Validate checks value ranges. It does not require credentials; commands
// that call the text-generation service use RequireGemini.
func (c *Config) Validate() error {
	var problems []string

	durations := map[string]string{
		"gemini.timeout":   c.Gemini.Timeout,
		"generation.pause": c.Generation.Pause,
		"sources.timeout":  c.Sources.Timeout,
	}
	for key, duration := range durations {
		if duration == "" {
			continue
		}
		if d, err := time.ParseDuration(duration); err != nil || d < 0 {
			problems = append(problems, fmt.Sprintf("invalid duration for %s: %s", key, duration))
		}
	}

	positives := map[string]int{
		"generation.max_attempts_factor": c.Generation.MaxAttemptsFactor,
		"sources.github.per_page":        c.Sources.GitHub.PerPage,
		"sources.hackernews.limit":       c.Sources.HackerNews.Limit,
		"sources.devto.per_page":         c.Sources.DevTo.PerPage,
		"sources.reddit.limit":           c.Sources.Reddit.Limit,
	}
	for key, v := range positives {
		if v < 1 {
			problems = append(problems, fmt.Sprintf("%s must be at least 1, got %d", key, v))
		}
	}

	if c.Generation.MinWords > c.Generation.MaxWords {
		problems = append(problems, fmt.Sprintf("generation.min_words (%d) exceeds generation.max_words (%d)", c.Generation.MinWords, c.Generation.MaxWords))
	}
	if c.Dedup.MinFirstTokenLen < 0 {
		problems = append(problems, "dedup.min_first_token_len cannot be negative")
	}
	if c.Output.Directory == "" {
		problems = append(problems, "output.directory is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// RequireGemini reports a fatal setup error when no API key is configured.
func (c *Config) RequireGemini() error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY or gemini.api_key in the config file (get a key at https://aistudio.google.com/apikey)", ErrMissingAPIKey)
	}
	return nil
}

// PauseDuration is the minimum interval between generation calls.
func (g Generation) PauseDuration() time.Duration {
	return parseDuration(g.Pause, 2*time.Second)
}

// TimeoutDuration is the HTTP timeout shared by all source clients.
func (s Sources) TimeoutDuration() time.Duration {
	return parseDuration(s.Timeout, 15*time.Second)
}

// TimeoutDuration bounds a single text-generation call.
func (g Gemini) TimeoutDuration() time.Duration {
	return parseDuration(g.Timeout, 120*time.Second)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
