package config

import (
	"time"

	"golang-market-chat/pkg/config"
)

// Chat holds request-pipeline settings.
type Chat struct {
	MaxPriorTurns        int           `mapstructure:"max_prior_turns"`
	MaxMessageLength     int           `mapstructure:"max_message_length"`
	DefaultCryptoSymbol  string        `mapstructure:"default_crypto_symbol"`
	RateLimitWindow      time.Duration `mapstructure:"rate_limit_window"`
	RateLimitMaxRequests int           `mapstructure:"rate_limit_max_requests"`
	UpstreamTimeout      time.Duration `mapstructure:"upstream_timeout"`
}

// Quote holds quote resolution settings.
type Quote struct {
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	CacheCleanupInterval time.Duration `mapstructure:"cache_cleanup_interval"`
	ProviderTimeout      time.Duration `mapstructure:"provider_timeout"`
	MaxConcurrentSymbols int           `mapstructure:"max_concurrent_symbols"`
	WarmSymbols          []string      `mapstructure:"warm_symbols"`
	WarmSchedule         string        `mapstructure:"warm_schedule"`
}

// Finnhub holds the configuration for the primary equity quote provider.
type Finnhub struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// YahooFinance holds the configuration for the Yahoo Finance API.
type YahooFinance struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Polygon holds the configuration for the tertiary quote provider. Empty APIKey disables it.
type Polygon struct {
	APIKey              string `mapstructure:"api_key"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// CoinGecko holds the configuration for the crypto quote provider.
type CoinGecko struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// AI selects the completion provider ("openai" or "gemini").
type AI struct {
	Provider    string  `mapstructure:"provider"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// OpenAI holds the configuration for any OpenAI-compatible chat completions API
// (OpenAI, Groq, OpenRouter).
type OpenAI struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Auth holds the configuration for bearer token verification. Empty BaseURL treats every caller as anonymous.
type Auth struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Scraper holds page extraction settings. Linked pages on loopback, private and
// link-local addresses are refused unless AllowPrivateHosts is set.
type Scraper struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxChars          int           `mapstructure:"max_chars"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	AllowPrivateHosts bool          `mapstructure:"allow_private_hosts"`
}

// Persistence selects how completed exchanges are written.
type Persistence struct {
	Mode          string        `mapstructure:"mode"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ConsumerBlock time.Duration `mapstructure:"consumer_block"`
}

const (
	PersistenceModeInline = "inline"
	PersistenceModeQueued = "queued"
)

// Telegram holds configuration for the operator notifier. Empty BotToken disables it.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the chat service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	API          config.API      `mapstructure:"api"`
	Chat         Chat            `mapstructure:"chat"`
	Quote        Quote           `mapstructure:"quote"`
	Finnhub      Finnhub         `mapstructure:"finnhub"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
	Polygon      Polygon         `mapstructure:"polygon"`
	CoinGecko    CoinGecko       `mapstructure:"coingecko"`
	AI           AI              `mapstructure:"ai"`
	OpenAI       OpenAI          `mapstructure:"openai"`
	Gemini       Gemini          `mapstructure:"gemini"`
	Auth         Auth            `mapstructure:"auth"`
	Scraper      Scraper         `mapstructure:"scraper"`
	Persistence  Persistence     `mapstructure:"persistence"`
	Telegram     Telegram        `mapstructure:"telegram"`
}

// Load loads the chat service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}

	if c.Chat.MaxPriorTurns == 0 {
		c.Chat.MaxPriorTurns = 10
	}
	if c.Chat.MaxMessageLength == 0 {
		c.Chat.MaxMessageLength = 8000
	}
	if c.Chat.DefaultCryptoSymbol == "" {
		c.Chat.DefaultCryptoSymbol = "BTC"
	}
	if c.Chat.RateLimitWindow == 0 {
		c.Chat.RateLimitWindow = 24 * time.Hour
	}
	if c.Chat.RateLimitMaxRequests == 0 {
		c.Chat.RateLimitMaxRequests = 10
	}
	if c.Chat.UpstreamTimeout == 0 {
		c.Chat.UpstreamTimeout = 2 * time.Minute
	}

	if c.Quote.CacheTTL == 0 {
		c.Quote.CacheTTL = 5 * time.Minute
	}
	if c.Quote.CacheCleanupInterval == 0 {
		c.Quote.CacheCleanupInterval = 10 * time.Minute
	}
	if c.Quote.ProviderTimeout == 0 {
		c.Quote.ProviderTimeout = 10 * time.Second
	}
	if c.Quote.MaxConcurrentSymbols == 0 {
		c.Quote.MaxConcurrentSymbols = 3
	}
	if c.Quote.WarmSchedule == "" {
		c.Quote.WarmSchedule = "@every 4m"
	}

	if c.Finnhub.BaseURL == "" {
		c.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	}
	if c.Finnhub.MaxRequestPerMinute == 0 {
		c.Finnhub.MaxRequestPerMinute = 60
	}
	if c.YahooFinance.BaseURL == "" {
		c.YahooFinance.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.YahooFinance.MaxRequestPerMinute == 0 {
		c.YahooFinance.MaxRequestPerMinute = 60
	}
	if c.Polygon.MaxRequestPerMinute == 0 {
		c.Polygon.MaxRequestPerMinute = 5
	}
	if c.CoinGecko.BaseURL == "" {
		c.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.CoinGecko.MaxRequestPerMinute == 0 {
		c.CoinGecko.MaxRequestPerMinute = 30
	}

	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 1024
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.groq.com/openai/v1/chat/completions"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "llama-3.3-70b-versatile"
	}
	if c.OpenAI.MaxRequestPerMinute == 0 {
		c.OpenAI.MaxRequestPerMinute = 60
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Gemini.MaxRequestPerMinute == 0 {
		c.Gemini.MaxRequestPerMinute = 15
	}

	if c.Auth.Timeout == 0 {
		c.Auth.Timeout = 5 * time.Second
	}

	if c.Scraper.Timeout == 0 {
		c.Scraper.Timeout = 10 * time.Second
	}
	if c.Scraper.MaxChars == 0 {
		c.Scraper.MaxChars = 4000
	}
	if c.Scraper.MaxBodyBytes == 0 {
		c.Scraper.MaxBodyBytes = 2 << 20
	}

	if c.Persistence.Mode == "" {
		c.Persistence.Mode = PersistenceModeInline
	}
	if c.Persistence.Timeout == 0 {
		c.Persistence.Timeout = 10 * time.Second
	}
	if c.Persistence.ConsumerBlock == 0 {
		c.Persistence.ConsumerBlock = 5 * time.Second
	}
	if c.Redis.StreamMaxLen == 0 {
		c.Redis.StreamMaxLen = 10000
	}
}

// CompletionAPIKey returns the credential of the selected completion provider.
func (c *Config) CompletionAPIKey() string {
	if c.AI.Provider == "gemini" {
		return c.Gemini.APIKey
	}
	return c.OpenAI.APIKey
}
