package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Universe struct {
		Symbols     []string `yaml:"symbols"`
		Discover    bool     `yaml:"discover"`
		Quote       string   `yaml:"quote"`
		Stablecoins []string `yaml:"stablecoins"`
	} `yaml:"universe"`
	Windows []int  `yaml:"windows"`
	MAType  string `yaml:"ma_type"`
	DataSource struct {
		BaseURLs    []string `yaml:"base_urls"`
		APIKey      string   `yaml:"api_key"`
		RateLimit   float64  `yaml:"rate_limit"`
		Concurrency int      `yaml:"concurrency"`
	} `yaml:"data_source"`
	Output struct {
		Dir        string `yaml:"dir"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"output"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("BREADTH_SYMBOLS"); v != "" {
		cfg.Universe.Symbols = splitList(v)
	}
	if v := os.Getenv("BREADTH_DISCOVER"); v != "" {
		cfg.Universe.Discover = v == "true" || v == "1"
	}
	if v := os.Getenv("BREADTH_WINDOWS"); v != "" {
		var windows []int
		for _, s := range splitList(v) {
			w, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("parse BREADTH_WINDOWS: %w", err)
			}
			windows = append(windows, w)
		}
		cfg.Windows = windows
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Output.SQLitePath = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}

	// Defaults
	if len(cfg.Universe.Symbols) == 0 && !cfg.Universe.Discover {
		cfg.Universe.Symbols = defaultSymbols()
	}
	if cfg.Universe.Quote == "" {
		cfg.Universe.Quote = "USDT"
	}
	if len(cfg.Universe.Stablecoins) == 0 {
		cfg.Universe.Stablecoins = []string{"USDT", "USDC", "BUSD", "TUSD", "FDUSD", "DAI", "USDP", "EUR", "EURI"}
	}
	if len(cfg.Windows) == 0 {
		cfg.Windows = []int{75, 200}
	}
	if cfg.MAType == "" {
		cfg.MAType = "ema"
	}
	if len(cfg.DataSource.BaseURLs) == 0 {
		cfg.DataSource.BaseURLs = []string{
			"https://data.binance.com",
			"https://api.binance.com",
		}
	}
	if cfg.DataSource.RateLimit == 0 {
		cfg.DataSource.RateLimit = 10
	}
	if cfg.DataSource.Concurrency == 0 {
		cfg.DataSource.Concurrency = 4
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "data"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 6 * * *"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Universe.Symbols) == 0 && !c.Universe.Discover {
		return fmt.Errorf("universe.symbols must not be empty when discovery is disabled")
	}
	if len(c.Windows) == 0 {
		return fmt.Errorf("at least one window length is required")
	}
	for _, w := range c.Windows {
		if w <= 0 {
			return fmt.Errorf("window length must be positive, got %d", w)
		}
	}
	if c.MAType != "sma" && c.MAType != "ema" {
		return fmt.Errorf("ma_type must be \"sma\" or \"ema\", got %q", c.MAType)
	}
	if len(c.DataSource.BaseURLs) == 0 {
		return fmt.Errorf("data_source.base_urls must not be empty")
	}
	if c.DataSource.Concurrency <= 0 {
		return fmt.Errorf("data_source.concurrency must be positive")
	}
	return nil
}

// MaxWindow returns the largest configured window length.
func (c *Config) MaxWindow() int {
	max := 0
	for _, w := range c.Windows {
		if w > max {
			max = w
		}
	}
	return max
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultSymbols() []string {
	return []string{
		"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT",
		"ADAUSDT", "DOGEUSDT", "AVAXUSDT", "DOTUSDT", "LINKUSDT",
		"LTCUSDT", "ATOMUSDT", "UNIUSDT", "ETCUSDT", "NEARUSDT",
	}
}
