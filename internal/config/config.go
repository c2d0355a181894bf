package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kerim47/quantdesk/internal/analytics"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Rates    RatesConfig              `mapstructure:"rates"`
	Binance  BinanceConfig            `mapstructure:"binance"`
	Analysis analytics.AnalysisConfig `mapstructure:"analysis"`
	Alerts   AlertsConfig             `mapstructure:"alerts"`
	TMDB     TMDBConfig               `mapstructure:"tmdb"`
	Quiz     QuizConfig               `mapstructure:"quiz"`
	Telegram TelegramConfig           `mapstructure:"telegram"`
	Storage  StorageConfig            `mapstructure:"storage"`
	Redis    RedisConfig              `mapstructure:"redis"`
	Server   ServerConfig             `mapstructure:"server"`
	Logging  LoggingConfig            `mapstructure:"logging"`
}

// HTTPConfig holds the outbound client settings shared by every upstream API
type HTTPConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	RateLimit      float64       `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
}

// RatesConfig holds the currency tracker configuration
type RatesConfig struct {
	Enabled      bool                 `mapstructure:"enabled"`
	APIURL       string               `mapstructure:"api_url"`
	APIKey       string               `mapstructure:"api_key"`
	Base         string               `mapstructure:"base"`
	Quote        string               `mapstructure:"quote"`
	Currencies   []string             `mapstructure:"currencies"`
	PollInterval time.Duration        `mapstructure:"poll_interval"`
	History      int                  `mapstructure:"history"`
	Trend        analytics.Thresholds `mapstructure:"trend"`
	HTTP         HTTPConfig           `mapstructure:"http"`
}

// StreamConfig selects one kline stream to analyze
type StreamConfig struct {
	Symbol       string        `mapstructure:"symbol"`
	Market       string        `mapstructure:"market"`
	Interval     string        `mapstructure:"interval"`
	PollInterval time.Duration `mapstructure:"poll_interval"` // 0 = derived from interval
}

// BinanceConfig holds the kline source configuration
type BinanceConfig struct {
	Enabled    bool           `mapstructure:"enabled"`
	SpotURL    string         `mapstructure:"spot_url"`
	FuturesURL string         `mapstructure:"futures_url"`
	Limit      int            `mapstructure:"limit"`
	Streams    []StreamConfig `mapstructure:"streams"`
	HTTP       HTTPConfig     `mapstructure:"http"`
}

// AlertsConfig holds alert deduplication configuration
type AlertsConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// TMDBConfig holds the movie browser configuration
type TMDBConfig struct {
	Enabled  bool       `mapstructure:"enabled"`
	APIURL   string     `mapstructure:"api_url"`
	APIKey   string     `mapstructure:"api_key"`
	Language string     `mapstructure:"language"`
	HTTP     HTTPConfig `mapstructure:"http"`
}

// QuizConfig holds the exam configuration
type QuizConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	SeedFile       string        `mapstructure:"seed_file"`
	TotalTime      time.Duration `mapstructure:"total_time"`
	QuestionTime   time.Duration `mapstructure:"question_time"`
	TestQuestions  int           `mapstructure:"test_questions"`
	OpenQuestions  int           `mapstructure:"open_questions"`
	ResetOnStartup bool          `mapstructure:"reset_on_startup"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath         string        `mapstructure:"db_path"`
	MaxPerSymbol   int           `mapstructure:"max_per_symbol"`
	Retention      time.Duration `mapstructure:"retention"`
	RotateInterval time.Duration `mapstructure:"rotate_interval"`
}

// RedisConfig holds the snapshot cache configuration
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ServerConfig holds the HTTP API configuration
type ServerConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Addr      string  `mapstructure:"addr"`
	RateLimit float64 `mapstructure:"rate_limit"` // per client IP, requests per second
	Burst     int     `mapstructure:"burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. A .env file in
// the working directory, when present, is loaded into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // best-effort

	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override, e.g. QUANTDESK_RATES_API_KEY
	v.SetEnvPrefix("QUANTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	setHTTPDefaults := func(prefix string, rateLimit float64) {
		v.SetDefault(prefix+".http.timeout", "10s")
		v.SetDefault(prefix+".http.max_retries", 3)
		v.SetDefault(prefix+".http.retry_delay_base", "1s")
		v.SetDefault(prefix+".http.rate_limit", rateLimit)
	}

	// Currency tracker defaults
	v.SetDefault("rates.enabled", true)
	v.SetDefault("rates.api_url", "https://v6.exchangerate-api.com")
	v.SetDefault("rates.api_key", "")
	v.SetDefault("rates.base", "USD")
	v.SetDefault("rates.quote", "TRY")
	v.SetDefault("rates.currencies", []string{"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "CNY", "RUB", "SAR"})
	v.SetDefault("rates.poll_interval", "1m")
	v.SetDefault("rates.history", 50)
	v.SetDefault("rates.trend.lower", -0.5)
	v.SetDefault("rates.trend.upper", 0.5)
	v.SetDefault("rates.trend.below", string(analytics.TrendDown))
	v.SetDefault("rates.trend.within", string(analytics.TrendFlat))
	v.SetDefault("rates.trend.above", string(analytics.TrendUp))
	setHTTPDefaults("rates", 1)

	// Kline source defaults
	v.SetDefault("binance.enabled", true)
	v.SetDefault("binance.spot_url", "https://api.binance.com")
	v.SetDefault("binance.futures_url", "https://fapi.binance.com")
	v.SetDefault("binance.limit", 100)
	v.SetDefault("binance.streams", []map[string]any{
		{"symbol": "BTCUSDT", "market": "SPOT", "interval": "1m"},
	})
	setHTTPDefaults("binance", 10)

	// Indicator defaults
	def := analytics.DefaultAnalysisConfig()
	v.SetDefault("analysis.sma_window", def.SMAWindow)
	v.SetDefault("analysis.ema_window", def.EMAWindow)
	v.SetDefault("analysis.rsi_window", def.RSIWindow)
	v.SetDefault("analysis.bollinger_window", def.BollingerWindow)
	v.SetDefault("analysis.bollinger_std_dev", def.BollingerStdDev)
	v.SetDefault("analysis.volume_window", def.VolumeWindow)
	v.SetDefault("analysis.volume_spike_factor", def.VolumeSpikeFactor)
	v.SetDefault("analysis.trend_lookback", def.TrendLookback)
	for key, t := range map[string]analytics.Thresholds{"rsi": def.RSI, "trend": def.Trend} {
		v.SetDefault("analysis."+key+".lower", t.Lower)
		v.SetDefault("analysis."+key+".upper", t.Upper)
		v.SetDefault("analysis."+key+".below", string(t.Below))
		v.SetDefault("analysis."+key+".within", string(t.Within))
		v.SetDefault("analysis."+key+".above", string(t.Above))
	}

	v.SetDefault("alerts.cooldown", "15m")

	// Movie browser defaults
	v.SetDefault("tmdb.enabled", false)
	v.SetDefault("tmdb.api_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.language", "tr-TR")
	setHTTPDefaults("tmdb", 5)

	// Quiz defaults
	v.SetDefault("quiz.enabled", true)
	v.SetDefault("quiz.seed_file", "configs/questions.yaml")
	v.SetDefault("quiz.total_time", "30m")
	v.SetDefault("quiz.question_time", "60s")
	v.SetDefault("quiz.test_questions", 5)
	v.SetDefault("quiz.open_questions", 4)
	v.SetDefault("quiz.reset_on_startup", false)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/quantdesk.db")
	v.SetDefault("storage.max_per_symbol", 500)
	v.SetDefault("storage.retention", "168h")
	v.SetDefault("storage.rotate_interval", "1h")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "quantdesk:")
	v.SetDefault("redis.ttl", "10m")

	// Server defaults
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.burst", 50)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

var klineIntervals = []string{"1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d", "3d", "1w", "1M"}

func (h HTTPConfig) validate(section string) error {
	if h.Timeout <= 0 {
		return fmt.Errorf("%s.http.timeout must be positive", section)
	}
	if h.MaxRetries < 1 {
		return fmt.Errorf("%s.http.max_retries must be at least 1", section)
	}
	if h.RateLimit < 0 {
		return fmt.Errorf("%s.http.rate_limit must not be negative", section)
	}
	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate currency tracker config
	if c.Rates.Enabled {
		if c.Rates.APIURL == "" {
			return fmt.Errorf("rates.api_url is required")
		}
		if c.Rates.APIKey == "" {
			return fmt.Errorf("rates.api_key is required when rates is enabled")
		}
		if len(c.Rates.Base) != 3 || len(c.Rates.Quote) != 3 {
			return fmt.Errorf("rates.base and rates.quote must be ISO 4217 codes")
		}
		if len(c.Rates.Currencies) == 0 {
			return fmt.Errorf("rates.currencies must contain at least one currency")
		}
		if c.Rates.PollInterval < time.Second {
			return fmt.Errorf("rates.poll_interval must be at least 1 second")
		}
		if c.Rates.History < 2 {
			return fmt.Errorf("rates.history must be at least 2")
		}
		if err := c.Rates.Trend.Validate(); err != nil {
			return fmt.Errorf("rates.trend: %w", err)
		}
		if err := c.Rates.HTTP.validate("rates"); err != nil {
			return err
		}
	}

	// Validate kline source config
	if c.Binance.Enabled {
		if c.Binance.SpotURL == "" || c.Binance.FuturesURL == "" {
			return fmt.Errorf("binance.spot_url and binance.futures_url are required")
		}
		if c.Binance.Limit < 2 || c.Binance.Limit > 1500 {
			return fmt.Errorf("binance.limit must be between 2 and 1500")
		}
		if len(c.Binance.Streams) == 0 {
			return fmt.Errorf("binance.streams must contain at least one stream")
		}
		for i, s := range c.Binance.Streams {
			if s.Symbol == "" {
				return fmt.Errorf("binance.streams[%d].symbol is required", i)
			}
			if m := strings.ToUpper(s.Market); m != "SPOT" && m != "FUTURES" {
				return fmt.Errorf("binance.streams[%d].market must be SPOT or FUTURES", i)
			}
			if !slices.Contains(klineIntervals, s.Interval) {
				return fmt.Errorf("binance.streams[%d].interval %q is not a kline interval", i, s.Interval)
			}
			if s.PollInterval < 0 {
				return fmt.Errorf("binance.streams[%d].poll_interval must not be negative", i)
			}
		}
		if err := c.Binance.HTTP.validate("binance"); err != nil {
			return err
		}
	}

	// Validate indicator config
	for name, w := range map[string]int{
		"sma_window":       c.Analysis.SMAWindow,
		"ema_window":       c.Analysis.EMAWindow,
		"rsi_window":       c.Analysis.RSIWindow,
		"bollinger_window": c.Analysis.BollingerWindow,
		"volume_window":    c.Analysis.VolumeWindow,
		"trend_lookback":   c.Analysis.TrendLookback,
	} {
		if w < 1 {
			return fmt.Errorf("analysis.%s must be at least 1", name)
		}
	}
	if c.Analysis.BollingerStdDev < 0 {
		return fmt.Errorf("analysis.bollinger_std_dev must not be negative")
	}
	if err := c.Analysis.RSI.Validate(); err != nil {
		return fmt.Errorf("analysis.rsi: %w", err)
	}
	if err := c.Analysis.Trend.Validate(); err != nil {
		return fmt.Errorf("analysis.trend: %w", err)
	}
	if c.Alerts.Cooldown < 0 {
		return fmt.Errorf("alerts.cooldown must not be negative")
	}

	// Validate movie browser config
	if c.TMDB.Enabled {
		if c.TMDB.APIKey == "" {
			return fmt.Errorf("tmdb.api_key is required when tmdb is enabled")
		}
		if err := c.TMDB.HTTP.validate("tmdb"); err != nil {
			return err
		}
	}

	// Validate quiz config
	if c.Quiz.Enabled {
		if c.Quiz.TotalTime <= 0 || c.Quiz.QuestionTime <= 0 {
			return fmt.Errorf("quiz.total_time and quiz.question_time must be positive")
		}
		if c.Quiz.TestQuestions < 0 || c.Quiz.OpenQuestions < 0 {
			return fmt.Errorf("quiz question counts must not be negative")
		}
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.MaxPerSymbol < 1 {
		return fmt.Errorf("storage.max_per_symbol must be at least 1")
	}
	if c.Storage.Retention < time.Hour {
		return fmt.Errorf("storage.retention must be at least 1 hour")
	}
	if c.Storage.RotateInterval < time.Minute {
		return fmt.Errorf("storage.rotate_interval must be at least 1 minute")
	}

	// Validate Redis config
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}

	// Validate Server config
	if c.Server.Enabled {
		if c.Server.Addr == "" {
			return fmt.Errorf("server.addr is required when server is enabled")
		}
		if c.Server.RateLimit <= 0 || c.Server.Burst < 1 {
			return fmt.Errorf("server.rate_limit and server.burst must be positive")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
