package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"TrendSentinel/internal/calculator"
)

// EnvPrefix prefixes every environment override, e.g. SENTINEL_STORE_FILE.
const EnvPrefix = "SENTINEL"

// Config holds all application configuration.
type Config struct {
	Codes      []string          `yaml:"codes" envconfig:"CODES" validate:"required,min=1,dive,required"`
	Store      StoreConfig       `yaml:"store" envconfig:"STORE"`
	Source     SourceConfig      `yaml:"source" envconfig:"SOURCE"`
	Scrape     ScrapeConfig      `yaml:"scrape" envconfig:"SCRAPE"`
	Report     ReportConfig      `yaml:"report" envconfig:"REPORT"`
	Indicators calculator.Params `yaml:"indicators" envconfig:"INDICATORS"`
	Database   DatabaseConfig    `yaml:"database" envconfig:"DATABASE"`
	Telegram   TelegramConfig    `yaml:"telegram" envconfig:"TELEGRAM"`
	Schedule   ScheduleConfig    `yaml:"schedule" envconfig:"SCHEDULE"`
	Server     ServerConfig      `yaml:"server" envconfig:"SERVER"`
	Log        LogConfig         `yaml:"log" envconfig:"LOG"`
	Proxy      string            `yaml:"proxy" envconfig:"PROXY"`
}

type StoreConfig struct {
	Path string `yaml:"path" envconfig:"FILE" validate:"required"`
}

// SourceConfig describes where history pages come from and how to read them.
type SourceConfig struct {
	BaseURL        string        `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
	TableSelector  string        `yaml:"table_selector" envconfig:"TABLE_SELECTOR" validate:"required"`
	NextText       string        `yaml:"next_text" envconfig:"NEXT_TEXT" validate:"required"`
	SymbolSelector string        `yaml:"symbol_selector" envconfig:"SYMBOL_SELECTOR" validate:"required"`
	SplitMarker    string        `yaml:"split_marker" envconfig:"SPLIT_MARKER" validate:"required"`
}

type ScrapeConfig struct {
	Months    int           `yaml:"months" envconfig:"MONTHS" validate:"gte=1"`
	Sleep     time.Duration `yaml:"sleep" envconfig:"SLEEP" validate:"gte=0"`
	RateLimit float64       `yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"gte=0"`
	Workers   int           `yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
	MaxPages  int           `yaml:"max_pages" envconfig:"MAX_PAGES" validate:"gte=0"`
}

type ReportConfig struct {
	Months     int    `yaml:"months" envconfig:"MONTHS" validate:"gte=1"`
	WarmupDays int    `yaml:"warmup_days" envconfig:"WARMUP_DAYS" validate:"gte=0"`
	OutputDir  string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
}

type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" envconfig:"BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" envconfig:"CHAT_ID" validate:"required_with=BotToken"`
}

type ScheduleConfig struct {
	ScrapeCron string `yaml:"scrape_cron" envconfig:"SCRAPE_CRON" validate:"required"`
	ReportCron string `yaml:"report_cron" envconfig:"REPORT_CRON" validate:"required"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
}

type LogConfig struct {
	Level      string `yaml:"level" envconfig:"LEVEL" validate:"oneof=trace debug info warn error"`
	Format     string `yaml:"format" envconfig:"FORMAT" validate:"oneof=console json"`
	File       string `yaml:"file" envconfig:"FILENAME"`
	MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" envconfig:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS"`
}

// Defaults for knobs where an explicit zero is meaningful. They are seeded
// before the file and environment are read so a configured 0 survives.
const (
	DefaultSleep      = 10 * time.Millisecond
	DefaultWarmupDays = 60
)

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Scrape.Sleep = DefaultSleep
	cfg.Report.WarmupDays = DefaultWarmupDays

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Proxy == "" {
		cfg.Proxy = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Path == "" {
		c.Store.Path = "data/db.json"
	}
	if c.Source.TableSelector == "" {
		c.Source.TableSelector = "table.boardFin"
	}
	if c.Source.NextText == "" {
		c.Source.NextText = "次へ"
	}
	if c.Source.SymbolSelector == "" {
		c.Source.SymbolSelector = "th.symbol"
	}
	if c.Source.SplitMarker == "" {
		c.Source.SplitMarker = "分割"
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if c.Scrape.Months == 0 {
		c.Scrape.Months = 1
	}
	if c.Report.Months == 0 {
		c.Report.Months = 6
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = "result"
	}

	def := calculator.DefaultParams()
	if c.Indicators.Short == 0 {
		c.Indicators.Short = def.Short
	}
	if c.Indicators.Long == 0 {
		c.Indicators.Long = def.Long
	}
	if c.Indicators.Signal == 0 {
		c.Indicators.Signal = def.Signal
	}
	if c.Indicators.K == 0 {
		c.Indicators.K = def.K
	}
	if c.Indicators.D == 0 {
		c.Indicators.D = def.D
	}
	if c.Indicators.DSlow == 0 {
		c.Indicators.DSlow = def.DSlow
	}

	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/trend_sentinel.db"
	}
	if c.Schedule.ScrapeCron == "" {
		c.Schedule.ScrapeCron = "0 0 18 * * 1-5"
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 30 18 * * 1-5"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 30
	}
}

// Validate checks field constraints and indicator periods.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config %s: failed %q check", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("config indicators: %w", err)
	}
	return nil
}
