package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds the tunables of the ledger and its wrapper binaries.
type Config struct {
	LoanPeriodDays    int     `mapstructure:"loan_period_days"`
	DailyFineRate     float64 `mapstructure:"daily_fine_rate"`
	LowStockThreshold int     `mapstructure:"low_stock_threshold"`
	CacheCapacity     int     `mapstructure:"cache_capacity"`
	WorkerQueueSize   int     `mapstructure:"worker_queue_size"`
	StoreDriver       string  `mapstructure:"store_driver"` // "sqlite" or "file"
	StorePath         string  `mapstructure:"store_path"`
	LogLevel          string  `mapstructure:"log_level"`
	AdminSecret       string  `mapstructure:"admin_secret"`
}

// FineRate returns the daily fine rate as a money amount.
func (c Config) FineRate() decimal.Decimal {
	return decimal.NewFromFloat(c.DailyFineRate)
}

// DefaultConfig returns the built-in defaults, matching the constants the
// desktop application shipped with.
func DefaultConfig() Config {
	return Config{
		LoanPeriodDays:    14,
		DailyFineRate:     10,
		LowStockThreshold: 3,
		CacheCapacity:     500,
		WorkerQueueSize:   32,
		StoreDriver:       "sqlite",
		StorePath:         "data/library.db",
		LogLevel:          "info",
		AdminSecret:       "admin123",
	}
}

// LoadConfig reads configuration from an optional file, with environment
// variables (prefix LEDGER_, e.g. LEDGER_STORE_PATH) overriding file values
// and built-in defaults filling the rest. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("loan_period_days", def.LoanPeriodDays)
	v.SetDefault("daily_fine_rate", def.DailyFineRate)
	v.SetDefault("low_stock_threshold", def.LowStockThreshold)
	v.SetDefault("cache_capacity", def.CacheCapacity)
	v.SetDefault("worker_queue_size", def.WorkerQueueSize)
	v.SetDefault("store_driver", def.StoreDriver)
	v.SetDefault("store_path", def.StorePath)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("admin_secret", def.AdminSecret)

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.LoanPeriodDays <= 0 {
		return fmt.Errorf("%w: loan_period_days must be positive", ErrValidation)
	}
	if c.DailyFineRate < 0 {
		return fmt.Errorf("%w: daily_fine_rate must not be negative", ErrValidation)
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("%w: low_stock_threshold must not be negative", ErrValidation)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("%w: cache_capacity must be positive", ErrValidation)
	}
	if c.WorkerQueueSize <= 0 {
		return fmt.Errorf("%w: worker_queue_size must be positive", ErrValidation)
	}
	switch c.StoreDriver {
	case "sqlite", "file":
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrValidation, c.StoreDriver)
	}
	return nil
}
