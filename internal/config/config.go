package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

type Config struct {
	Port            string
	ShutdownTimeout time.Duration

	// EnvSource tells whether values came from a .env file or the process env.
	EnvSource string

	Store     StoreConfig
	Recompute RecomputeConfig
	Sweep     SweepConfig
	Purchase  PurchaseConfig
	Pricing   PricingConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Log       LogConfig
}

type StoreConfig struct {
	Driver     string
	MongoURI   string
	MongoDB    string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
	RetryMax   time.Duration
}

type RecomputeConfig struct {
	Concurrency int
	ItemTimeout time.Duration
}

type SweepConfig struct {
	Interval time.Duration
	LockTTL  time.Duration
}

type PurchaseConfig struct {
	VelocityPerUnit float64
	IdempotencyTTL  time.Duration
}

type PricingConfig struct {
	UrgencyWindow    time.Duration
	LowStock         int64
	VelocityBaseline float64
	VelocityCeiling  float64
	FestiveHorizon   time.Duration
	ClearanceWindow  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig reads .env when present (local development) and then the process
// environment. Malformed numeric or duration values are reported as errors.
func LoadConfig() (*Config, error) {
	source := "system environment"
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
		source = ".env file"
	}

	p := &parser{}
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		EnvSource:       source,
		Store: StoreConfig{
			Driver:     strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMongo)),
			MongoURI:   getEnv("MONGO_URI", ""),
			MongoDB:    getEnv("MONGO_DB", "productCatalog"),
			Timeout:    p.duration("STORE_TIMEOUT", 5*time.Second),
			MaxRetries: p.integer("STORE_MAX_RETRIES", 3),
			RetryBase:  p.duration("STORE_RETRY_BASE", 50*time.Millisecond),
			RetryMax:   p.duration("STORE_RETRY_MAX", time.Second),
		},
		Recompute: RecomputeConfig{
			Concurrency: p.integer("RECOMPUTE_CONCURRENCY", 8),
			ItemTimeout: p.duration("RECOMPUTE_ITEM_TIMEOUT", 2*time.Second),
		},
		Sweep: SweepConfig{
			Interval: p.duration("SWEEP_INTERVAL", time.Minute),
			LockTTL:  p.duration("SWEEP_LOCK_TTL", 30*time.Second),
		},
		Purchase: PurchaseConfig{
			VelocityPerUnit: p.float("PURCHASE_VELOCITY_PER_UNIT", 2),
			IdempotencyTTL:  p.duration("IDEMPOTENCY_TTL", 10*time.Minute),
		},
		Pricing: PricingConfig{
			UrgencyWindow:    p.duration("PRICING_URGENCY_WINDOW", 10*24*time.Hour),
			LowStock:         int64(p.integer("PRICING_LOW_STOCK", 5)),
			VelocityBaseline: p.float("PRICING_VELOCITY_BASELINE", 20),
			VelocityCeiling:  p.float("PRICING_VELOCITY_CEILING", 100),
			FestiveHorizon:   p.duration("PRICING_FESTIVE_HORIZON", 14*24*time.Hour),
			ClearanceWindow:  p.duration("PRICING_CLEARANCE_WINDOW", 7*24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.integer("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "catalog-events"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=%s", StoreDriverMongo)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Recompute.Concurrency < 1 {
		return fmt.Errorf("RECOMPUTE_CONCURRENCY must be >= 1")
	}
	if c.Store.MaxRetries < 1 {
		return fmt.Errorf("STORE_MAX_RETRIES must be >= 1")
	}
	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser keeps the first conversion error so LoadConfig can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return d
}

func (p *parser) integer(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return f
}
