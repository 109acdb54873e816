package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Lock      LockConfig      `mapstructure:"lock"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Venue     VenueConfig     `mapstructure:"venue"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres | sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite file
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	ManagerRole string `mapstructure:"manager_role"`
	IntakeToken string `mapstructure:"intake_token"`
}

type LockConfig struct {
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	Store      string `mapstructure:"store"` // redis | memory
}

type SchedulerConfig struct {
	Backend             string `mapstructure:"backend"` // asynq | local
	Queue               string `mapstructure:"queue"`
	FireTimeoutSeconds  int    `mapstructure:"fire_timeout_seconds"`
	RecoveryConcurrency int    `mapstructure:"recovery_concurrency"`
	RecurrenceCron      string `mapstructure:"recurrence_cron"`
	DefaultTimezone     string `mapstructure:"default_timezone"`
}

type VenueConfig struct {
	Driver         string  `mapstructure:"driver"` // http | log
	BaseURL        string  `mapstructure:"base_url"`
	Token          string  `mapstructure:"token"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type ArchiveConfig struct {
	Driver          string `mapstructure:"driver"` // s3 | none
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads .env (if present), config.yaml (if present) and environment
// variables. Environment keys use underscores, e.g. DATABASE_DRIVER.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	Set(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.base_url", "")

	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "event_roster")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "event_roster.db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.manager_role", "event-manager")
	v.SetDefault("auth.intake_token", "")

	v.SetDefault("lock.ttl_seconds", 60)
	v.SetDefault("lock.store", "redis")

	v.SetDefault("scheduler.backend", "asynq")
	v.SetDefault("scheduler.queue", "lifecycle")
	v.SetDefault("scheduler.fire_timeout_seconds", 30)
	v.SetDefault("scheduler.recovery_concurrency", 8)
	v.SetDefault("scheduler.recurrence_cron", "@every 5m")
	v.SetDefault("scheduler.default_timezone", "UTC")

	v.SetDefault("venue.driver", "log")
	v.SetDefault("venue.base_url", "")
	v.SetDefault("venue.token", "")
	v.SetDefault("venue.rate_per_second", 5)
	v.SetDefault("venue.timeout_seconds", 10)

	v.SetDefault("catalog.path", "")

	v.SetDefault("archive.driver", "none")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.access_key_id", "")
	v.SetDefault("archive.secret_access_key", "")
	v.SetDefault("archive.prefix", "rosters")

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}
}

func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// Get returns the loaded config and panics if Load was never called.
func Get() *Config {
	cfg, ok := GetSafe()
	if !ok {
		panic("config not initialized")
	}
	return cfg
}

func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
