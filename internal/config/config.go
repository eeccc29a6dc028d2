package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingDatabaseURL = errors.New("store.postgres_url (DATABASE_URL) is required for the postgres driver")
	ErrUnknownStoreDriver = errors.New("unknown store driver")
	ErrInvalidQuizLayout  = errors.New("quiz rounds and questions per round must be positive")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env     string  `mapstructure:"env"`
	HTTP    HTTP    `mapstructure:"http"`
	Store   Store   `mapstructure:"store"`
	Cache   Cache   `mapstructure:"cache"`
	Images  Images  `mapstructure:"images"`
	Quiz    Quiz    `mapstructure:"quiz"`
	OpenTDB OpenTDB `mapstructure:"opentdb"`
}

type HTTP struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigin     string        `mapstructure:"allowed_origin"`
}

type Store struct {
	Driver          string        `mapstructure:"driver"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	PostgresURL     string        `mapstructure:"postgres_url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// Cache selects Redis when RedisURL is set, otherwise an in-process cache.
type Cache struct {
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type Images struct {
	Dir string `mapstructure:"dir"`
}

type Quiz struct {
	Rounds            int           `mapstructure:"rounds"`
	QuestionsPerRound int           `mapstructure:"questions_per_round"`
	RoundDelay        time.Duration `mapstructure:"round_delay"`
}

type OpenTDB struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads ./config/config.yaml (optional) and the environment.
func Load() (*Config, error) {
	return LoadFrom("./config")
}

// LoadFrom is Load with an explicit config directory.
func LoadFrom(dir string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("env", "local")
	v.SetDefault("http.addr", ":5000")
	v.SetDefault("http.read_header_timeout", "5s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.allowed_origin", "*")
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", "quiz.db")
	v.SetDefault("store.postgres_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.max_conn_lifetime", "30m")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("images.dir", "images")
	v.SetDefault("quiz.rounds", 3)
	v.SetDefault("quiz.questions_per_round", 5)
	v.SetDefault("quiz.round_delay", "2s")
	v.SetDefault("opentdb.base_url", "https://opentdb.com/api.php")
	v.SetDefault("opentdb.timeout", "10s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("store.postgres_url", "DATABASE_URL")
	_ = v.BindEnv("cache.redis_url", "REDIS_URL")
	_ = v.BindEnv("http.addr", "HTTP_ADDR", "ADDR")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreDriver, c.Store.Driver)
	}

	if c.Quiz.Rounds <= 0 || c.Quiz.QuestionsPerRound <= 0 {
		return ErrInvalidQuizLayout
	}
	return nil
}
