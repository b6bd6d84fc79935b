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

const (
	RepositorySQLite   = "sqlite"
	RepositoryPostgres = "postgres"
	RepositoryInMemory = "inmemory"
)

const envPrefix = "TAREAS"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig.URL es una URL postgres:// o la ruta del fichero SQLite.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MinConnections int           `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // "sqlite", "postgres" o "inmemory"
}

// RateLimitConfig con RedisURL vacío usa el limitador en memoria.
type RateLimitConfig struct {
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	RedisURL          string `mapstructure:"redis_url"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type WorkerConfig struct {
	StatsInterval time.Duration `mapstructure:"stats_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "tareas.db")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)

	v.SetDefault("logging.development", false)
	v.SetDefault("repository.type", RepositorySQLite)

	v.SetDefault("rate_limit.requests_per_minute", 100)
	v.SetDefault("rate_limit.redis_url", "")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("worker.stats_interval", time.Minute)
}

// Load lee .env (opcional), config.yml (opcional) y las variables TAREAS_*,
// en ese orden de menor a mayor prioridad.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("lectura de .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("error al leer %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error al decodificar la configuración: %w", err)
	}

	cfg.Repository.Type = strings.ToLower(strings.TrimSpace(cfg.Repository.Type))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositorySQLite, RepositoryPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url es obligatorio para el repositorio %q", c.Repository.Type)
		}
	case RepositoryInMemory:
	default:
		return fmt.Errorf("repository.type desconocido: %q", c.Repository.Type)
	}

	if c.Server.Port == "" {
		return errors.New("server.port es obligatorio")
	}
	if c.Database.MinConnections > c.Database.MaxConnections {
		return errors.New("database.min_connections no puede superar max_connections")
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return errors.New("rate_limit.requests_per_minute no puede ser negativo")
	}
	if c.Worker.StatsInterval <= 0 {
		return errors.New("worker.stats_interval debe ser positivo")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
