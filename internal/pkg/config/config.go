package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Game      GameConfig      `mapstructure:"game"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Progression modes.
const (
	ProgressionDirect   = "direct"
	ProgressionWorkflow = "workflow"
)

// GameConfig holds the hunt rules. The target point and radius seed level 1
// when the level store is empty or unreachable.
type GameConfig struct {
	TargetLat       float64       `mapstructure:"target_lat"`
	TargetLon       float64       `mapstructure:"target_lon"`
	RadiusMeters    float64       `mapstructure:"radius_meters"`
	TotalLevels     int           `mapstructure:"total_levels"`
	TargetCount     int           `mapstructure:"target_count"`
	LocationTimeout time.Duration `mapstructure:"location_timeout"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	ProgressionMode string        `mapstructure:"progression_mode"`
	DefaultLanguage string        `mapstructure:"default_language"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "cityhunt")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "cityhunt")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "level-unlocks")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	// Monas, Jakarta
	v.SetDefault("game.target_lat", -6.1754)
	v.SetDefault("game.target_lon", 106.8272)
	v.SetDefault("game.radius_meters", 500.0)
	v.SetDefault("game.total_levels", 5)
	v.SetDefault("game.target_count", 3)
	v.SetDefault("game.location_timeout", 10*time.Second)
	v.SetDefault("game.session_ttl", 15*time.Minute)
	v.SetDefault("game.progression_mode", ProgressionDirect)
	v.SetDefault("game.default_language", "en")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: CITYHUNT_GAME_RADIUS_METERS → game.radius_meters
	v.SetEnvPrefix("CITYHUNT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Game.TargetLat < -90 || c.Game.TargetLat > 90 {
		errs = append(errs, fmt.Sprintf("game.target_lat must be within [-90,90], got %g", c.Game.TargetLat))
	}
	if c.Game.TargetLon < -180 || c.Game.TargetLon > 180 {
		errs = append(errs, fmt.Sprintf("game.target_lon must be within [-180,180], got %g", c.Game.TargetLon))
	}
	if c.Game.RadiusMeters <= 0 {
		errs = append(errs, "game.radius_meters must be positive")
	}
	if c.Game.TotalLevels <= 0 {
		errs = append(errs, "game.total_levels must be positive")
	}
	if c.Game.TargetCount <= 0 {
		errs = append(errs, "game.target_count must be positive")
	}
	if c.Game.LocationTimeout <= 0 {
		errs = append(errs, "game.location_timeout must be positive")
	}
	if c.Game.SessionTTL <= 0 {
		errs = append(errs, "game.session_ttl must be positive")
	}
	switch c.Game.ProgressionMode {
	case ProgressionDirect, ProgressionWorkflow:
	default:
		errs = append(errs, fmt.Sprintf("game.progression_mode must be %q or %q, got %q",
			ProgressionDirect, ProgressionWorkflow, c.Game.ProgressionMode))
	}
	if c.Game.ProgressionMode == ProgressionWorkflow && c.Temporal.HostPort == "" {
		errs = append(errs, "temporal.host_port is required in workflow mode")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
