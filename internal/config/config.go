// Package config loads the gateway's configuration from environment
// variables. The event and consumer-offset stores are external
// processes, so beyond checking that the required variables are present
// this package never opens a connection of its own.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
	Worker WorkerConfig `mapstructure:"worker"`
}

// ServerConfig contains the gateway's own listen settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	HealthAddr      string        `mapstructure:"health_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig names the external stores this gateway is a thin client
// of. DBURI/DBURIListView are validated for presence only: there is no
// in-process database connection or in-memory cache, state is always
// replayed from the event store.
type StoreConfig struct {
	DBURI                 string `mapstructure:"db_uri"`
	DBURIListView         string `mapstructure:"db_uri_listview"`
	EventStoreEndpoint    string `mapstructure:"event_store_endpoint"`
	ConsumerStoreEndpoint string `mapstructure:"consumer_store_endpoint"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GatewayPoolSize int `mapstructure:"gateway_pool_size"`
}

// Load reads configuration from environment variables and defaults, then
// validates that the variables required to reach the external stores
// are present.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindRequiredEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the variables required to reach the external
// stores are present. It never dials them.
func (c *Config) Validate() error {
	required := map[string]string{
		"DB_URI":                  c.Store.DBURI,
		"DB_URI_LISTVIEW":         c.Store.DBURIListView,
		"EVENT_STORE_ENDPOINT":    c.Store.EventStoreEndpoint,
		"CONSUMER_STORE_ENDPOINT": c.Store.ConsumerStoreEndpoint,
	}

	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

func bindRequiredEnv(v *viper.Viper) {
	_ = v.BindEnv("store.db_uri", "DB_URI")
	_ = v.BindEnv("store.db_uri_listview", "DB_URI_LISTVIEW")
	_ = v.BindEnv("store.event_store_endpoint", "EVENT_STORE_ENDPOINT")
	_ = v.BindEnv("store.consumer_store_endpoint", "CONSUMER_STORE_ENDPOINT")
	_ = v.BindEnv("server.addr", "SERVER_ADDR")
	_ = v.BindEnv("server.health_addr", "HEALTH_ADDR")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")
	_ = v.BindEnv("worker.gateway_pool_size", "GATEWAY_POOL_SIZE")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:9090")
	v.SetDefault("server.health_addr", "0.0.0.0:9091")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("worker.gateway_pool_size", 100)
}
