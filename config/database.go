package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StoreDriver selects the Entity Store implementation.
type StoreDriver string

const (
	// StoreDriverPostgres persists entities in PostgreSQL.
	StoreDriverPostgres StoreDriver = "postgres"
	// StoreDriverMemory keeps entities in process memory. Data is lost on restart.
	StoreDriverMemory StoreDriver = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreDriver.
func (d *StoreDriver) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch StoreDriver(v) {
	case StoreDriverPostgres, StoreDriverMemory:
		*d = StoreDriver(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreDriver: %q (valid options: postgres, memory)", v)
	}
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver StoreDriver `env:"STORE_DRIVER" envDefault:"postgres"`
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"harvester"`
	Password string `env:"PASSWORD" envDefault:"harvester"`
	Name     string `env:"NAME"     envDefault:"harvester"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"     envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"     envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"  envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"1m"`
}

// Sanitize applies guardrails to pool settings.
func (c *DBConfig) Sanitize() {
	c.Host = strings.TrimSpace(c.Host)
	if c.SSLMode = strings.TrimSpace(c.SSLMode); c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxOpenConns < 1 {
		c.MaxOpenConns = 1
	}
	if c.MaxIdleConns < 0 {
		c.MaxIdleConns = 0
	}
	c.MaxIdleConns = min(c.MaxIdleConns, c.MaxOpenConns)
}

// DSN renders the pgx connection URL. The password is escaped.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig contains Redis configuration. Redis backs refresh tokens and the
// login-failure counter; when disabled both live in process memory.
type RedisConfig struct {
	Enabled            bool     `env:"ENABLED"              envDefault:"false"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// Sanitize trims addresses and resolves conflicting topology flags.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	if c.DB < 0 {
		c.DB = 0
	}
	// Cluster mode wins when both are set; sentinel discovery is not cluster aware.
	if c.UseCluster && c.UseSentinel {
		c.UseSentinel = false
	}
}
