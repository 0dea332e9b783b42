// Package config loads service configuration from TOML, .env and OBJKT_* variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"objkt-signal-lab/internal/objkt"
	"objkt-signal-lab/internal/pipeline"
	"objkt-signal-lab/internal/signal"
	"objkt-signal-lab/internal/tezos"
)

// Config is the root configuration.
type Config struct {
	// Operator wallet. SelfPublicKey (edpk) is used to derive SelfAddress when the
	// address is not given directly.
	SelfAddress   string `toml:"self_address"`
	SelfPublicKey string `toml:"self_public_key"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // text | json
	UseMemory bool   `toml:"use_memory"`

	Objkt      ObjktConfig       `toml:"objkt"`
	Scan       ScanConfig        `toml:"scan"`
	Thresholds signal.Thresholds `toml:"thresholds"`
	Postgres   PostgresConfig    `toml:"postgres"`
	ClickHouse ClickHouseConfig  `toml:"clickhouse"`
	Redis      RedisConfig       `toml:"redis"`
	S3         S3Config          `toml:"s3"`
	Server     ServerConfig      `toml:"server"`
}

// ObjktConfig holds marketplace API parameters.
type ObjktConfig struct {
	GraphQLURL        string   `toml:"graphql_url"`
	Timeout           duration `toml:"timeout"`
	MaxRetries        int      `toml:"max_retries"`
	RequestsPerSecond float64  `toml:"requests_per_second"` // 0 disables limiting
}

// ScanConfig holds pipeline parameters.
type ScanConfig struct {
	Limit        int      `toml:"limit"`
	Concurrency  int      `toml:"concurrency"`
	FetchTimeout duration `toml:"fetch_timeout"`
	Interval     duration `toml:"interval"`
	RankBy       string   `toml:"rank_by"`
	// Record mirrors fetched histories into the event store.
	Record bool `toml:"record"`
}

// PostgresConfig holds the relational store connection.
type PostgresConfig struct {
	DSN string `toml:"dsn"`
}

// ClickHouseConfig holds the snapshot store connection. Empty DSN disables snapshots.
type ClickHouseConfig struct {
	DSN string `toml:"dsn"`
}

// RedisConfig holds history cache parameters. Empty Addr disables the cache.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	TLSEnabled bool     `toml:"tls_enabled"`
	TTL        duration `toml:"ttl"`
}

// S3Config holds run archive parameters. Empty Bucket disables archiving.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// duration wraps time.Duration so the TOML decoder can parse strings like "15s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Objkt: ObjktConfig{
			GraphQLURL:        objkt.DefaultEndpoint,
			Timeout:           duration{objkt.DefaultTimeout},
			MaxRetries:        objkt.DefaultMaxRetries,
			RequestsPerSecond: objkt.DefaultRequestsPerSecond,
		},
		Scan: ScanConfig{
			Limit:        pipeline.DefaultLimit,
			Concurrency:  pipeline.DefaultConcurrencyLimit,
			FetchTimeout: duration{pipeline.DefaultFetchTimeout},
			Interval:     duration{10 * time.Minute},
			RankBy:       string(pipeline.RankNone),
		},
		Thresholds: signal.DefaultThresholds(),
		Redis: RedisConfig{
			PoolSize: 10,
			TTL:      duration{2 * time.Minute},
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// resolveSelfAddress derives SelfAddress from SelfPublicKey when only the key is set,
// and checks that both agree when both are set.
func (c *Config) resolveSelfAddress() error {
	if c.SelfPublicKey == "" {
		return nil
	}
	derived, err := tezos.AddressFromPublicKey(c.SelfPublicKey)
	if err != nil {
		return fmt.Errorf("self_public_key: %w", err)
	}
	if c.SelfAddress == "" {
		c.SelfAddress = derived
		return nil
	}
	if c.SelfAddress != derived {
		return fmt.Errorf("self_address %s does not match self_public_key (derives %s)", c.SelfAddress, derived)
	}
	return nil
}

// RankBy returns the parsed ranking mode.
func (c *Config) RankBy() pipeline.RankBy {
	r, err := pipeline.ParseRankBy(c.Scan.RankBy)
	if err != nil {
		return pipeline.RankNone
	}
	return r
}

// Validate checks all fields and returns every problem at once.
// It also fills SelfAddress from SelfPublicKey when only the key is configured.
func (c *Config) Validate() error {
	var errs []string

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("unknown log_format %q (valid: text, json)", c.LogFormat))
	}

	if err := c.resolveSelfAddress(); err != nil {
		errs = append(errs, err.Error())
	}
	switch {
	case c.SelfAddress == "" && c.SelfPublicKey == "":
		errs = append(errs, "self_address (or self_public_key) is required")
	case c.SelfAddress != "":
		if err := tezos.ValidateAddress(c.SelfAddress); err != nil {
			errs = append(errs, fmt.Sprintf("self_address: %v", err))
		}
	}

	// objkt
	if c.Objkt.GraphQLURL == "" {
		errs = append(errs, "objkt: graphql_url must not be empty")
	}
	if c.Objkt.Timeout.Duration <= 0 {
		errs = append(errs, "objkt: timeout must be > 0")
	}
	if c.Objkt.MaxRetries < 0 {
		errs = append(errs, "objkt: max_retries must be >= 0")
	}
	if c.Objkt.RequestsPerSecond < 0 {
		errs = append(errs, "objkt: requests_per_second must be >= 0")
	}

	// scan
	if c.Scan.Limit < 1 {
		errs = append(errs, "scan: limit must be >= 1")
	}
	if c.Scan.Concurrency < 1 {
		errs = append(errs, "scan: concurrency must be >= 1")
	}
	if c.Scan.FetchTimeout.Duration <= 0 {
		errs = append(errs, "scan: fetch_timeout must be > 0")
	}
	if c.Scan.Interval.Duration < time.Second {
		errs = append(errs, "scan: interval must be at least 1s")
	}
	if _, err := pipeline.ParseRankBy(c.Scan.RankBy); err != nil {
		errs = append(errs, fmt.Sprintf("scan: %v", err))
	}

	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("thresholds: %v", err))
	}

	// storage
	if !c.UseMemory && c.Postgres.DSN == "" {
		errs = append(errs, "postgres: dsn is required (or set use_memory)")
	}
	if c.Scan.Record && c.UseMemory {
		errs = append(errs, "scan: record requires postgres storage")
	}
	if c.Redis.Addr != "" && c.Redis.TTL.Duration <= 0 {
		errs = append(errs, "redis: ttl must be > 0")
	}
	if c.S3.Bucket != "" && c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty when bucket is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// NewLogger builds the root logger from LogLevel and LogFormat.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
