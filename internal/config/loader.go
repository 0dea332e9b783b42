package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load merges the TOML file at path (skipped when path is empty) over Defaults,
// loads .env if present and applies OBJKT_* overrides. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	// Missing .env is fine
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides overwrites fields whose OBJKT_* variable is set and non-empty.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.SelfAddress, "OBJKT_SELF_ADDRESS")
	setStr(&cfg.SelfPublicKey, "OBJKT_SELF_PUBLIC_KEY")
	setStr(&cfg.LogLevel, "OBJKT_LOG_LEVEL")
	setStr(&cfg.LogFormat, "OBJKT_LOG_FORMAT")
	setBool(&cfg.UseMemory, "OBJKT_USE_MEMORY")

	setStr(&cfg.Objkt.GraphQLURL, "OBJKT_GRAPHQL_URL")
	setDuration(&cfg.Objkt.Timeout, "OBJKT_TIMEOUT")
	setInt(&cfg.Objkt.MaxRetries, "OBJKT_MAX_RETRIES")
	setFloat64(&cfg.Objkt.RequestsPerSecond, "OBJKT_REQUESTS_PER_SECOND")

	setInt(&cfg.Scan.Limit, "OBJKT_SCAN_LIMIT")
	setInt(&cfg.Scan.Concurrency, "OBJKT_SCAN_CONCURRENCY")
	setDuration(&cfg.Scan.FetchTimeout, "OBJKT_SCAN_FETCH_TIMEOUT")
	setDuration(&cfg.Scan.Interval, "OBJKT_SCAN_INTERVAL")
	setStr(&cfg.Scan.RankBy, "OBJKT_SCAN_RANK_BY")
	setBool(&cfg.Scan.Record, "OBJKT_SCAN_RECORD")

	setInt64(&cfg.Thresholds.MinListed, "OBJKT_THRESHOLDS_MIN_LISTED")
	setInt64(&cfg.Thresholds.MaxListed, "OBJKT_THRESHOLDS_MAX_LISTED")
	setInt64(&cfg.Thresholds.MinSold, "OBJKT_THRESHOLDS_MIN_SOLD")

	setStr(&cfg.Postgres.DSN, "OBJKT_POSTGRES_DSN")
	setStr(&cfg.ClickHouse.DSN, "OBJKT_CLICKHOUSE_DSN")

	setStr(&cfg.Redis.Addr, "OBJKT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "OBJKT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "OBJKT_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "OBJKT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.TTL, "OBJKT_REDIS_TTL")

	setStr(&cfg.S3.Endpoint, "OBJKT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "OBJKT_S3_REGION")
	setStr(&cfg.S3.Bucket, "OBJKT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "OBJKT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "OBJKT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "OBJKT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "OBJKT_S3_FORCE_PATH_STYLE")

	setStr(&cfg.Server.Addr, "OBJKT_SERVER_ADDR")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
