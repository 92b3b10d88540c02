package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Import   ImportConfig   `yaml:"import"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"false"`
}

// ImportConfig holds dictionary import settings.
type ImportConfig struct {
	UploadDir          string `yaml:"upload_dir"           env:"IMPORT_UPLOAD_DIR"           env-default:"./data/raw"`
	MaxUploadBytes     int64  `yaml:"max_upload_bytes"     env:"IMPORT_MAX_UPLOAD_BYTES"     env-default:"67108864"`
	MaxConcurrentJobs  int    `yaml:"max_concurrent_jobs"  env:"IMPORT_MAX_CONCURRENT_JOBS"  env-default:"2"`
	BatchSize          int    `yaml:"batch_size"           env:"IMPORT_BATCH_SIZE"           env-default:"500"`
	ReindexAfterJob    bool   `yaml:"reindex_after_job"    env:"IMPORT_REINDEX_AFTER_JOB"    env-default:"true"`
	DefaultPinyinStyle string `yaml:"default_pinyin_style" env:"IMPORT_DEFAULT_PINYIN_STYLE" env-default:"numbers"`
	// RateLimitPerMinute caps upload and trigger requests per client IP; 0 disables it.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" env:"IMPORT_RATE_LIMIT_PER_MINUTE" env-default:"30"`
	// JobRetention is how long finished jobs stay in memory before Status
	// reads them from the store; 0 keeps them until restart.
	JobRetention time.Duration `yaml:"job_retention" env:"IMPORT_JOB_RETENTION" env-default:"1h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
