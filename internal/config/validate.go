package config

import (
	"fmt"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn must not be empty")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	if err := c.Import.validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

func (i *ImportConfig) validate() error {
	if i.UploadDir == "" {
		return fmt.Errorf("upload_dir must not be empty")
	}
	if i.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be > 0 (got %d)", i.MaxUploadBytes)
	}
	if i.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("max_concurrent_jobs must be > 0 (got %d)", i.MaxConcurrentJobs)
	}
	if i.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", i.BatchSize)
	}
	if i.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must be >= 0 (got %d)", i.RateLimitPerMinute)
	}
	if i.JobRetention < 0 {
		return fmt.Errorf("job_retention must be >= 0 (got %s)", i.JobRetention)
	}
	if !domain.NotationStyle(i.DefaultPinyinStyle).IsValid() {
		return fmt.Errorf("default_pinyin_style must be numbers, diacritics or none (got %q)", i.DefaultPinyinStyle)
	}
	return nil
}
