package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingSetting is returned by Validate for unset required settings.
var ErrMissingSetting = errors.New("missing required setting")

type (
	Config struct {
		WeRead
		Notion
		Catalog
		CI
		Database
		Logging
		Global
	}

	WeRead struct {
		Cookie        string
		RetryAttempts int
		RetryDelay    time.Duration
		RateLimit     float64 // requests per second
	}
	Notion struct {
		Token              string
		BookDatabaseID     string
		ReadDatabaseID     string
		AuthorDatabaseID   string
		CategoryDatabaseID string
		YearDatabaseID     string
		MonthDatabaseID    string
		SchemaFile         string
	}
	Catalog struct {
		Enabled       bool
		BaseURL       string
		RetryAttempts int
		RetryDelay    time.Duration
	}
	// CI holds values set by the workflow that triggers a run. They are only
	// logged and recorded in the run ledger.
	CI struct {
		Ref        string
		Repository string
	}
	Database struct {
		Path string
	}
	Logging struct {
		Level  string
		Format string
	}
	Global struct {
		Timezone    string
		DryRun      bool
		HTTPTimeout time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("timezone", DefaultTimezone)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("dry_run", false)
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "auto")

	v.SetDefault("catalog_enabled", true)
	v.SetDefault("catalog_base_url", DefaultCatalogBaseURL)
	v.SetDefault("catalog_retry_attempts", 3)
	v.SetDefault("catalog_retry_delay", "5s")

	v.SetDefault("source_retry_attempts", 1)
	v.SetDefault("source_retry_delay", "2s")
	v.SetDefault("source_rate_limit", 2)

	return &Config{
		WeRead: WeRead{
			Cookie:        strings.TrimSpace(v.GetString("WEREAD_COOKIE")),
			RetryAttempts: v.GetInt("SOURCE_RETRY_ATTEMPTS"),
			RetryDelay:    v.GetDuration("SOURCE_RETRY_DELAY"),
			RateLimit:     v.GetFloat64("SOURCE_RATE_LIMIT"),
		},
		Notion: Notion{
			Token:              v.GetString("NOTION_TOKEN"),
			BookDatabaseID:     v.GetString("NOTION_BOOK_DATABASE_ID"),
			ReadDatabaseID:     v.GetString("NOTION_READ_DATABASE_ID"),
			AuthorDatabaseID:   v.GetString("NOTION_AUTHOR_DATABASE_ID"),
			CategoryDatabaseID: v.GetString("NOTION_CATEGORY_DATABASE_ID"),
			YearDatabaseID:     v.GetString("NOTION_YEAR_DATABASE_ID"),
			MonthDatabaseID:    v.GetString("NOTION_MONTH_DATABASE_ID"),
			SchemaFile:         v.GetString("NOTION_SCHEMA_FILE"),
		},
		Catalog: Catalog{
			Enabled:       v.GetBool("CATALOG_ENABLED"),
			BaseURL:       v.GetString("CATALOG_BASE_URL"),
			RetryAttempts: v.GetInt("CATALOG_RETRY_ATTEMPTS"),
			RetryDelay:    v.GetDuration("CATALOG_RETRY_DELAY"),
		},
		CI: CI{
			Ref:        v.GetString("REF"),
			Repository: v.GetString("REPOSITORY"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Global: Global{
			Timezone:    v.GetString("TIMEZONE"),
			DryRun:      v.GetBool("DRY_RUN"),
			HTTPTimeout: v.GetDuration("HTTP_TIMEOUT"),
		},
	}
}

// Validate reports every required setting that is empty.
func (c *Config) Validate() error {
	var missing []string
	for name, value := range map[string]string{
		"WEREAD_COOKIE":           c.WeRead.Cookie,
		"NOTION_TOKEN":            c.Notion.Token,
		"NOTION_BOOK_DATABASE_ID": c.Notion.BookDatabaseID,
		"NOTION_READ_DATABASE_ID": c.Notion.ReadDatabaseID,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}

	if c.WeRead.RetryAttempts < 1 {
		return fmt.Errorf("SOURCE_RETRY_ATTEMPTS must be at least 1, got %d", c.WeRead.RetryAttempts)
	}
	if c.Catalog.RetryAttempts < 1 {
		return fmt.Errorf("CATALOG_RETRY_ATTEMPTS must be at least 1, got %d", c.Catalog.RetryAttempts)
	}
	if c.WeRead.RateLimit <= 0 {
		return fmt.Errorf("SOURCE_RATE_LIMIT must be positive, got %v", c.WeRead.RateLimit)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Global.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Global.Timezone, err)
	}
	return loc, nil
}
