package config

import (
	"os"
	"strconv"
	"time"

	"sjsage522/propertyworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Listing API configuration
	ListingAPIURL string
	SiteBaseURL   string
	CityCode      string

	// Run configuration
	StartPage int
	EndPage   int
	BatchSize int

	// Politeness delays
	DetailDelay time.Duration
	PageDelay   time.Duration

	// Output configuration
	OutputDir    string
	CSVFileName  string
	JSONFileName string

	// Optional registration-lookup cache
	MemcacheAddr string

	// Optional redis publisher
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Optional postgres sink
	PostgresDSN string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	startPage, _ := strconv.Atoi(getEnv("START_PAGE", "1"))
	endPage, _ := strconv.Atoi(getEnv("END_PAGE", "104"))
	batchSize, _ := strconv.Atoi(getEnv("BATCH_SIZE", "20"))
	detailDelay, _ := strconv.Atoi(getEnv("DETAIL_DELAY_SECONDS", "1"))
	pageDelay, _ := strconv.Atoi(getEnv("PAGE_DELAY_SECONDS", "2"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	redisStreamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))

	return Config{
		ListingAPIURL:        getEnv("LISTING_API_URL", "https://www.magicbricks.com/mbproject/newProjectCards"),
		SiteBaseURL:          getEnv("SITE_BASE_URL", "https://www.magicbricks.com"),
		CityCode:             getEnv("CITY_CODE", "3327"),
		StartPage:            startPage,
		EndPage:              endPage,
		BatchSize:            batchSize,
		DetailDelay:          time.Duration(detailDelay) * time.Second,
		PageDelay:            time.Duration(pageDelay) * time.Second,
		OutputDir:            getEnv("OUTPUT_DIR", "output"),
		CSVFileName:          getEnv("CSV_FILE_NAME", "magicbricks_projects.csv"),
		JSONFileName:         getEnv("JSON_FILE_NAME", "magicbricks_projects.json"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "projects"),
		RedisStreamCount:     redisStreamCount,
		RedisStreamMaxLength: redisStreamMaxLength,
		PostgresDSN:          getEnv("POSTGRES_DSN", ""),
		Environment:          getEnv("SCRAPER_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.ListingAPIURL == "" {
		return errors.NewConfiguration("listing API URL must not be empty", nil)
	}
	if c.SiteBaseURL == "" {
		return errors.NewConfiguration("site base URL must not be empty", nil)
	}
	if c.StartPage < 1 {
		return errors.NewConfiguration("start page must be at least 1", nil)
	}
	if c.EndPage < c.StartPage {
		return errors.NewConfiguration("end page must not be before start page", nil)
	}
	if c.BatchSize < 1 {
		return errors.NewConfiguration("batch size must be at least 1", nil)
	}
	if c.OutputDir == "" {
		return errors.NewConfiguration("output directory must not be empty", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
