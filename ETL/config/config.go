package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Event sources supported by the extract phase
const (
	SourceDB   = "db"
	SourceFile = "file"
)

// ETLConfig holds the configuration of the ETL process
type ETLConfig struct {
	// Source database holding raw_events
	OLTPConfig DatabaseConfig `json:"oltp_config" envconfig:"OLTP"`

	// Target database for fact/dimension tables and the run log
	OLAPConfig DatabaseConfig `json:"olap_config" envconfig:"OLAP"`

	// Optional ClickHouse mirror of the output tables
	ClickHouse ClickHouseConfig `json:"clickhouse"`

	// Where raw events come from: "db" or "file"
	Source string `json:"source" default:"db"`

	// CSV export read when Source is "file" (".sz" suffix means snappy-compressed)
	InputPath string `json:"input_path" split_words:"true"`

	// Interval between scheduled runs
	RunInterval time.Duration `json:"run_interval" split_words:"true" default:"1h"`

	// Page size used when reading raw_events
	BatchSize int `json:"batch_size" split_words:"true" default:"10000"`

	// Goroutines used to process visitor partitions
	Workers int `json:"workers" default:"4"`

	// Directory of the daily log file, stdout only when empty
	LogDir string `json:"log_dir" split_words:"true"`

	// Enables debug logging
	EnableDetailedLogging bool `json:"enable_detailed_logging" split_words:"true" default:"true"`

	// Purchase trend forecast settings
	Trend TrendConfig `json:"trend"`

	// Port of the read API
	APIPort string `json:"api_port" envconfig:"API_PORT" default:"8080"`
}

// DatabaseConfig holds the connection settings of a MySQL database
type DatabaseConfig struct {
	Driver   string `json:"driver" default:"mysql"`
	Host     string `json:"host" default:"localhost"`
	Port     int    `json:"port" default:"3306"`
	User     string `json:"user" default:"root"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
}

// ClickHouseConfig holds the ClickHouse mirror settings, disabled when Host is empty
type ClickHouseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port" default:"9000"`
	Database string `json:"database" default:"default"`
	Username string `json:"username" default:"default"`
	Password string `json:"password"`
}

// Enabled reports whether the ClickHouse mirror is configured
func (c ClickHouseConfig) Enabled() bool {
	return c.Host != ""
}

// TrendConfig holds the purchase trend forecast settings
type TrendConfig struct {
	Enabled            bool    `json:"enabled" default:"true"`
	AnalysisPeriodDays int     `json:"analysis_period_days" split_words:"true" default:"30"`
	ForecastDays       int     `json:"forecast_days" split_words:"true" default:"14"`
	ConfidenceLevel    float64 `json:"confidence_level" split_words:"true" default:"0.95"`
	MinR2Threshold     float64 `json:"min_r2_threshold" envconfig:"MIN_R2_THRESHOLD" default:"0.30"`
}

// Default database names
const (
	DefaultOLTPDBName = "storefront"
	DefaultOLAPDBName = "storefront_analytics"
)

// GetConfig returns the ETL configuration read from the environment.
// A .env file in the working directory is loaded first when present.
func GetConfig() (ETLConfig, error) {
	_ = godotenv.Load()

	var config ETLConfig
	if err := envconfig.Process("etl", &config); err != nil {
		return ETLConfig{}, fmt.Errorf("failed to read ETL config: %w", err)
	}

	if config.OLTPConfig.DBName == "" {
		config.OLTPConfig.DBName = DefaultOLTPDBName
	}
	if config.OLAPConfig.DBName == "" {
		config.OLAPConfig.DBName = DefaultOLAPDBName
	}

	if err := config.Validate(); err != nil {
		return ETLConfig{}, err
	}

	return config, nil
}

// Validate checks values envconfig cannot check by itself
func (c ETLConfig) Validate() error {
	switch c.Source {
	case SourceDB:
	case SourceFile:
		if c.InputPath == "" {
			return fmt.Errorf("ETL_INPUT_PATH is required when ETL_SOURCE=%s", SourceFile)
		}
	default:
		return fmt.Errorf("unknown ETL_SOURCE %q: expected %q or %q", c.Source, SourceDB, SourceFile)
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("ETL_BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("ETL_WORKERS must be positive, got %d", c.Workers)
	}

	return nil
}
