package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
)

// Config holds all application configuration
type Config struct {
	LLM     LLMConfig
	Tables  TablesConfig
	Extract ExtractConfig
	Export  ExportConfig
	Batch   BatchConfig
	Log     LogConfig
}

// LLMConfig holds generative-model configuration
type LLMConfig struct {
	Enabled     bool
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// TablesConfig holds table normalization thresholds
type TablesConfig struct {
	MinRows    int
	MinCols    int
	HeaderMode constants.HeaderMode
}

// ExtractConfig holds field extraction limits
type ExtractConfig struct {
	TextWindow      int
	ArrayTextWindow int
	MaxSchemaDepth  int
	MaxPages        int
}

// ExportConfig holds workbook limits
type ExportConfig struct {
	MaxSheets int
}

// BatchConfig holds worker pool settings for batch and watch runs
type BatchConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	Debounce  time.Duration
}

// LogConfig selects the slog handler
type LogConfig struct {
	Format string
	Level  string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Enabled:     getEnvAsBool("LLM_ENABLED", true),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("LLM_MODEL_NAME", "gpt-4o-mini"),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 256),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		},
		Tables: TablesConfig{
			MinRows:    getEnvAsInt("TABLE_MIN_ROWS", 2),
			MinCols:    getEnvAsInt("TABLE_MIN_COLS", 2),
			HeaderMode: constants.HeaderMode(strings.ToLower(getEnv("TABLE_HEADER_MODE", string(constants.HeaderModeAuto)))),
		},
		Extract: ExtractConfig{
			TextWindow:      getEnvAsInt("EXTRACT_TEXT_WINDOW", 3000),
			ArrayTextWindow: getEnvAsInt("EXTRACT_ARRAY_TEXT_WINDOW", 6000),
			MaxSchemaDepth:  getEnvAsInt("EXTRACT_MAX_SCHEMA_DEPTH", 8),
			MaxPages:        getEnvAsInt("PDF_MAX_PAGES", 100),
		},
		Export: ExportConfig{
			MaxSheets: getEnvAsInt("EXCEL_MAX_SHEETS", 50),
		},
		Batch: BatchConfig{
			Workers:   getEnvAsInt("BATCH_WORKERS", 4),
			QueueSize: getEnvAsInt("BATCH_QUEUE_SIZE", 64),
			Timeout:   getEnvAsDuration("BATCH_TIMEOUT", 3*time.Minute),
			Debounce:  getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
		},
		Log: LogConfig{
			Format: getEnv("LOG_FORMAT", "json"),
			Level:  getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("TABLE_MIN_ROWS", c.Tables.MinRows, Positive)
	v.Field("TABLE_MIN_COLS", c.Tables.MinCols, Positive)
	v.Field("TABLE_HEADER_MODE", string(c.Tables.HeaderMode),
		OneOf(string(constants.HeaderModeAuto), string(constants.HeaderModeAlways), string(constants.HeaderModeNever)))
	v.Field("EXTRACT_TEXT_WINDOW", c.Extract.TextWindow, Positive)
	v.Field("EXTRACT_ARRAY_TEXT_WINDOW", c.Extract.ArrayTextWindow, Positive)
	v.Field("EXTRACT_MAX_SCHEMA_DEPTH", c.Extract.MaxSchemaDepth, Positive)
	v.Field("PDF_MAX_PAGES", c.Extract.MaxPages, Positive)
	v.Field("EXCEL_MAX_SHEETS", c.Export.MaxSheets, Positive)
	v.Field("BATCH_WORKERS", c.Batch.Workers, Positive)
	v.Field("LOG_FORMAT", c.Log.Format, OneOf("json", "text"))
	if c.LLM.Enabled {
		v.Field("LLM_MODEL_NAME", c.LLM.Model, Required)
		v.Field("LLM_MAX_TOKENS", c.LLM.MaxTokens, Positive)
	}
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
