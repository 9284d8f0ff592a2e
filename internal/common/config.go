package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/expense-tracker/constants"
)

// Extraction modes.
const (
	ModeOCRLLM   = "ocr+llm"
	ModeOCRRules = "ocr+rules"
	ModeVision   = "vision"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	OCR        OCRConfig
	LLM        LLMConfig
	Extraction ExtractionConfig
	Log        LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr            string
	GRPCAddr            string // empty disables the gRPC health server
	HealthCheckInterval time.Duration
	ShutdownTimeout     time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	APIKey   string
	Endpoint string
	Language string
	Engine   int
	Timeout  time.Duration
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// ExtractionConfig selects the pipeline variant.
type ExtractionConfig struct {
	Mode           string
	MaxUploadBytes int64
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string
	File        string
	Development bool
}

// LoadDotEnv loads variables from .env files when present. Missing files are ignored;
// variables already set in the environment win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	httpAddr := getEnv("HTTP_ADDR", "")
	if httpAddr == "" {
		httpAddr = getEnv("PORT", "5000")
	}
	if !strings.Contains(httpAddr, ":") {
		httpAddr = ":" + httpAddr
	}

	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", "sqlite://expenses.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:            httpAddr,
			GRPCAddr:            getEnv("GRPC_ADDR", ""),
			HealthCheckInterval: getEnvAsDuration("HEALTH_CHECK_INTERVAL", 15*time.Second),
			ShutdownTimeout:     getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		OCR: OCRConfig{
			APIKey:   getEnv("OCR_SPACE_API_KEY", ""),
			Endpoint: getEnv("OCR_SPACE_URL", "https://api.ocr.space/parse/image"),
			Language: getEnv("OCR_LANGUAGE", "eng"),
			Engine:   getEnvAsInt("OCR_ENGINE", 2),
			Timeout:  getEnvAsDuration("OCR_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
		},
		Extraction: ExtractionConfig{
			Mode:           strings.ToLower(getEnv("EXTRACTION_MODE", ModeOCRLLM)),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", constants.MaxUploadBytes)),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			File:        getEnv("LOG_FILE", ""),
			Development: getEnvAsBool("LOG_DEV", false),
		},
	}
}

// EffectiveMode returns the extraction mode actually used: ocr+llm without an LLM key
// degrades to the rules structurer.
func (c *Config) EffectiveMode() string {
	if c.Extraction.Mode == ModeOCRLLM && c.LLM.APIKey == "" {
		return ModeOCRRules
	}
	return c.Extraction.Mode
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Extraction.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	switch c.Extraction.Mode {
	case ModeOCRLLM, ModeOCRRules:
		if c.OCR.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OCR_SPACE_API_KEY is required for mode "+c.Extraction.Mode, ErrInvalidInput)
		}
	case ModeVision:
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required for mode vision", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "unknown EXTRACTION_MODE "+c.Extraction.Mode, ErrInvalidInput)
	}
	return nil
}
