// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment environment the service runs in
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// LLM provider names
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes
	MaxReportLength   int   // Maximum report length in characters

	ICD10APIURL  string
	ICD10MaxList int
	ICD10Timeout time.Duration

	LLMProvider    string // Default provider when a request does not name one
	LocalLLMURL    string
	LocalLLMModel  string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	LLMTemperature float64
	LLMTimeout     time.Duration

	ProbeInterval time.Duration
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               Environment(strings.ToLower(getEnvWithDefault("ENV", "dev"))),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default
		MaxReportLength:   getIntEnvWithDefault("MAX_REPORT_LENGTH", 50000),

		ICD10APIURL:  getEnvWithDefault("ICD10_API_URL", "https://clinicaltables.nlm.nih.gov/api/icd10cm/v3/search"),
		ICD10MaxList: getIntEnvWithDefault("ICD10_MAX_LIST", 1),
		ICD10Timeout: getDurationEnvWithDefault("ICD10_TIMEOUT", 5*time.Second),

		LLMProvider:    strings.ToLower(getEnvWithDefault("LLM_PROVIDER", ProviderOpenAI)),
		LocalLLMURL:    os.Getenv("LOCAL_LLM_URL"),
		LocalLLMModel:  getEnvWithDefault("LOCAL_LLM_MODEL", "local-model"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnvWithDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:  getEnvWithDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		LLMTemperature: getFloatEnvWithDefault("LLM_TEMPERATURE", 0.2),
		LLMTimeout:     getDurationEnvWithDefault("LLM_TIMEOUT", 120*time.Second),

		ProbeInterval: getDurationEnvWithDefault("PROBE_INTERVAL", 5*time.Minute),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if cfg.MaxReportLength <= 0 {
		return fmt.Errorf("invalid MAX_REPORT_LENGTH: must be positive, got: %d", cfg.MaxReportLength)
	}

	if err := validateHTTPURL(cfg.ICD10APIURL); err != nil {
		return fmt.Errorf("invalid ICD10_API_URL: %w", err)
	}

	if cfg.ICD10MaxList < 1 || cfg.ICD10MaxList > 500 {
		return fmt.Errorf("invalid ICD10_MAX_LIST: must be between 1 and 500, got: %d", cfg.ICD10MaxList)
	}

	if cfg.ICD10Timeout <= 0 {
		return fmt.Errorf("invalid ICD10_TIMEOUT: must be positive, got: %s", cfg.ICD10Timeout)
	}

	if err := validateProvider(cfg.LLMProvider); err != nil {
		return fmt.Errorf("invalid LLM_PROVIDER: %w", err)
	}

	// The local endpoint may stay unset; calls to it then fail with a configuration error.
	if cfg.LocalLLMURL != "" {
		if err := validateHTTPURL(cfg.LocalLLMURL); err != nil {
			return fmt.Errorf("invalid LOCAL_LLM_URL: %w", err)
		}
	}

	if err := validateHTTPURL(cfg.OpenAIBaseURL); err != nil {
		return fmt.Errorf("invalid OPENAI_BASE_URL: %w", err)
	}

	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 2 {
		return fmt.Errorf("invalid LLM_TEMPERATURE: must be between 0 and 2, got: %v", cfg.LLMTemperature)
	}

	if cfg.LLMTimeout <= 0 {
		return fmt.Errorf("invalid LLM_TIMEOUT: must be positive, got: %s", cfg.LLMTimeout)
	}

	if cfg.ProbeInterval < time.Second {
		return fmt.Errorf("invalid PROBE_INTERVAL: must be at least 1s, got: %s", cfg.ProbeInterval)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Report text is patient data; keep the listener off public interfaces
	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, use a private network range", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env Environment) error {
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction, EnvTest:
		return nil
	case "":
		return fmt.Errorf("ENV cannot be empty")
	}

	return fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateProvider validates an LLM provider name
func validateProvider(provider string) error {
	switch provider {
	case ProviderOpenAI, ProviderLocal:
		return nil
	}
	return fmt.Errorf("provider must be one of: [%s %s], got: %s", ProviderOpenAI, ProviderLocal, provider)
}

// validateHTTPURL checks that raw is an absolute http(s) URL
func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("URL is malformed: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must include a host, got: %s", raw)
	}

	return nil
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault accepts Go durations ("5s") or a bare number of seconds
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"MAX_REPORT_LENGTH",
		"ICD10_API_URL",
		"ICD10_MAX_LIST",
		"ICD10_TIMEOUT",
		"LLM_PROVIDER",
		"LOCAL_LLM_URL",
		"LOCAL_LLM_MODEL",
		"OPENAI_API_KEY",
		"OPENAI_MODEL",
		"OPENAI_BASE_URL",
		"LLM_TEMPERATURE",
		"LLM_TIMEOUT",
		"PROBE_INTERVAL",
	}
}

// UnsetEnvVars lists the expected variables absent from the environment,
// which therefore run on their defaults
func UnsetEnvVars() []string {
	var unset []string
	for _, key := range GetEnvVars() {
		if _, ok := os.LookupEnv(key); !ok {
			unset = append(unset, key)
		}
	}
	return unset
}
