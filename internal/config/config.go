package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fernet/fernet-go"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSymbols is the instrument universe used when neither the request nor the
// config file names any symbols. Only the first MaxSymbols are fetched.
var DefaultSymbols = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "NFLX",
	"BABA", "JD", "PDD", "BIDU", "NIO", "XPEV", "LI",
	"SPY", "QQQ", "IWM", "VTI", "VEA", "VWO", "BND", "TLT",
	"GDX", "XLF", "XLK", "XLE", "XLV", "XLI", "XLP", "XLY", "XLU", "XLRE", "XLB", "XLC",
}

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	CORS        CORSConfig
	Acquisition AcquisitionConfig
	LLM         LLMConfig
	Baselines   BaselineConfig
	Log         LogConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds the run journal database configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// AcquisitionConfig controls the quote acquisition pipeline.
//
// SymbolTimeout bounds each parallel fetch and BatchTimeout bounds the whole
// parallel phase. When BatchTimeout elapses, the first SerialFallbackSize symbols
// are retried one at a time under SerialTimeout each.
type AcquisitionConfig struct {
	Provider           string
	Symbols            []string
	Categories         map[string]string
	MaxSymbols         int
	MaxConcurrency     int
	SymbolTimeout      time.Duration
	BatchTimeout       time.Duration
	SerialTimeout      time.Duration
	SerialFallbackSize int
}

// LLMConfig holds the settings for the external analysis model.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Enabled reports whether a well-formed credential is configured.
// A well-formed key is non-empty after trimming and contains no whitespace.
func (c LLMConfig) Enabled() bool {
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return false
	}
	return strings.IndexFunc(key, unicode.IsSpace) == -1
}

// BaselineConfig controls the category baseline cache and its refresh schedule.
type BaselineConfig struct {
	Enabled         bool
	RefreshSchedule string
	TTL             time.Duration
	SymbolTimeout   time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// fileConfig is the optional YAML overlay. Environment variables win over it.
type fileConfig struct {
	Symbols    []string          `yaml:"symbols"`
	Categories map[string]string `yaml:"categories"`
	LLM        struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"llm"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Load reads configuration from environment variables, .env file and the optional YAML file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	file, err := loadFile(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/fund_advisor.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://localhost",
			},
		},
		Acquisition: AcquisitionConfig{
			Provider:   getEnv("QUOTE_PROVIDER", "chart"),
			Symbols:    DefaultSymbols,
			Categories: file.Categories,
		},
		LLM: LLMConfig{
			BaseURL: getEnv("DEEPSEEK_BASE_URL", firstNonEmpty(file.LLM.BaseURL, "https://api.deepseek.com/v1")),
			Model:   getEnv("DEEPSEEK_MODEL", firstNonEmpty(file.LLM.Model, "deepseek-chat")),
		},
		Baselines: BaselineConfig{
			RefreshSchedule: getEnv("BASELINE_REFRESH_SCHEDULE", "@every 15m"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if len(file.Symbols) > 0 {
		config.Acquisition.Symbols = file.Symbols
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		config.Acquisition.Symbols = SplitList(v)
	}
	if len(file.CORS.AllowedOrigins) > 0 {
		config.CORS.AllowedOrigins = file.CORS.AllowedOrigins
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		config.CORS.AllowedOrigins = SplitList(v)
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	config.Acquisition.MaxSymbols, err = getEnvInt("MAX_SYMBOLS", 12)
	collect(err)
	config.Acquisition.MaxConcurrency, err = getEnvInt("MAX_CONCURRENCY", 12)
	collect(err)
	config.Acquisition.SerialFallbackSize, err = getEnvInt("SERIAL_FALLBACK_SIZE", 5)
	collect(err)
	config.Acquisition.SymbolTimeout, err = getEnvDuration("SYMBOL_TIMEOUT", 4*time.Second)
	collect(err)
	config.Acquisition.BatchTimeout, err = getEnvDuration("BATCH_TIMEOUT", 10*time.Second)
	collect(err)
	config.Acquisition.SerialTimeout, err = getEnvDuration("SERIAL_TIMEOUT", 3*time.Second)
	collect(err)

	temperature, err := getEnvFloat("DEEPSEEK_TEMPERATURE", 0.7)
	collect(err)
	config.LLM.Temperature = float32(temperature)
	config.LLM.MaxTokens, err = getEnvInt("DEEPSEEK_MAX_TOKENS", 2000)
	collect(err)
	config.LLM.Timeout, err = getEnvDuration("DEEPSEEK_TIMEOUT", 30*time.Second)
	collect(err)
	config.LLM.APIKey, err = loadAPIKey()
	collect(err)

	config.Baselines.Enabled, err = getEnvBool("BASELINES_ENABLED", true)
	collect(err)
	config.Baselines.TTL, err = getEnvDuration("BASELINE_TTL", 15*time.Minute)
	collect(err)
	config.Baselines.SymbolTimeout, err = getEnvDuration("BASELINE_SYMBOL_TIMEOUT", 4*time.Second)
	collect(err)

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// loadFile reads the YAML overlay. A missing file is not an error.
func loadFile(path string) (fileConfig, error) {
	var file fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return file, nil
		}
		return file, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse config file: %w", err)
	}
	return file, nil
}

// loadAPIKey returns the plain DEEPSEEK_API_KEY, or decrypts DEEPSEEK_API_KEY_ENCRYPTED
// with the fernet key in ENCRYPTION_KEY when no plain key is set.
func loadAPIKey() (string, error) {
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		return key, nil
	}
	token := os.Getenv("DEEPSEEK_API_KEY_ENCRYPTED")
	if token == "" {
		return "", nil
	}
	return DecryptSecret(token, os.Getenv("ENCRYPTION_KEY"))
}

// DecryptSecret decrypts a fernet token with the given base64 encoded key.
// The token's age is not checked.
func DecryptSecret(token, encodedKey string) (string, error) {
	if encodedKey == "" {
		return "", fmt.Errorf("ENCRYPTION_KEY is required to decrypt the API key")
	}
	keys, err := fernet.DecodeKeys(encodedKey)
	if err != nil {
		return "", fmt.Errorf("decode encryption key: %w", err)
	}
	msg := fernet.VerifyAndDecrypt([]byte(token), -1, keys)
	if msg == nil {
		return "", fmt.Errorf("decrypt API key: token is invalid for the configured key")
	}
	return string(msg), nil
}

// SplitList splits a comma separated list, trimming blanks and dropping empty entries.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", key, n)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, d)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
