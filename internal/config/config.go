package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	StaticFilesPath string
	Debug           bool

	// Database
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	// Journal persistence
	JournalBackend string // "sql", "disk" or "memory"
	JournalDir     string
	JournalKey     string

	// Stage catalogue override (YAML)
	StagesFile string

	// Text suggestion provider
	GeminiAPIKey    string
	GeminiModel     string
	UseMockLLM      bool
	ProviderTimeout time.Duration

	// Session timing
	AnimationDuration   time.Duration
	CelebrationDuration time.Duration
	JournalPromptDelay  time.Duration
	SessionIdleTimeout  time.Duration

	// Capture surface viewport used to synthesise catch origins
	ViewportWidth  float64
	ViewportHeight float64

	SessionSecret string
	ReadAloud     bool

	// Parent notifications
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	ParentEmail  string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first if present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg := &Config{
		ServerPort:      getEnv("PORT", "8080"),
		StaticFilesPath: getEnv("STATIC_PATH", "./static"),
		Debug:           getBoolEnv("DEBUG", false),

		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./readingquest.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", ""),

		JournalBackend: strings.ToLower(getEnv("JOURNAL_BACKEND", "sql")),
		JournalDir:     getEnv("JOURNAL_DIR", "./journal"),
		JournalKey:     getEnv("JOURNAL_KEY", "celine-royal-reading-journal"),

		StagesFile: getEnv("STAGES_FILE", ""),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ProviderTimeout: getDurationEnv("PROVIDER_TIMEOUT", 10*time.Second),

		AnimationDuration:   getDurationEnv("ANIMATION_DURATION", 1200*time.Millisecond),
		CelebrationDuration: getDurationEnv("CELEBRATION_DURATION", 8*time.Second),
		JournalPromptDelay:  getDurationEnv("JOURNAL_PROMPT_DELAY", 8500*time.Millisecond),
		SessionIdleTimeout:  getDurationEnv("SESSION_IDLE_TIMEOUT", 2*time.Hour),

		ViewportWidth:  getFloatEnv("VIEWPORT_WIDTH", 1024),
		ViewportHeight: getFloatEnv("VIEWPORT_HEIGHT", 768),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		ReadAloud:     getBoolEnv("READ_ALOUD", false),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Royal Reading Journal"),
		ParentEmail:  getEnv("PARENT_EMAIL", ""),
	}

	// Without an API key the real provider cannot work, so use the canned one
	cfg.UseMockLLM = getBoolEnv("USE_MOCK_LLM", cfg.GeminiAPIKey == "")

	if cfg.SessionSecret == "" {
		log.Println("Warning: SESSION_SECRET not set, session tokens will not survive a restart")
	}

	return cfg
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv reads a boolean environment variable
func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid boolean for %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return b
}

// getDurationEnv reads a duration such as "1200ms" or "8s"
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		log.Printf("Warning: invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

// getFloatEnv reads a floating point environment variable
func getFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		log.Printf("Warning: invalid number for %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return f
}
