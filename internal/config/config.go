package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	// Server
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Storage backends
	PostgresURI string
	RedisURI    string

	// Operator auth
	AuthEnabled     bool
	OperatorKeyHash string
	JWTSecret       string
	JWTExpiration   time.Duration

	// Google Cloud service account bundle
	CredentialsFile string
	CredentialsJSON string
	ProjectID       string
	Location        string

	// Text generation
	GeminiAPIKey     string
	OpenAIAPIKey     string
	TextModel        string
	Temperature      float64
	TextRateLimit    float64
	StructuredOutput bool

	// Image generation
	ImageModel         string
	ImageFallbackModel string
	ImageAspectRatio   string
	ImageFormat        string

	// Content fetch
	FetchTimeout  time.Duration
	FetchRenderJS bool
	UserAgent     string

	// Bulk mode
	BulkDelay time.Duration

	// Transient artifacts kept for download
	ArtifactTTL time.Duration
}

// NewConfig creates a new configuration from environment variables
func NewConfig() *Config {
	readTimeoutSec, _ := strconv.Atoi(getEnv("READ_TIMEOUT", "5"))
	writeTimeoutSec, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT", "120"))
	jwtExpirationHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	fetchTimeoutSec, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT", "10"))
	bulkDelaySec, _ := strconv.Atoi(getEnv("BULK_DELAY", "2"))
	artifactTTLMin, _ := strconv.Atoi(getEnv("ARTIFACT_TTL_MINUTES", "60"))

	return &Config{
		// Server
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		ReadTimeout:  time.Duration(readTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(writeTimeoutSec) * time.Second,

		// Storage backends
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", "redis://localhost:6379/0"),

		// Operator auth
		AuthEnabled:     getBool("AUTH_ENABLED", false),
		OperatorKeyHash: getEnv("OPERATOR_KEY_HASH", ""),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration:   time.Duration(jwtExpirationHours) * time.Hour,

		// Google Cloud
		CredentialsFile: getEnv("GCP_CREDENTIALS_FILE", ""),
		CredentialsJSON: getEnv("GCP_CREDENTIALS_JSON", ""),
		ProjectID:       getEnv("GCP_PROJECT_ID", ""),
		Location:        getEnv("GCP_LOCATION", "us-central1"),

		// Text generation
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		TextModel:        getEnv("TEXT_MODEL", "gemini-2.5-flash"),
		Temperature:      getFloat("TEMPERATURE", 0.2),
		TextRateLimit:    getFloat("TEXT_RATE_LIMIT", 1),
		StructuredOutput: getBool("STRUCTURED_OUTPUT", true),

		// Image generation
		ImageModel:         getEnv("IMAGE_MODEL", "imagen-3.0-generate-001"),
		ImageFallbackModel: getEnv("IMAGE_FALLBACK_MODEL", "imagegeneration@006"),
		ImageAspectRatio:   getEnv("IMAGE_ASPECT_RATIO", "4:3"),
		ImageFormat:        strings.ToLower(getEnv("IMAGE_FORMAT", "jpeg")),

		// Content fetch
		FetchTimeout:  time.Duration(fetchTimeoutSec) * time.Second,
		FetchRenderJS: getBool("FETCH_RENDER_JS", false),
		UserAgent:     getEnv("FETCH_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),

		// Bulk mode
		BulkDelay: time.Duration(bulkDelaySec) * time.Second,

		// Transient artifacts
		ArtifactTTL: time.Duration(artifactTTLMin) * time.Minute,
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}
