// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"interview/types"
)

const (
	EmbeddingProviderGemini = "gemini"
	EmbeddingProviderOpenAI = "openai"
)

// Config holds all application configuration.
type Config struct {
	ServerAddr string
	LogLevel   string

	PGHost     string
	PGPort     int
	PGUser     string
	PGPass     string
	PGDBName   string
	PGSSLMode  string
	PGMaxConns int

	EmbeddingDim       int
	EmbeddingProvider  string
	EmbeddingModel     string
	EmbeddingCacheSize int
	GoogleAPIKey       string
	OpenAIAPIKey       string

	LLMBaseURL   string
	LLMAPIKey    string
	LLMModel     string
	LLMMaxTokens int

	AssemblyAIAPIKey       string
	AssemblyAIBaseURL      string
	TranscribePollInterval time.Duration
	TranscribeTimeout      time.Duration

	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string
	ElevenLabsVoiceID string
	ElevenLabsModelID string

	EmotionServiceURL string
	WebSearchEnabled  bool

	SessionTTL      time.Duration
	SessionMax      int
	ProviderTimeout time.Duration
	RetrievalTopK   int

	LoaderSourceDir      string
	LoaderArchiveDir     string
	LoaderBadDir         string
	LoaderWatch          bool
	LoaderMonitoringTime time.Duration
	ChunkSize            int
	ChunkOverlap         int
	PDFCropTop           float64
	PDFCropBottom        float64
	EmbeddingRateLimit   float64
}

// DSN builds the libpq connection string used by pgxpool.
// Values are single-quoted so spaces and quotes survive parsing.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		quoteDSN(c.PGHost), c.PGPort, quoteDSN(c.PGUser), quoteDSN(c.PGPass),
		quoteDSN(c.PGDBName), quoteDSN(c.PGSSLMode), c.PGMaxConns)
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteDSN(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}

// LoaderConfig returns the ingestion settings.
func (c *Config) LoaderConfig() types.Config {
	return types.Config{
		MonitoringTime: c.LoaderMonitoringTime,
		Watch:          c.LoaderWatch,
		SourceDir:      c.LoaderSourceDir,
		ArchiveDir:     c.LoaderArchiveDir,
		BadDir:         c.LoaderBadDir,
		ChunkSize:      c.ChunkSize,
		ChunkOverlap:   c.ChunkOverlap,
		CropTop:        c.PDFCropTop,
		CropBottom:     c.PDFCropBottom,
		RateLimit:      c.EmbeddingRateLimit,
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go duration strings ("90s", "5m").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// Load reads configuration from environment variables and returns a Config struct.
// It loads a .env file when one exists. LLM_API_KEY is required.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	llmAPIKey := os.Getenv("LLM_API_KEY")
	if llmAPIKey == "" {
		return nil, errors.New("LLM_API_KEY environment variable is required but not set")
	}

	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		PGHost:     getEnv("PG_HOST", "localhost"),
		PGPort:     getEnvAsInt("PG_PORT", 5432),
		PGUser:     getEnv("PG_USER", "postgres"),
		PGPass:     getEnv("PG_PASS", "postgres"),
		PGDBName:   getEnv("PG_DB_NAME", "interview"),
		PGSSLMode:  getEnv("PG_SSLMODE", "disable"),
		PGMaxConns: getEnvAsInt("PG_MAX_CONNS", 10),

		EmbeddingDim:       getEnvAsInt("EMBEDDING_DIM", 768),
		EmbeddingProvider:  strings.ToLower(getEnv("EMBEDDING_PROVIDER", EmbeddingProviderGemini)),
		EmbeddingModel:     os.Getenv("EMBEDDING_MODEL"),
		EmbeddingCacheSize: getEnvAsInt("EMBEDDING_CACHE_SIZE", 256),
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),

		LLMBaseURL:   getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMAPIKey:    llmAPIKey,
		LLMModel:     getEnv("LLM_MODEL", "groq/compound"),
		LLMMaxTokens: getEnvAsInt("LLM_MAX_TOKENS", 2048),

		AssemblyAIAPIKey:       os.Getenv("ASSEMBLYAI_API_KEY"),
		AssemblyAIBaseURL:      getEnv("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com"),
		TranscribePollInterval: getEnvAsDuration("TRANSCRIBE_POLL_INTERVAL", 3*time.Second),
		TranscribeTimeout:      getEnvAsDuration("TRANSCRIBE_TIMEOUT", 5*time.Minute),

		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsBaseURL: getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", "JBFqnCBsd6RMkjVDRZzb"),
		ElevenLabsModelID: getEnv("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),

		EmotionServiceURL: getEnv("EMOTION_SERVICE_URL", "http://localhost:8001"),
		WebSearchEnabled:  getEnvAsBool("WEB_SEARCH_ENABLED", true),

		SessionTTL:      getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		SessionMax:      getEnvAsInt("SESSION_MAX", 1000),
		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 60*time.Second),
		RetrievalTopK:   getEnvAsInt("RETRIEVAL_TOP_K", 5),

		LoaderSourceDir:      getEnv("LOADER_SOURCE_DIR", "./data/source"),
		LoaderArchiveDir:     getEnv("LOADER_ARCHIVE_DIR", "./data/archive"),
		LoaderBadDir:         getEnv("LOADER_BAD_DIR", "./data/bad"),
		LoaderWatch:          getEnvAsBool("LOADER_WATCH", false),
		LoaderMonitoringTime: getEnvAsDuration("LOADER_MONITORING_TIME", 5*time.Second),
		ChunkSize:            getEnvAsInt("CHUNK_SIZE", 2048),
		ChunkOverlap:         getEnvAsInt("CHUNK_OVERLAP", 512),
		PDFCropTop:           getEnvAsFloat("PDF_CROP_TOP", 0),
		PDFCropBottom:        getEnvAsFloat("PDF_CROP_BOTTOM", 0),
		EmbeddingRateLimit:   getEnvAsFloat("EMBEDDING_RATE_LIMIT", 5),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.EmbeddingDim <= 0 {
		return errors.New("EMBEDDING_DIM must be a positive integer")
	}
	if c.PGMaxConns <= 0 {
		return errors.New("PG_MAX_CONNS must be a positive integer")
	}
	if c.ChunkSize <= 0 {
		return errors.New("CHUNK_SIZE must be a positive integer")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return errors.New("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	switch c.EmbeddingProvider {
	case EmbeddingProviderGemini, EmbeddingProviderOpenAI:
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	if c.TranscribePollInterval <= 0 || c.TranscribeTimeout <= 0 {
		return errors.New("TRANSCRIBE_POLL_INTERVAL and TRANSCRIBE_TIMEOUT must be positive")
	}
	return nil
}

// SetupLogging configures slog with the specified log level
func SetupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}
