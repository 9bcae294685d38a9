package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"curriculum-rag-be/internal/pkg/apperror"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Ai       AIConfig
	Rag      RagConfig
	Ingest   IngestConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	IngestLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type StorageConfig struct {
	Provider        string // "supabase" or "afs"
	SupabaseURL     string
	SupabaseKey     string // service role key
	Bucket          string
	AfsLocation     string // e.g. file:///data/curriculum, s3://bucket/prefix
	DownloadTimeout time.Duration
}

type AIConfig struct {
	EmbeddingProvider   string // "openai", "ollama" or "gemini"
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingBaseURL    string
	LLMProvider         string // "openai", "huggingface" or "ollama"
	LLMModel            string
	LLMBaseURL          string
	OpenAIKey           string
	GeminiKey           string
	HuggingFaceKey      string
	OllamaBaseURL       string
	Temperature         float64
	MaxTokens           int
}

type RagConfig struct {
	ChunkSize           int
	SimilarityThreshold float64
	MatchCount          int
	MinQuestionLength   int
	MaxQuestionLength   int
	EmbedTimeout        time.Duration
	StreamTimeout       time.Duration
	QueryCacheTTL       time.Duration
}

type IngestConfig struct {
	SharedSecret       string
	Workers            int
	EmbedRatePerSecond float64
	LockTTL            time.Duration
	ReportEmail        string
	AsyncTopic         string
}

type AuthConfig struct {
	// When set, /query requires a Supabase access token signed with this secret.
	JWTSecret string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			IngestLogFilePath:  getEnv("INGEST_LOG_FILE_PATH", "logs/ingest.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Storage: StorageConfig{
			Provider:        getEnv("STORAGE_PROVIDER", "supabase"),
			SupabaseURL:     strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
			SupabaseKey:     getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			Bucket:          getEnv("CURRICULUM_BUCKET", "curriculum"),
			AfsLocation:     getEnv("AFS_LOCATION", ""),
			DownloadTimeout: getEnvAsDuration("DOWNLOAD_TIMEOUT", 60*time.Second),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 1536),
			EmbeddingBaseURL:    getEnv("EMBEDDING_BASE_URL", ""),
			LLMProvider:         getEnv("LLM_PROVIDER", "openai"),
			LLMModel:            getEnv("LLM_MODEL", "gpt-4o-mini"),
			LLMBaseURL:          getEnv("LLM_BASE_URL", ""),
			OpenAIKey:           getEnv("OPENAI_API_KEY", ""),
			GeminiKey:           getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFaceKey:      getEnv("HUGGINGFACE_API_KEY", ""),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Temperature:         getEnvAsFloat("LLM_TEMPERATURE", 0.3),
			MaxTokens:           getEnvAsInt("LLM_MAX_TOKENS", 1024),
		},
		Rag: RagConfig{
			ChunkSize:           getEnvAsInt("RAG_CHUNK_SIZE", 1500),
			SimilarityThreshold: getEnvAsFloat("RAG_SIMILARITY_THRESHOLD", 0.5),
			MatchCount:          getEnvAsInt("RAG_MATCH_COUNT", 5),
			MinQuestionLength:   getEnvAsInt("RAG_MIN_QUESTION_LENGTH", 3),
			MaxQuestionLength:   getEnvAsInt("RAG_MAX_QUESTION_LENGTH", 1000),
			EmbedTimeout:        getEnvAsDuration("RAG_EMBED_TIMEOUT", 15*time.Second),
			StreamTimeout:       getEnvAsDuration("RAG_STREAM_TIMEOUT", 2*time.Minute),
			QueryCacheTTL:       getEnvAsDuration("RAG_QUERY_CACHE_TTL", 10*time.Minute),
		},
		Ingest: IngestConfig{
			SharedSecret:       getEnv("INGEST_SECRET", ""),
			Workers:            getEnvAsInt("INGEST_WORKERS", 1),
			EmbedRatePerSecond: getEnvAsFloat("INGEST_EMBED_RATE", 5),
			LockTTL:            getEnvAsDuration("INGEST_LOCK_TTL", 15*time.Minute),
			ReportEmail:        getEnv("INGEST_REPORT_EMAIL", ""),
			AsyncTopic:         getEnv("INGEST_ASYNC_TOPIC", "CURRICULUM_INGEST"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Curriculum Assistant"),
		},
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string

	if c.Database.Connection == "" {
		missing = append(missing, "DB_CONNECTION_STRING")
	}

	switch c.Storage.Provider {
	case "supabase":
		if c.Storage.SupabaseURL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if c.Storage.SupabaseKey == "" {
			missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
		}
		if c.Storage.Bucket == "" {
			missing = append(missing, "CURRICULUM_BUCKET")
		}
	case "afs":
		if c.Storage.AfsLocation == "" {
			missing = append(missing, "AFS_LOCATION")
		}
	default:
		missing = append(missing, "STORAGE_PROVIDER (supabase|afs)")
	}

	switch c.Ai.EmbeddingProvider {
	case "openai":
		if c.Ai.OpenAIKey == "" && c.Ai.EmbeddingBaseURL == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "gemini":
		if c.Ai.GeminiKey == "" {
			missing = append(missing, "GOOGLE_GEMINI_API_KEY")
		}
	case "ollama":
	default:
		missing = append(missing, "EMBEDDING_PROVIDER (openai|ollama|gemini)")
	}
	if c.Ai.EmbeddingModel == "" {
		missing = append(missing, "EMBEDDING_MODEL")
	}

	switch c.Ai.LLMProvider {
	case "openai":
		if c.Ai.OpenAIKey == "" && c.Ai.LLMBaseURL == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "huggingface":
		if c.Ai.HuggingFaceKey == "" {
			missing = append(missing, "HUGGINGFACE_API_KEY")
		}
	case "ollama":
	default:
		missing = append(missing, "LLM_PROVIDER (openai|huggingface|ollama)")
	}

	if len(missing) > 0 {
		return apperror.Newf(apperror.KindConfiguration, "missing configuration: %s", strings.Join(dedupe(missing), ", "))
	}
	return nil
}

// ValidateIngest checks the settings only the ingestion endpoint needs.
func (c *Config) ValidateIngest() error {
	if c.Ingest.SharedSecret == "" {
		return apperror.New(apperror.KindConfiguration, "missing configuration: INGEST_SECRET")
	}
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
