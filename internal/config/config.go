package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Rag      RAGConfig
	Session  SessionConfig
	Ingest   IngestConfig
}

type AppConfig struct {
	Name               string
	Version            string
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	NatsEnabled        bool
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
	LogLevel   string // "silent", "error", "warn", "info"
}

type APIKeys struct {
	OpenAI       string
	GoogleGemini string
	Jina         string
	HuggingFace  string
	JwtSecret    string
}

type AIConfig struct {
	EmbeddingProviders     []string // tried in order, e.g. "ollama,openai"
	EmbeddingDimension     int
	EmbeddingRatePerSecond float64 // 0 disables throttling
	OllamaBaseURL          string
	OllamaEmbeddingModel   string
	OpenAIBaseURL          string
	OpenAIEmbeddingModel   string
	LLMProviders           []string // tried in order, e.g. "openai,gemini"
	LLMModel               string
	OpenAIChatModel        string
	GeminiChatModel        string
	HuggingFaceBaseURL     string
}

type RAGConfig struct {
	MaxQueryLength         int
	MaxResponseLength      int
	MinPassageLength       int
	MaxPassageLength       int
	TopKFullCorpus         int
	TopKSelectedPassage    int
	ResponseTimeoutSeconds int
	MinIndexScore          float64
	GenerationMaxTokens    int
	GenerationTemperature  float64
	ValidateGrounding      bool
}

type SessionConfig struct {
	CacheBackend   string // "memory" or "redis"
	TTLMinutes     int
	RecentQueryCap int
}

type IngestConfig struct {
	TopicName    string
	ChunkSize    int
	ChunkOverlap int
	// Synchronous makes publishing block until the consumer acks.
	Synchronous bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Name:               getEnv("APP_NAME", "book-rag-be"),
			Version:            getEnv("APP_VERSION", "1.0.0"),
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			NatsEnabled:        getEnvAsBool("NATS_ENABLED", true),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			LogLevel:   getEnv("DB_LOG_LEVEL", "warn"),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			JwtSecret:    getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			EmbeddingProviders:     getEnvAsList("EMBEDDING_PROVIDERS", []string{"ollama"}),
			EmbeddingDimension:     getEnvAsInt("EMBEDDING_DIMENSION", 768),
			EmbeddingRatePerSecond: getEnvAsFloat("EMBEDDING_RATE_PER_SECOND", 0),
			OllamaBaseURL:          getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel:   getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIBaseURL:          getEnv("OPENAI_BASE_URL", ""),
			OpenAIEmbeddingModel:   getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			LLMProviders:           getEnvAsList("LLM_PROVIDERS", []string{"openai", "gemini"}),
			LLMModel:               getEnv("LLM_MODEL", "llama3"),
			OpenAIChatModel:        getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			GeminiChatModel:        getEnv("GEMINI_CHAT_MODEL", "gemini-1.5-flash"),
			HuggingFaceBaseURL:     getEnv("HUGGINGFACE_BASE_URL", ""),
		},
		Rag: RAGConfig{
			MaxQueryLength:         getEnvAsInt("RAG_MAX_QUERY_LENGTH", 1000),
			MaxResponseLength:      getEnvAsInt("RAG_MAX_RESPONSE_LENGTH", 2000),
			MinPassageLength:       getEnvAsInt("RAG_MIN_PASSAGE_LENGTH", 10),
			MaxPassageLength:       getEnvAsInt("RAG_MAX_PASSAGE_LENGTH", 5000),
			TopKFullCorpus:         getEnvAsInt("RAG_TOP_K_FULL_CORPUS", 5),
			TopKSelectedPassage:    getEnvAsInt("RAG_TOP_K_SELECTED_PASSAGE", 3),
			ResponseTimeoutSeconds: getEnvAsInt("RAG_RESPONSE_TIMEOUT_SECONDS", 30),
			MinIndexScore:          getEnvAsFloat("RAG_MIN_INDEX_SCORE", 0),
			GenerationMaxTokens:    getEnvAsInt("RAG_GENERATION_MAX_TOKENS", 500),
			GenerationTemperature:  getEnvAsFloat("RAG_GENERATION_TEMPERATURE", 0.3),
			ValidateGrounding:      getEnvAsBool("RAG_VALIDATE_GROUNDING", true),
		},
		Session: SessionConfig{
			CacheBackend:   getEnv("SESSION_CACHE", "memory"),
			TTLMinutes:     getEnvAsInt("SESSION_TTL_MINUTES", 60),
			RecentQueryCap: getEnvAsInt("SESSION_RECENT_QUERIES", 5),
		},
		Ingest: IngestConfig{
			TopicName:    getEnv("EMBED_BOOK_CONTENT_TOPIC_NAME", "EMBED_BOOK_CONTENT"),
			ChunkSize:    getEnvAsInt("INGEST_CHUNK_SIZE", 1500),
			ChunkOverlap: getEnvAsInt("INGEST_CHUNK_OVERLAP", 200),
			Synchronous:  getEnvAsBool("INGEST_SYNC", false),
		},
	}
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strings.TrimSpace(strValue) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(strings.ToLower(part)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
