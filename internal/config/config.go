package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by MNEMO_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("MNEMO_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the environment alone is a valid config.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func positiveInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func positiveFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func stringOr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func ServerPort() int {
	return positiveInt("SERVER_PORT", 8080)
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	return stringOr("LOG_LEVEL", "info")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	return positiveFloat("RATE_LIMIT_RPS", 100)
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	return positiveInt("RATE_LIMIT_BURST", 20)
}

// SemanticBackend selects the semantic store delegate.
// Valid values: chromem, pgvector
func SemanticBackend() string {
	return stringOr("SEMANTIC_BACKEND", "chromem")
}

// MemoryDBPath is where the chromem database persists. An explicitly empty
// MEMORY_DB_PATH keeps everything in memory.
func MemoryDBPath() string {
	if p, ok := os.LookupEnv("MEMORY_DB_PATH"); ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mnemo", "chromem")
	}
	return filepath.Join(home, ".mnemo", "chromem")
}

func MemoryCollectionName() string {
	return stringOr("MEMORY_COLLECTION_NAME", "memories")
}

func EpisodeCollectionName() string {
	return stringOr("EPISODE_COLLECTION_NAME", "episodes")
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "mock" if not set.
// Valid values: openai, mock
func EmbeddingProvider() string {
	return stringOr("EMBEDDING_PROVIDER", "mock")
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "mock":
		return ""
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

// EmbeddingDimensions is the vector width requested from the provider and
// the width the pgvector table is created with.
func EmbeddingDimensions() int {
	def := 384
	if EmbeddingProvider() == "openai" {
		def = 1536
	}
	return positiveInt("EMBEDDING_DIMENSIONS", def)
}

// EmbeddingBaseURL overrides the embeddings endpoint, for proxies and
// OpenAI-compatible servers.
func EmbeddingBaseURL() string {
	return os.Getenv("EMBEDDING_BASE_URL")
}

// EmbeddingCacheSize is the number of cached embeddings. 0 disables the cache.
func EmbeddingCacheSize() int {
	n, err := strconv.Atoi(os.Getenv("EMBEDDING_CACHE_SIZE"))
	if err != nil || n < 0 {
		return 10000
	}
	return n
}

// DelegateConcurrency bounds concurrent calls into the semantic store.
func DelegateConcurrency() int {
	return positiveInt("DELEGATE_CONCURRENCY", 8)
}

// MemoryModelV2 routes sensory promotions through the short-term buffer.
// Defaults to true.
func MemoryModelV2() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("MEMORY_MODEL_V2")))
	if v == "" {
		return true
	}
	return v == "true" || v == "1" || v == "yes"
}

func SensoryTTL() time.Duration {
	return time.Duration(positiveInt("SENSORY_TTL_SEC", 60)) * time.Second
}

func SensoryMaxEntries() int {
	return positiveInt("SENSORY_MAX_ENTRIES", 100)
}

func ShortTermTTL() time.Duration {
	return time.Duration(positiveInt("SHORTTERM_TTL_SEC", 3600)) * time.Second
}

func ShortTermMaxEntries() int {
	return positiveInt("SHORTTERM_MAX_ENTRIES", 50)
}

// AutoPromoteThreshold is the short-term importance at which entries move to
// long-term memory, clamped to [1,5].
func AutoPromoteThreshold() int {
	n := positiveInt("AUTO_PROMOTE_THRESHOLD", 4)
	if n > 5 {
		return 5
	}
	return n
}

func WorkingSetCapacity() int {
	return positiveInt("WORKING_SET_CAPACITY", 20)
}

func DecayHalfLifeDays() float64 {
	return positiveFloat("DECAY_HALF_LIFE_DAYS", 30)
}

func LinkThreshold() float64 {
	return positiveFloat("LINK_THRESHOLD", 0.8)
}

func MaxAutoLinks() int {
	return positiveInt("MAX_AUTO_LINKS", 5)
}
