// Package config builds explicit configuration values from the environment.
// The resulting struct is passed to component constructors; there is no
// process-wide settings singleton.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the full application configuration.
type Config struct {
	Server      Server
	Database    Database
	Redis       Redis
	Kafka       Kafka
	GenAI       GenAI
	ObjectStore ObjectStore
	Governance  Governance
	Retrieval   Retrieval
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
}

// Database selects the persistence backend. An empty URL means the in-memory
// stores are used (also the brute-force retrieval path).
type Database struct {
	URL string
}

// Redis configures the optional embedding cache. Empty URL disables it.
type Redis struct {
	URL string
}

// Kafka configures the optional journal relay. No brokers disables it.
type Kafka struct {
	Brokers []string
	Topic   string
}

// GenAI configures the OpenAI-compatible generation and embedding provider.
type GenAI struct {
	APIKey         string
	BaseURL        string
	TextModel      string
	VisionModel    string
	EmbeddingModel string
	EmbeddingDim   int
}

// ObjectStore configures the MinIO bucket for audit image uploads. Empty
// endpoint disables it and audits keep a generated image label instead.
type ObjectStore struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Governance carries workflow policy knobs.
type Governance struct {
	// RequireStageBReason makes stage-B rejections demand a non-empty
	// rejection reason, matching the stage-A rule. Off by default to
	// preserve the observed behavior of the system this replaces.
	RequireStageBReason bool
}

// Retrieval carries chunking and ranking defaults.
type Retrieval struct {
	MaxChunkChars int
	GenerateTopK  int
	AuditTopK     int
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr: envOr("BRANDGOV_ADDR", ":8080"),
		},
		Database: Database{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: Redis{
			URL: os.Getenv("REDIS_URL"),
		},
		Kafka: Kafka{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_JOURNAL_TOPIC", "brandgov.journal"),
		},
		GenAI: GenAI{
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			BaseURL:        os.Getenv("OPENAI_BASE_URL"),
			TextModel:      envOr("BRANDGOV_TEXT_MODEL", "gpt-4o-mini"),
			VisionModel:    envOr("BRANDGOV_VISION_MODEL", "gpt-4o"),
			EmbeddingModel: envOr("BRANDGOV_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDim:   envIntOr("BRANDGOV_EMBEDDING_DIM", 768),
		},
		ObjectStore: ObjectStore{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    envOr("MINIO_BUCKET", "brandgov-audit-images"),
			Region:    envOr("MINIO_REGION", "us-east-1"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		},
		Governance: Governance{
			RequireStageBReason: os.Getenv("REQUIRE_STAGE_B_REASON") == "true",
		},
		Retrieval: Retrieval{
			MaxChunkChars: envIntOr("BRANDGOV_MAX_CHUNK_CHARS", 700),
			GenerateTopK:  envIntOr("BRANDGOV_GENERATE_TOP_K", 10),
			AuditTopK:     envIntOr("BRANDGOV_AUDIT_TOP_K", 8),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
