package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	Port         string
	PollInterval int // seconds between job-queue polls
	MaxUploadMB  int
	CORSOrigins  []string

	AIAPIKey      string
	OpenAIAPIKey  string
	EmbedProvider string // "gemini" or "openai"
	EmbedModel    string
	EmbedDim      int // output dimension of EmbedModel; baked into the embeddings schema
	VisionModel   string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	DoclingURL string // layout sidecar; empty means local docconv fallback

	MaxChunkSize    int
	OverlapFraction float64
	MinImageBytes   int
}

// LoadConfig loads the environment variables and returns config.
// Optional collaborators (vision, object storage, docling sidecar) are
// toggled by the presence of their settings rather than failing startup.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		Port:         getEnv("PORT", "8001"),
		PollInterval: getEnvInt("POLL_INTERVAL_SECONDS", 5),
		MaxUploadMB:  getEnvInt("MAX_UPLOAD_MB", 50),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")),

		AIAPIKey:      getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		EmbedProvider: getEnv("EMBED_PROVIDER", "gemini"),
		EmbedModel:    getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:      getEnvInt("EMBED_DIM", 768),
		VisionModel:   getEnv("VISION_MODEL", "gemini-1.5-flash"),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),

		DoclingURL: getEnv("DOCLING_URL", ""),

		MaxChunkSize:    getEnvInt("MAX_CHUNK_SIZE", 1000),
		OverlapFraction: getEnvFloat("OVERLAP_FRACTION", 0.2),
		MinImageBytes:   getEnvInt("MIN_IMAGE_BYTES", 1024),
	}

	return cfg
}

// ObjectStorageConfigured reports whether S3 settings are complete enough
// to upload extracted images.
func (c *Config) ObjectStorageConfigured() bool {
	return c.AwsAccessKey != "" && c.AwsSecretKey != "" && c.BucketName != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("WARN: %s=%q not a float, using default %g", key, v, def)
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
