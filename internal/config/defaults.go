package config

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	// Statement timeout for executed queries, milliseconds.
	DefaultQueryTimeoutMs = 30_000
	MaxQueryTimeoutMs     = 120_000

	// LLM fallback.
	DefaultFallbackModel     = "claude-sonnet-4-6"
	DefaultFallbackTimeoutMs = 8_000
	DefaultFallbackCacheTTL  = 300 // seconds

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}
