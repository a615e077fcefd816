package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by VETBOX_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("VETBOX_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// RuleSource returns where the rule catalog is loaded from.
// Valid values: file, db. Defaults to "file".
func RuleSource() string {
	s := os.Getenv("RULE_SOURCE")
	if s == "" {
		return "file"
	}
	return s
}

func RulesPath() string {
	p := os.Getenv("RULES_PATH")
	if p == "" {
		return "catalog.json"
	}
	return p
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// ExtractorProvider returns the configured extractor provider.
// Defaults to "openai" if not set.
// Valid values: openai, anthropic, mock
func ExtractorProvider() string {
	p := os.Getenv("EXTRACTOR_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// ExtractorAPIKey returns the API key for the configured extractor provider.
func ExtractorAPIKey() string {
	switch ExtractorProvider() {
	case "anthropic":
		return AnthropicAPIKey()
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// MaxTurns returns the turn budget before the engine stops asking and
// finalizes a best-effort triage. Defaults to 7.
func MaxTurns() int {
	n, err := strconv.Atoi(os.Getenv("MAX_TURNS"))
	if err != nil || n <= 0 {
		return 7
	}
	return n
}

// PreferSeverityExploration returns whether the matcher keeps probing
// toward higher-severity candidates instead of finalizing an already
// satisfied lower-severity rule. Defaults to false.
func PreferSeverityExploration() bool {
	v, err := strconv.ParseBool(os.Getenv("PREFER_SEVERITY_EXPLORATION"))
	if err != nil {
		return false
	}
	return v
}

// SessionTTL returns how long an idle session survives before eviction.
// Defaults to 30 minutes.
func SessionTTL() time.Duration {
	d, err := time.ParseDuration(os.Getenv("SESSION_TTL"))
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
