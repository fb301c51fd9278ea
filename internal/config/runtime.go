package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Runtime is the process configuration read from the environment.
type Runtime struct {
	CodebaseDir      string
	SourceExtensions []string
	DeployRootPrefix string
	RulesFile        string

	APIAddr      string
	OTLPHTTPAddr string
	OTLPGRPCAddr string
	EnableOTLP   bool
	// PprofAddr enables the profiling listener when set.
	PprofAddr string

	LogLevel  slog.Level
	LogFormat string

	LLM LLM
}

// LLM configures the narrative-analysis collaborator. Azure settings win
// when an endpoint is present.
type LLM struct {
	AzureAPIKey     string
	AzureEndpoint   string
	AzureDeployment string
	AzureAPIVersion string

	OpenAIAPIKey string
	OpenAIModel  string

	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Enabled reports whether enough credentials are present to call a model.
func (l LLM) Enabled() bool {
	if l.AzureEndpoint != "" {
		return l.AzureAPIKey != "" && l.AzureDeployment != ""
	}
	return l.OpenAIAPIKey != ""
}

// FromEnv builds a Runtime from environment variables.
func FromEnv() (Runtime, error) {
	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Runtime{}, err
	}

	temperature, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.2"), 32)
	if err != nil {
		return Runtime{}, fmt.Errorf("parsing LLM_TEMPERATURE: %w", err)
	}
	maxTokens, err := strconv.Atoi(getEnv("LLM_MAX_TOKENS", "4096"))
	if err != nil {
		return Runtime{}, fmt.Errorf("parsing LLM_MAX_TOKENS: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("LLM_TIMEOUT", "60s"))
	if err != nil {
		return Runtime{}, fmt.Errorf("parsing LLM_TIMEOUT: %w", err)
	}

	format := strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if format != "text" && format != "json" {
		return Runtime{}, fmt.Errorf("unknown LOG_FORMAT %q (supported: text, json)", format)
	}

	return Runtime{
		CodebaseDir:      getEnv("CODEBASE_DIR", "dummy_data/codebase"),
		SourceExtensions: splitList(getEnv("SOURCE_EXTENSIONS", ".py")),
		DeployRootPrefix: getEnv("DEPLOY_ROOT_PREFIX", "/app/"),
		RulesFile:        os.Getenv("RULES_FILE"),

		APIAddr:      getEnv("API_ADDR", "0.0.0.0:8080"),
		OTLPHTTPAddr: getEnv("OTLP_HTTP_ADDR", "0.0.0.0:4318"),
		OTLPGRPCAddr: getEnv("OTLP_GRPC_ADDR", "0.0.0.0:4317"),
		EnableOTLP:   getEnvBool("ENABLE_OTLP", true),
		PprofAddr:    os.Getenv("PPROF_ADDR"),

		LogLevel:  level,
		LogFormat: format,

		LLM: LLM{
			AzureAPIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
			AzureEndpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
			AzureDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4"),
			AzureAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", "2024-08-01-preview"),
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature:     float32(temperature),
			MaxTokens:       maxTokens,
			Timeout:         timeout,
		},
	}, nil
}

// NewLogger builds the process logger for the configured level and format.
func (r Runtime) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: r.LogLevel}
	if r.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}
	return level, nil
}

// getEnv gets an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default fallback.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
