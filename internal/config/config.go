// Package config resolves the process configuration once at startup. The
// resulting Config is read-only and passed explicitly to every handler; there
// is no ambient global state.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ModeMirror mirrors path+query to the upstream and relays responses
	// verbatim. ModeChat exposes a single reshaping /chat endpoint.
	ModeMirror = "mirror"
	ModeChat   = "chat"
)

// defaultAllowedPaths are the upstream endpoints proxied when ALLOW_PATHS is
// not configured.
var defaultAllowedPaths = []string{
	"/v1/chat/completions",
	"/v1/responses",
	"/v1/embeddings",
	"/v1/models",
}

type Config struct {
	ListenAddr     string   `yaml:"listen"`
	UpstreamURL    string   `yaml:"upstream_url"`
	APIKey         string   `yaml:"api_key"`
	Mode           string   `yaml:"mode"`
	AllowedModels  []string `yaml:"allowed_models"`
	AllowedPaths   []string `yaml:"allowed_paths"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	DefaultModel   string   `yaml:"default_model"`
	SystemPrompt   string   `yaml:"system_prompt"`
	LogLevel       string   `yaml:"log_level"`
	LogFile        string   `yaml:"log_file"`
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in that order of precedence. An empty allowlist
// means "allow all" for models and origins; paths fall back to the default
// endpoint set.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ListenAddr:   ":8080",
		UpstreamURL:  "https://api.groq.com/openai",
		Mode:         ModeMirror,
		DefaultModel: "llama-3.1-8b-instant",
		SystemPrompt: "You are a helpful assistant.",
		LogLevel:     "info",
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.ListenAddr = ":" + v
	}
	cfg.UpstreamURL = getEnv("UPSTREAM_URL", cfg.UpstreamURL)
	cfg.APIKey = getEnv("GROQ_API_KEY", cfg.APIKey)
	cfg.Mode = getEnv("MODE", cfg.Mode)
	cfg.DefaultModel = getEnv("DEFAULT_MODEL", cfg.DefaultModel)
	cfg.SystemPrompt = getEnv("SYSTEM_PROMPT", cfg.SystemPrompt)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	if v := os.Getenv("ALLOW_MODELS"); v != "" {
		cfg.AllowedModels = splitCSV(v)
	}
	if v := os.Getenv("ALLOW_PATHS"); v != "" {
		cfg.AllowedPaths = splitCSV(v)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}

	if len(cfg.AllowedPaths) == 0 {
		cfg.AllowedPaths = append([]string(nil), defaultAllowedPaths...)
	}

	cfg.Mode = strings.TrimSpace(strings.ToLower(cfg.Mode))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required (set GROQ_API_KEY)")
	}
	switch cfg.Mode {
	case ModeMirror, ModeChat:
	default:
		return nil, fmt.Errorf("mode must be one of %s/%s", ModeMirror, ModeChat)
	}
	u, err := url.Parse(cfg.UpstreamURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream_url %q is not an absolute URL", cfg.UpstreamURL)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV trims each element and drops empty ones.
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
