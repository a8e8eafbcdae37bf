package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings is the single configuration object for the service. Values come
// from (lowest to highest precedence): built-in defaults, an optional YAML
// file, environment variables. A .env file in the working directory is
// loaded first so env vars can live there during development.
type Settings struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`

	LLM       LLMSettings       `yaml:"llm"`
	Council   CouncilSettings   `yaml:"council"`
	Retrieval RetrievalSettings `yaml:"retrieval"`
	Federated FederatedSettings `yaml:"federated"`
	Storage   StorageSettings   `yaml:"storage"`
}

// LLMSettings configures the chat-completion transport.
type LLMSettings struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	CallTimeout    time.Duration `yaml:"call_timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
}

// CouncilSettings names the models behind each council role.
type CouncilSettings struct {
	Divergers []string `yaml:"divergers"`
	Reviewer  string   `yaml:"reviewer"`
	Chairman  string   `yaml:"chairman"`
}

// RetrievalSettings configures the TF-IDF index.
type RetrievalSettings struct {
	MaxFeatures int `yaml:"max_features"`
	TopK        int `yaml:"top_k"`
}

// FederatedSettings configures the DP FedAvg aggregator.
type FederatedSettings struct {
	AdapterDim      int     `yaml:"adapter_dim"`
	MinClients      int     `yaml:"min_clients"`
	ClipNorm        float64 `yaml:"clip_norm"`
	NoiseMultiplier float64 `yaml:"noise_multiplier"`
}

// StorageSettings holds on-disk locations.
type StorageSettings struct {
	DataDir     string `yaml:"data_dir"`
	AdapterDir  string `yaml:"adapter_dir"`
	ReportsDir  string `yaml:"reports_dir"`
	HospitalDB  string `yaml:"hospital_db"`
}

// Default returns the baseline configuration.
func Default() Settings {
	return Settings{
		ListenAddr: ":8080",
		LogLevel:   "info",
		LLM: LLMSettings{
			BaseURL:        "https://api.groq.com/openai/v1",
			CallTimeout:    15 * time.Second,
			MaxConcurrency: 8,
		},
		Council: CouncilSettings{
			Divergers: []string{
				"llama-3.3-70b-versatile",
				"llama-3.1-8b-instant",
				"qwen/qwen3-32b",
			},
			Reviewer: "llama-3.1-8b-instant",
			Chairman: "llama-3.3-70b-versatile",
		},
		Retrieval: RetrievalSettings{
			MaxFeatures: 4096,
			TopK:        3,
		},
		Federated: FederatedSettings{
			AdapterDim:      128,
			MinClients:      3,
			ClipNorm:        1.0,
			NoiseMultiplier: 0.8,
		},
		Storage: StorageSettings{
			DataDir:    "data",
			AdapterDir: "data/adapters",
			ReportsDir: "data/user_reports",
			HospitalDB: "data/hospital_local.db",
		},
	}
}

// Load builds Settings from defaults, an optional YAML file, and the
// environment. path may be empty.
func Load(path string) (Settings, error) {
	_ = godotenv.Load()

	s := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return s, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	s.applyEnv()

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	setString(&s.ListenAddr, "LISTEN_ADDR")
	setString(&s.LogLevel, "LOG_LEVEL")
	setString(&s.LLM.APIKey, "LLM_API_KEY")
	setString(&s.LLM.BaseURL, "LLM_BASE_URL")
	setInt(&s.LLM.MaxConcurrency, "LLM_MAX_CONCURRENCY")
	setDuration(&s.LLM.CallTimeout, "LLM_CALL_TIMEOUT")
	setString(&s.Council.Reviewer, "COUNCIL_REVIEWER_MODEL")
	setString(&s.Council.Chairman, "COUNCIL_CHAIRMAN_MODEL")
	setInt(&s.Federated.AdapterDim, "FEDERATED_ADAPTER_DIM")
	setInt(&s.Federated.MinClients, "FEDERATED_MIN_CLIENTS")
	setFloat(&s.Federated.ClipNorm, "DP_CLIP_NORM")
	setFloat(&s.Federated.NoiseMultiplier, "DP_NOISE_MULTIPLIER")
	setString(&s.Storage.DataDir, "DATA_DIR")

	if v := os.Getenv("COUNCIL_DIVERGER_MODELS"); v != "" {
		var models []string
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		if len(models) > 0 {
			s.Council.Divergers = models
		}
	}
}

// Validate rejects configurations the service cannot run with.
func (s *Settings) Validate() error {
	if len(s.Council.Divergers) == 0 {
		return fmt.Errorf("config: at least one diverger model is required")
	}
	if s.Council.Reviewer == "" || s.Council.Chairman == "" {
		return fmt.Errorf("config: reviewer and chairman models are required")
	}
	if s.Federated.AdapterDim <= 0 {
		return fmt.Errorf("config: adapter_dim must be positive, got %d", s.Federated.AdapterDim)
	}
	if s.Federated.MinClients < 1 {
		return fmt.Errorf("config: min_clients must be at least 1, got %d", s.Federated.MinClients)
	}
	if s.Federated.ClipNorm <= 0 {
		return fmt.Errorf("config: clip_norm must be positive, got %g", s.Federated.ClipNorm)
	}
	if s.Federated.NoiseMultiplier < 0 {
		return fmt.Errorf("config: noise_multiplier must be non-negative, got %g", s.Federated.NoiseMultiplier)
	}
	if s.Retrieval.MaxFeatures <= 0 {
		return fmt.Errorf("config: max_features must be positive, got %d", s.Retrieval.MaxFeatures)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}
