package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"commentintel/internal/domain"
)

const (
	configPathEnv   = "COMMENTINTEL_CONFIG"
	logLevelEnv     = "COMMENTINTEL_LOG_LEVEL"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	geminiModelEnv  = "GEMINI_MODEL"
)

// Config holds all settings the pipeline needs. It is constructed once at
// startup; components receive only the sections they use.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Gemini   GeminiConfig   `yaml:"gemini"`
}

// LoggingConfig controls console log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ScrapeConfig drives the ingestion phase.
type ScrapeConfig struct {
	Communities []string `yaml:"communities"`
	Sort        string   `yaml:"sort"`
	PostLimit   int      `yaml:"postLimit"`
	PostDelay   Duration `yaml:"postDelay"`
	LedgerPath  string   `yaml:"ledgerPath"`
	// RetryFailedPosts leaves a post whose comment fetch errored out of the
	// in-run processed set, so a later run can pick it up again. Off by
	// default: a failed fetch marks the post processed for this run.
	RetryFailedPosts bool `yaml:"retryFailedPosts"`
}

// AnalysisConfig drives triage, batch classification, and the final table.
type AnalysisConfig struct {
	Keywords         []string `yaml:"keywords"`
	Sentiments       []string `yaml:"sentiments"`
	PainPoints       []string `yaml:"painPoints"`
	BatchSize        int      `yaml:"batchSize"`
	MaxCommentLength int      `yaml:"maxCommentLength"`
	BatchDelay       Duration `yaml:"batchDelay"`
	OutputPath       string   `yaml:"outputPath"`
	QuarantinePath   string   `yaml:"quarantinePath"`
}

// GeminiConfig defines how to contact the classification API. The key is
// taken from the environment only and never from the file.
type GeminiConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
	APIKey  string `yaml:"-"`
}

// Duration makes Go duration strings ("1.1s") usable in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, in that order of precedence. An empty path falls
// back to the COMMENTINTEL_CONFIG environment variable; if that is also
// empty the defaults are used as-is.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}
	c.Gemini.APIKey = os.Getenv(geminiAPIKeyEnv)
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if len(c.Scrape.Communities) == 0 {
		return fmt.Errorf("config: no communities configured")
	}
	if c.Scrape.PostLimit <= 0 {
		return fmt.Errorf("config: postLimit must be positive, got %d", c.Scrape.PostLimit)
	}
	if c.Scrape.LedgerPath == "" {
		return fmt.Errorf("config: ledgerPath is empty")
	}
	if len(c.Analysis.Keywords) == 0 {
		return fmt.Errorf("config: no triage keywords configured")
	}
	if len(c.Analysis.Sentiments) != 3 {
		return fmt.Errorf("config: exactly 3 sentiments required, got %d", len(c.Analysis.Sentiments))
	}
	if !slices.Contains(c.Analysis.PainPoints, domain.NoCategory) {
		return fmt.Errorf("config: painPoints must include %q", domain.NoCategory)
	}
	if c.Analysis.BatchSize <= 0 {
		return fmt.Errorf("config: batchSize must be positive, got %d", c.Analysis.BatchSize)
	}
	if c.Analysis.MaxCommentLength <= 0 {
		return fmt.Errorf("config: maxCommentLength must be positive, got %d", c.Analysis.MaxCommentLength)
	}
	if c.Analysis.OutputPath == "" || c.Analysis.QuarantinePath == "" {
		return fmt.Errorf("config: outputPath and quarantinePath must be set")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Scrape: ScrapeConfig{
			Communities: []string{
				"grok",
				"ChatGPT",
				"GoogleGeminiAI",
				"perplexity_ai",
				"ClaudeAI",
				"cursor",
				"DeepSeek",
			},
			Sort:       "hot",
			PostLimit:  50,
			PostDelay:  Duration(1100 * time.Millisecond),
			LedgerPath: "gtm_raw_comments.csv",
		},
		Analysis: AnalysisConfig{
			Keywords: []string{
				"grok", "xai", "chatgpt", "openai", "gemini", "google ai",
				"claude", "anthropic", "censored", "woke", "hallucination",
				"too expensive", "bias", "unbiased",
			},
			Sentiments: []string{"Positive", "Negative", "Neutral"},
			PainPoints: []string{
				"Censorship",
				"Accuracy/Hallucination",
				"Speed",
				"Cost/Access",
				"Data Privacy",
				"Woke/Bias",
				"Technical Issue",
				"Product Gap",
				"Other",
				domain.NoCategory,
			},
			BatchSize:        50,
			MaxCommentLength: 3000,
			BatchDelay:       Duration(10 * time.Second),
			OutputPath:       "gtm_final_analysis.csv",
			QuarantinePath:   "gtm_failed_batches.csv",
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.5-flash",
			BaseURL: "https://generativelanguage.googleapis.com",
		},
	}
}
