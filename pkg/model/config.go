package model

import (
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Default values of the benchmark layout
const (
	DefaultSeed           uint64 = 42
	DefaultPerSource             = 20
	DefaultCorpusSize            = 5000
	DefaultDisplayLimit          = 10
	DefaultTargetLanguage        = "zh-TW"
	DefaultNativeSource          = SourceDRCD
)

// SourceConfig defines how many questions to sample from one source
type SourceConfig struct {
	Name  Source `yaml:"name" json:"name" validate:"required,source"`
	File  string `yaml:"file" json:"file" validate:"required"`
	Count int    `yaml:"count" json:"count" validate:"min=0"`
}

// VerifyConfig holds the expected shape of a generation
type VerifyConfig struct {
	ExpectedQueries int            `yaml:"expected_queries" json:"expected_queries" validate:"min=0"`
	ExpectedCorpus  int            `yaml:"expected_corpus" json:"expected_corpus" validate:"min=0"`
	Distribution    map[Source]int `yaml:"distribution" json:"distribution" validate:"dive,keys,source,endkeys,min=0"`
	NativeSource    Source         `yaml:"native_source" json:"native_source" validate:"omitempty,source"`
	TargetLanguage  string         `yaml:"target_language" json:"target_language" validate:"required,bcp47_language_tag"`
	DisplayLimit    int            `yaml:"display_limit" json:"display_limit" validate:"min=1"`
}

// Config controls both the build pipeline and the verifier
type Config struct {
	Seed       uint64         `yaml:"seed" json:"seed"`
	CorpusSize int            `yaml:"corpus_size" json:"corpus_size" validate:"min=0"`
	Sources    []SourceConfig `yaml:"sources" json:"sources" validate:"required,min=1,max=5,dive"`
	Verify     VerifyConfig   `yaml:"verify" json:"verify"`
}

// DefaultConfig returns the fixed benchmark layout: 20 questions from each
// of the five sources and a 5000 document corpus.
func DefaultConfig() *Config {
	cfg := &Config{
		Seed:       DefaultSeed,
		CorpusSize: DefaultCorpusSize,
		Verify: VerifyConfig{
			ExpectedQueries: DefaultPerSource * len(AllSources()),
			ExpectedCorpus:  DefaultCorpusSize,
			NativeSource:    DefaultNativeSource,
			TargetLanguage:  DefaultTargetLanguage,
			DisplayLimit:    DefaultDisplayLimit,
		},
	}
	for _, src := range AllSources() {
		cfg.Sources = append(cfg.Sources, SourceConfig{
			Name:  src,
			File:  string(src) + ".json",
			Count: DefaultPerSource,
		})
	}
	return cfg
}

// LoadConfig reads a YAML config file. Fields missing from the file keep
// their default values.
func LoadConfig(filePath string) (*Config, error) {
	cfg := DefaultConfig()
	if filePath == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("file", filePath))
	}

	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse YAML config", goerr.V("file", filePath))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid config", goerr.V("file", filePath))
	}

	return cfg, nil
}

// Validate checks struct constraints and that no source is listed twice
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("source", func(fl validator.FieldLevel) bool {
		return Source(fl.Field().String()).Validate() == nil
	}); err != nil {
		return goerr.Wrap(err, "failed to register source validator")
	}

	if err := v.Struct(c); err != nil {
		return goerr.Wrap(err, "config validation failed")
	}

	seen := make(map[Source]bool, len(c.Sources))
	for _, s := range c.Sources {
		if seen[s.Name] {
			return goerr.New("source is configured twice", goerr.V("source", s.Name))
		}
		seen[s.Name] = true
	}

	return nil
}

// OrderedSources returns the configured sources sorted by pipeline order.
// Extraction order is part of the reproducibility contract, so the order
// of the config file is ignored.
func (c *Config) OrderedSources() []SourceConfig {
	sources := slices.Clone(c.Sources)
	slices.SortStableFunc(sources, func(a, b SourceConfig) int {
		return a.Name.Order() - b.Name.Order()
	})
	return sources
}

// ExpectedDistribution returns the expected per-source query counts. When
// the config does not set one explicitly, it is derived from the sources.
func (c *Config) ExpectedDistribution() map[Source]int {
	if len(c.Verify.Distribution) > 0 {
		return c.Verify.Distribution
	}
	dist := make(map[Source]int, len(c.Sources))
	for _, s := range c.Sources {
		dist[s.Name] = s.Count
	}
	return dist
}

// TotalRequested returns the sum of per-source sample counts
func (c *Config) TotalRequested() int {
	total := 0
	for _, s := range c.Sources {
		total += s.Count
	}
	return total
}
