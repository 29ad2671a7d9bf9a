package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"github.com/yenchangchen131/BEARS-dataset/pkg/metrics"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/repository"
	"github.com/yenchangchen131/BEARS-dataset/pkg/utils/logging"
)

// config holds configuration values
type config struct {
	configFile string

	// Storage
	bucket string

	// Repository
	project  string
	database string

	metricsFile string

	// Adapters
	anthropicAPIKey string
	geminiProject   string
	geminiLocation  string
	model           string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config overriding the default layout",
			Sources:     cli.EnvVars("BEARS_CONFIG"),
			Destination: &cfg.configFile,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Google Cloud Storage bucket for all file IO (local filesystem if empty)",
			Sources:     cli.EnvVars("BEARS_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID of the Firestore run repository",
			Sources:     cli.EnvVars("BEARS_PROJECT", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("BEARS_FIRESTORE_DATABASE_ID", "FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "metrics-file",
			Usage:       "Write Prometheus metrics in textfile format to this path",
			Sources:     cli.EnvVars("BEARS_METRICS_FILE"),
			Destination: &cfg.metricsFile,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "model",
			Usage:       "Model name overriding the provider default",
			Sources:     cli.EnvVars("BEARS_MODEL"),
			Destination: &cfg.model,
		},
	}
}

// loadConfig reads the YAML config, or the defaults when none is given
func (cfg *config) loadConfig() (*model.Config, error) {
	c, err := model.LoadConfig(cfg.configFile)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// newStorage returns GCS storage when a bucket is set, local files otherwise
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return adapter.NewFileStorage(""), nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage", goerr.V("bucket", cfg.bucket))
	}
	return storage, nil
}

// newRepository creates the Firestore repository. Without a project, runs
// are not recorded and nil is returned.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		return nil, nil
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// requireRepository is newRepository for commands that cannot run without one
func (cfg *config) requireRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	return cfg.newRepository(ctx)
}

// writeMetrics stores m when --metrics-file is set
func (cfg *config) writeMetrics(ctx context.Context, m *metrics.Metrics) {
	if cfg.metricsFile == "" {
		return
	}
	if err := m.WriteFile(cfg.metricsFile); err != nil {
		logging.From(ctx).Warn("failed to write metrics", slog.Any("error", err))
	}
}

// newClaude creates a new Claude adapter instance
func (cfg *config) newClaude() (adapter.Claude, error) {
	if cfg.anthropicAPIKey == "" {
		return nil, goerr.New("anthropic-api-key is required")
	}
	var opts []adapter.ClaudeOption
	if cfg.model != "" {
		opts = append(opts, adapter.WithClaudeModel(cfg.model))
	}
	return adapter.NewClaude(cfg.anthropicAPIKey, opts...), nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	var opts []adapter.GeminiOption
	if cfg.model != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.model))
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
}
