package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/yenchangchen131/BEARS-dataset/pkg/metrics"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/build"
)

func buildCommand() *cli.Command {
	var (
		cfg        config
		seed       uint64
		rawDir     string
		outDir     string
		corpusSize int64
	)

	flags := []cli.Flag{
		&cli.UintFlag{
			Name:        "seed",
			Usage:       "Random seed of the extraction (overrides the config)",
			Sources:     cli.EnvVars("BEARS_SEED"),
			Destination: &seed,
		},
		&cli.StringFlag{
			Name:        "raw-dir",
			Usage:       "Directory holding the five source files",
			Value:       "data/raw",
			Sources:     cli.EnvVars("BEARS_RAW_DIR"),
			Destination: &rawDir,
		},
		&cli.StringFlag{
			Name:        "out-dir",
			Aliases:     []string{"o"},
			Usage:       "Directory receiving queries_raw.json and corpus_raw.json",
			Value:       "data/processed",
			Sources:     cli.EnvVars("BEARS_OUT_DIR"),
			Destination: &outDir,
		},
		&cli.IntFlag{
			Name:        "corpus-size",
			Usage:       "Target corpus size (overrides the config)",
			Sources:     cli.EnvVars("BEARS_CORPUS_SIZE"),
			Destination: &corpusSize,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "build",
		Usage: "Sample queries and assemble the raw generation",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			start := time.Now()

			conf, err := cfg.loadConfig()
			if err != nil {
				return err
			}
			if c.IsSet("seed") {
				conf.Seed = seed
			}
			if c.IsSet("corpus-size") {
				if corpusSize < 0 {
					return goerr.New("corpus-size must not be negative", goerr.V("corpus-size", corpusSize))
				}
				conf.CorpusSize = int(corpusSize)
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}

			m := metrics.New()
			opts := []build.Option{
				build.WithOutput(c.Root().Writer),
				build.WithMetrics(m),
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			if repo != nil {
				opts = append(opts, build.WithRepository(repo))
			}

			if _, err := build.New(storage, conf, rawDir, outDir, opts...).Run(ctx); err != nil {
				return goerr.Wrap(err, "build failed")
			}

			m.ObserveDuration("build", time.Since(start))
			cfg.writeMetrics(ctx, m)
			return nil
		},
	}
}
