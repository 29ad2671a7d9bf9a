package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/yenchangchen131/BEARS-dataset/pkg/metrics"
	"github.com/yenchangchen131/BEARS-dataset/pkg/policy"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/verify"
)

func verifyCommand() *cli.Command {
	var (
		cfg       config
		dir       string
		policyDir string
		format    string
		strict    bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "out-dir",
			Aliases:     []string{"o"},
			Usage:       "Directory holding the raw and processed generations",
			Value:       "data/processed",
			Sources:     cli.EnvVars("BEARS_OUT_DIR"),
			Destination: &dir,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of .rego files adding custom checks",
			Sources:     cli.EnvVars("BEARS_POLICY_DIR"),
			Destination: &policyDir,
		},
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Report format (text, json)",
			Value:       string(verify.FormatText),
			Sources:     cli.EnvVars("BEARS_VERIFY_FORMAT"),
			Destination: &format,
		},
		&cli.BoolFlag{
			Name:        "strict",
			Usage:       "Exit with a non-zero code when any check fails",
			Sources:     cli.EnvVars("BEARS_STRICT"),
			Destination: &strict,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "verify",
		Usage: "Check the raw and processed generations",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			start := time.Now()

			f := verify.Format(format)
			if f != verify.FormatText && f != verify.FormatJSON {
				return goerr.New("unknown report format", goerr.V("format", format))
			}

			conf, err := cfg.loadConfig()
			if err != nil {
				return err
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}

			m := metrics.New()
			opts := []verify.Option{
				verify.WithOutput(c.Root().Writer),
				verify.WithFormat(f),
				verify.WithMetrics(m),
			}

			if policyDir != "" {
				engine, err := policy.Load(ctx, policyDir)
				if err != nil {
					return err
				}
				if engine != nil {
					opts = append(opts, verify.WithPolicy(engine))
				}
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			if repo != nil {
				opts = append(opts, verify.WithRepository(repo))
			}

			v, err := verify.New(storage, conf, dir, opts...)
			if err != nil {
				return err
			}

			report, err := v.Run(ctx)
			m.ObserveDuration("verify", time.Since(start))
			cfg.writeMetrics(ctx, m)
			if err != nil {
				return err
			}

			if strict && report.Failed() {
				return goerr.New("verification failed", goerr.V("summary", report.Summary()))
			}
			return nil
		},
	}
}
