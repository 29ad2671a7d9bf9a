package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
)

func runsCommand() *cli.Command {
	var (
		cfg   config
		kind  string
		limit int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "kind",
			Aliases:     []string{"k"},
			Usage:       "Only list runs of this kind (build, verify)",
			Sources:     cli.EnvVars("BEARS_RUNS_KIND"),
			Destination: &kind,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of runs to list",
			Value:       20,
			Sources:     cli.EnvVars("BEARS_RUNS_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "runs",
		Usage: "List recorded build and verify runs",
		Flags: flags,
		Commands: []*cli.Command{
			runShowCommand(),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			k := model.RunKind(kind)
			if k != "" {
				if err := k.Validate(); err != nil {
					return err
				}
			}

			repo, err := cfg.requireRepository(ctx)
			if err != nil {
				return err
			}

			runs, err := repo.ListRuns(ctx, k, int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to list runs")
			}

			if len(runs) == 0 {
				fmt.Fprintln(c.Root().Writer, "No runs recorded")
				return nil
			}

			for _, r := range runs {
				status := "ok"
				if r.Failed {
					status = "failed"
				}
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\tseed=%d\t%s\t%s\n",
					r.ID,
					r.Kind,
					r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.Seed,
					status,
					r.Summary,
				)
			}
			return nil
		},
	}
}

func runShowCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "show",
		Usage:     "Print the stored report of one run",
		ArgsUsage: "<run-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("run id is required")
			}

			repo, err := cfg.requireRepository(ctx)
			if err != nil {
				return err
			}

			run, err := repo.GetRun(ctx, model.RunID(c.Args().First()))
			if err != nil {
				return goerr.Wrap(err, "failed to get run", goerr.V("id", c.Args().First()))
			}

			fmt.Fprintln(c.Root().Writer, run.Report)
			return nil
		},
	}
}
