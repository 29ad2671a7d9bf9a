package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/export"
)

func exportCommand() *cli.Command {
	var (
		cfg        config
		dir        string
		generation string
		sqlitePath string
		bqProject  string
		bqDataset  string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "out-dir",
			Aliases:     []string{"o"},
			Usage:       "Directory holding the generations",
			Value:       "data/processed",
			Sources:     cli.EnvVars("BEARS_OUT_DIR"),
			Destination: &dir,
		},
		&cli.StringFlag{
			Name:        "generation",
			Aliases:     []string{"g"},
			Usage:       "Generation to export (raw, processed)",
			Value:       string(model.GenerationProcessed),
			Sources:     cli.EnvVars("BEARS_EXPORT_GENERATION"),
			Destination: &generation,
		},
		&cli.StringFlag{
			Name:        "sqlite",
			Usage:       "Path of a SQLite database to write",
			Sources:     cli.EnvVars("BEARS_EXPORT_SQLITE"),
			Destination: &sqlitePath,
		},
		&cli.StringFlag{
			Name:        "bigquery-project",
			Usage:       "Google Cloud project of the BigQuery dataset (defaults to --project)",
			Sources:     cli.EnvVars("BEARS_BIGQUERY_PROJECT"),
			Destination: &bqProject,
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset",
			Usage:       "BigQuery dataset receiving the queries and corpus tables",
			Sources:     cli.EnvVars("BEARS_BIGQUERY_DATASET"),
			Destination: &bqDataset,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "export",
		Usage: "Publish one generation to SQLite and/or BigQuery",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			gen := model.Generation(generation)
			if gen != model.GenerationRaw && gen != model.GenerationProcessed {
				return goerr.New("unknown generation", goerr.V("generation", generation))
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}

			var opts []export.Option
			if sqlitePath != "" {
				db, err := adapter.NewSQLite(ctx, sqlitePath)
				if err != nil {
					return err
				}
				defer db.Close()
				opts = append(opts, export.WithSink(export.NewSQLiteSink(db)))
			}
			if bqDataset != "" {
				project := bqProject
				if project == "" {
					project = cfg.project
				}
				if project == "" {
					return goerr.New("bigquery-project or project is required for BigQuery export")
				}
				bq, err := adapter.NewBigQuery(ctx, project, bqDataset)
				if err != nil {
					return err
				}
				opts = append(opts, export.WithSink(export.NewBigQuerySink(bq, nil)))
			}

			result, err := export.New(storage, dir, opts...).Run(ctx, gen)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Exported %s generation (%d queries, %d documents) to %s\n",
				result.Generation, result.Queries, result.Documents, strings.Join(result.Sinks, ", "))
			return nil
		},
	}
}
