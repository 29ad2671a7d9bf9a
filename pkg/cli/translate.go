package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/yenchangchen131/BEARS-dataset/pkg/usecase/translate"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

func translateCommand() *cli.Command {
	var (
		cfg         config
		dir         string
		provider    string
		concurrency int64
		rps         float64
		quiet       bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "out-dir",
			Aliases:     []string{"o"},
			Usage:       "Directory holding the raw generation; the processed one is written next to it",
			Value:       "data/processed",
			Sources:     cli.EnvVars("BEARS_OUT_DIR"),
			Destination: &dir,
		},
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "LLM provider (gemini, claude)",
			Value:       "gemini",
			Sources:     cli.EnvVars("BEARS_TRANSLATE_PROVIDER"),
			Destination: &provider,
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Number of in-flight provider calls",
			Value:       translate.DefaultConcurrency,
			Sources:     cli.EnvVars("BEARS_TRANSLATE_CONCURRENCY"),
			Destination: &concurrency,
		},
		&cli.FloatFlag{
			Name:        "rate",
			Usage:       "Maximum provider calls per second",
			Value:       float64(translate.DefaultRate),
			Sources:     cli.EnvVars("BEARS_TRANSLATE_RATE"),
			Destination: &rps,
		},
		&cli.BoolFlag{
			Name:        "quiet",
			Aliases:     []string{"q"},
			Usage:       "Hide the progress spinner",
			Destination: &quiet,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "translate",
		Usage: "Produce the processed generation by translating the raw one",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			conf, err := cfg.loadConfig()
			if err != nil {
				return err
			}
			tag, err := language.Parse(conf.Verify.TargetLanguage)
			if err != nil {
				return goerr.Wrap(err, "invalid target language", goerr.V("tag", conf.Verify.TargetLanguage))
			}

			var translator translate.Translator
			switch provider {
			case "gemini":
				client, err := cfg.newGemini(ctx)
				if err != nil {
					return err
				}
				translator = translate.NewGeminiTranslator(client, tag)
			case "claude":
				client, err := cfg.newClaude()
				if err != nil {
					return err
				}
				translator = translate.NewClaudeTranslator(client, tag)
			default:
				return goerr.New("unknown provider", goerr.V("provider", provider))
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}

			opts := []translate.Option{
				translate.WithConcurrency(int(concurrency)),
				translate.WithRateLimit(rate.Limit(rps), max(1, int(concurrency))),
			}
			if quiet {
				opts = append(opts, translate.WithProgress(nil))
			} else {
				opts = append(opts, translate.WithProgress(os.Stderr))
			}

			result, err := translate.New(storage, conf, dir, translator, opts...).Run(ctx)
			if err != nil {
				return goerr.Wrap(err, "translate failed")
			}

			fmt.Fprintf(c.Root().Writer, "Translated %d texts (%d queries, %d documents, %d exempt records)\n",
				result.Texts, result.Queries, result.Documents, result.Exempt)
			return nil
		},
	}
}
