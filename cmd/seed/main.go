package main

import (
	"os"

	"github.com/bookwormapp/bookworm/pkg/config"
	"github.com/bookwormapp/bookworm/pkg/database"
	"github.com/bookwormapp/bookworm/pkg/ingest"
	"github.com/bookwormapp/bookworm/pkg/migrations"
	"github.com/robinjoseph08/golib/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	app := &cli.App{
		Name:        "seed",
		Usage:       "reseed the catalog from a CSV source",
		Description: "Clears the shared catalog and reloads it from a CSV export. This is a full replace, not a merge.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "path to the CSV source file",
				Value:   cfg.SeedSourcePath,
			},
		},
		Action: func(c *cli.Context) error {
			source := c.String("source")
			if source == "" {
				return cli.Exit("a CSV source is required (--source or seed_source_path)", 1)
			}

			if _, err := migrations.BringUpToDate(c.Context, db); err != nil {
				return err
			}

			pipeline := ingest.NewPipeline(db)
			inserted, err := pipeline.Run(c.Context, source)
			if err != nil {
				// The partial count still matters when a reseed dies halfway.
				log.Err(err).Error("seed aborted", logger.Data{"inserted": inserted})
				return err
			}

			log.Info("seed complete", logger.Data{"inserted": inserted, "source": source})
			return nil
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}
