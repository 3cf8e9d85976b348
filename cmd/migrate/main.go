package main

import (
	"campusbook/config"
	"campusbook/helper"
	"campusbook/shared/logger"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func action(run func(*config.Config) error) cli.ActionFunc {
	return func(_ *cli.Context) error {
		return run(config.Get())
	}
}

func main() {
	logger.InitLogger()

	app := &cli.App{
		Name:  "migrate",
		Usage: "apply the postgres schema under migrations/postgres",
		Commands: []*cli.Command{
			{Name: "up", Usage: "apply every pending migration", Action: action(helper.Up)},
			{Name: "down", Usage: "roll back the latest migration", Action: action(helper.Down)},
			{Name: "step-up", Usage: "apply the next pending migration", Action: action(helper.StepUp)},
			{Name: "drop", Usage: "roll back every migration", Action: action(helper.Drop)},
			{Name: "version", Usage: "print the applied migration version", Action: action(helper.Version)},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}
