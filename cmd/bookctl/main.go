package main

import (
	"campusbook/internal/client"
	"campusbook/shared/failure"
	"campusbook/shared/logger"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const (
	flagServer      = "server"
	flagSessionFile = "session-file"
)

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bookctl-session.json"
	}

	return filepath.Join(home, ".bookctl", "session.json")
}

func main() {
	logger.InitLogger()

	app := &cli.App{
		Name:  "bookctl",
		Usage: "book campus resources from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagServer, Value: "http://localhost:8080", EnvVars: []string{"BOOKCTL_SERVER"}, Usage: "API base URL"},
			&cli.StringFlag{Name: flagSessionFile, Value: defaultSessionFile(), EnvVars: []string{"BOOKCTL_SESSION"}, Usage: "where the signed-in session is kept"},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			resourcesCommand(),
			bookingsCommand(),
			reportsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		explain(err)
		os.Exit(1)
	}
}

// explain prints a failure with whatever structured payload it carries.
func explain(err error) {
	if suggestions, ok := client.Suggestions(err); ok {
		fmt.Fprintln(os.Stderr, err.Error())

		for _, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  try %s (%s, capacity %d)\n", s.Name, s.ResourceID, s.Capacity)
		}

		return
	}

	if conflict, ok := client.ConflictOf(err); ok {
		fmt.Fprintf(os.Stderr, "%s\n  held by booking %s (%s)\n", err.Error(), conflict.BookingID, conflict.Status)

		return
	}

	if client.IsNetworkOrServer(err) {
		log.Error().Err(err).Int("code", failure.GetCode(err)).Msg("server unavailable")

		return
	}

	fmt.Fprintf(os.Stderr, "%s: %s\n", failure.GetKind(err), err.Error())
}
