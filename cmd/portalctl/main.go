// Command portalctl drives the document review workflow against a running portal.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/oaustech/docportal/internal/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "portalctl",
		Usage: "submit and review registration documents from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "portal base URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"PORTAL_URL"},
			},
			&cli.StringFlag{
				Name:    "session-file",
				Usage:   "where the login session is kept",
				Value:   defaultSessionPath(),
				EnvVars: []string{"PORTAL_SESSION_FILE"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log API calls",
			},
		},
		Before: func(c *cli.Context) error {
			level := logger.WarnLevel
			if c.Bool("verbose") {
				level = logger.DebugLevel
			}
			logger.Configure(logger.Config{Level: level, Pretty: true, Output: os.Stderr})
			return nil
		},
		Commands: commands(),
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if h := hint(err); h != "" {
			fmt.Fprintln(os.Stderr, "hint:", h)
		}
		os.Exit(exitCode(err))
	}
}
