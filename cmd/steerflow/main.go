package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/urfave/cli"

	"steerflow/internal/observability/log"
)

func main() {
	app := makeapp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "steerflow:", err)
		os.Exit(1)
	}
}

func makeapp(stdout io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "steerflow"
	app.Usage = "Run and validate steering and collision scenarios"
	app.Writer = stdout

	logFlags := []cli.Flag{
		cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level: debug, info, warn or error"},
		cli.BoolFlag{Name: "debug", Usage: "Shorthand for -log-level debug"},
	}

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Aliases:   []string{"r"},
			Usage:     "Run scenarios and print each final state hash",
			ArgsUsage: "[scenario.yaml...]",
			Flags: append([]cli.Flag{
				cli.StringSliceFlag{Name: "scenario", Usage: "Scenario file; repeat for several"},
				cli.IntFlag{Name: "frames", Value: 0, Usage: "Override the frame count of every scenario"},
				cli.IntFlag{Name: "parallel", Value: runtime.NumCPU(), Usage: "Scenarios run at once"},
			}, logFlags...),
			Action: func(c *cli.Context) error {
				paths := scenarioPaths(c)
				if len(paths) == 0 {
					return fmt.Errorf("no scenario given; use -scenario or pass files as arguments")
				}

				logger := newLogger(c)
				defer logger.Sync()

				return runAction(c.App.Writer, logger, paths, c.Int("frames"), c.Int("parallel"))
			},
		},
		{
			Name:      "check",
			Aliases:   []string{"c"},
			Usage:     "Validate scenario files without running them",
			ArgsUsage: "[scenario.yaml...]",
			Flags: append([]cli.Flag{
				cli.StringSliceFlag{Name: "scenario", Usage: "Scenario file; repeat for several"},
			}, logFlags...),
			Action: func(c *cli.Context) error {
				paths := scenarioPaths(c)
				if len(paths) == 0 {
					return fmt.Errorf("no scenario given; use -scenario or pass files as arguments")
				}
				return checkAction(c.App.Writer, paths)
			},
		},
	}

	return app
}

func scenarioPaths(c *cli.Context) []string {
	return append(c.StringSlice("scenario"), c.Args()...)
}

func newLogger(c *cli.Context) log.Log {
	level := log.ParseLevel(c.String("log-level"))
	if c.Bool("debug") {
		level = log.LevelDebug
	}
	return log.New(level)
}
