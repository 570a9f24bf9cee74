// Command recon runs catalog analyses from the command line.
//
// Usage:
//
//	recon analyze --main catalog.csv --cost cost.csv [--budget 500] [-o report.csv]
//	recon detect --role cost supplier.csv
//	recon patterns
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func newApp() *cli.App {
	return &cli.App{
		Name:    "recon",
		Usage:   "Reconcile catalog exports with supplier costs and rank profitable products",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config.toml (defaults to ./config.toml if present)",
				EnvVars: []string{"RECON_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"RECON_CLI_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			detectCommand(),
			patternsCommand(),
		},
	}
}

func main() {
	app := newApp()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
