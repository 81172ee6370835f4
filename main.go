package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/orviagent/orvi/cmd/cli"
)

var CLI struct {
	Run    cli.RunCmd    `cmd:"" help:"Execute a mission against a local browser."`
	Lint   cli.LintCmd   `cmd:"" help:"Validate a mission file and every step configuration."`
	Serve  cli.ServeCmd  `cmd:"" help:"Serve missions over HTTP (POST /execute, GET /health)."`
	Schema cli.SchemaCmd `cmd:"" help:"Print the JSON Schema for mission files."`
}

func main() {
	// Loaded before kong so env-tagged flags see .env values.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: no .env file found, relying on real ENV: %v\n", err)
	}

	ctx := kong.Parse(&CLI,
		kong.Name("orvi"),
		kong.Description("Retrying browser-mission engine."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
