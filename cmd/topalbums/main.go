package main

import (
	"log"

	"github.com/alecthomas/kong"

	"github.com/cesargomez89/topalbums/internal/config"
	"github.com/cesargomez89/topalbums/internal/logger"
)

var version = "v0.0.0"

type CLI struct {
	Version kong.VersionFlag `help:"Show version and exit" short:"v"`
	EnvFile string           `help:"Env file to load before reading the environment." default:".env" type:"path"`

	Scrape ScrapeCmd `cmd:"" help:"Scrape a chart, enrich it and load it into the database."`
	Serve  ServeCmd  `cmd:"" help:"Serve the read API and run scheduled scrapes."`
	Export ExportCmd `cmd:"" help:"Write the stored history of a chart to CSV."`
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("topalbums"),
		kong.Description("Scrapes Metacritic album charts into a relational database."),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	cfg, err := config.LoadFile(cli.EnvFile)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	d, err := newDeps(cfg, appLogger)
	if err != nil {
		log.Fatalf("Could not set up dependencies: %v", err)
	}

	err = kctx.Run(d)
	if cErr := d.Close(); cErr != nil {
		appLogger.Warn("Failed to close dependencies", "error", cErr)
	}
	kctx.FatalIfErrorf(err)
}
