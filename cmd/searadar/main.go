package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/searadar/internal/app"
	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/gdelt"
	"github.com/ternarybob/searadar/internal/httpclient"
	"github.com/ternarybob/searadar/internal/miner"
	"github.com/ternarybob/searadar/internal/rates"
	"github.com/ternarybob/searadar/internal/server"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: searadar [flags] <command>

Commands:
  mine      Mine the GDELT news window into the events CSV
  upsample  Expand the weekly rates CSV into an hourly series
  pipeline  Run the ingest and transform steps once
  serve     Start the dashboard server (default)

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	flag.Usage = usage
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Searadar version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("searadar.toml"); err == nil {
			configFiles = append(configFiles, "searadar.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *serverPort, *serverHost)

	logger := common.InitLogger(config)
	common.PrintBanner(common.LoadVersionFromFile())

	command := flag.Arg(0)
	if command == "" {
		command = "serve"
	}

	switch command {
	case "mine":
		runMine(config, logger)
	case "upsample":
		runUpsample(config, logger)
	case "pipeline":
		runPipeline(config, logger)
	case "serve":
		runServe(config, logger)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		usage()
		os.Exit(2)
	}
}

func runMine(config *common.Config, logger arbor.ILogger) {
	timeout, _ := config.GDELT.Timeout()
	delay, _ := config.GDELT.Delay()

	client := gdelt.NewClient(config.GDELT.Query,
		gdelt.WithBaseURL(config.GDELT.BaseURL),
		gdelt.WithMaxRecords(config.GDELT.MaxRecords),
		gdelt.WithUserAgent(config.GDELT.UserAgent),
		gdelt.WithRequestDelay(delay),
		gdelt.WithHTTPClient(httpclient.NewDefaultHTTPClient(timeout)),
		gdelt.WithLogger(logger),
	)

	service := miner.NewService(&config.GDELT, client, logger)
	if _, err := service.Run(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Mining failed")
		os.Exit(1)
	}
}

func runUpsample(config *common.Config, logger arbor.ILogger) {
	service := rates.NewService(&config.Rates, logger)
	if err := service.Run(); err != nil {
		// Missing input is fatal: the weekly series must exist first
		logger.Fatal().Err(err).Msg("Upsampling failed")
		os.Exit(1)
	}
}

func runPipeline(config *common.Config, logger arbor.ILogger) {
	orchestrator := app.NewOrchestrator(config, logger)
	run := orchestrator.Run(context.Background())

	for _, step := range run.Steps {
		if step.Error != "" {
			fmt.Printf("  %-13s %-10s %s\n", step.Name, step.Status, step.Error)
		} else {
			fmt.Printf("  %-13s %-10s %s\n", step.Name, step.Status, step.Message)
		}
	}

	if run.Failed() {
		os.Exit(1)
	}
}

func runServe(config *common.Config, logger arbor.ILogger) {
	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}

	application.Start()
	defer application.Stop()

	srv := server.New(application)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("Server failed")
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
			os.Exit(1)
		}
	}
}
