package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Mimir-AIP/Attrition-Go/utils"
)

// Version is the application version.
const Version = "1.0.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "--version", "-v":
		fmt.Printf("attrition version %s\n", Version)

	case "train":
		fs := flag.NewFlagSet("train", flag.ExitOnError)
		configPath := fs.String("config", "config.yaml", "path to configuration file")
		if err := fs.Parse(args[1:]); err != nil {
			os.Exit(1)
		}
		cfg := mustLoadConfig(*configPath)

		summary, err := RunTraining(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Training failed")
		}
		log.Info().
			Str("run_id", summary.Run.RunID).
			Str("best", summary.Run.BestAlgorithm).
			Str("artifact", summary.Run.ArtifactPath).
			Msg("Training complete")

	case "--server", "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		configPath := fs.String("config", "config.yaml", "path to configuration file")
		rest := args[1:]
		var portOverride int
		if len(rest) > 0 && rest[0] != "" && rest[0][0] != '-' {
			port, err := strconv.Atoi(rest[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid port: %s\n", rest[0])
				os.Exit(1)
			}
			portOverride = port
			rest = rest[1:]
		}
		if err := fs.Parse(rest); err != nil {
			os.Exit(1)
		}
		cfg := mustLoadConfig(*configPath)
		if portOverride != 0 {
			cfg.Server.Port = portOverride
		}

		server, err := NewServer(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Server initialization failed")
		}
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func mustLoadConfig(path string) *utils.Config {
	cfg, err := utils.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	utils.InitLogger(cfg.Logging.Level, cfg.Logging.Pretty)
	return cfg
}

func printUsage() {
	fmt.Println("Employee attrition prediction service")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  attrition train [-config config.yaml]    train all model variants and save the best")
	fmt.Println("  attrition --server [port]                serve predictions from the saved model")
	fmt.Println("  attrition --version                      print the version")
}
