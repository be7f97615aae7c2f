package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/verocta/spendscore/internal/logger"
	"github.com/verocta/spendscore/internal/pipeline"
	"github.com/verocta/spendscore/internal/score"
	"github.com/verocta/spendscore/internal/vendor"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("spendscore-cli")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "score":
		runScore(log)
	case "vendors":
		runVendors(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("SpendScore CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  score     Score a local vendor export (CSV or XLSX)")
	fmt.Println("  vendors   List supported vendor profiles")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runScore(log zerolog.Logger) {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	path := fs.String("file", "", "Path to the vendor export")
	currency := fs.String("currency", "", "Pin the batch to one ISO currency code")
	profiles := fs.String("profiles", os.Getenv("SPENDSCORE_PROFILES"), "Extra vendor profiles YAML (or set SPENDSCORE_PROFILES)")
	fs.Parse(os.Args[2:])

	if *path == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		fs.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("Failed to read file")
	}

	registry := vendor.Builtin()
	if *profiles != "" {
		registry, err = vendor.LoadFile(*profiles)
		if err != nil {
			log.Fatal().Err(err).Str("path", *profiles).Msg("Failed to load vendor profiles")
		}
	}

	engine, err := score.NewEngine(score.DefaultConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid scoring configuration")
	}

	pipe := pipeline.New(registry, pipeline.DefaultValidationConfig(), engine, log)

	start := time.Now()
	out, err := pipe.Ingest(context.Background(), data, pipeline.Options{
		Filename:         filepath.Base(*path),
		ExpectedCurrency: *currency,
	})
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("Scoring failed")
	}

	log.Info().
		Str("vendor", out.Vendor).
		Int("clean_rows", out.CleanRows).
		Int("rejected_rows", out.Rejections.Len()).
		Dur("duration", time.Since(start)).
		Msg("File scored")

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
	fmt.Println(string(encoded))
}

func runVendors(log zerolog.Logger) {
	fs := flag.NewFlagSet("vendors", flag.ExitOnError)
	profiles := fs.String("profiles", os.Getenv("SPENDSCORE_PROFILES"), "Extra vendor profiles YAML (or set SPENDSCORE_PROFILES)")
	fs.Parse(os.Args[2:])

	registry := vendor.Builtin()
	if *profiles != "" {
		var err error
		registry, err = vendor.LoadFile(*profiles)
		if err != nil {
			log.Fatal().Err(err).Str("path", *profiles).Msg("Failed to load vendor profiles")
		}
	}

	fmt.Printf("%-12s %-12s %s\n", "TAG", "SIGN", "SIGNATURE")
	for _, p := range registry.Profiles() {
		fmt.Printf("%-12s %-12s %v\n", p.Tag, p.AmountSign, p.Signature)
	}
}
