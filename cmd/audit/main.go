package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tradelog-audit/internal/audit"
	"tradelog-audit/internal/audit/auditobs"
	"tradelog-audit/internal/interfaces"
	"tradelog-audit/internal/logger"
	"tradelog-audit/internal/source/zerodha"
	"tradelog-audit/internal/store"
	"tradelog-audit/internal/trace"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	algoName := flag.String("algo", "", "algorithm name for report/log filenames")
	tradeLog := flag.String("log", "", "path to trade log CSV/XLSX (overrides config)")
	chainFile := flag.String("chain", "", "path to price chain CSV (optional)")
	lotFile := flag.String("lots", "", "path to lot size CSV (required for OPTIONS)")
	segment := flag.String("segment", "", "validation segment: UNIVERSAL or OPTIONS")
	outputDir := flag.String("output", "", "directory for run logs and violation reports")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath, *algoName, *tradeLog, *chainFile, *lotFile, *segment, *outputDir)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	ctx := context.Background()
	defer func() {
		_ = trace.Shutdown(ctx)
	}()

	var chainSource interfaces.ChainSource
	if cfg.Chain.Source == "ZERODHA" || cfg.Chain.Source == "zerodha" {
		chainSource = zerodha.New(zerodha.Params{
			APIKey:      os.Getenv("KITE_API_KEY"),
			AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
			Exchange:    cfg.Chain.Exchange,
			Interval:    cfg.Chain.Interval,
		})
	}

	auditor := auditobs.Wrap(audit.New(cfg, chainSource))

	outcome, err := auditor.Run(ctx)
	if err != nil {
		fmt.Printf("Error running validation: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("[OK] Validation complete. Log saved to: " + outcome.RunLogPath)
	if outcome.Report == nil {
		// Aggregation failed; the checks still ran, but there is no
		// report to trust.
		os.Exit(1)
	}
}

// loadConfig reads the YAML config and applies command-line overrides.
// A missing config file is fine as long as the flags carry enough to
// run.
func loadConfig(path, algo, log, chainFile, lotFile, segment, outputDir string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &store.Config{}
		cfg.AlgoName = "algo"
		cfg.Segment = "UNIVERSAL"
		cfg.OutputDir = "logs"
		cfg.Chain.Source = "FILE"
		cfg.Chain.Exchange = "NSE"
		cfg.Chain.Interval = "minute"
	}
	if algo != "" {
		cfg.AlgoName = algo
	}
	if log != "" {
		cfg.TradeLog = log
	}
	if chainFile != "" {
		cfg.ChainFile = chainFile
	}
	if lotFile != "" {
		cfg.LotSizeFile = lotFile
	}
	if segment != "" {
		cfg.Segment = segment
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
