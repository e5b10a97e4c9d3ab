package store

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tradelog-audit/internal/types"
)

type Config struct {
	AlgoName    string `yaml:"algo_name"`
	Segment     string `yaml:"segment"`
	TradeLog    string `yaml:"trade_log"`
	ChainFile   string `yaml:"chain_file"`
	LotSizeFile string `yaml:"lot_size_file"`
	OutputDir   string `yaml:"output_dir"`

	Info struct {
		PnlDistribution bool `yaml:"pnl_distribution"`
		TradeDuration   bool `yaml:"trade_duration"`
	} `yaml:"info"`

	Chain struct {
		Source   string `yaml:"source"` // FILE or ZERODHA
		Exchange string `yaml:"exchange"`
		Interval string `yaml:"interval"`
	} `yaml:"chain"`

	Runlog struct {
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"runlog"`
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.AlgoName == "" {
		c.AlgoName = "algo"
	}
	if c.Segment == "" {
		c.Segment = string(types.SegmentUniversal)
	}
	if c.OutputDir == "" {
		c.OutputDir = "logs"
	}
	if c.Chain.Source == "" {
		c.Chain.Source = "FILE"
	}
	if c.Chain.Exchange == "" {
		c.Chain.Exchange = "NSE"
	}
	if c.Chain.Interval == "" {
		c.Chain.Interval = "minute"
	}

	// Validation is deferred to the caller so command-line overrides
	// can be applied first.
	return &c, nil
}

// ResolveSegment normalizes the segment selector. OPTION and OPTIONS
// are case-insensitive aliases; anything else falls back to UNIVERSAL.
func ResolveSegment(s string) types.Segment {
	switch strings.ToUpper(s) {
	case "OPTIONS", "OPTION":
		return types.SegmentOptions
	default:
		return types.SegmentUniversal
	}
}

func (c *Config) Validate() error {
	if c.TradeLog == "" {
		return errors.New("trade_log is required")
	}
	switch strings.ToUpper(c.Chain.Source) {
	case "FILE", "ZERODHA":
	default:
		return fmt.Errorf("unknown chain source %q", c.Chain.Source)
	}
	if ResolveSegment(c.Segment) == types.SegmentOptions && c.LotSizeFile == "" {
		return errors.New("options segment requires lot_size_file")
	}
	return nil
}
