package application

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

// Config defines the charge type catalog and scoring defaults.
type Config struct {
	ChargeTypes       []string `yaml:"charge_types"`
	DefaultAggregator string   `yaml:"default_aggregator"`
	ReportTitle       string   `yaml:"report_title"`
}

// DefaultConfig returns the built-in catalog.
func DefaultConfig() Config {
	categories := occupancy.DefaultCategories()
	types := make([]string, 0, len(categories))
	for _, category := range categories {
		types = append(types, string(category))
	}
	return Config{
		ChargeTypes:       types,
		DefaultAggregator: occupancy.AggregatorAverageUsage.String(),
		ReportTitle:       "Average Usage per EV Charging Point",
	}
}

// LoadConfig reads OCCUPANCY_CONFIG when set and applies env overrides.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("OCCUPANCY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := ParseConfig(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if types := splitCSV(os.Getenv("OCCUPANCY_CHARGE_TYPES")); len(types) > 0 {
		cfg.ChargeTypes = types
	}
	if aggregator := os.Getenv("OCCUPANCY_DEFAULT_AGGREGATOR"); aggregator != "" {
		cfg.DefaultAggregator = aggregator
	}
	return cfg, cfg.Validate()
}

// ParseConfig decodes YAML into cfg, keeping fields the document leaves out.
func ParseConfig(data []byte, cfg *Config) error {
	if cfg == nil {
		return errors.New("occupancy config: nil config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("occupancy config: %w", err)
	}
	return nil
}

// Validate checks the catalog and the default aggregator.
func (c Config) Validate() error {
	if len(c.ChargeTypes) == 0 {
		return errors.New("occupancy config: empty charge type catalog")
	}
	seen := make(map[string]struct{}, len(c.ChargeTypes))
	for _, chargeType := range c.ChargeTypes {
		if chargeType == "" {
			return errors.New("occupancy config: empty charge type")
		}
		if _, dup := seen[chargeType]; dup {
			return fmt.Errorf("occupancy config: duplicate charge type %q", chargeType)
		}
		seen[chargeType] = struct{}{}
	}
	if _, err := occupancy.ParseAggregatorKind(c.DefaultAggregator); err != nil {
		return fmt.Errorf("occupancy config: default aggregator: %w", err)
	}
	return nil
}

// Catalog returns the configured charge types.
func (c Config) Catalog() []occupancy.Category {
	out := make([]occupancy.Category, 0, len(c.ChargeTypes))
	for _, chargeType := range c.ChargeTypes {
		out = append(out, occupancy.Category(chargeType))
	}
	return out
}

// DefaultKind returns the aggregator used when a request names none.
func (c Config) DefaultKind() occupancy.AggregatorKind {
	kind, err := occupancy.ParseAggregatorKind(c.DefaultAggregator)
	if err != nil {
		return occupancy.AggregatorAverageUsage
	}
	return kind
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
