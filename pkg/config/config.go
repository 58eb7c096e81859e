package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no -config flag is given.
const DefaultPath = "config.yaml"

// ExampleName is the bundled fallback loaded when the configured path does
// not exist. Copy it to config.yaml and edit the table/column names there.
const ExampleName = "config.example.yaml"

// Config parameterizes every query the extractor issues. Table and column
// names are interpolated as identifiers; they come from the operator's own
// config file, not from untrusted input.
type Config struct {
	DatabaseURL   string `yaml:"database_url" validate:"required"`
	ReferralTable string `yaml:"referral_table" validate:"required"`
	DetailTable   string `yaml:"detail_table" validate:"required"`
	IDColumn      string `yaml:"id_column"`
	FromColumn    string `yaml:"from_column" validate:"required"`
	ToColumn      string `yaml:"to_column" validate:"required"`
	WeightColumn  string `yaml:"weight_column" validate:"required"`
	OutputDir     string `yaml:"output_dir"`
}

var validate = validator.New()

// Load reads and validates the configuration at path. When path does not
// exist, the bundled example in the same directory is tried before giving
// up.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		example := filepath.Join(filepath.Dir(path), ExampleName)
		data, err = os.ReadFile(example)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.IDColumn == "" {
		c.IDColumn = "npi"
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
}
