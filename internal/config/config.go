package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// TablesFile overrides the embedded lookup tables when set.
	TablesFile string `mapstructure:"tables_file" yaml:"tables_file"`
	OutputDir  string `mapstructure:"output_dir" yaml:"output_dir"`
	Parallel   bool   `mapstructure:"parallel" yaml:"parallel"`
	XLSXSheet  string `mapstructure:"xlsx_sheet" yaml:"xlsx_sheet"`

	// Cohort report
	MinGroupSize  int      `mapstructure:"min_group_size" yaml:"min_group_size"`
	CohortGroupBy []string `mapstructure:"cohort_group_by" yaml:"cohort_group_by"`

	// Viewer
	ViewerAddr string `mapstructure:"viewer_addr" yaml:"viewer_addr"`
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".paresthesia"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.paresthesia/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PARESTHESIA")
	v.AutomaticEnv()

	v.SetDefault("tables_file", "")
	v.SetDefault("output_dir", ".")
	v.SetDefault("parallel", false)
	v.SetDefault("xlsx_sheet", "")
	v.SetDefault("min_group_size", 5)
	v.SetDefault("cohort_group_by", []string{"body_part"})
	v.SetDefault("viewer_addr", "127.0.0.1:8050")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.MinGroupSize < 1 {
		c.MinGroupSize = 1
	}
	return &c, nil
}
