// Package config は実験全体の設定を YAML から読み込みます。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sw965/smartcab/ql"
	"github.com/sw965/smartcab/world"
	"gopkg.in/yaml.v3"
)

var ErrInvalidTrials = errors.New("Configエラー: trials は1以上である必要があります")

type Output struct {
	ChartPath   string `yaml:"chart_path"`
	DBPath      string `yaml:"db_path"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Level は LogLevel を slog.Level に変換する。空文字は info。
func (o Output) Level() (slog.Level, error) {
	var l slog.Level
	if o.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(o.LogLevel)); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

type Config struct {
	Learning ql.Config    `yaml:"learning"`
	World    world.Config `yaml:"world"`
	Trials   int          `yaml:"trials"`
	Seed     uint64       `yaml:"seed"`
	Output   Output       `yaml:"output"`
}

func Default() *Config {
	return &Config{
		Learning: ql.DefaultConfig(),
		World:    world.DefaultConfig(),
		Trials:   100,
		Seed:     1,
		Output:   Output{LogLevel: "info"},
	}
}

// Load は path の YAML で Default を上書きする。path が空ならデフォルトを返す。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Learning.Validate(); err != nil {
		return err
	}
	if err := c.World.Validate(); err != nil {
		return err
	}
	if c.Trials < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidTrials, c.Trials)
	}
	if _, err := c.Output.Level(); err != nil {
		return err
	}
	return nil
}
