// Package config loads the hubmirror configuration from
// ~/.config/hubmirror/config.toml.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything hubmirror needs to mirror one repository.
type Config struct {
	Owner            string
	Repo             string
	Token            string
	APIBase          string
	ItemPollSeconds  int
	LabelPollSeconds int
	PageSize         int
}

const (
	defaultConfigPath       = "~/.config/hubmirror/config.toml"
	defaultItemPollSeconds  = 20
	defaultLabelPollSeconds = 5
	defaultPageSize         = 20
)

// ErrRepoRequired is returned when neither the config file nor flags
// name a repository to mirror.
var ErrRepoRequired = errors.New("config: owner and repo are required")

// Load locates and parses the config file. A missing file is not an
// error by itself; owner/repo may still arrive via flags, so validation
// happens in Validate, not here.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ItemPollSeconds:  defaultItemPollSeconds,
		LabelPollSeconds: defaultLabelPollSeconds,
		PageSize:         defaultPageSize,
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.Token = tokenFromEnv()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Owner            string `toml:"owner"`
		Repo             string `toml:"repo"`
		Token            string `toml:"token"`
		APIBase          string `toml:"api_base"`
		ItemPollSeconds  int    `toml:"item_poll_seconds"`
		LabelPollSeconds int    `toml:"label_poll_seconds"`
		PageSize         int    `toml:"page_size"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Owner = strings.TrimSpace(raw.Owner)
	cfg.Repo = strings.TrimSpace(raw.Repo)
	cfg.Token = strings.TrimSpace(raw.Token)
	if cfg.Token == "" {
		cfg.Token = tokenFromEnv()
	}
	cfg.APIBase = strings.TrimSpace(raw.APIBase)
	if raw.ItemPollSeconds > 0 {
		cfg.ItemPollSeconds = raw.ItemPollSeconds
	}
	if raw.LabelPollSeconds > 0 {
		cfg.LabelPollSeconds = raw.LabelPollSeconds
	}
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}
	return cfg, nil
}

// Validate checks that the config names a repository.
func (c Config) Validate() error {
	if c.Owner == "" || c.Repo == "" {
		return ErrRepoRequired
	}
	return nil
}

func tokenFromEnv() string {
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
