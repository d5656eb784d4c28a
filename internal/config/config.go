package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/0xPuncker/cron-console/pkg/types"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ChannelsFileName = "channels.yaml"

type Config struct {
	Server  ServerConfig     `json:"server"`
	Gateway GatewayConfig    `json:"gateway"`
	Session SessionConfig    `json:"session"`
	UI      UIConfig         `json:"ui"`
	Slack   SlackConfig      `json:"slack"`
	Jobs    types.TaskConfig `json:"jobs"`
}

type ServerConfig struct {
	Port         string `json:"port"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
}

type GatewayConfig struct {
	URL       string        `json:"url"`
	Token     string        `json:"token"`
	Transport string        `json:"transport"`
	Timeout   string        `json:"timeout"`
	Breaker   BreakerConfig `json:"breaker"`
	Cache     CacheConfig   `json:"cache"`
	RunsLimit int           `json:"runs_limit"`
	// Mutations per second allowed towards the gateway.
	MutationRate  float64 `json:"mutation_rate"`
	MutationBurst int     `json:"mutation_burst"`
}

type BreakerConfig struct {
	MaxFailures int    `json:"max_failures"`
	OpenTimeout string `json:"open_timeout"`
}

type CacheConfig struct {
	StatusTTL string `json:"status_ttl"`
	ListTTL   string `json:"list_ttl"`
	RunsTTL   string `json:"runs_ttl"`
}

type SessionConfig struct {
	TTL    string `json:"ttl"`
	Secure bool   `json:"secure"`
}

type UIConfig struct {
	Timezone     string `json:"timezone"`
	ChannelsFile string `json:"channels_file"`
}

type SlackConfig struct {
	WebhookURL string `json:"webhook_url"`
}

// ChannelConfig is the delivery channel list shown in the job form.
type ChannelConfig struct {
	Channels []types.ChannelMeta `yaml:"channels"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if err := godotenv.Load(); err != nil {
			if err := godotenv.Load(".env.local"); err != nil {
				fmt.Printf("No .env or .env.local file found. Using environment variables.\n")
			}
		}

		cfg := &Config{
			Server: ServerConfig{
				Port: getEnv("PORT", ""),
			},
			Gateway: GatewayConfig{
				URL:       getEnv("GATEWAY_URL", ""),
				Token:     getEnv("GATEWAY_TOKEN", ""),
				Transport: getEnv("GATEWAY_TRANSPORT", ""),
			},
			Session: SessionConfig{
				TTL: getEnv("SESSION_TTL", ""),
			},
			UI: UIConfig{
				Timezone:     getEnv("UI_TIMEZONE", ""),
				ChannelsFile: getEnv("CHANNELS_FILE", ""),
			},
			Slack: SlackConfig{
				WebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
			},
		}
		if raw := os.Getenv("GATEWAY_MAX_FAILURES"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				cfg.Gateway.Breaker.MaxFailures = n
			}
		}
		cfg.applyDefaults()
		return cfg, nil
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Slack.WebhookURL == "" {
		config.Slack.WebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	}
	if config.Gateway.Token == "" {
		config.Gateway.Token = os.Getenv("GATEWAY_TOKEN")
	}
	config.applyDefaults()

	return &config, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  "15s",
			WriteTimeout: "15s",
		},
		Gateway: GatewayConfig{
			URL:       "http://127.0.0.1:18789",
			Transport: "http",
			Timeout:   "10s",
			Breaker: BreakerConfig{
				MaxFailures: 5,
				OpenTimeout: "30s",
			},
			Cache: CacheConfig{
				StatusTTL: "15s",
				ListTTL:   "15s",
				RunsTTL:   "10s",
			},
			RunsLimit:     50,
			MutationRate:  5,
			MutationBurst: 10,
		},
		Session: SessionConfig{
			TTL: "12h",
		},
		Jobs: types.TaskConfig{
			MaxConcurrent: 2,
			Predefined: []types.Task{
				{
					Name:        "refresh-gateway",
					Schedule:    "*/30 * * * * *",
					TaskName:    "refresh-gateway",
					Enabled:     true,
					Description: "Re-read scheduler status and the job list from the gateway",
				},
				{
					Name:        "prune-sessions",
					Schedule:    "0 */5 * * * *",
					TaskName:    "prune-sessions",
					Enabled:     true,
					Description: "Drop expired browser sessions",
				},
			},
		},
	}
}

// applyDefaults fills every zero field from DefaultConfig.
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	setDefault(&c.Server.Port, d.Server.Port)
	setDefault(&c.Server.ReadTimeout, d.Server.ReadTimeout)
	setDefault(&c.Server.WriteTimeout, d.Server.WriteTimeout)

	setDefault(&c.Gateway.URL, d.Gateway.URL)
	setDefault(&c.Gateway.Transport, d.Gateway.Transport)
	setDefault(&c.Gateway.Timeout, d.Gateway.Timeout)
	setDefault(&c.Gateway.Breaker.OpenTimeout, d.Gateway.Breaker.OpenTimeout)
	setDefault(&c.Gateway.Cache.StatusTTL, d.Gateway.Cache.StatusTTL)
	setDefault(&c.Gateway.Cache.ListTTL, d.Gateway.Cache.ListTTL)
	setDefault(&c.Gateway.Cache.RunsTTL, d.Gateway.Cache.RunsTTL)
	if c.Gateway.Breaker.MaxFailures <= 0 {
		c.Gateway.Breaker.MaxFailures = d.Gateway.Breaker.MaxFailures
	}
	if c.Gateway.RunsLimit <= 0 {
		c.Gateway.RunsLimit = d.Gateway.RunsLimit
	}
	if c.Gateway.MutationRate <= 0 {
		c.Gateway.MutationRate = d.Gateway.MutationRate
	}
	if c.Gateway.MutationBurst <= 0 {
		c.Gateway.MutationBurst = d.Gateway.MutationBurst
	}

	setDefault(&c.Session.TTL, d.Session.TTL)

	if c.Jobs.MaxConcurrent <= 0 {
		c.Jobs.MaxConcurrent = d.Jobs.MaxConcurrent
	}
	if len(c.Jobs.Predefined) == 0 {
		c.Jobs.Predefined = d.Jobs.Predefined
	}
}

// Location resolves the UI timezone. An empty or unknown zone means time.Local.
func (c *Config) Location() *time.Location {
	if c.UI.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.UI.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ParseDuration reads a duration setting such as "15s", falling back on empty or bad input.
func ParseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoadChannelConfig reads the channels file. With an empty path it looks for
// config/channels.yaml or channels.yaml in the working directory and its parents.
func LoadChannelConfig(path string) (*ChannelConfig, error) {
	if path == "" {
		found, err := findChannelsFile()
		if err != nil {
			return nil, err
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channels file: %w", err)
	}

	var config ChannelConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse channels file: %w", err)
	}

	return &config, nil
}

func findChannelsFile() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	for i := 0; i < 3; i++ {
		candidate := filepath.Join(wd, "config", ChannelsFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		if i == 0 {
			candidate = filepath.Join(wd, ChannelsFileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(wd)
		if parent == wd {
			break
		}
		wd = parent
	}

	return "", fmt.Errorf("%s not found", ChannelsFileName)
}

// IDs returns the channel ids in file order.
func (c *ChannelConfig) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Channels))
	for _, ch := range c.Channels {
		ids = append(ids, ch.ID)
	}
	return ids
}

func (c *ChannelConfig) Labels() map[string]string {
	labels := make(map[string]string)
	if c == nil {
		return labels
	}
	for _, ch := range c.Channels {
		if ch.Label != "" {
			labels[ch.ID] = ch.Label
		}
	}
	return labels
}

func (c *ChannelConfig) Meta() []types.ChannelMeta {
	if c == nil {
		return nil
	}
	return c.Channels
}

func setDefault(field *string, fallback string) {
	if *field == "" {
		*field = fallback
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
