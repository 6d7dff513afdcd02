package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/viper"

	"github.com/jdelaire/inferbot/internal/keychain"
)

// Mode selects the ingress transport.
type Mode string

const (
	ModePoll    Mode = "poll"
	ModeWebhook Mode = "webhook"
)

// Keys, as seen by viper. Each maps to the upper-case environment variable of
// the same name.
const (
	KeyTelegramToken    = "telegram_token"
	KeyTelegramUsername = "telegram_username"
	KeyTelegramAPIURL   = "telegram_api_url"
	KeyInferenceURL     = "inference_url"
	KeyInferenceToken   = "inference_access_token"
	KeyInferenceTimeout = "inference_timeout"
	KeyPort             = "port"
	KeyWebhookSecret    = "webhook_secret"
	KeyWebhookPublicURL = "webhook_public_url"
	KeyBotGreeting      = "bot_greeting"
	KeyBotHelpText      = "bot_help_text"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeyConfigFile       = "config"
)

const (
	DefaultInferenceTimeout = 60 * time.Second
	DefaultPort             = 8080
	DefaultBotAPIEndpoint   = tgbotapi.APIEndpoint
)

// ErrConfigurationMissing is matched by errors.Is on a *MissingError.
var ErrConfigurationMissing = errors.New("configuration missing")

// MissingError names the required settings that were not provided.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfigurationMissing, strings.Join(e.Keys, ", "))
}

func (e *MissingError) Unwrap() error { return ErrConfigurationMissing }

// Config is built once at startup and never mutated.
type Config struct {
	TelegramToken    string
	BotUsername      string
	TelegramAPIURL   string
	InferenceURL     string
	InferenceToken   string
	InferenceTimeout time.Duration
	Port             int
	WebhookSecret    string
	WebhookPublicURL string
	Greeting         string
	HelpText         string
	LogLevel         string
	LogFormat        string
}

// MentionToken is the handle that addresses the bot in group chats.
func (c Config) MentionToken() string {
	if c.BotUsername == "" {
		return ""
	}
	return "@" + c.BotUsername
}

// WebhookURL joins the public base URL with path. It is empty when no public
// URL is configured.
func (c Config) WebhookURL(path string) string {
	if c.WebhookPublicURL == "" {
		return ""
	}
	return strings.TrimRight(c.WebhookPublicURL, "/") + path
}

// BotAPIEndpoint is the Bot API endpoint format, with placeholders for the
// token and the method.
func (c Config) BotAPIEndpoint() string {
	if c.TelegramAPIURL == "" {
		return DefaultBotAPIEndpoint
	}
	return c.TelegramAPIURL + "/bot%s/%s"
}

// ListenAddr is the webhook listen address.
func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// NewViper returns a viper instance reading environment variables and
// carrying the defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyInferenceTimeout, DefaultInferenceTimeout.String())
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	return v
}

// envFileCandidates are searched in order; the first existing file wins.
var envFileCandidates = []string{".env", "../.env", "../../.env", "../../../.env"}

// LoadEnvFile looks for a .env file in dir and up to three parents and merges
// its values into v underneath real environment variables. It returns the
// path read, or "" when none exists.
func LoadEnvFile(v *viper.Viper, dir string) (string, error) {
	for _, rel := range envFileCandidates {
		path := filepath.Join(dir, rel)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		ev := viper.New()
		ev.SetConfigFile(path)
		ev.SetConfigType("env")
		if err := ev.ReadInConfig(); err != nil {
			return path, fmt.Errorf("read %s: %w", path, err)
		}
		for _, k := range ev.AllKeys() {
			v.SetDefault(k, ev.Get(k))
		}
		return path, nil
	}
	return "", nil
}

// ReadFile merges an explicit config file (yaml, json, toml, ...) into v.
func ReadFile(v *viper.Viper, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load builds and validates the configuration for mode. When the bot token
// is not configured it is looked up in the system keychain.
func Load(v *viper.Viper, mode Mode) (Config, error) {
	cfg := Config{
		TelegramToken:    strings.TrimSpace(v.GetString(KeyTelegramToken)),
		BotUsername:      strings.TrimPrefix(strings.TrimSpace(v.GetString(KeyTelegramUsername)), "@"),
		TelegramAPIURL:   strings.TrimRight(strings.TrimSpace(v.GetString(KeyTelegramAPIURL)), "/"),
		InferenceURL:     strings.TrimSpace(v.GetString(KeyInferenceURL)),
		InferenceToken:   strings.TrimSpace(v.GetString(KeyInferenceToken)),
		WebhookSecret:    strings.TrimSpace(v.GetString(KeyWebhookSecret)),
		WebhookPublicURL: strings.TrimSpace(v.GetString(KeyWebhookPublicURL)),
		Greeting:         v.GetString(KeyBotGreeting),
		HelpText:         v.GetString(KeyBotHelpText),
		LogLevel:         v.GetString(KeyLogLevel),
		LogFormat:        v.GetString(KeyLogFormat),
	}

	if cfg.TelegramToken == "" {
		if tok, err := keychain.Get(keychain.TokenAccount); err == nil {
			cfg.TelegramToken = strings.TrimSpace(tok)
		}
	}

	var missing []string
	if cfg.TelegramToken == "" {
		missing = append(missing, envName(KeyTelegramToken))
	}
	if cfg.BotUsername == "" {
		missing = append(missing, envName(KeyTelegramUsername))
	}
	if cfg.InferenceURL == "" {
		missing = append(missing, envName(KeyInferenceURL))
	}
	if len(missing) > 0 {
		return Config{}, &MissingError{Keys: missing}
	}

	if _, err := url.ParseRequestURI(cfg.InferenceURL); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", envName(KeyInferenceURL), err)
	}

	timeout, err := parseTimeout(v.GetString(KeyInferenceTimeout))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", envName(KeyInferenceTimeout), err)
	}
	cfg.InferenceTimeout = timeout

	if mode == ModeWebhook {
		port, err := strconv.Atoi(strings.TrimSpace(v.GetString(KeyPort)))
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid %s: %q", envName(KeyPort), v.GetString(KeyPort))
		}
		cfg.Port = port

		if cfg.WebhookPublicURL != "" {
			u, err := url.Parse(cfg.WebhookPublicURL)
			if err != nil || u.Scheme != "https" || u.Host == "" {
				return Config{}, fmt.Errorf("invalid %s: must be an https URL", envName(KeyWebhookPublicURL))
			}
		}
	}

	return cfg, nil
}

// parseTimeout accepts Go durations ("30s") and bare seconds ("30").
func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultInferenceTimeout, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		s = strconv.Itoa(n) + "s"
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func envName(key string) string { return strings.ToUpper(key) }
