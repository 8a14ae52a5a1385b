// Package config loads assistant configuration from environment
// variables. Every knob has a sensible default so an empty environment
// still yields a runnable (if feature-reduced) assistant.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every configurable piece of the assistant.
type Config struct {
	AssistantName string
	ListenTimeout time.Duration
	AppsFile      string
	ContactsFile  string

	OpenRouter OpenRouterConfig
	Speech     SpeechConfig
	Status     StatusConfig
	Weather    WeatherConfig
	Email      EmailConfig
	WhatsApp   WhatsAppConfig
}

// OpenRouterConfig describes the conversation backend.
type OpenRouterConfig struct {
	APIKey     string
	Model      string
	URL        string
	Timeout    time.Duration
	MaxRetries int
}

// Enabled reports whether the backend has the credentials it needs.
func (c OpenRouterConfig) Enabled() bool {
	return c.APIKey != ""
}

// SpeechConfig describes the text-to-speech service.
type SpeechConfig struct {
	AzureKey    string
	AzureRegion string
}

// Enabled reports whether speech synthesis can reach its service.
func (c SpeechConfig) Enabled() bool {
	return c.AzureKey != "" && c.AzureRegion != ""
}

// StatusConfig describes the optional web status mirror.
type StatusConfig struct {
	Addr string
}

// WeatherConfig holds keys for the two weather providers. Either key
// alone is enough; the skill falls back from one provider to the other.
type WeatherConfig struct {
	WeatherAPIKey   string
	OpenWeatherKey  string
	DefaultLocation string
}

// Enabled reports whether at least one weather provider is usable.
func (c WeatherConfig) Enabled() bool {
	return c.WeatherAPIKey != "" || c.OpenWeatherKey != ""
}

// EmailConfig describes the outgoing SMTP account.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	Address    string
	Password   string
}

// Enabled reports whether the email skill can send.
func (c EmailConfig) Enabled() bool {
	return c.SMTPServer != "" && c.Address != "" && c.Password != ""
}

// WhatsAppConfig describes the Graph API messaging credentials.
type WhatsAppConfig struct {
	APIKey        string
	PhoneNumberID string
}

// Enabled reports whether the whatsapp skill can send.
func (c WhatsAppConfig) Enabled() bool {
	return c.APIKey != "" && c.PhoneNumberID != ""
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	listenTimeout, err := envDuration("SAMI_LISTEN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	backendTimeout, err := envDuration("OPENROUTER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	maxRetries, err := envInt("OPENROUTER_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	smtpPort, err := envInt("EMAIL_SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AssistantName: envOr("SAMI_NAME", "sami"),
		ListenTimeout: listenTimeout,
		AppsFile:      envOr("SAMI_APPS_FILE", "assets/apps.json"),
		ContactsFile:  envOr("SAMI_CONTACTS_FILE", "assets/contacts.json"),
		OpenRouter: OpenRouterConfig{
			APIKey:     os.Getenv("OPENROUTER_API_KEY"),
			Model:      envOr("OPENROUTER_MODEL", "openrouter/sonoma-dusk-alpha"),
			URL:        envOr("OPENROUTER_URL", "https://openrouter.ai/api/v1/chat/completions"),
			Timeout:    backendTimeout,
			MaxRetries: maxRetries,
		},
		Speech: SpeechConfig{
			AzureKey:    os.Getenv("AZURE_SPEECH_KEY"),
			AzureRegion: os.Getenv("AZURE_SPEECH_REGION"),
		},
		Status: StatusConfig{
			Addr: envOr("SAMI_STATUS_ADDR", ":8321"),
		},
		Weather: WeatherConfig{
			WeatherAPIKey:   os.Getenv("WEATHERAPI_KEY"),
			OpenWeatherKey:  os.Getenv("OPENWEATHER_API_KEY"),
			DefaultLocation: envOr("DEFAULT_LOCATION", "London"),
		},
		Email: EmailConfig{
			SMTPServer: os.Getenv("EMAIL_SMTP_SERVER"),
			SMTPPort:   smtpPort,
			Address:    os.Getenv("EMAIL_ADDRESS"),
			Password:   os.Getenv("EMAIL_PASSWORD"),
		},
		WhatsApp: WhatsAppConfig{
			APIKey:        os.Getenv("WHATSAPP_API_KEY"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		},
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	// Accept bare seconds for convenience, otherwise Go duration syntax.
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return d, nil
}
