package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samivoice/sami/internal/config"
	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

// Provider endpoints; overridable for tests.
const (
	defaultWeatherAPIBase  = "https://api.weatherapi.com/v1"
	defaultOpenWeatherBase = "https://api.openweathermap.org/data/2.5"
)

// Weather answers "what's the weather" questions. WeatherAPI is asked
// first; OpenWeatherMap covers for it when it fails or has no key.
type Weather struct {
	cfg             config.WeatherConfig
	log             *logger.Logger
	http            *http.Client
	weatherAPIBase  string
	openWeatherBase string
}

var _ domain.Skill = (*Weather)(nil)

// WeatherOption configures the skill.
type WeatherOption func(*Weather)

// WithWeatherAPIBase overrides the WeatherAPI endpoint.
func WithWeatherAPIBase(base string) WeatherOption {
	return func(w *Weather) { w.weatherAPIBase = base }
}

// WithOpenWeatherBase overrides the OpenWeatherMap endpoint.
func WithOpenWeatherBase(base string) WeatherOption {
	return func(w *Weather) { w.openWeatherBase = base }
}

// WithWeatherHTTPClient overrides the HTTP client.
func WithWeatherHTTPClient(c *http.Client) WeatherOption {
	return func(w *Weather) { w.http = c }
}

// NewWeather creates the weather skill.
func NewWeather(cfg config.WeatherConfig, log *logger.Logger, opts ...WeatherOption) *Weather {
	w := &Weather{
		cfg:             cfg,
		log:             log,
		http:            &http.Client{Timeout: 10 * time.Second},
		weatherAPIBase:  defaultWeatherAPIBase,
		openWeatherBase: defaultOpenWeatherBase,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name identifies the skill in logs.
func (w *Weather) Name() string { return "weather" }

// Match claims any utterance that mentions the weather.
func (w *Weather) Match(utterance string) bool {
	return strings.Contains(utterance, "weather")
}

// Handle looks up current conditions and phrases them for speech.
func (w *Weather) Handle(ctx context.Context, utterance string) (string, error) {
	location := extractLocation(utterance, w.cfg.DefaultLocation)
	w.log.Debug("weather: looking up %q", location)

	if w.cfg.WeatherAPIKey != "" {
		if line, err := w.fromWeatherAPI(ctx, location); err == nil {
			return line, nil
		} else {
			w.log.Warn("weather: weatherapi failed: %v", err)
		}
	}

	if w.cfg.OpenWeatherKey != "" {
		line, err := w.fromOpenWeather(ctx, location)
		if err != nil {
			return "", fmt.Errorf("openweather: %w", err)
		}
		return line, nil
	}

	return "", domain.ErrSkillUnavailable
}

// extractLocation takes everything after the last " in ", falling back
// to the configured default.
func extractLocation(utterance, fallback string) string {
	if idx := strings.LastIndex(utterance, " in "); idx >= 0 {
		loc := strings.Trim(strings.TrimSpace(utterance[idx+4:]), "?.!,")
		if loc != "" {
			return loc
		}
	}
	return fallback
}

func (w *Weather) fromWeatherAPI(ctx context.Context, location string) (string, error) {
	endpoint := fmt.Sprintf("%s/current.json?key=%s&q=%s",
		w.weatherAPIBase, w.cfg.WeatherAPIKey, url.QueryEscape(location))

	var parsed struct {
		Location struct {
			Name string `json:"name"`
		} `json:"location"`
		Current struct {
			TempC     float64 `json:"temp_c"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
			Humidity int `json:"humidity"`
		} `json:"current"`
	}
	if err := w.getJSON(ctx, endpoint, &parsed); err != nil {
		return "", err
	}
	if parsed.Location.Name == "" {
		return "", fmt.Errorf("no data for %q", location)
	}

	return fmt.Sprintf("It's currently %.0f degrees in %s with %s, Sir. Humidity is %d percent.",
		parsed.Current.TempC, parsed.Location.Name,
		strings.ToLower(parsed.Current.Condition.Text), parsed.Current.Humidity), nil
}

func (w *Weather) fromOpenWeather(ctx context.Context, location string) (string, error) {
	endpoint := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		w.openWeatherBase, url.QueryEscape(location), w.cfg.OpenWeatherKey)

	var parsed struct {
		Name string `json:"name"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := w.getJSON(ctx, endpoint, &parsed); err != nil {
		return "", err
	}
	if parsed.Name == "" || len(parsed.Weather) == 0 {
		return "", fmt.Errorf("no data for %q", location)
	}

	return fmt.Sprintf("It's currently %.0f degrees in %s with %s, Sir. Humidity is %d percent.",
		parsed.Main.Temp, parsed.Name, parsed.Weather[0].Description, parsed.Main.Humidity), nil
}

func (w *Weather) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.Unmarshal(body, out)
}
