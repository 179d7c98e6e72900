package connector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"

	"farmsathi/internal/config"
	"farmsathi/pkg"
)

const defaultWeatherBaseURL = "https://api.openweathermap.org"

// WeatherConnector fetches current weather for a location from
// OpenWeatherMap and normalizes it. The query key is the location name.
type WeatherConnector struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cache   *snapshotCache
}

// openWeatherResponse mirrors the fields we read from the remote payload.
type openWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
	} `json:"wind"`
}

// NewWeatherConnector creates the weather connector.
func NewWeatherConnector(client *http.Client, cfg config.ConnectorEndpoint, apiKey string) *WeatherConnector {
	c := &WeatherConnector{
		client:  client,
		baseURL: cfg.BaseURL,
		apiKey:  apiKey,
	}
	if c.baseURL == "" {
		c.baseURL = defaultWeatherBaseURL
	}
	c.cache = newSnapshotCache(
		"weather",
		time.Duration(cfg.TTLSeconds)*time.Second,
		time.Duration(cfg.TimeoutSeconds)*time.Second,
		c.remote,
		syntheticWeather,
	)
	return c
}

// Name implements Connector.
func (c *WeatherConnector) Name() string { return "weather" }

// Fetch implements Connector.
func (c *WeatherConnector) Fetch(ctx context.Context, queryKey string) (*pkg.ExternalDataSnapshot, error) {
	return c.cache.fetch(ctx, queryKey)
}

func (c *WeatherConnector) remote(ctx context.Context, location string) (*pkg.ExternalDataSnapshot, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("weather API key is not configured")
	}

	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/weather?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var payload openWeatherResponse
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode weather payload: %w", err)
	}

	condition := "unknown"
	if len(payload.Weather) > 0 {
		condition = payload.Weather[0].Description
	}

	return &pkg.ExternalDataSnapshot{
		Weather: &pkg.WeatherData{
			TempC:     payload.Main.Temp,
			Humidity:  payload.Main.Humidity,
			Condition: condition,
			WindKmh:   payload.Wind.Speed * 3.6,
		},
	}, nil
}

// syntheticWeather matches the simulated payload the original data source
// returns when no provider is reachable.
func syntheticWeather(_ string) *pkg.ExternalDataSnapshot {
	return &pkg.ExternalDataSnapshot{
		Weather: &pkg.WeatherData{
			TempC:     28,
			Humidity:  65,
			Condition: "Partly Cloudy",
			WindKmh:   12,
		},
	}
}
