package connector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"farmsathi/internal/config"
	"farmsathi/pkg"
)

// MarketConnector fetches mandi price figures for a crop. The query key is
// the canonical crop name.
type MarketConnector struct {
	client  *http.Client
	baseURL string
	cache   *snapshotCache
}

// marketResponse mirrors the remote price payload.
type marketResponse struct {
	Crop  string  `json:"crop"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Unit  string  `json:"unit"`
	Trend string  `json:"trend"`
}

// syntheticPrices is the reference price table used when the remote source
// has never answered for a crop.
var syntheticPrices = map[string]pkg.MarketData{
	"rice":   {Crop: "rice", Min: 1800, Max: 2200, Avg: 2000, Unit: "₹/quintal", Trend: "stable"},
	"wheat":  {Crop: "wheat", Min: 1900, Max: 2100, Avg: 2000, Unit: "₹/quintal", Trend: "rising"},
	"cotton": {Crop: "cotton", Min: 5500, Max: 6000, Avg: 5750, Unit: "₹/quintal", Trend: "falling"},
	"tomato": {Crop: "tomato", Min: 800, Max: 1200, Avg: 1000, Unit: "₹/quintal", Trend: "volatile"},
	"potato": {Crop: "potato", Min: 600, Max: 900, Avg: 750, Unit: "₹/quintal", Trend: "stable"},
}

// NewMarketConnector creates the market price connector.
func NewMarketConnector(client *http.Client, cfg config.ConnectorEndpoint) *MarketConnector {
	c := &MarketConnector{
		client:  client,
		baseURL: cfg.BaseURL,
	}
	c.cache = newSnapshotCache(
		"market",
		time.Duration(cfg.TTLSeconds)*time.Second,
		time.Duration(cfg.TimeoutSeconds)*time.Second,
		c.remote,
		syntheticMarket,
	)
	return c
}

// Name implements Connector.
func (c *MarketConnector) Name() string { return "market" }

// Fetch implements Connector.
func (c *MarketConnector) Fetch(ctx context.Context, queryKey string) (*pkg.ExternalDataSnapshot, error) {
	return c.cache.fetch(ctx, queryKey)
}

func (c *MarketConnector) remote(ctx context.Context, crop string) (*pkg.ExternalDataSnapshot, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("market price endpoint is not configured")
	}

	params := url.Values{}
	params.Set("crop", crop)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/prices?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var payload marketResponse
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode market payload: %w", err)
	}

	unit := payload.Unit
	if unit == "" {
		unit = "₹/quintal"
	}

	return &pkg.ExternalDataSnapshot{
		Market: &pkg.MarketData{
			Crop:  crop,
			Min:   payload.Min,
			Max:   payload.Max,
			Avg:   payload.Avg,
			Unit:  unit,
			Trend: payload.Trend,
		},
	}, nil
}

func syntheticMarket(crop string) *pkg.ExternalDataSnapshot {
	data, ok := syntheticPrices[strings.ToLower(crop)]
	if !ok {
		data = pkg.MarketData{Crop: crop, Unit: "₹/quintal", Trend: "unknown"}
	}
	return &pkg.ExternalDataSnapshot{Market: &data}
}
