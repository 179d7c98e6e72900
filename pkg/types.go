package pkg

import (
	"time"
)

// Core types shared across the assistant pipeline.

// ----------------------------------------------------
// ================ Intent ================

// Intent is the closed-set classification of a user message.
type Intent string

const (
	IntentWeather       Intent = "weather"
	IntentMarketPrice   Intent = "market_price"
	IntentPestOrDisease Intent = "pest_disease"
	IntentGeneral       Intent = "general"
)

// AllIntents lists every valid intent value.
var AllIntents = []Intent{IntentWeather, IntentMarketPrice, IntentPestOrDisease, IntentGeneral}

// Valid reports whether i is a member of the closed intent set.
func (i Intent) Valid() bool {
	for _, v := range AllIntents {
		if i == v {
			return true
		}
	}
	return false
}

// RequiresEnrichment reports whether the intent needs an external data snapshot.
func (i Intent) RequiresEnrichment() bool {
	return i == IntentWeather || i == IntentMarketPrice
}

// ----------------------------------------------------
// ================ Conversation ================

// ChatTurn is one completed exchange: the user message and the bot response.
// Turns are created once per request and never mutated afterwards.
type ChatTurn struct {
	TurnID      string    `json:"turn_id"`
	UserID      string    `json:"user_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	AudioRef    string    `json:"audio_ref,omitempty"`
	Language    string    `json:"language"`
	Intent      Intent    `json:"intent"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConversationContext is the per-user rolling conversation state. RecentTurns
// is ordered most-recent-last and bounded by the store's window capacity.
type ConversationContext struct {
	UserID      string     `json:"user_id"`
	Location    string     `json:"location,omitempty"`
	CropType    string     `json:"crop_type,omitempty"`
	RecentTurns []ChatTurn `json:"recent_turns"`
	LastIntent  Intent     `json:"last_intent,omitempty"`
}

// ----------------------------------------------------
// ================ External data ================

// Freshness labels how an external data snapshot was obtained.
type Freshness string

const (
	FreshnessLive      Freshness = "live"      // fetched from the remote provider within TTL
	FreshnessStale     Freshness = "stale"     // expired snapshot reused after a failed refresh
	FreshnessSynthetic Freshness = "synthetic" // placeholder, no real data was ever fetched
)

// WeatherData is the normalized weather payload.
type WeatherData struct {
	TempC     float64 `json:"temp_c"`
	Humidity  int     `json:"humidity"`
	Condition string  `json:"condition"`
	WindKmh   float64 `json:"wind_kmh"`
}

// MarketData is the normalized market price payload for a single crop.
type MarketData struct {
	Crop  string  `json:"crop"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Unit  string  `json:"unit"`
	Trend string  `json:"trend"`
}

// ExternalDataSnapshot is a cached result from a data connector. Exactly one
// of Weather or Market is set depending on the provider.
type ExternalDataSnapshot struct {
	Provider  string       `json:"provider"`
	QueryKey  string       `json:"query_key"`
	Weather   *WeatherData `json:"weather,omitempty"`
	Market    *MarketData  `json:"market,omitempty"`
	FetchedAt time.Time    `json:"fetched_at"`
	TTL       int          `json:"ttl_seconds"`
	Freshness Freshness    `json:"freshness"`
}

// Expired reports whether the snapshot is older than its TTL.
func (s *ExternalDataSnapshot) Expired(now time.Time) bool {
	return now.Sub(s.FetchedAt) > time.Duration(s.TTL)*time.Second
}

// Stale reports whether the snapshot should be marked degraded in responses.
func (s *ExternalDataSnapshot) Stale() bool {
	return s.Freshness != FreshnessLive
}

// ----------------------------------------------------
// ================ Providers ================

// AttemptOutcome classifies a single provider invocation.
type AttemptOutcome string

const (
	OutcomeSuccess AttemptOutcome = "success"
	OutcomeTimeout AttemptOutcome = "timeout"
	OutcomeError   AttemptOutcome = "error"
)

// ProviderAttemptResult records one link of the fallback chain. Transient,
// never persisted.
type ProviderAttemptResult struct {
	ProviderID string         `json:"provider_id"`
	Outcome    AttemptOutcome `json:"outcome"`
	Text       string         `json:"text,omitempty"`
	Elapsed    time.Duration  `json:"elapsed"`
}

// PromptContext is everything a response provider may ground its answer in.
type PromptContext struct {
	Message  string               `json:"message"`
	Language string               `json:"language"`
	Intent   Intent               `json:"intent"`
	Snapshot *ExternalDataSnapshot `json:"snapshot,omitempty"`
	History  []ChatTurn           `json:"history,omitempty"`
	Location string               `json:"location,omitempty"`
	CropType string               `json:"crop_type,omitempty"`
}

// ----------------------------------------------------
// ================ Audio ================

// AudioArtifact is a cached synthesized-speech rendering of a response text,
// deduplicated by content hash.
type AudioArtifact struct {
	CacheKey  string    `json:"cache_key"`
	Path      string    `json:"path"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// ----------------------------------------------------
// ================ Request / Response ================

// AssistantRequest is the transport-agnostic inbound message. UserID is
// trusted as already resolved by an external identity collaborator.
type AssistantRequest struct {
	UserID       string `json:"user_id"`
	Message      string `json:"message"`
	Language     string `json:"language"`
	IncludeAudio bool   `json:"include_audio"`
}

// AssistantResponse is the composed answer for one turn. DataCard carries the
// structured snapshot when the intent required enrichment; its Freshness field
// distinguishes live, stale and synthetic data.
type AssistantResponse struct {
	Text         string                  `json:"text"`
	Intent       Intent                  `json:"intent"`
	ResponseType string                  `json:"response_type"`
	DataCard     *ExternalDataSnapshot   `json:"data_card,omitempty"`
	AudioRef     string                  `json:"audio_ref,omitempty"`
	Attempts     []ProviderAttemptResult `json:"attempts,omitempty"`
	Timestamp    time.Time               `json:"timestamp"`
}
