package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"farmsathi/internal/config"
	"farmsathi/pkg"
)

const defaultTTSBaseURL = "https://translate.google.com"

// TTSClient converts text to audio bytes.
type TTSClient interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// HTTPTTSClient calls a gTTS-compatible endpoint.
type HTTPTTSClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPTTSClient creates the remote TTS client.
func NewHTTPTTSClient(client *http.Client, baseURL string) *HTTPTTSClient {
	if baseURL == "" {
		baseURL = defaultTTSBaseURL
	}
	return &HTTPTTSClient{client: client, baseURL: baseURL}
}

// Synthesize implements TTSClient.
func (c *HTTPTTSClient) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", language)
	params.Set("client", "tw-ob")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/translate_tts?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS endpoint returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// CacheKey derives the deduplication key for a (text, language) pair.
func CacheKey(text, language string) string {
	sum := sha256.Sum256([]byte(text + "|" + language))
	return hex.EncodeToString(sum[:])[:16] + "_" + language
}

// Synthesizer is the audio pipeline: hash-keyed artifact cache in front of a
// TTS client, with same-key concurrent calls collapsed to one synthesis.
type Synthesizer struct {
	tts       TTSClient
	store     Store
	timeout   time.Duration
	supported map[string]bool
	group     singleflight.Group
}

// NewSynthesizer creates the pipeline. Languages not in cfg fall back to
// English at synthesis time.
func NewSynthesizer(tts TTSClient, store Store, cfg config.AudioConfig, languages []string) *Synthesizer {
	supported := make(map[string]bool, len(languages))
	for _, l := range languages {
		supported[l] = true
	}
	return &Synthesizer{
		tts:       tts,
		store:     store,
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		supported: supported,
	}
}

// Synthesize returns the cached artifact for (text, language) or performs one
// synthesis. Identical concurrent requests share a single in-flight call.
func (s *Synthesizer) Synthesize(ctx context.Context, text, language string) (*pkg.AudioArtifact, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot synthesize empty text")
	}
	if !s.supported[language] {
		language = "en"
	}
	key := CacheKey(text, language)

	if art, ok := s.store.Lookup(key); ok {
		return art, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// Double-check under the flight lock: a concurrent caller may have
		// stored the artifact between our Lookup and Do.
		if art, ok := s.store.Lookup(key); ok {
			return art, nil
		}

		// Detached from the caller's context: once synthesis starts it runs
		// to completion so waiters and the cache both get the result.
		tctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		data, err := s.tts.Synthesize(tctx, text, language)
		if err != nil {
			return nil, fmt.Errorf("synthesis failed: %w", err)
		}
		return s.store.Save(key, language, data)
	})
	if err != nil {
		return nil, err
	}
	return v.(*pkg.AudioArtifact), nil
}
