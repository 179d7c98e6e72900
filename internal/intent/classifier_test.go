package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"farmsathi/internal/config"
	"farmsathi/pkg"
)

func newTestClassifier(carry bool) *Classifier {
	return NewClassifier(config.IntentConfig{}, carry)
}

func TestClassifyTopics(t *testing.T) {
	c := newTestClassifier(true)

	cases := []struct {
		text string
		want pkg.Intent
	}{
		{"What is today's weather?", pkg.IntentWeather},
		{"Will it rain tomorrow?", pkg.IntentWeather},
		{"आज मौसम कैसा है?", pkg.IntentWeather},
		{"What is the rice price?", pkg.IntentMarketPrice},
		{"mandi rate for wheat", pkg.IntentMarketPrice},
		{"गेहूं का भाव क्या है", pkg.IntentMarketPrice},
		{"My crop has a pest problem", pkg.IntentPestOrDisease},
		{"leaves show fungus and rot", pkg.IntentPestOrDisease},
		{"How do I plant tomatoes?", pkg.IntentGeneral},
	}

	for _, tc := range cases {
		got := c.Classify(tc.text, pkg.ConversationContext{})
		assert.Equal(t, tc.want, got, "text: %q", tc.text)
	}
}

func TestClassifyAlwaysInClosedSet(t *testing.T) {
	c := newTestClassifier(true)

	inputs := []string{
		"", "???", "zzzzzz", "1234567890",
		"completely unrelated text about spaceships",
	}
	for _, text := range inputs {
		got := c.Classify(text, pkg.ConversationContext{})
		assert.True(t, got.Valid(), "intent %q for input %q is outside the closed set", got, text)
	}
}

func TestClassifyInheritsLastIntent(t *testing.T) {
	c := newTestClassifier(true)

	convCtx := pkg.ConversationContext{LastIntent: pkg.IntentWeather}

	// No topic keywords at all: the previous intent carries over.
	assert.Equal(t, pkg.IntentWeather, c.Classify("what about tomorrow?", convCtx))

	// A new topic keyword overrides the carried intent.
	assert.Equal(t, pkg.IntentMarketPrice, c.Classify("and the rice price?", convCtx))
}

func TestClassifyCarryDisabled(t *testing.T) {
	c := newTestClassifier(false)

	convCtx := pkg.ConversationContext{LastIntent: pkg.IntentWeather}
	assert.Equal(t, pkg.IntentGeneral, c.Classify("what about tomorrow?", convCtx))
}

func TestClassifyNoContextDefaultsToGeneral(t *testing.T) {
	c := newTestClassifier(true)
	assert.Equal(t, pkg.IntentGeneral, c.Classify("what about tomorrow?", pkg.ConversationContext{}))
}

func TestExtractCrop(t *testing.T) {
	c := newTestClassifier(true)

	assert.Equal(t, "rice", c.ExtractCrop("What is the rice price?"))
	assert.Equal(t, "wheat", c.ExtractCrop("गेहूं का भाव"))
	assert.Equal(t, "general", c.ExtractCrop("price of something exotic"))
}

func TestClassifierConfigOverrides(t *testing.T) {
	c := NewClassifier(config.IntentConfig{
		WeatherKeywords: []string{"monsoon"},
	}, true)

	assert.Equal(t, pkg.IntentWeather, c.Classify("when does the monsoon start", pkg.ConversationContext{}))
	// The default table was replaced, not extended.
	assert.Equal(t, pkg.IntentGeneral, c.Classify("weather today", pkg.ConversationContext{}))
}
