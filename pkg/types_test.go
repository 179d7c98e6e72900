package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentValid(t *testing.T) {
	for _, i := range AllIntents {
		assert.True(t, i.Valid(), "intent %q", i)
	}
	assert.False(t, Intent("").Valid())
	assert.False(t, Intent("smalltalk").Valid())
}

func TestIntentRequiresEnrichment(t *testing.T) {
	assert.True(t, IntentWeather.RequiresEnrichment())
	assert.True(t, IntentMarketPrice.RequiresEnrichment())
	assert.False(t, IntentPestOrDisease.RequiresEnrichment())
	assert.False(t, IntentGeneral.RequiresEnrichment())
}
