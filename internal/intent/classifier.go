package intent

import (
	"sort"
	"strings"

	"farmsathi/internal/config"
	"farmsathi/pkg"
)

// Default keyword tables covering the supported languages (en, hi, te, ta,
// bn, mr). Used when config.yaml does not override them.
var (
	defaultWeatherKeywords = []string{
		"weather", "temperature", "rain", "forecast", "climate",
		"मौसम", "बारिश", "तापमान",
		"వాతావరణం", "వర్షం",
		"வானிலை", "மழை",
		"আবহাওয়া", "বৃষ্টি",
		"हवामान", "पाऊस",
	}
	defaultMarketKeywords = []string{
		"price", "market", "sell", "rate", "cost", "mandi",
		"कीमत", "बाजार", "भाव", "मंडी",
		"ధర", "మార్కెట్",
		"விலை", "சந்தை",
		"মূল্য", "বাজার",
		"किंमत",
	}
	defaultPestKeywords = []string{
		"pest", "insect", "bug", "disease", "fungus", "rot", "blight",
		"कीट", "रोग",
		"పురుగు", "తెగులు",
		"பூச்சி", "நோய்",
		"পোকা", "রোগ",
		"कीड", "आजार",
	}
	defaultCropAliases = map[string]string{
		"rice": "rice", "wheat": "wheat", "cotton": "cotton",
		"tomato": "tomato", "potato": "potato", "maize": "maize",
		"sugarcane": "sugarcane",
		"धान": "rice", "गेहूं": "wheat", "कपास": "cotton", "टमाटर": "tomato",
	}
)

// Classifier maps free text to the closed intent set using configurable
// keyword tables. Classification never fails: anything unrecognized is
// IntentGeneral, or the previous intent when the carry rule applies.
type Classifier struct {
	weather     []string
	market      []string
	pest        []string
	cropAliases map[string]string
	carry       bool
}

// NewClassifier creates a classifier from the intent config section. Empty
// tables fall back to the built-in multilingual defaults.
func NewClassifier(cfg config.IntentConfig, carryLastIntent bool) *Classifier {
	c := &Classifier{
		weather:     cfg.WeatherKeywords,
		market:      cfg.MarketKeywords,
		pest:        cfg.PestKeywords,
		cropAliases: cfg.CropAliases,
		carry:       carryLastIntent,
	}
	if len(c.weather) == 0 {
		c.weather = defaultWeatherKeywords
	}
	if len(c.market) == 0 {
		c.market = defaultMarketKeywords
	}
	if len(c.pest) == 0 {
		c.pest = defaultPestKeywords
	}
	if len(c.cropAliases) == 0 {
		c.cropAliases = defaultCropAliases
	}
	return c
}

// Classify returns the intent for text. When text contains no topic keywords
// at all and the carry rule is enabled, the previous turn's intent is
// inherited so that bare follow-ups ("what about tomorrow?") stay on topic.
func (c *Classifier) Classify(text string, convCtx pkg.ConversationContext) pkg.Intent {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, c.weather):
		return pkg.IntentWeather
	case containsAny(lower, c.market):
		return pkg.IntentMarketPrice
	case containsAny(lower, c.pest):
		return pkg.IntentPestOrDisease
	}

	// Keyword-free message: inherit the last intent if configured to.
	if c.carry && convCtx.LastIntent.Valid() {
		return convCtx.LastIntent
	}

	return pkg.IntentGeneral
}

// ExtractCrop finds a known crop mentioned in text and returns its canonical
// English name. Returns "general" when no crop is mentioned. Aliases are
// checked in sorted order so the result is stable.
func (c *Classifier) ExtractCrop(text string) string {
	lower := strings.ToLower(text)
	aliases := make([]string, 0, len(c.cropAliases))
	for alias := range c.cropAliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		if strings.Contains(lower, strings.ToLower(alias)) {
			return c.cropAliases[alias]
		}
	}
	return "general"
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
