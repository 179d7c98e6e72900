package provider

import (
	"context"
	"fmt"
	"strings"

	"farmsathi/pkg"
)

// RulesProvider is the deterministic tail of the fallback chain. It has no
// external dependency and never fails, which is what guarantees the chain
// always terminates with an answer.
type RulesProvider struct{}

// NewRulesProvider creates the deterministic rule-based provider.
func NewRulesProvider() *RulesProvider {
	return &RulesProvider{}
}

// ID implements Provider.
func (p *RulesProvider) ID() string { return "rules" }

// Generate implements Provider. It always returns a non-empty answer.
func (p *RulesProvider) Generate(_ context.Context, pc pkg.PromptContext) (string, error) {
	switch pc.Intent {
	case pkg.IntentWeather:
		return weatherAnswer(pc.Snapshot, pc.Language), nil
	case pkg.IntentMarketPrice:
		return marketAnswer(pc.Snapshot, pc.Language), nil
	case pkg.IntentPestOrDisease:
		if topicMatches(pc.Message, "disease", "fungus", "rot", "रोग") {
			return translation("disease_response", pc.Language), nil
		}
		return translation("pest_response", pc.Language), nil
	default:
		return generalAnswer(pc.Message, pc.Language), nil
	}
}

func topicMatches(message string, keywords ...string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// generalAnswer routes a general question to the closest canned agronomy
// topic, mirroring the original rule table.
func generalAnswer(message, language string) string {
	switch {
	case topicMatches(message, "pest", "insect", "bug", "कीट"):
		return translation("pest_response", language)
	case topicMatches(message, "disease", "fungus", "rot", "रोग"):
		return translation("disease_response", language)
	case topicMatches(message, "fertilizer", "nutrient", "खाद"):
		return translation("fertilizer_response", language)
	case topicMatches(message, "water", "irrigation", "सिंचाई", "पानी"):
		return translation("irrigation_response", language)
	default:
		return translation("general_response", language)
	}
}

func weatherAnswer(snap *pkg.ExternalDataSnapshot, language string) string {
	if snap == nil || snap.Weather == nil {
		return translation("weather_unavailable", language)
	}
	w := snap.Weather
	if language == "hi" {
		return fmt.Sprintf("आज का मौसम: तापमान %.0f°C, आर्द्रता %d%%, स्थिति %s। हवा की गति %.0f किमी/घंटा।",
			w.TempC, w.Humidity, w.Condition, w.WindKmh)
	}
	return fmt.Sprintf("Today's weather: Temperature %.0f°C, Humidity %d%%, Condition %s. Wind speed %.0f km/h.",
		w.TempC, w.Humidity, w.Condition, w.WindKmh)
}

func marketAnswer(snap *pkg.ExternalDataSnapshot, language string) string {
	if snap == nil || snap.Market == nil || snap.Market.Avg == 0 {
		return translation("market_unavailable", language)
	}
	m := snap.Market
	if language == "hi" {
		return fmt.Sprintf("%s की कीमत: न्यूनतम ₹%.0f, अधिकतम ₹%.0f, औसत ₹%.0f प्रति क्विंटल। बाजार प्रवृत्ति: %s।",
			m.Crop, m.Min, m.Max, m.Avg, m.Trend)
	}
	crop := m.Crop
	if crop != "" {
		crop = strings.ToUpper(crop[:1]) + crop[1:]
	}
	return fmt.Sprintf("%s prices: Min ₹%.0f, Max ₹%.0f, Avg ₹%.0f per quintal. Market trend: %s.",
		crop, m.Min, m.Max, m.Avg, m.Trend)
}

// translations are the canned multilingual answers. Languages without a
// translation fall back to English.
var translations = map[string]map[string]string{
	"pest_response": {
		"en": "For pest control, try neem oil spray (10ml per liter of water). Spray early morning or evening. Repeat after 7 days if needed. For severe infestation, consult an agricultural officer.",
		"hi": "कीट नियंत्रण के लिए, नीम के तेल का स्प्रे (10 मिली प्रति लीटर पानी) आजमाएं। सुबह या शाम को छिड़काव करें। आवश्यकता हो तो 7 दिन बाद दोहराएं। गंभीर संक्रमण के लिए कृषि अधिकारी से परामर्श लें।",
	},
	"disease_response": {
		"en": "For plant diseases, remove infected parts immediately. Improve air circulation. Avoid overhead watering. Apply copper-based fungicide if needed. Maintain proper field sanitation.",
		"hi": "पौधों की बीमारियों के लिए, संक्रमित भागों को तुरंत हटा दें। हवा का संचार सुधारें। पत्तियों पर पानी डालने से बचें। आवश्यकता हो तो कॉपर-आधारित फफूंदनाशक लगाएं। खेत की स्वच्छता बनाए रखें।",
	},
	"fertilizer_response": {
		"en": "Get soil tested first to determine nutrient needs. Apply balanced NPK fertilizer as per soil test results. Use organic manure to improve soil health. Apply in split doses for better results.",
		"hi": "पोषक तत्वों की जरूरत निर्धारित करने के लिए पहले मिट्टी की जांच करवाएं। मिट्टी परीक्षण के अनुसार संतुलित एनपीके खाद डालें। मिट्टी के स्वास्थ्य में सुधार के लिए जैविक खाद का उपयोग करें। बेहतर परिणामों के लिए विभाजित खुराक में डालें।",
	},
	"irrigation_response": {
		"en": "Water early morning or late evening to reduce evaporation. Use drip irrigation for water efficiency. Check soil moisture before watering. Avoid waterlogging which can damage roots.",
		"hi": "वाष्पीकरण कम करने के लिए सुबह जल्दी या शाम को देर से पानी दें। पानी की दक्षता के लिए ड्रिप सिंचाई का उपयोग करें। पानी देने से पहले मिट्टी की नमी जांचें। जलभराव से बचें जो जड़ों को नुकसान पहुंचा सकता है।",
	},
	"general_response": {
		"en": "I'm here to help with your agricultural questions. I can provide information about pest control, diseases, fertilizers, irrigation, weather, and market prices. Please ask your specific question.",
		"hi": "मैं आपके कृषि प्रश्नों में मदद के लिए यहां हूं। मैं कीट नियंत्रण, बीमारियों, उर्वरकों, सिंचाई, मौसम और बाजार कीमतों के बारे में जानकारी प्रदान कर सकता हूं। कृपया अपना विशिष्ट प्रश्न पूछें।",
	},
	"weather_unavailable": {
		"en": "Weather data is not available right now. Please try again later.",
		"hi": "मौसम डेटा अभी उपलब्ध नहीं है। कृपया बाद में पुनः प्रयास करें।",
	},
	"market_unavailable": {
		"en": "Price data not available for this crop currently.",
		"hi": "इस फसल के लिए कीमत डेटा वर्तमान में उपलब्ध नहीं है।",
	},
}

func translation(key, language string) string {
	if byLang, ok := translations[key]; ok {
		if text, ok := byLang[language]; ok {
			return text
		}
		return byLang["en"]
	}
	return translations["general_response"]["en"]
}
