package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
)

// Builder renders the per-domain model instruction. Same request + same
// reference time always yields byte-identical text; the reference date is
// the only time-dependent part and sits alone on the final line so tests
// can mask it.
type Builder struct{}

func New() *Builder { return &Builder{} }

// Fallback weather observation when the request carries none. Fixed values
// keep the builder deterministic.
const (
	defaultTemperature = 28.0
	defaultHumidity    = 75.0
	defaultRainfallMM  = 12.0
	defaultWindSpeed   = 15.0
)

func (b *Builder) Build(req domain.Request, now time.Time) (domain.Prompt, error) {
	var text string
	switch req.Domain {
	case domain.DomainClimate:
		text = climatePrompt(req.Input)
	case domain.DomainDisease:
		text = diseasePrompt(req.Input, req.Image != nil)
	case domain.DomainMarket:
		text = marketPrompt(req.Input)
	case domain.DomainMicroplastic:
		text = microplasticPrompt(req.Input, req.Image != nil)
	case domain.DomainVoice:
		text = voicePrompt(req.Input)
	default:
		return domain.Prompt{}, domain.ErrUnknownDomain
	}

	// date line stays at the very end; callers mask it when comparing
	text += "\n\nReference date: " + now.Format("2006-01-02")

	p := domain.Prompt{Text: text}
	if req.Image != nil {
		p.Attachments = append(p.Attachments, *req.Image)
	}
	return p, nil
}

func climatePrompt(input map[string]any) string {
	district := "Kerala"
	if loc, ok := input["location_data"].(map[string]any); ok {
		if d := str(loc, "district"); d != "" {
			district = d
		}
	}
	weather, _ := input["weather"].(map[string]any)

	var sb strings.Builder
	sb.WriteString("As a climate and agricultural expert, analyze the current weather conditions and provide detailed predictions for farming in Kerala, India.\n\n")
	sb.WriteString("Current conditions:\n")
	fmt.Fprintf(&sb, "- Temperature: %g°C\n", num(weather, "temperature", defaultTemperature))
	fmt.Fprintf(&sb, "- Humidity: %g%%\n", num(weather, "humidity", defaultHumidity))
	fmt.Fprintf(&sb, "- Recent rainfall: %gmm\n", num(weather, "rainfall_mm", defaultRainfallMM))
	fmt.Fprintf(&sb, "- Wind speed: %gkm/h\n", num(weather, "wind_speed", defaultWindSpeed))
	fmt.Fprintf(&sb, "- Location: %s\n\n", district)
	sb.WriteString(`Provide:
1. 7-day weather outlook
2. Agricultural recommendations for next week
3. Best crops to plant in current conditions
4. Irrigation scheduling advice
5. Pest and disease risk assessment
6. Alert level (low/medium/high) with reasons

Focus on actionable advice for farmers.`)
	return sb.String()
}

func diseasePrompt(input map[string]any, hasImage bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze this crop disease case for %s.\n", str(input, "crop_name"))
	if symptoms := str(input, "symptoms"); symptoms != "" {
		fmt.Fprintf(&sb, "Observed symptoms: %s\n", symptoms)
	}
	if hasImage {
		sb.WriteString("An image has been provided for analysis.\n")
	}
	sb.WriteString(`
Provide a detailed diagnosis including:
1. Most likely disease(s)
2. Confidence level (0-100%)
3. Detailed treatment recommendations
4. Prevention measures
5. When to seek expert help

Format your response as a structured analysis suitable for a farmer in Kerala, India.`)
	return sb.String()
}

func marketPrompt(input map[string]any) string {
	location := str(input, "market_location")
	if location == "" {
		location = "Kerala"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "As a market analysis expert, provide comprehensive market intelligence for %s in %s, India.\n", str(input, "crop_name"), location)
	if pd, ok := input["price_data"].(map[string]any); ok {
		sb.WriteString("\nCurrent market data:\n")
		fmt.Fprintf(&sb, "- Price: ₹%g/kg\n", num(pd, "current_price", 0))
		fmt.Fprintf(&sb, "- Price change: %+.2f%%\n", num(pd, "price_change", 0))
		fmt.Fprintf(&sb, "- Volume: %g tons\n", num(pd, "volume_traded", 0))
	}
	sb.WriteString(`
Provide detailed analysis including:
1. Price trend analysis (short-term and seasonal)
2. Factors affecting current prices
3. Best time to sell recommendations
4. Market demand forecast
5. Quality requirements and grading
6. Alternative markets to consider
7. Price predictions for next 30 days
8. Risk assessment and mitigation strategies

Focus on actionable insights for farmers to maximize their profits.`)
	return sb.String()
}

func microplasticPrompt(input map[string]any, hasImage bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "As an environmental and agricultural expert, analyze this %s sample for microplastic contamination.\n\n", str(input, "sample_type"))
	fmt.Fprintf(&sb, "Sample details: %s\n", compactJSON(input["sample_data"]))
	if hasImage {
		sb.WriteString("Microscopic image provided for analysis.\n")
	}
	sb.WriteString(`
Provide comprehensive analysis including:
1. Microplastic contamination assessment
2. Risk level (low/medium/high/critical)
3. Potential sources of contamination
4. Health and environmental implications
5. Immediate safety recommendations
6. Long-term mitigation strategies
7. Monitoring frequency recommendations
8. Regulatory compliance status
9. Alternative practices to reduce contamination

Focus on practical, actionable advice for farmers in Kerala, India to protect soil health and crop safety.`)
	return sb.String()
}

func voicePrompt(input map[string]any) string {
	language := "English"
	if str(input, "language") == "ml" {
		language = "Malayalam"
	}
	return fmt.Sprintf(`You are an agricultural expert assistant for farmers in Kerala, India. Answer the following farming question in %s: %s.
Provide practical, actionable advice specific to Kerala's climate and farming conditions. Keep the response concise and helpful.`, language, str(input, "query"))
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string, fallback float64) float64 {
	if m == nil {
		return fallback
	}
	if f, ok := m[key].(float64); ok {
		return f
	}
	return fallback
}

// compactJSON renders the sample object inline. encoding/json sorts map
// keys, so the rendering is stable across runs.
func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
