package mysql

import (
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
)

// one append-only table per domain, mirroring the postgres layout
var tables = map[domain.Domain]string{
	domain.DomainClimate:      "climate_predictions",
	domain.DomainDisease:      "disease_detections",
	domain.DomainMarket:       "market_intelligence",
	domain.DomainMicroplastic: "microplastic_detections",
	domain.DomainVoice:        "voice_queries",
}

func tableFor(d domain.Domain) (string, error) {
	t, ok := tables[d]
	if !ok {
		return "", fmt.Errorf("no table for domain %q", d)
	}
	return t, nil
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// jsonOrEmpty marshals m for a JSON column; nil becomes "{}"
func jsonOrEmpty(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
