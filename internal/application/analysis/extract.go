package analysis

import (
	"strconv"
	"strings"

	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
)

// ExtractFields scans free-form model output for each declared marker and
// returns a complete field mapping. Misses are not errors: the model is
// under no obligation to phrase its answer our way, so an unmatched field
// falls back to its declared default. This function never fails.
func ExtractFields(raw string, specs []domain.FieldSpec) map[string]any {
	out := make(map[string]any, len(specs))
	for _, spec := range specs {
		m := spec.Pattern.FindStringSubmatch(raw)
		if m == nil || len(m) < 2 {
			out[spec.Name] = spec.Default
			continue
		}
		out[spec.Name] = normalize(m[1], spec)
	}
	return out
}

func normalize(match string, spec domain.FieldSpec) any {
	switch spec.Kind {
	case domain.KindPercent:
		f, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return spec.Default
		}
		frac := f / 100
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		return frac
	default:
		v := strings.ToLower(strings.TrimSpace(match))
		for _, allowed := range spec.Allowed {
			if v == allowed {
				return v
			}
		}
		return spec.Default
	}
}
