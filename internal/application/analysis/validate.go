package analysis

import (
	"strings"

	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
)

// Validate checks that a request carries its requester id and every
// domain-required field. Pure function; fields are checked in the order
// declared by the domain spec so the first missing field reported is
// deterministic. No external call happens before this passes.
func Validate(req domain.Request) error {
	if strings.TrimSpace(req.FarmerID) == "" {
		return &domain.MissingFieldError{Field: "farmer_id"}
	}
	spec, ok := domain.SpecFor(req.Domain)
	if !ok {
		return domain.ErrUnknownDomain
	}

	objects := make(map[string]bool, len(spec.Objects))
	for _, name := range spec.Objects {
		objects[name] = true
	}

	for _, name := range spec.Required {
		v, present := req.Input[name]
		if !present || v == nil {
			return &domain.MissingFieldError{Field: name}
		}
		if objects[name] {
			m, isMap := v.(map[string]any)
			if !isMap || len(m) == 0 {
				return &domain.MissingFieldError{Field: name}
			}
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return &domain.MissingFieldError{Field: name}
		}
	}
	return nil
}
