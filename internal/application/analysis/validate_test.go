package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/krishisakhi/analysis-api/internal/application/analysis"
	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
)

func TestValidate_RequiredFieldOrder(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.Request
		missing string
	}{
		{
			name:    "farmer id always checked first",
			req:     domain.Request{Domain: domain.DomainDisease, Input: map[string]any{}},
			missing: "farmer_id",
		},
		{
			name:    "disease requires crop name",
			req:     domain.Request{FarmerID: "f1", Domain: domain.DomainDisease, Input: map[string]any{"symptoms": "spots"}},
			missing: "crop_name",
		},
		{
			name:    "blank string counts as missing",
			req:     domain.Request{FarmerID: "f1", Domain: domain.DomainDisease, Input: map[string]any{"crop_name": "   "}},
			missing: "crop_name",
		},
		{
			name:    "climate requires location object",
			req:     domain.Request{FarmerID: "f1", Domain: domain.DomainClimate, Input: map[string]any{}},
			missing: "location_data",
		},
		{
			name:    "location must be a non-empty object",
			req:     domain.Request{FarmerID: "f1", Domain: domain.DomainClimate, Input: map[string]any{"location_data": "Thrissur"}},
			missing: "location_data",
		},
		{
			name:    "empty object counts as missing",
			req:     domain.Request{FarmerID: "f1", Domain: domain.DomainClimate, Input: map[string]any{"location_data": map[string]any{}}},
			missing: "location_data",
		},
		{
			name:    "microplastic checks sample type before sample data",
			req:     domain.Request{FarmerID: "f1", Domain: domain.DomainMicroplastic, Input: map[string]any{}},
			missing: "sample_type",
		},
		{
			name: "microplastic sample data second",
			req: domain.Request{FarmerID: "f1", Domain: domain.DomainMicroplastic,
				Input: map[string]any{"sample_type": "soil"}},
			missing: "sample_data",
		},
		{
			name:    "market requires crop name",
			req:     domain.Request{FarmerID: "f1", Domain: domain.DomainMarket, Input: map[string]any{}},
			missing: "crop_name",
		},
		{
			name:    "voice requires query",
			req:     domain.Request{FarmerID: "f1", Domain: domain.DomainVoice, Input: map[string]any{"language": "ml"}},
			missing: "query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := appanalysis.Validate(tt.req)
			var missing *domain.MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.missing, missing.Field)
		})
	}
}

func TestValidate_AcceptsCompleteRequests(t *testing.T) {
	valid := []domain.Request{
		{FarmerID: "f1", Domain: domain.DomainDisease, Input: map[string]any{"crop_name": "Rice"}},
		{FarmerID: "f1", Domain: domain.DomainClimate, Input: map[string]any{"location_data": map[string]any{"district": "Wayanad"}}},
		{FarmerID: "f1", Domain: domain.DomainMarket, Input: map[string]any{"crop_name": "Banana"}},
		{FarmerID: "f1", Domain: domain.DomainMicroplastic, Input: map[string]any{"sample_type": "water", "sample_data": map[string]any{"turbidity": 3}}},
		{FarmerID: "f1", Domain: domain.DomainVoice, Input: map[string]any{"query": "best paddy variety?"}},
	}
	for _, req := range valid {
		assert.NoError(t, appanalysis.Validate(req), "domain %s", req.Domain)
	}
}

func TestValidate_UnknownDomain(t *testing.T) {
	err := appanalysis.Validate(domain.Request{FarmerID: "f1", Domain: "weather"})
	assert.ErrorIs(t, err, domain.ErrUnknownDomain)
}
