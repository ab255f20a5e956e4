package analysis

import "regexp"

// FieldKind menentukan cara normalisasi nilai hasil ekstraksi
type FieldKind int

const (
	// KindEnum lower-cases the match and checks it against Allowed.
	KindEnum FieldKind = iota
	// KindPercent parses the match as a percentage into a 0-1 fraction.
	KindPercent
)

// FieldSpec describes one extraction marker expected in free-form model
// output. Pattern's first capture group is the value; match is best-effort
// and Default is used when the marker is absent.
type FieldSpec struct {
	Name    string
	Pattern *regexp.Regexp
	Kind    FieldKind
	Allowed []string
	Default any
}

// DomainSpec is the per-domain pipeline configuration: required input
// fields (checked in order), which of those must be non-empty objects,
// the headline field echoed at the top level of API responses, and the
// extraction markers.
type DomainSpec struct {
	Domain   Domain
	Required []string
	Objects  []string
	Headline string
	Fields   []FieldSpec
}

var domainSpecs = map[Domain]DomainSpec{
	DomainClimate: {
		Domain:   DomainClimate,
		Required: []string{"location_data"},
		Objects:  []string{"location_data"},
		Headline: "alert_level",
		Fields: []FieldSpec{
			{
				Name:    "alert_level",
				Pattern: regexp.MustCompile(`(?i)alert level[:\s]*(low|medium|high)`),
				Kind:    KindEnum,
				Allowed: []string{"low", "medium", "high"},
				Default: "medium",
			},
		},
	},
	DomainDisease: {
		Domain:   DomainDisease,
		Required: []string{"crop_name"},
		Headline: "confidence_score",
		Fields: []FieldSpec{
			{
				Name:    "confidence_score",
				Pattern: regexp.MustCompile(`(?i)confidence[:\s]*(\d+(?:\.\d+)?)\s*%`),
				Kind:    KindPercent,
				Default: 0.75,
			},
		},
	},
	DomainMarket: {
		Domain:   DomainMarket,
		Required: []string{"crop_name"},
		Headline: "trend_direction",
	},
	DomainMicroplastic: {
		Domain:   DomainMicroplastic,
		Required: []string{"sample_type", "sample_data"},
		Objects:  []string{"sample_data"},
		Headline: "contamination_risk",
		Fields: []FieldSpec{
			{
				Name:    "contamination_risk",
				Pattern: regexp.MustCompile(`(?i)risk level[:\s]*(low|medium|high|critical)`),
				Kind:    KindEnum,
				Allowed: []string{"low", "medium", "high", "critical"},
				Default: "medium",
			},
		},
	},
	DomainVoice: {
		Domain:   DomainVoice,
		Required: []string{"query"},
	},
}

// SpecFor returns the pipeline configuration for a domain.
func SpecFor(d Domain) (DomainSpec, bool) {
	s, ok := domainSpecs[d]
	return s, ok
}
