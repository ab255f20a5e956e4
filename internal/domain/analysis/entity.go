package analysis

import (
	"time"
)

// ID tipe untuk Result
type ResultID string

// Domain enum: feature yang diminta
type Domain string

const (
	DomainClimate      Domain = "climate"
	DomainDisease      Domain = "disease"
	DomainMarket       Domain = "market"
	DomainMicroplastic Domain = "microplastic"
	DomainVoice        Domain = "voice"
)

// Valid reports whether d is a known analysis domain.
func (d Domain) Valid() bool {
	switch d {
	case DomainClimate, DomainDisease, DomainMarket, DomainMicroplastic, DomainVoice:
		return true
	}
	return false
}

// Attachment is a binary payload (sample photo, microscope image)
// forwarded to the model alongside the prompt text.
type Attachment struct {
	MIME string
	Data []byte
}

// Request inbound analysis payload. FarmerID and Domain are mandatory;
// Input carries the domain-specific fields as decoded JSON.
type Request struct {
	FarmerID string
	Domain   Domain
	Input    map[string]any
	Image    *Attachment
}

// Prompt is the rendered model instruction. Immutable after construction;
// attachments ride separately and are never inlined into Text.
type Prompt struct {
	Text        string
	Attachments []Attachment
}

// Aggregate Root: Result
// One stored analysis. Results are append-only; corrections are new rows.
type Result struct {
	ID          ResultID       `json:"id"`
	FarmerID    string         `json:"farmer_id"`
	Domain      Domain         `json:"domain"`
	Input       map[string]any `json:"input,omitempty"`
	RawAnalysis string         `json:"raw_analysis"`
	Fields      map[string]any `json:"fields"`
	ImageURL    string         `json:"image_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
