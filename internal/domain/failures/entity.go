package failures

import "time"

// Pipeline stages a failure can be attributed to.
const (
	StageValidate = "validate"
	StagePrompt   = "prompt"
	StageModel    = "model"
	StageStore    = "store"
)

// Failure represents a persisted pipeline failure entry
type Failure struct {
	ID          int64     `json:"id"`
	FarmerID    string    `json:"farmer_id"`
	Domain      string    `json:"domain"`
	Stage       string    `json:"stage,omitempty"` // validate | prompt | model | store
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
