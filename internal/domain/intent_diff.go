package domain

import (
	"time"

	"github.com/google/uuid"
)

// IntentDiff records drift between an intent and the live device
// configuration at the moment a discovery job observed it. Diff holds the
// human-readable line diff (live configuration first, intent second) and
// Intent the configuration snapshot the diff was computed against. Patch,
// when set, is the config fragment that would restore the intent on the
// device. Records are immutable once created.
type IntentDiff struct {
	ID        string    `json:"id"`
	IntentID  string    `json:"intent_id"`
	Diff      string    `json:"diff"`
	Intent    string    `json:"intent"`
	Patch     string    `json:"patch,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewIntentDiff creates a diff record for an intent
func NewIntentDiff(intentID, diff, intentConfig string) *IntentDiff {
	return &IntentDiff{
		ID:        uuid.NewString(),
		IntentID:  intentID,
		Diff:      diff,
		Intent:    intentConfig,
		CreatedAt: time.Now().UTC(),
	}
}
