package domain

import (
	"time"

	"github.com/google/uuid"
)

// IntentType distinguishes whole-device intents from subtree-scoped ones
type IntentType string

const (
	IntentTypeFull    IntentType = "full"
	IntentTypePartial IntentType = "partial"
)

// DiscoveryStatus represents the outcome of the last discovery job run
// against an intent
type DiscoveryStatus string

const (
	DiscoveryStatusUnknown DiscoveryStatus = "unknown"
	DiscoveryStatusSuccess DiscoveryStatus = "success"
	DiscoveryStatusFailed  DiscoveryStatus = "failed"
)

// Intent represents the desired configuration state of a network device.
//
// For partial intents, Filter holds the subtree filter that scopes the
// configuration fetch, and FilterHash its canonical content hash. Config
// and ConfigHash always hold the canonical form of the intended
// configuration produced by the canonical package.
type Intent struct {
	ID          string     `json:"id"`
	Hostname    string     `json:"hostname,omitempty"`
	Description string     `json:"description,omitempty"`
	Type        IntentType `json:"type"`

	Config     string `json:"config,omitempty"`
	ConfigHash string `json:"config_hash,omitempty"`
	Filter     string `json:"filter,omitempty"`
	FilterHash string `json:"filter_hash,omitempty"`

	// NetdriftManaged is locked after creation; flipping it would break
	// the discovery logic, so updates reject any change to it.
	NetdriftManaged bool `json:"netdrift_managed"`

	LastDiscoveryID      string          `json:"last_discovery_id,omitempty"`
	LastDiscoveryStatus  DiscoveryStatus `json:"last_discovery_status"`
	LastDiscoveryMessage string          `json:"last_discovery_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewIntent creates an intent with a fresh id and initialized discovery state
func NewIntent(hostname string, intentType IntentType) *Intent {
	now := time.Now().UTC()
	return &Intent{
		ID:                  uuid.NewString(),
		Hostname:            hostname,
		Type:                intentType,
		NetdriftManaged:     true,
		LastDiscoveryStatus: DiscoveryStatusUnknown,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// IsPartial reports whether the intent is subtree-scoped
func (i *Intent) IsPartial() bool {
	return i.Type == IntentTypePartial
}

// IntentUpdate is a sparse patch applied to an existing intent. Nil fields
// are left untouched.
type IntentUpdate struct {
	ID                   *string          `json:"id,omitempty"`
	Hostname             *string          `json:"hostname,omitempty"`
	Description          *string          `json:"description,omitempty"`
	Type                 *IntentType      `json:"type,omitempty"`
	Config               *string          `json:"config,omitempty"`
	ConfigHash           *string          `json:"config_hash,omitempty"`
	Filter               *string          `json:"filter,omitempty"`
	FilterHash           *string          `json:"filter_hash,omitempty"`
	NetdriftManaged      *bool            `json:"netdrift_managed,omitempty"`
	LastDiscoveryID      *string          `json:"last_discovery_id,omitempty"`
	LastDiscoveryStatus  *DiscoveryStatus `json:"last_discovery_status,omitempty"`
	LastDiscoveryMessage *string          `json:"last_discovery_message,omitempty"`
}

// IntentQuery filters intent lookups. Zero values mean "any", except
// Hostname when HostnameSet is true, which matches the stored hostname
// exactly including the empty ("common") hostname. Hostname behaves as a
// nullable join key: an unset hostname only matches intents that also have
// no hostname.
type IntentQuery struct {
	Hostname            string
	HostnameSet         bool
	Type                IntentType
	ConfigHash          string
	FilterHash          string
	LastDiscoveryStatus DiscoveryStatus
}

// ByHostname builds a query matching a hostname exactly, treating the
// empty string as the common (hostname-less) scope
func ByHostname(hostname string) IntentQuery {
	return IntentQuery{Hostname: hostname, HostnameSet: true}
}

// String helpers for sparse patches.

func StringPtr(s string) *string                { return &s }
func BoolPtr(b bool) *bool                      { return &b }
func StatusPtr(s DiscoveryStatus) *DiscoveryStatus { return &s }
