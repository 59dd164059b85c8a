package domain

import (
	"time"

	"github.com/google/uuid"
)

// IntentGroup is a named bundle of partial intents and sub-groups.
//
// A group either carries no hostname (a "common" group manageable from any
// hostname context) or exactly one hostname. Member lists are materialized
// at creation time after the ownership closure has been validated; they are
// snapshots, not lazy references.
type IntentGroup struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Description string        `json:"description,omitempty"`
	Hostname    string        `json:"hostname,omitempty"`
	Intents     []Intent      `json:"intents"`
	Groups      []IntentGroup `json:"groups"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewIntentGroup creates an empty group with a fresh id
func NewIntentGroup(label, hostname string) *IntentGroup {
	now := time.Now().UTC()
	return &IntentGroup{
		ID:        uuid.NewString(),
		Label:     label,
		Hostname:  hostname,
		Intents:   []Intent{},
		Groups:    []IntentGroup{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OwnedIntentIDs reports every partial intent reachable through the group,
// direct members first, then inherited sub-group members depth-first.
func (g *IntentGroup) OwnedIntentIDs() []string {
	var ids []string
	for _, intent := range g.Intents {
		ids = append(ids, intent.ID)
	}
	for _, sub := range g.Groups {
		ids = append(ids, sub.OwnedIntentIDs()...)
	}
	return ids
}

// IntentGroupCreate is the creation request for a group. Intents and Groups
// hold referenced ids; the resolver materializes them.
type IntentGroupCreate struct {
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	Intents     []string `json:"intents,omitempty"`
	Groups      []string `json:"groups,omitempty"`
}
