// Package domain defines the core domain types for the netdrift intent
// tracking system.
//
// # Core Types
//
// Intent represents the desired configuration state of a network device,
// either for the whole device (full) or for a filtered subtree (partial).
// Every intent carries a canonicalized configuration document and its
// content hash, plus the outcome of the most recent discovery job.
//
// IntentGroup bundles partial intents and sub-groups under a human label
// for bulk management. Groups are created with a fully validated ownership
// closure: no partial intent may be reachable twice and every member must
// fit the group's hostname scope.
//
// IntentDiff is an append-only record of drift between an intent and the
// live device configuration, produced exclusively by discovery jobs.
//
// Job is the queue record for an asynchronous discovery/diff task.
//
// # Error Taxonomy
//
// Error carries the structured API error body (code, reason, message,
// status, reference_error). All API-visible failure conditions are
// constructed here so that handlers, services and the worker agree on
// codes and HTTP statuses.
//
// # Design Principles
//
// - No database or external dependencies
// - Typed string enumerations with explicit constants
// - Pure domain logic without infrastructure concerns
package domain
