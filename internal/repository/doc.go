// Package repository defines the data access interfaces for netdrift.
//
// Each collection (intents, intent groups, intent diffs) is reached
// through the same uniform contract: get by id, get by filter, paged
// multi-get, create, update and delete. Create and Update return the
// refreshed stored record. Lookups that find nothing return (nil, nil);
// callers translate that into the appropriate NotFound condition.
//
// The sqlite subpackage provides the implementation, including the unique
// indexes that enforce the intent dedup invariants at the store level.
package repository
