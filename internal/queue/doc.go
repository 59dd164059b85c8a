// Package queue implements a persistent job queue on top of the service
// database.
//
// Jobs are rows in a dedicated table. The API side enqueues work with a
// caller-chosen job id; workers claim queued jobs with an atomic status
// transition so concurrent workers never pick up the same job twice. Job
// records survive restarts and double as the discovery audit trail until
// flushed.
package queue
