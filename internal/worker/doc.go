// Package worker runs discovery jobs against network devices.
//
// A Runner polls the job queue and executes two job functions: a resync
// that refreshes an intent's stored configuration from the device, and a
// drift check that compares the live configuration against the stored
// intent and records a diff when they disagree.
//
// Stage markers are written back to the queue between steps; a job whose
// stage update reports it no longer running has been aborted and stops
// without side effects beyond those already committed.
package worker
