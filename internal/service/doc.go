// Package service implements the business rules on top of the repositories.
//
// The intent service owns intent lifecycle: uniqueness of full intents per
// hostname, content-hash deduplication of partial intents, the immutability
// rules on updates, and the dispatch of discovery jobs. The group service
// owns the ownership resolver that validates hostname scoping and rejects
// intents claimed by more than one group reachable from the same closure.
package service
