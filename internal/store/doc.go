// Package store persists audit runs in SQLite.
//
// Each run row tracks the workflow phase, the incomplete flag, the overall
// score, and the final report document as JSON. The store applies WAL mode
// and retries busy errors so concurrent CLI invocations against the same
// workspace do not fail spuriously.
package store
