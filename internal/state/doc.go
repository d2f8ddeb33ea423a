// Package state holds the concurrency-safe shared state behind all tool
// operations: the read-before-write ledger, the background process table,
// and the pending approval table.
//
// The three tables are guarded by independent locks so unrelated
// operations never block each other: resolving an approval does not
// contend with polling a background process, and neither contends with
// the read ledger.
//
// Background process entries own their process handle exclusively until
// completion, at which point the handle is released so the OS can reclaim
// the process. The output buffer is append-only and the read cursor only
// advances, so successive polls deliver every byte exactly once.
package state
