// Package reconcile cross-references audited security exceptions against the
// known developer-tool registry.
//
// The Reconciler builds the "already exempted" path universe from audit
// results, decides per-candidate coverage under a bidirectional prefix rule,
// and classifies registry paths into missing and already-covered buckets. It
// also surfaces stale exceptions whose targets no longer resolve.
package reconcile
