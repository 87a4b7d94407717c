// Package auditor orchestrates backend audits, reconciliation against the
// known-tool registry, runtime probing, and stale-exception cleanup.
package auditor
