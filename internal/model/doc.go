// Package model defines the shared data types exchanged between security
// backends, the reconciler, and report renderers.
//
// It exposes ExceptionRecord for normalized exclusion entries, AuditResult for
// per-product audit snapshots, and the registry and recommendation types used
// to cross-reference exclusions against known developer tools.
package model
