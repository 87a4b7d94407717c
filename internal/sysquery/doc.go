// Package sysquery provides structured helpers for invoking the operating
// system query tools that security backends depend on.
//
// It wraps os/exec with logging and per-call timeouts via Executor, exposes
// OSProcessRunner for default process execution, and defines the failure
// taxonomy used to classify elevation, timeout, and permission errors in a
// testable manner.
package sysquery
