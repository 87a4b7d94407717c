// Package report renders audit results and reconciliation output into
// human-readable markdown and machine-readable JSON.
//
// The JSON form is losslessly parseable: decoding a rendered report and
// recomputing summary counts from the decoded records reproduces the original
// summary exactly.
package report
