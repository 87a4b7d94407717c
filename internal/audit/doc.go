// Package audit wires the security-audit command family into the CLI.
//
// It exposes one CommandBuilder per subcommand (audit, recommend, check,
// cleanup, products), each assembling a Cobra command around the shared
// auditor.Service orchestrator.
package audit
