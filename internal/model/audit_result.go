package model

import "time"

// AuditResult captures one backend's audit snapshot.
//
// A result is populated by a single backend invocation and treated as an
// immutable snapshot once returned; callers must not append to its slices.
type AuditResult struct {
	Product           string
	Exceptions        []ExceptionRecord
	Errors            []string
	Warnings          []string
	RequiresElevation bool
	AuditTime         time.Time
}

// NewAuditResult constructs an empty audit result for the supplied product.
func NewAuditResult(product string, auditTime time.Time) AuditResult {
	return AuditResult{
		Product:   product,
		AuditTime: auditTime,
	}
}

// TotalCount reports the number of exceptions in the snapshot.
func (result AuditResult) TotalCount() int {
	return len(result.Exceptions)
}

// ActiveCount reports the number of exceptions whose target still exists.
func (result AuditResult) ActiveCount() int {
	activeTotal := 0
	for recordIndex := range result.Exceptions {
		if result.Exceptions[recordIndex].Exists {
			activeTotal++
		}
	}
	return activeTotal
}

// StaleCount reports the number of exceptions whose target no longer exists.
func (result AuditResult) StaleCount() int {
	staleTotal := 0
	for recordIndex := range result.Exceptions {
		if !result.Exceptions[recordIndex].Exists {
			staleTotal++
		}
	}
	return staleTotal
}

// AuditResultDocument is the JSON serialization form of an AuditResult.
type AuditResultDocument struct {
	Product           string            `json:"product"`
	AuditTime         time.Time         `json:"audit_time"`
	TotalExceptions   int               `json:"total_exceptions"`
	ActiveExceptions  int               `json:"active_exceptions"`
	StaleExceptions   int               `json:"stale_exceptions"`
	RequiresElevation bool              `json:"requires_elevation"`
	Exceptions        []ExceptionRecord `json:"exceptions"`
	Errors            []string          `json:"errors"`
	Warnings          []string          `json:"warnings"`
}

// Document converts the result into its JSON serialization form.
func (result AuditResult) Document() AuditResultDocument {
	exceptions := result.Exceptions
	if exceptions == nil {
		exceptions = []ExceptionRecord{}
	}
	auditErrors := result.Errors
	if auditErrors == nil {
		auditErrors = []string{}
	}
	auditWarnings := result.Warnings
	if auditWarnings == nil {
		auditWarnings = []string{}
	}

	return AuditResultDocument{
		Product:           result.Product,
		AuditTime:         result.AuditTime,
		TotalExceptions:   result.TotalCount(),
		ActiveExceptions:  result.ActiveCount(),
		StaleExceptions:   result.StaleCount(),
		RequiresElevation: result.RequiresElevation,
		Exceptions:        exceptions,
		Errors:            auditErrors,
		Warnings:          auditWarnings,
	}
}

// Result converts the serialization form back into an AuditResult.
func (document AuditResultDocument) Result() AuditResult {
	return AuditResult{
		Product:           document.Product,
		Exceptions:        document.Exceptions,
		Errors:            document.Errors,
		Warnings:          document.Warnings,
		RequiresElevation: document.RequiresElevation,
		AuditTime:         document.AuditTime,
	}
}
