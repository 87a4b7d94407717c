package report

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/temirov/secaudit/internal/model"
	"github.com/temirov/secaudit/internal/reconcile"
)

const jsonIndentConstant = "  "

// Metadata describes the audit run a report was generated from.
type Metadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	Platform    string    `json:"platform"`
	ToolVersion string    `json:"tool_version"`
	RunID       string    `json:"run_id"`
}

// Summary aggregates exception counts across all audited products.
type Summary struct {
	TotalExceptions  int      `json:"total_exceptions"`
	ActiveExceptions int      `json:"active_exceptions"`
	StaleExceptions  int      `json:"stale_exceptions"`
	ProductsAudited  []string `json:"products_audited"`
}

// Document is the machine-readable report shape.
type Document struct {
	Metadata        Metadata                             `json:"metadata"`
	Summary         Summary                              `json:"summary"`
	Products        map[string]model.AuditResultDocument `json:"products"`
	Recommendations *reconcile.Outcome                   `json:"recommendations,omitempty"`
}

// BuildDocument assembles the report document from audit results and optional
// reconciliation output. Products are keyed and summarized deterministically.
func BuildDocument(results []model.AuditResult, outcome *reconcile.Outcome, metadata Metadata) Document {
	document := Document{
		Metadata:        metadata,
		Products:        map[string]model.AuditResultDocument{},
		Recommendations: outcome,
	}

	for _, auditResult := range results {
		document.Products[auditResult.Product] = auditResult.Document()
		document.Summary.TotalExceptions += auditResult.TotalCount()
		document.Summary.ActiveExceptions += auditResult.ActiveCount()
		document.Summary.StaleExceptions += auditResult.StaleCount()
		document.Summary.ProductsAudited = append(document.Summary.ProductsAudited, auditResult.Product)
	}

	sort.Strings(document.Summary.ProductsAudited)
	if document.Summary.ProductsAudited == nil {
		document.Summary.ProductsAudited = []string{}
	}

	return document
}

// RenderJSON serializes the report document with stable indentation.
func RenderJSON(results []model.AuditResult, outcome *reconcile.Outcome, metadata Metadata) ([]byte, error) {
	return json.MarshalIndent(BuildDocument(results, outcome, metadata), "", jsonIndentConstant)
}

// DecodeJSON parses a rendered JSON report back into its document form.
func DecodeJSON(reportData []byte) (Document, error) {
	var document Document
	if unmarshalError := json.Unmarshal(reportData, &document); unmarshalError != nil {
		return Document{}, unmarshalError
	}
	return document, nil
}

// RecomputeSummary rebuilds the summary from the document's per-product
// records; a faithfully rendered document reproduces its own summary.
func (document Document) RecomputeSummary() Summary {
	recomputedSummary := Summary{ProductsAudited: []string{}}

	for productName, productDocument := range document.Products {
		auditResult := productDocument.Result()
		recomputedSummary.TotalExceptions += auditResult.TotalCount()
		recomputedSummary.ActiveExceptions += auditResult.ActiveCount()
		recomputedSummary.StaleExceptions += auditResult.StaleCount()
		recomputedSummary.ProductsAudited = append(recomputedSummary.ProductsAudited, productName)
	}

	sort.Strings(recomputedSummary.ProductsAudited)
	return recomputedSummary
}
