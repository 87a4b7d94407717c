package report

import (
	"fmt"
	"strings"

	"github.com/temirov/secaudit/internal/model"
	"github.com/temirov/secaudit/internal/reconcile"
)

const (
	markdownTimestampLayoutConstant = "2006-01-02 15:04:05"

	markdownReportTitleConstant            = "# Security Exception Audit Report"
	markdownGeneratedTemplateConstant      = "**Generated:** %s"
	markdownPlatformTemplateConstant       = "**Platform:** %s"
	markdownToolTemplateConstant           = "**Tool:** secaudit v%s"
	markdownRunIdentifierTemplate          = "**Run:** %s"
	markdownDividerConstant                = "---"
	markdownSummaryHeadingConstant         = "## Summary"
	markdownSummaryTableHeaderConstant     = "| Metric | Count |"
	markdownSummaryTableDividerConstant    = "|--------|-------|"
	markdownTotalRowTemplateConstant       = "| Total Exceptions | %d |"
	markdownActiveRowTemplateConstant      = "| Active (Path Exists) | %d |"
	markdownStaleRowTemplateConstant       = "| Stale (Path Missing) | %d |"
	markdownProductsRowTemplateConstant    = "| Products Audited | %d |"
	markdownErrorsHeadingConstant          = "### Errors"
	markdownWarningsHeadingConstant        = "### Warnings"
	markdownErrorItemTemplateConstant      = "- [X] %s"
	markdownWarningItemTemplateConstant    = "- [!] %s"
	markdownElevationNoticeConstant        = "> **Note:** Admin privileges required for full audit"
	markdownExceptionsHeadingConstant      = "### Exceptions"
	markdownExceptionsTableHeadConstant    = "| Status | Type | Path |"
	markdownExceptionsTableDivConstant     = "|--------|------|------|"
	markdownExceptionRowTemplateConstant   = "| %s | %s | `%s` |"
	markdownStatusActiveConstant           = "[OK]"
	markdownStatusStaleConstant            = "[STALE]"
	markdownNoExceptionsConstant           = "*No exceptions found*"
	markdownRecommendationsHeading         = "## Recommendations"
	markdownMissingHeadingConstant         = "### Missing Exceptions (Should Add)"
	markdownMissingTableHeaderConstant     = "| Name | Path | Reason |"
	markdownMissingTableDividerConstant    = "|------|------|--------|"
	markdownMissingRowTemplateConstant     = "| %s | `%s` | %s |"
	markdownCoveredHeadingConstant         = "### Already Covered"
	markdownCoveredItemTemplateConstant    = "- [OK] %s: `%s`"
	markdownCleanupHeadingConstant         = "## Cleanup Recommendations"
	markdownCleanupIntroConstant           = "The following exceptions point to paths that no longer exist:"
	markdownCleanupItemTemplateConstant    = "- `%s` (%s)"
	markdownCleanupHintConstant            = "Run `secaudit cleanup --dry-run` to preview removal."
	markdownEmptyLineConstant              = ""
	markdownProductHeadingTemplateConstant = "## %s"
	markdownRecommendationsTitleConstant   = "# Exception Recommendations"
	markdownNoRecommendationsConstant      = "*No recommendations*"
)

// ToolVersion is the rendered application version.
const ToolVersion = "1.0.0"

// RenderMarkdown produces the human-readable audit report.
func RenderMarkdown(results []model.AuditResult, outcome *reconcile.Outcome, metadata Metadata) string {
	reportLines := []string{
		markdownReportTitleConstant,
		markdownEmptyLineConstant,
		fmt.Sprintf(markdownGeneratedTemplateConstant, metadata.GeneratedAt.Format(markdownTimestampLayoutConstant)),
		fmt.Sprintf(markdownPlatformTemplateConstant, metadata.Platform),
		fmt.Sprintf(markdownToolTemplateConstant, metadata.ToolVersion),
		fmt.Sprintf(markdownRunIdentifierTemplate, metadata.RunID),
		markdownEmptyLineConstant,
		markdownDividerConstant,
		markdownEmptyLineConstant,
	}

	reportLines = append(reportLines, summarySection(results)...)

	for resultIndex := range results {
		reportLines = append(reportLines, productSection(results[resultIndex])...)
	}

	if outcome != nil {
		reportLines = append(reportLines, recommendationSection(*outcome)...)
	}

	reportLines = append(reportLines, cleanupSection(results)...)

	return strings.Join(reportLines, "\n")
}

func summarySection(results []model.AuditResult) []string {
	totalExceptions := 0
	activeExceptions := 0
	staleExceptions := 0
	for resultIndex := range results {
		totalExceptions += results[resultIndex].TotalCount()
		activeExceptions += results[resultIndex].ActiveCount()
		staleExceptions += results[resultIndex].StaleCount()
	}

	return []string{
		markdownSummaryHeadingConstant,
		markdownEmptyLineConstant,
		markdownSummaryTableHeaderConstant,
		markdownSummaryTableDividerConstant,
		fmt.Sprintf(markdownTotalRowTemplateConstant, totalExceptions),
		fmt.Sprintf(markdownActiveRowTemplateConstant, activeExceptions),
		fmt.Sprintf(markdownStaleRowTemplateConstant, staleExceptions),
		fmt.Sprintf(markdownProductsRowTemplateConstant, len(results)),
		markdownEmptyLineConstant,
	}
}

func productSection(auditResult model.AuditResult) []string {
	sectionLines := []string{
		fmt.Sprintf(markdownProductHeadingTemplateConstant, productHeading(auditResult.Product)),
		markdownEmptyLineConstant,
	}

	if len(auditResult.Errors) > 0 {
		sectionLines = append(sectionLines, markdownErrorsHeadingConstant)
		for _, errorMessage := range auditResult.Errors {
			sectionLines = append(sectionLines, fmt.Sprintf(markdownErrorItemTemplateConstant, errorMessage))
		}
		sectionLines = append(sectionLines, markdownEmptyLineConstant)
	}

	if len(auditResult.Warnings) > 0 {
		sectionLines = append(sectionLines, markdownWarningsHeadingConstant)
		for _, warningMessage := range auditResult.Warnings {
			sectionLines = append(sectionLines, fmt.Sprintf(markdownWarningItemTemplateConstant, warningMessage))
		}
		sectionLines = append(sectionLines, markdownEmptyLineConstant)
	}

	if auditResult.RequiresElevation {
		sectionLines = append(sectionLines, markdownElevationNoticeConstant, markdownEmptyLineConstant)
	}

	if len(auditResult.Exceptions) == 0 {
		sectionLines = append(sectionLines, markdownNoExceptionsConstant, markdownEmptyLineConstant)
		return sectionLines
	}

	sectionLines = append(sectionLines,
		markdownExceptionsHeadingConstant,
		markdownEmptyLineConstant,
		markdownExceptionsTableHeadConstant,
		markdownExceptionsTableDivConstant,
	)

	for _, exceptionRecord := range auditResult.Exceptions {
		recordStatus := markdownStatusActiveConstant
		if !exceptionRecord.Exists {
			recordStatus = markdownStatusStaleConstant
		}
		sectionLines = append(sectionLines, fmt.Sprintf(markdownExceptionRowTemplateConstant, recordStatus, exceptionRecord.Kind, exceptionRecord.Path))
	}

	sectionLines = append(sectionLines, markdownEmptyLineConstant)
	return sectionLines
}

func recommendationSection(outcome reconcile.Outcome) []string {
	sectionLines := []string{
		markdownDividerConstant,
		markdownEmptyLineConstant,
		markdownRecommendationsHeading,
		markdownEmptyLineConstant,
	}

	if len(outcome.Missing) > 0 {
		sectionLines = append(sectionLines,
			markdownMissingHeadingConstant,
			markdownEmptyLineConstant,
			markdownMissingTableHeaderConstant,
			markdownMissingTableDividerConstant,
		)
		for _, missingItem := range outcome.Missing {
			sectionLines = append(sectionLines, fmt.Sprintf(markdownMissingRowTemplateConstant, missingItem.ToolName, missingItem.Path, missingItem.Reason))
		}
		sectionLines = append(sectionLines, markdownEmptyLineConstant)
	}

	if len(outcome.AlreadyCovered) > 0 {
		sectionLines = append(sectionLines, markdownCoveredHeadingConstant, markdownEmptyLineConstant)
		for _, coveredItem := range outcome.AlreadyCovered {
			sectionLines = append(sectionLines, fmt.Sprintf(markdownCoveredItemTemplateConstant, coveredItem.ToolName, coveredItem.Path))
		}
		sectionLines = append(sectionLines, markdownEmptyLineConstant)
	}

	return sectionLines
}

func cleanupSection(results []model.AuditResult) []string {
	staleRecords := []model.ExceptionRecord{}
	for resultIndex := range results {
		for _, exceptionRecord := range results[resultIndex].Exceptions {
			if !exceptionRecord.Exists {
				staleRecords = append(staleRecords, exceptionRecord)
			}
		}
	}

	if len(staleRecords) == 0 {
		return nil
	}

	sectionLines := []string{
		markdownDividerConstant,
		markdownEmptyLineConstant,
		markdownCleanupHeadingConstant,
		markdownEmptyLineConstant,
		markdownCleanupIntroConstant,
		markdownEmptyLineConstant,
	}

	for _, staleRecord := range staleRecords {
		sectionLines = append(sectionLines, fmt.Sprintf(markdownCleanupItemTemplateConstant, staleRecord.Path, staleRecord.Product))
	}

	sectionLines = append(sectionLines, markdownEmptyLineConstant, markdownCleanupHintConstant)
	return sectionLines
}

// RenderRecommendationsMarkdown produces a standalone recommendation report
// without the audit sections.
func RenderRecommendationsMarkdown(outcome reconcile.Outcome, metadata Metadata) string {
	reportLines := []string{
		markdownRecommendationsTitleConstant,
		markdownEmptyLineConstant,
		fmt.Sprintf(markdownGeneratedTemplateConstant, metadata.GeneratedAt.Format(markdownTimestampLayoutConstant)),
		fmt.Sprintf(markdownPlatformTemplateConstant, metadata.Platform),
		markdownEmptyLineConstant,
	}

	if len(outcome.Missing) == 0 && len(outcome.AlreadyCovered) == 0 {
		reportLines = append(reportLines, markdownNoRecommendationsConstant)
		return strings.Join(reportLines, "\n")
	}

	reportLines = append(reportLines, recommendationSection(outcome)...)
	return strings.Join(reportLines, "\n")
}

// productHeading turns a product identifier into a section title.
func productHeading(productName string) string {
	titleWords := strings.Split(productName, "_")
	for wordIndex := range titleWords {
		if len(titleWords[wordIndex]) > 0 {
			titleWords[wordIndex] = strings.ToUpper(titleWords[wordIndex][:1]) + titleWords[wordIndex][1:]
		}
	}
	return strings.Join(titleWords, " ")
}
