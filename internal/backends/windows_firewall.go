package backends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/secaudit/internal/model"
	"github.com/temirov/secaudit/internal/sysquery"
)

const (
	windowsFirewallProductNameConstant = "windows_firewall"

	windowsFirewallRulesCommandConstant = "Get-NetFirewallRule | Where-Object {$_.Enabled -eq 'True'} | Select-Object DisplayName, Direction, Action, Profile | ConvertTo-Json -Depth 3"
	windowsFirewallQueryTimeoutConstant = 60 * time.Second

	windowsFirewallUnavailableMessageConstant = "Windows Firewall not available on this platform"
	windowsFirewallElevationWarningConstant   = "Admin privileges may be needed for full details"
	windowsFirewallTimeoutErrorConstant       = "PowerShell command timed out"
	windowsFirewallEmptyOutputWarningConstant = "No firewall rules found or access denied"
	windowsFirewallParseErrorTemplateConstant = "Failed to parse firewall rules: %v"
	windowsFirewallQueryErrorTemplateConstant = "PowerShell error: %v"
	windowsFirewallUnknownRuleNameConstant    = "Unknown"

	windowsFirewallDisplayNameFieldConstant = "DisplayName"
	windowsFirewallDirectionFieldConstant   = "Direction"
	windowsFirewallInboundDirectionConstant = 1
)

// windowsFirewallRuleDenylist filters vendor and system rules out of audits.
var windowsFirewallRuleDenylist = []string{"core networking", "windows", "microsoft", "netlogon"}

// WindowsFirewallBackend lists active Windows firewall rules and maps each
// surviving rule onto a firewall-kind exception record.
type WindowsFirewallBackend struct {
	dependencies Dependencies
}

// NewWindowsFirewallBackend constructs a Windows firewall backend.
func NewWindowsFirewallBackend(dependencies Dependencies) *WindowsFirewallBackend {
	return &WindowsFirewallBackend{dependencies: dependencies.sanitize()}
}

// Product returns the backend identifier.
func (backend *WindowsFirewallBackend) Product() string {
	return windowsFirewallProductNameConstant
}

// IsAvailable reports whether the Windows firewall can be queried on this platform.
func (backend *WindowsFirewallBackend) IsAvailable() bool {
	return backend.dependencies.Platform == PlatformWindows
}

// Audit lists enabled firewall rules and normalizes the non-system entries.
func (backend *WindowsFirewallBackend) Audit(executionContext context.Context) model.AuditResult {
	auditResult := model.NewAuditResult(windowsFirewallProductNameConstant, backend.dependencies.Clock.Now())

	if !backend.IsAvailable() {
		return unavailableResult(windowsFirewallProductNameConstant, auditResult.AuditTime, windowsFirewallUnavailableMessageConstant)
	}

	executionResult, executionError := backend.dependencies.Executor.ExecutePowerShell(executionContext, windowsFirewallRulesCommandConstant, windowsFirewallQueryTimeoutConstant)
	classifiedFailure := sysquery.ClassifyFailure(executionResult, executionError)
	if classifiedFailure != nil {
		switch {
		case errors.Is(classifiedFailure, sysquery.ErrElevationRequired):
			auditResult.RequiresElevation = true
			auditResult.Warnings = append(auditResult.Warnings, windowsFirewallElevationWarningConstant)
		case errors.Is(classifiedFailure, sysquery.ErrQueryTimeout):
			auditResult.Errors = append(auditResult.Errors, windowsFirewallTimeoutErrorConstant)
		default:
			auditResult.Errors = append(auditResult.Errors, fmt.Sprintf(windowsFirewallQueryErrorTemplateConstant, classifiedFailure))
		}
		return auditResult
	}

	trimmedOutput := strings.TrimSpace(executionResult.StandardOutput)
	if len(trimmedOutput) == 0 {
		auditResult.Warnings = append(auditResult.Warnings, windowsFirewallEmptyOutputWarningConstant)
		return auditResult
	}

	firewallRules, decodeError := decodeRuleList(trimmedOutput)
	if decodeError != nil {
		auditResult.Errors = append(auditResult.Errors, fmt.Sprintf(windowsFirewallParseErrorTemplateConstant, decodeError))
		return auditResult
	}

	for _, firewallRule := range firewallRules {
		ruleDisplayName := ruleStringField(firewallRule, windowsFirewallDisplayNameFieldConstant)
		if isDenylistedRuleName(ruleDisplayName) {
			continue
		}

		ruleDirection := model.TrafficDirectionOutbound
		if ruleNumberField(firewallRule, windowsFirewallDirectionFieldConstant) == windowsFirewallInboundDirectionConstant {
			ruleDirection = model.TrafficDirectionInbound
		}

		auditResult.Exceptions = append(auditResult.Exceptions, model.ExceptionRecord{
			Path:      ruleDisplayName,
			Kind:      model.ExceptionKindFirewallRule,
			Product:   windowsFirewallProductNameConstant,
			Exists:    true,
			Direction: ruleDirection,
			RawData:   firewallRule,
		})
	}

	return auditResult
}

// decodeRuleList accepts the PowerShell JSON habit of rendering single-item
// collections as bare objects.
func decodeRuleList(rawOutput string) ([]map[string]any, error) {
	var ruleList []map[string]any
	if unmarshalError := json.Unmarshal([]byte(rawOutput), &ruleList); unmarshalError == nil {
		return ruleList, nil
	}

	var singleRule map[string]any
	if unmarshalError := json.Unmarshal([]byte(rawOutput), &singleRule); unmarshalError != nil {
		return nil, unmarshalError
	}
	return []map[string]any{singleRule}, nil
}

func isDenylistedRuleName(ruleDisplayName string) bool {
	loweredRuleName := strings.ToLower(ruleDisplayName)
	for _, denylistedSubstring := range windowsFirewallRuleDenylist {
		if strings.Contains(loweredRuleName, denylistedSubstring) {
			return true
		}
	}
	return false
}

func ruleStringField(firewallRule map[string]any, fieldName string) string {
	if fieldValue, fieldPresent := firewallRule[fieldName].(string); fieldPresent {
		return fieldValue
	}
	return windowsFirewallUnknownRuleNameConstant
}

func ruleNumberField(firewallRule map[string]any, fieldName string) int {
	if fieldValue, fieldPresent := firewallRule[fieldName].(float64); fieldPresent {
		return int(fieldValue)
	}
	return 0
}
