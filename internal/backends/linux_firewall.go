package backends

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/temirov/secaudit/internal/model"
	"github.com/temirov/secaudit/internal/sysquery"
)

const (
	linuxFirewallProductNameConstant = "linux_firewall"
	ufwProductNameConstant           = "ufw"
	iptablesProductNameConstant      = "iptables"

	linuxFirewallQueryTimeoutConstant = 10 * time.Second

	linuxFirewallUnavailableMessageConstant = "Linux firewall not available on this platform"
	ufwElevationWarningConstant             = "Root privileges required for ufw"
	iptablesElevationWarningConstant        = "Root privileges required for iptables"
	iptablesNotFoundWarningConstant         = "iptables not found"

	ufwAllowMarkerConstant         = "ALLOW"
	ufwDenyMarkerConstant          = "DENY"
	iptablesChainPrefixConstant    = "Chain"
	iptablesHeaderPrefixConstant   = "num"
	firewallRuleRawDataKeyConstant = "rule"
	newlineSeparatorConstant       = "\n"
)

var ufwStatusArguments = []string{"status", "verbose"}
var iptablesListArguments = []string{"-L", "-n", "--line-numbers"}

// LinuxFirewallBackend audits ufw and iptables rule listings. Both listings
// contribute records to the same audit result under their own product labels.
type LinuxFirewallBackend struct {
	dependencies Dependencies
}

// NewLinuxFirewallBackend constructs a Linux firewall backend.
func NewLinuxFirewallBackend(dependencies Dependencies) *LinuxFirewallBackend {
	return &LinuxFirewallBackend{dependencies: dependencies.sanitize()}
}

// Product returns the backend identifier.
func (backend *LinuxFirewallBackend) Product() string {
	return linuxFirewallProductNameConstant
}

// IsAvailable reports whether Linux firewall tooling can be queried here.
func (backend *LinuxFirewallBackend) IsAvailable() bool {
	return backend.dependencies.Platform == PlatformLinux
}

// Audit collects active ufw and iptables rules.
func (backend *LinuxFirewallBackend) Audit(executionContext context.Context) model.AuditResult {
	auditResult := model.NewAuditResult(linuxFirewallProductNameConstant, backend.dependencies.Clock.Now())

	if !backend.IsAvailable() {
		return unavailableResult(linuxFirewallProductNameConstant, auditResult.AuditTime, linuxFirewallUnavailableMessageConstant)
	}

	backend.auditUFW(executionContext, &auditResult)
	backend.auditIPTables(executionContext, &auditResult)

	return auditResult
}

func (backend *LinuxFirewallBackend) auditUFW(executionContext context.Context, auditResult *model.AuditResult) {
	executionResult, executionError := backend.dependencies.Executor.Execute(executionContext, sysquery.Command{
		Tool:      sysquery.ToolUFW,
		Arguments: ufwStatusArguments,
		Timeout:   linuxFirewallQueryTimeoutConstant,
	})

	classifiedFailure := sysquery.ClassifyFailure(executionResult, executionError)
	if classifiedFailure != nil {
		switch {
		case errors.Is(classifiedFailure, sysquery.ErrToolNotFound):
			// ufw is optional; iptables below remains authoritative.
		case errors.Is(classifiedFailure, sysquery.ErrPermissionDenied), errors.Is(classifiedFailure, sysquery.ErrElevationRequired):
			auditResult.RequiresElevation = true
			auditResult.Warnings = append(auditResult.Warnings, ufwElevationWarningConstant)
		}
		return
	}

	for _, outputLine := range strings.Split(executionResult.StandardOutput, newlineSeparatorConstant) {
		if !strings.Contains(outputLine, ufwAllowMarkerConstant) && !strings.Contains(outputLine, ufwDenyMarkerConstant) {
			continue
		}

		auditResult.Exceptions = append(auditResult.Exceptions, model.ExceptionRecord{
			Path:    strings.TrimSpace(outputLine),
			Kind:    model.ExceptionKindFirewallRule,
			Product: ufwProductNameConstant,
			Exists:  true,
			RawData: map[string]any{firewallRuleRawDataKeyConstant: outputLine},
		})
	}
}

func (backend *LinuxFirewallBackend) auditIPTables(executionContext context.Context, auditResult *model.AuditResult) {
	executionResult, executionError := backend.dependencies.Executor.Execute(executionContext, sysquery.Command{
		Tool:      sysquery.ToolIPTables,
		Arguments: iptablesListArguments,
		Timeout:   linuxFirewallQueryTimeoutConstant,
	})

	classifiedFailure := sysquery.ClassifyFailure(executionResult, executionError)
	if classifiedFailure != nil {
		switch {
		case errors.Is(classifiedFailure, sysquery.ErrToolNotFound):
			auditResult.Warnings = append(auditResult.Warnings, iptablesNotFoundWarningConstant)
		case errors.Is(classifiedFailure, sysquery.ErrPermissionDenied), errors.Is(classifiedFailure, sysquery.ErrElevationRequired):
			auditResult.RequiresElevation = true
			auditResult.Warnings = append(auditResult.Warnings, iptablesElevationWarningConstant)
		}
		return
	}

	for _, outputLine := range strings.Split(executionResult.StandardOutput, newlineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) == 0 {
			continue
		}
		if strings.HasPrefix(trimmedLine, iptablesChainPrefixConstant) || strings.HasPrefix(trimmedLine, iptablesHeaderPrefixConstant) {
			continue
		}

		auditResult.Exceptions = append(auditResult.Exceptions, model.ExceptionRecord{
			Path:    trimmedLine,
			Kind:    model.ExceptionKindFirewallRule,
			Product: iptablesProductNameConstant,
			Exists:  true,
			RawData: map[string]any{firewallRuleRawDataKeyConstant: outputLine},
		})
	}
}
