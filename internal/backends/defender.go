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
	defenderProductNameConstant = "defender"

	defenderPreferencesCommandConstant      = "Get-MpPreference | ConvertTo-Json -Depth 5"
	defenderAddExclusionTemplateConstant    = `Add-MpPreference -ExclusionPath "%s"`
	defenderRemoveExclusionTemplateConstant = `Remove-MpPreference -ExclusionPath "%s"`
	defenderQueryTimeoutConstant            = 30 * time.Second

	defenderUnavailableMessageConstant      = "Windows Defender not available on this platform"
	defenderElevationWarningConstant        = "Admin privileges required for full audit"
	defenderTimeoutErrorConstant            = "PowerShell command timed out"
	defenderParseErrorTemplateConstant      = "Failed to parse Defender preferences: %v"
	defenderQueryErrorTemplateConstant      = "PowerShell error: %v"
	defenderAddSuccessTemplateConstant      = "Added exclusion: %s"
	defenderRemoveSuccessTemplateConstant   = "Removed exclusion: %s"
	defenderMutationFailureTemplateConstant = "Failed: %s"
	defenderMutationErrorTemplateConstant   = "Error: %v"
	defenderExclusionPathFieldConstant      = "ExclusionPath"
	defenderExclusionProcessFieldConstant   = "ExclusionProcess"
	defenderExclusionExtensionFieldConstant = "ExclusionExtension"
)

// DefenderBackend audits Windows Defender exclusions through the
// Get-MpPreference structured preference source.
type DefenderBackend struct {
	dependencies Dependencies
}

// NewDefenderBackend constructs a Defender backend with the supplied collaborators.
func NewDefenderBackend(dependencies Dependencies) *DefenderBackend {
	return &DefenderBackend{dependencies: dependencies.sanitize()}
}

// Product returns the backend identifier.
func (backend *DefenderBackend) Product() string {
	return defenderProductNameConstant
}

// IsAvailable reports whether Windows Defender can be queried on this platform.
func (backend *DefenderBackend) IsAvailable() bool {
	return backend.dependencies.Platform == PlatformWindows
}

// Audit queries Defender preferences and normalizes every exclusion entry.
func (backend *DefenderBackend) Audit(executionContext context.Context) model.AuditResult {
	auditResult := model.NewAuditResult(defenderProductNameConstant, backend.dependencies.Clock.Now())

	if !backend.IsAvailable() {
		return unavailableResult(defenderProductNameConstant, auditResult.AuditTime, defenderUnavailableMessageConstant)
	}

	executionResult, executionError := backend.dependencies.Executor.ExecutePowerShell(executionContext, defenderPreferencesCommandConstant, defenderQueryTimeoutConstant)
	classifiedFailure := sysquery.ClassifyFailure(executionResult, executionError)
	if classifiedFailure != nil {
		switch {
		case errors.Is(classifiedFailure, sysquery.ErrElevationRequired):
			auditResult.RequiresElevation = true
			auditResult.Warnings = append(auditResult.Warnings, defenderElevationWarningConstant)
		case errors.Is(classifiedFailure, sysquery.ErrQueryTimeout):
			auditResult.Errors = append(auditResult.Errors, defenderTimeoutErrorConstant)
		default:
			auditResult.Errors = append(auditResult.Errors, fmt.Sprintf(defenderQueryErrorTemplateConstant, classifiedFailure))
		}
		return auditResult
	}

	var preferences map[string]json.RawMessage
	if decodeError := json.Unmarshal([]byte(executionResult.StandardOutput), &preferences); decodeError != nil {
		auditResult.Errors = append(auditResult.Errors, fmt.Sprintf(defenderParseErrorTemplateConstant, decodeError))
		return auditResult
	}

	for _, exclusionPath := range decodeStringList(preferences[defenderExclusionPathFieldConstant]) {
		auditResult.Exceptions = append(auditResult.Exceptions, backend.pathRecord(exclusionPath))
	}

	for _, exclusionProcess := range decodeStringList(preferences[defenderExclusionProcessFieldConstant]) {
		auditResult.Exceptions = append(auditResult.Exceptions, backend.processRecord(exclusionProcess))
	}

	for _, exclusionExtension := range decodeStringList(preferences[defenderExclusionExtensionFieldConstant]) {
		auditResult.Exceptions = append(auditResult.Exceptions, model.ExceptionRecord{
			Path:    exclusionExtension,
			Kind:    model.ExceptionKindExtension,
			Product: defenderProductNameConstant,
			Exists:  true,
		})
	}

	return auditResult
}

func (backend *DefenderBackend) pathRecord(exclusionPath string) model.ExceptionRecord {
	recordKind := model.ExceptionKindFolder
	if backend.dependencies.PathChecker.IsFilePath(exclusionPath) {
		recordKind = model.ExceptionKindPath
	}

	return model.ExceptionRecord{
		Path:    exclusionPath,
		Kind:    recordKind,
		Product: defenderProductNameConstant,
		Exists:  backend.dependencies.PathChecker.PathExists(exclusionPath),
	}
}

func (backend *DefenderBackend) processRecord(exclusionProcess string) model.ExceptionRecord {
	// A bare executable name carries no checkable filesystem location.
	processExists := true
	if isAbsolutePath(exclusionProcess) {
		processExists = backend.dependencies.PathChecker.PathExists(exclusionProcess)
	}

	return model.ExceptionRecord{
		Path:    exclusionProcess,
		Kind:    model.ExceptionKindProcess,
		Product: defenderProductNameConstant,
		Exists:  processExists,
	}
}

// AddExclusion registers a path exclusion with Windows Defender.
func (backend *DefenderBackend) AddExclusion(executionContext context.Context, path string, dryRun bool) (bool, string) {
	if dryRun {
		return true, fmt.Sprintf(dryRunAddTemplateConstant, path)
	}

	mutationCommand := fmt.Sprintf(defenderAddExclusionTemplateConstant, path)
	return backend.executeMutation(executionContext, mutationCommand, fmt.Sprintf(defenderAddSuccessTemplateConstant, path))
}

// RemoveExclusion deletes a path exclusion from Windows Defender.
func (backend *DefenderBackend) RemoveExclusion(executionContext context.Context, path string, dryRun bool) (bool, string) {
	if dryRun {
		return true, fmt.Sprintf(dryRunRemoveTemplateConstant, path)
	}

	mutationCommand := fmt.Sprintf(defenderRemoveExclusionTemplateConstant, path)
	return backend.executeMutation(executionContext, mutationCommand, fmt.Sprintf(defenderRemoveSuccessTemplateConstant, path))
}

func (backend *DefenderBackend) executeMutation(executionContext context.Context, mutationCommand string, successMessage string) (bool, string) {
	executionResult, executionError := backend.dependencies.Executor.ExecutePowerShell(executionContext, mutationCommand, defenderQueryTimeoutConstant)
	if executionError != nil {
		return false, fmt.Sprintf(defenderMutationErrorTemplateConstant, executionError)
	}
	if executionResult.ExitCode != 0 {
		return false, fmt.Sprintf(defenderMutationFailureTemplateConstant, strings.TrimSpace(executionResult.StandardError))
	}
	return true, successMessage
}

// decodeStringList accepts the PowerShell JSON habit of rendering single-item
// collections as bare strings.
func decodeStringList(rawValue json.RawMessage) []string {
	if len(rawValue) == 0 {
		return nil
	}

	var singleValue string
	if unmarshalError := json.Unmarshal(rawValue, &singleValue); unmarshalError == nil {
		return []string{singleValue}
	}

	var listValue []string
	if unmarshalError := json.Unmarshal(rawValue, &listValue); unmarshalError == nil {
		return listValue
	}

	return nil
}
