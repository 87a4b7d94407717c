package sysquery

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	elevationRequiredMessageConstant = "elevation required"
	queryTimeoutMessageConstant      = "system query timed out"
	malformedResponseMessageConstant = "malformed system query response"
	toolNotFoundMessageConstant      = "system query tool not found"
	permissionDeniedMessageConstant  = "permission denied"
	queryFailureTemplateConstant     = "%w: exit code %d: %s"
	queryFailedMessageConstant       = "system query failed"

	elevationMarkerRequiresElevationConstant = "requires elevation"
	elevationMarkerAccessDeniedConstant      = "access is denied"
	permissionDeniedMarkerConstant           = "permission denied"
	operationNotPermittedMarkerConstant      = "operation not permitted"
)

// Failure taxonomy for system queries. Backends translate these into
// per-result warnings and errors; they are never propagated across backends.
var (
	ErrElevationRequired = errors.New(elevationRequiredMessageConstant)
	ErrQueryTimeout      = errors.New(queryTimeoutMessageConstant)
	ErrMalformedResponse = errors.New(malformedResponseMessageConstant)
	ErrToolNotFound      = errors.New(toolNotFoundMessageConstant)
	ErrPermissionDenied  = errors.New(permissionDeniedMessageConstant)
	ErrQueryFailed       = errors.New(queryFailedMessageConstant)
)

// ClassifyFailure maps an execution outcome onto the failure taxonomy.
// It returns nil when the result represents a usable success.
func ClassifyFailure(executionResult Result, executionError error) error {
	if executionError != nil {
		switch {
		case errors.Is(executionError, context.DeadlineExceeded):
			return ErrQueryTimeout
		case errors.Is(executionError, exec.ErrNotFound):
			return ErrToolNotFound
		default:
			return executionError
		}
	}

	if executionResult.ExitCode == 0 {
		return nil
	}

	loweredStandardError := strings.ToLower(executionResult.StandardError)
	switch {
	case strings.Contains(loweredStandardError, elevationMarkerRequiresElevationConstant):
		return ErrElevationRequired
	case strings.Contains(loweredStandardError, elevationMarkerAccessDeniedConstant):
		return ErrElevationRequired
	case strings.Contains(loweredStandardError, permissionDeniedMarkerConstant):
		return ErrPermissionDenied
	case strings.Contains(loweredStandardError, operationNotPermittedMarkerConstant):
		return ErrPermissionDenied
	default:
		return fmt.Errorf(queryFailureTemplateConstant, ErrQueryFailed, executionResult.ExitCode, strings.TrimSpace(executionResult.StandardError))
	}
}
