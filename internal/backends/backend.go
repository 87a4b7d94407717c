package backends

import (
	"context"
	"os"
	"regexp"
	"time"

	"github.com/temirov/secaudit/internal/model"
)

const (
	// PlatformWindows identifies the Windows runtime platform.
	PlatformWindows = "windows"
	// PlatformLinux identifies the Linux runtime platform.
	PlatformLinux = "linux"

	dryRunAddTemplateConstant    = "[DRY-RUN] Would add exclusion: %s"
	dryRunRemoveTemplateConstant = "[DRY-RUN] Would remove exclusion: %s"
)

// Backend audits one security product's exclusion or rule state.
//
// IsAvailable is a pure predicate over the runtime platform and must not
// attempt any mutation. Audit returns a self-contained snapshot; failures are
// captured inside the returned result and never abort sibling backends.
type Backend interface {
	Product() string
	IsAvailable() bool
	Audit(executionContext context.Context) model.AuditResult
}

// ExclusionMutator is the optional capability for backends that support
// automated exclusion changes. Both operations honor dry-run mode, in which
// no system state is touched and the returned message carries a simulation
// prefix.
type ExclusionMutator interface {
	AddExclusion(executionContext context.Context, path string, dryRun bool) (bool, string)
	RemoveExclusion(executionContext context.Context, path string, dryRun bool) (bool, string)
}

// PathExistenceChecker resolves whether filesystem targets referenced by
// exception records are currently present.
type PathExistenceChecker interface {
	PathExists(path string) bool
	IsFilePath(path string) bool
}

// OSPathChecker implements PathExistenceChecker against the live filesystem.
type OSPathChecker struct{}

// NewOSPathChecker constructs a checker backed by os.Stat.
func NewOSPathChecker() OSPathChecker {
	return OSPathChecker{}
}

// PathExists reports whether the path resolves on the filesystem.
func (OSPathChecker) PathExists(path string) bool {
	_, statError := os.Stat(path)
	return statError == nil
}

// IsFilePath reports whether the path resolves to a regular file.
func (OSPathChecker) IsFilePath(path string) bool {
	fileInformation, statError := os.Stat(path)
	if statError != nil {
		return false
	}
	return !fileInformation.IsDir()
}

// Clock abstracts time-dependent functionality for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

var windowsDrivePathPattern = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// isAbsolutePath recognizes both POSIX and Windows-drive absolute paths so
// audits of foreign-platform records behave identically everywhere.
func isAbsolutePath(path string) bool {
	if len(path) == 0 {
		return false
	}
	if path[0] == '/' || path[0] == '\\' {
		return true
	}
	return windowsDrivePathPattern.MatchString(path)
}

func unavailableResult(product string, auditTime time.Time, explanation string) model.AuditResult {
	auditResult := model.NewAuditResult(product, auditTime)
	auditResult.Errors = append(auditResult.Errors, explanation)
	return auditResult
}
