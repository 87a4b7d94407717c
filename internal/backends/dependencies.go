package backends

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/temirov/secaudit/internal/sysquery"
)

// Dependencies bundles the collaborators shared by every backend so tests can
// substitute stub implementations.
type Dependencies struct {
	Executor    *sysquery.Executor
	PathChecker PathExistenceChecker
	Platform    string
	Clock       Clock
	Logger      *zap.Logger
}

// sanitize fills unset collaborators with live-system defaults.
func (dependencies Dependencies) sanitize() Dependencies {
	sanitized := dependencies

	if sanitized.Logger == nil {
		sanitized.Logger = zap.NewNop()
	}
	if sanitized.Executor == nil {
		sanitized.Executor = sysquery.NewExecutor(sysquery.NewOSProcessRunner(), sanitized.Logger)
	}
	if sanitized.PathChecker == nil {
		sanitized.PathChecker = NewOSPathChecker()
	}
	if len(sanitized.Platform) == 0 {
		sanitized.Platform = runtime.GOOS
	}
	if sanitized.Clock == nil {
		sanitized.Clock = SystemClock{}
	}

	return sanitized
}
