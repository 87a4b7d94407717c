package reconcile

import (
	"sort"
	"strings"

	"github.com/temirov/secaudit/internal/model"
)

const (
	pathSeparatorsConstant  = `\/`
	forwardSlashConstant    = "/"
	backslashConstant       = `\`
	windowsDriveSuffixConst = ":"
)

// PathExistenceChecker resolves whether registry candidate paths are present
// on the local filesystem.
type PathExistenceChecker interface {
	PathExists(path string) bool
}

// Outcome carries the classification produced by GenerateRecommendations.
//
// Every (tool, path) pair appears in Recommendations; Missing holds the
// actionable subset (uncovered paths that exist on disk) and AlreadyCovered
// the subset matched by an existing exclusion. A non-existing uncovered path
// appears only in Recommendations since nothing about it is actionable.
type Outcome struct {
	Recommendations []model.RecommendationItem `json:"recommendations"`
	Missing         []model.RecommendationItem `json:"missing"`
	AlreadyCovered  []model.RecommendationItem `json:"already_covered"`
}

// Reconciler computes coverage, missing, and stale sets from audit results.
// The registry is an explicit immutable value supplied at construction.
type Reconciler struct {
	registry    []model.KnownToolEntry
	pathChecker PathExistenceChecker
}

// NewReconciler constructs a Reconciler over the supplied registry. The
// registry slice is copied and sorted by key so outputs are deterministic
// regardless of input ordering.
func NewReconciler(registry []model.KnownToolEntry, pathChecker PathExistenceChecker) *Reconciler {
	sortedRegistry := make([]model.KnownToolEntry, len(registry))
	copy(sortedRegistry, registry)
	sort.SliceStable(sortedRegistry, func(firstIndex int, secondIndex int) bool {
		return sortedRegistry[firstIndex].Key < sortedRegistry[secondIndex].Key
	})

	return &Reconciler{registry: sortedRegistry, pathChecker: pathChecker}
}

// ComputeCurrentPathIndex returns the lower-cased union of every audited
// exception path plus every ancestor directory of those paths. The index is
// the "already exempted" universe used for coverage decisions.
func (reconciler *Reconciler) ComputeCurrentPathIndex(results []model.AuditResult) map[string]struct{} {
	pathIndex := map[string]struct{}{}

	for resultIndex := range results {
		for _, exceptionRecord := range results[resultIndex].Exceptions {
			normalizedPath := normalizePath(exceptionRecord.Path)
			if len(normalizedPath) == 0 {
				continue
			}
			pathIndex[normalizedPath] = struct{}{}

			for _, ancestorPath := range ancestorDirectories(normalizedPath) {
				pathIndex[ancestorPath] = struct{}{}
			}
		}
	}

	return pathIndex
}

// GenerateRecommendations evaluates every (tool, path) pair in the registry
// against the current path index and classifies the results.
func (reconciler *Reconciler) GenerateRecommendations(results []model.AuditResult) Outcome {
	outcome := Outcome{
		Recommendations: []model.RecommendationItem{},
		Missing:         []model.RecommendationItem{},
		AlreadyCovered:  []model.RecommendationItem{},
	}

	pathIndex := reconciler.ComputeCurrentPathIndex(results)

	for _, registryEntry := range reconciler.registry {
		for _, candidatePath := range registryEntry.Paths {
			candidateCovered := isCovered(candidatePath, pathIndex)
			candidateExists := false
			if reconciler.pathChecker != nil {
				candidateExists = reconciler.pathChecker.PathExists(trimTrailingSeparators(candidatePath))
			}

			recommendationItem := model.RecommendationItem{
				ToolName:   registryEntry.DisplayName,
				Path:       candidatePath,
				PathExists: candidateExists,
				Reason:     registryEntry.Reason,
				Category:   registryEntry.Category,
				IsCovered:  candidateCovered,
				Ports:      registryEntry.Ports,
			}

			outcome.Recommendations = append(outcome.Recommendations, recommendationItem)

			switch {
			case !candidateCovered && candidateExists:
				outcome.Missing = append(outcome.Missing, recommendationItem)
			case candidateCovered:
				outcome.AlreadyCovered = append(outcome.AlreadyCovered, recommendationItem)
			}
		}
	}

	return outcome
}

// FindStale returns every audited exception whose target no longer exists,
// concatenated in backend-iteration order. Identical inputs always yield an
// identical sequence.
func (reconciler *Reconciler) FindStale(results []model.AuditResult) []model.ExceptionRecord {
	staleRecords := []model.ExceptionRecord{}

	for resultIndex := range results {
		for _, exceptionRecord := range results[resultIndex].Exceptions {
			if !exceptionRecord.Exists {
				staleRecords = append(staleRecords, exceptionRecord)
			}
		}
	}

	return staleRecords
}

// isCovered applies the bidirectional prefix containment rule: a broader
// existing exclusion covers a narrower candidate, and a narrower existing
// exclusion is treated as covering a broader candidate too.
func isCovered(candidatePath string, pathIndex map[string]struct{}) bool {
	normalizedCandidate := normalizePath(candidatePath)
	if len(normalizedCandidate) == 0 {
		return false
	}

	for indexedPath := range pathIndex {
		if strings.HasPrefix(normalizedCandidate, indexedPath) || strings.HasPrefix(indexedPath, normalizedCandidate) {
			return true
		}
	}

	return false
}

// normalizePath lower-cases a path and strips trailing separators so
// comparisons are case- and trailing-separator-insensitive.
func normalizePath(rawPath string) string {
	return strings.ToLower(trimTrailingSeparators(rawPath))
}

func trimTrailingSeparators(rawPath string) string {
	return strings.TrimRight(rawPath, pathSeparatorsConstant)
}

// ancestorDirectories yields every parent directory of the normalized path by
// repeated truncation at either separator style, stopping at the filesystem
// root or drive designator.
func ancestorDirectories(normalizedPath string) []string {
	ancestors := []string{}
	currentPath := normalizedPath

	for {
		separatorIndex := strings.LastIndexAny(currentPath, pathSeparatorsConstant)
		if separatorIndex <= 0 {
			if separatorIndex == 0 && len(currentPath) > 1 {
				// A POSIX path directly under the root.
				ancestors = append(ancestors, forwardSlashConstant)
			}
			break
		}

		parentPath := currentPath[:separatorIndex]
		if strings.HasSuffix(parentPath, windowsDriveSuffixConst) {
			// Keep the drive root in X:\ form rather than bare X:.
			ancestors = append(ancestors, parentPath+backslashConstant)
			break
		}

		ancestors = append(ancestors, parentPath)
		currentPath = parentPath
	}

	return ancestors
}
