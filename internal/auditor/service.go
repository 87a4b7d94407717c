package auditor

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/secaudit/internal/backends"
	"github.com/temirov/secaudit/internal/model"
	"github.com/temirov/secaudit/internal/probe"
	"github.com/temirov/secaudit/internal/reconcile"
	"github.com/temirov/secaudit/internal/registry"
	"github.com/temirov/secaudit/internal/report"
	"github.com/temirov/secaudit/internal/sysquery"
)

const (
	unknownProductTemplateConstant        = "Unknown product: %s"
	manualRemovalRequiredTemplateConstant = "Manual removal required for %s exception: %s"
	auditStartedMessageConstant           = "audit started"
	auditCompletedMessageConstant         = "audit completed"
	productLogFieldNameConstant           = "product"
	exceptionCountLogFieldNameConstant    = "exception_count"
)

// Options configures a Service; zero-value fields default to live collaborators.
type Options struct {
	Executor    *sysquery.Executor
	PathChecker backends.PathExistenceChecker
	Platform    string
	Clock       backends.Clock
	Logger      *zap.Logger
	Registry    []model.KnownToolEntry
	Backends    []backends.Backend
}

// Service coordinates every audit operation exposed through the command surface.
type Service struct {
	auditBackends []backends.Backend
	pathChecker   backends.PathExistenceChecker
	platform      string
	clock         backends.Clock
	logger        *zap.Logger
	toolRegistry  []model.KnownToolEntry
	systemProbe   *probe.Probe
}

// NewService builds a Service from the supplied options. When no backend set
// is given, the platform's default backends are registered.
func NewService(options Options) *Service {
	if options.Platform == "" {
		options.Platform = runtime.GOOS
	}
	if options.Executor == nil {
		options.Executor = sysquery.NewExecutor(sysquery.NewOSProcessRunner(), options.Logger)
	}
	if options.PathChecker == nil {
		options.PathChecker = backends.NewOSPathChecker()
	}
	if options.Clock == nil {
		options.Clock = backends.SystemClock{}
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Registry == nil {
		options.Registry = registry.Default()
	}
	if options.Backends == nil {
		options.Backends = defaultBackends(options)
	}

	return &Service{
		auditBackends: options.Backends,
		pathChecker:   options.PathChecker,
		platform:      options.Platform,
		clock:         options.Clock,
		logger:        options.Logger,
		toolRegistry:  options.Registry,
		systemProbe:   probe.NewProbe(options.Executor, options.Platform),
	}
}

func defaultBackends(options Options) []backends.Backend {
	backendDependencies := backends.Dependencies{
		Executor:    options.Executor,
		PathChecker: options.PathChecker,
		Platform:    options.Platform,
		Clock:       options.Clock,
		Logger:      options.Logger,
	}

	return []backends.Backend{
		backends.NewDefenderBackend(backendDependencies),
		backends.NewBitdefenderBackend(backendDependencies, nil),
		backends.NewWindowsFirewallBackend(backendDependencies),
		backends.NewLinuxFirewallBackend(backendDependencies),
	}
}

// AvailableProducts lists the products whose backends report availability on
// the current platform, in registration order.
func (service *Service) AvailableProducts() []string {
	availableProducts := []string{}
	for _, auditBackend := range service.auditBackends {
		if auditBackend.IsAvailable() {
			availableProducts = append(availableProducts, auditBackend.Product())
		}
	}
	return availableProducts
}

// Audit runs the selected backends concurrently and returns one result per
// requested product, in request order. An empty selection audits every
// available backend. Unknown products yield an error-carrying result instead
// of aborting the run.
func (service *Service) Audit(executionContext context.Context, products []string) []model.AuditResult {
	if len(products) == 0 {
		products = service.AvailableProducts()
	}

	auditResults := make([]model.AuditResult, len(products))
	auditGroup, groupContext := errgroup.WithContext(executionContext)

	for productIndex, productName := range products {
		resultIndex := productIndex
		requestedProduct := productName
		auditGroup.Go(func() error {
			auditResults[resultIndex] = service.auditProduct(groupContext, requestedProduct)
			return nil
		})
	}

	_ = auditGroup.Wait()
	return auditResults
}

func (service *Service) auditProduct(executionContext context.Context, productName string) model.AuditResult {
	auditBackend := service.findBackend(productName)
	if auditBackend == nil {
		unknownResult := model.NewAuditResult(productName, service.clock.Now())
		unknownResult.Errors = append(unknownResult.Errors, fmt.Sprintf(unknownProductTemplateConstant, productName))
		return unknownResult
	}

	service.logger.Debug(auditStartedMessageConstant, zap.String(productLogFieldNameConstant, productName))
	auditResult := auditBackend.Audit(executionContext)
	service.logger.Debug(auditCompletedMessageConstant,
		zap.String(productLogFieldNameConstant, productName),
		zap.Int(exceptionCountLogFieldNameConstant, auditResult.TotalCount()),
	)
	return auditResult
}

func (service *Service) findBackend(productName string) backends.Backend {
	for _, auditBackend := range service.auditBackends {
		if auditBackend.Product() == productName {
			return auditBackend
		}
	}
	return nil
}

// GenerateRecommendations reconciles audit results against the known-tool
// registry.
func (service *Service) GenerateRecommendations(results []model.AuditResult) reconcile.Outcome {
	return reconcile.NewReconciler(service.toolRegistry, service.pathChecker).GenerateRecommendations(results)
}

// FindStale collects the exception records whose targets no longer exist.
func (service *Service) FindStale(results []model.AuditResult) []model.ExceptionRecord {
	return reconcile.NewReconciler(service.toolRegistry, service.pathChecker).FindStale(results)
}

// ProcessRunning reports whether a process matching the name is currently
// running.
func (service *Service) ProcessRunning(executionContext context.Context, processName string) bool {
	return service.systemProbe.ProcessRunning(executionContext, processName)
}

// PortInUse reports whether the port appears in the listening snapshot.
func (service *Service) PortInUse(executionContext context.Context, portNumber int) bool {
	return service.systemProbe.PortInUse(executionContext, portNumber)
}

// BuildMetadata stamps a fresh report metadata block for the current run.
func (service *Service) BuildMetadata() report.Metadata {
	return report.Metadata{
		GeneratedAt: service.clock.Now(),
		Platform:    service.platform,
		ToolVersion: report.ToolVersion,
		RunID:       uuid.NewString(),
	}
}

// CleanupAction records the outcome of one stale-exception removal attempt.
type CleanupAction struct {
	Product string `json:"product"`
	Path    string `json:"path"`
	Success bool   `json:"success"`
	Applied bool   `json:"applied"`
	Message string `json:"message"`
}

// Cleanup audits the requested products, finds stale exceptions, and removes
// them through backends that support mutation. When apply is false every
// removal runs in dry-run mode. Mutations against a single backend are
// serialized and each target path is removed at most once per call.
func (service *Service) Cleanup(executionContext context.Context, products []string, apply bool) []CleanupAction {
	auditResults := service.Audit(executionContext, products)
	staleRecords := service.FindStale(auditResults)

	staleByProduct := map[string][]model.ExceptionRecord{}
	productOrder := []string{}
	for _, staleRecord := range staleRecords {
		if _, productSeen := staleByProduct[staleRecord.Product]; !productSeen {
			productOrder = append(productOrder, staleRecord.Product)
		}
		staleByProduct[staleRecord.Product] = append(staleByProduct[staleRecord.Product], staleRecord)
	}
	sort.Strings(productOrder)

	cleanupActions := []CleanupAction{}
	for _, productName := range productOrder {
		auditBackend := service.findBackend(productName)
		exclusionMutator, supportsMutation := auditBackend.(backends.ExclusionMutator)

		processedPaths := map[string]bool{}
		for _, staleRecord := range staleByProduct[productName] {
			if processedPaths[staleRecord.Path] {
				continue
			}
			processedPaths[staleRecord.Path] = true

			cleanupAction := CleanupAction{Product: productName, Path: staleRecord.Path, Applied: apply}

			if !supportsMutation {
				cleanupAction.Message = fmt.Sprintf(manualRemovalRequiredTemplateConstant, productName, staleRecord.Path)
				cleanupAction.Applied = false
				cleanupActions = append(cleanupActions, cleanupAction)
				continue
			}

			removalSucceeded, removalMessage := exclusionMutator.RemoveExclusion(executionContext, staleRecord.Path, !apply)
			cleanupAction.Success = removalSucceeded
			cleanupAction.Message = removalMessage
			cleanupActions = append(cleanupActions, cleanupAction)
		}
	}

	return cleanupActions
}
