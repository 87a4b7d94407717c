package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/secaudit/internal/auditor"
	"github.com/temirov/secaudit/internal/backends"
	"github.com/temirov/secaudit/internal/model"
)

const (
	testProductNameConstant = "defender"
)

type stubBackend struct {
	product   string
	available bool
	result    model.AuditResult
}

func (backend *stubBackend) Product() string {
	return backend.product
}

func (backend *stubBackend) IsAvailable() bool {
	return backend.available
}

func (backend *stubBackend) Audit(context.Context) model.AuditResult {
	return backend.result
}

type fixedClock struct {
	instant time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.instant
}

func newStubApplication(auditBackends []backends.Backend) *Application {
	application := NewApplication()
	application.serviceProvider = func(registryEntries []model.KnownToolEntry, logger *zap.Logger) *auditor.Service {
		return auditor.NewService(auditor.Options{
			Platform: backends.PlatformWindows,
			Clock:    fixedClock{instant: time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)},
			Logger:   logger,
			Registry: registryEntries,
			Backends: auditBackends,
		})
	}
	return application
}

func TestApplicationRegistersExpectedSubcommands(testInstance *testing.T) {
	application := NewApplication()

	expectedCommandNames := []string{"audit", "recommend", "check", "cleanup", "products"}
	registeredCommandNames := map[string]bool{}
	for _, registeredCommand := range application.rootCommand.Commands() {
		registeredCommandNames[registeredCommand.Name()] = true
	}

	for _, expectedCommandName := range expectedCommandNames {
		require.True(testInstance, registeredCommandNames[expectedCommandName], expectedCommandName)
	}
}

func TestApplicationExecutesProductsSubcommand(testInstance *testing.T) {
	auditTime := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	application := newStubApplication([]backends.Backend{
		&stubBackend{product: testProductNameConstant, available: true, result: model.NewAuditResult(testProductNameConstant, auditTime)},
	})

	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(outputBuffer)
	application.rootCommand.SetArgs([]string{"products"})

	executionError := application.Execute()
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, outputBuffer.String(), testProductNameConstant)
}

func TestApplicationAuditFailsWithoutAvailableBackends(testInstance *testing.T) {
	application := newStubApplication([]backends.Backend{
		&stubBackend{product: testProductNameConstant, available: false},
	})

	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(outputBuffer)
	application.rootCommand.SetArgs([]string{"audit"})

	executionError := application.Execute()
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "no security product backends")
}

func TestApplicationRejectsUnknownLogLevel(testInstance *testing.T) {
	application := NewApplication()

	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(outputBuffer)
	application.rootCommand.SetArgs([]string{"products", "--log-level", "verbose"})

	executionError := application.Execute()
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "unsupported log level")
}
