package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/secaudit/internal/audit"
	"github.com/temirov/secaudit/internal/auditor"
	"github.com/temirov/secaudit/internal/backends"
	"github.com/temirov/secaudit/internal/model"
	"github.com/temirov/secaudit/internal/report"
	"github.com/temirov/secaudit/internal/sysquery"
	"github.com/temirov/secaudit/internal/utils"
)

const (
	stubProductNameConstant = "defender"
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

func buildStubServiceProvider(auditBackends []backends.Backend) audit.ServiceProvider {
	return func(registryEntries []model.KnownToolEntry, logger *zap.Logger) *auditor.Service {
		return auditor.NewService(auditor.Options{
			Platform: backends.PlatformWindows,
			Clock:    fixedClock{instant: time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)},
			Logger:   logger,
			Registry: registryEntries,
			Backends: auditBackends,
		})
	}
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments []string) (string, error) {
	testInstance.Helper()

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	command.SetArgs(arguments)
	command.SetContext(context.Background())

	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func TestProductsCommandListsAvailableBackends(testInstance *testing.T) {
	builder := audit.ProductsCommandBuilder{
		ServiceProvider: buildStubServiceProvider([]backends.Backend{
			&stubBackend{product: stubProductNameConstant, available: true},
			&stubBackend{product: "bitdefender", available: false},
		}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	commandOutput, executionError := executeCommand(testInstance, command, nil)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "defender\n", commandOutput)
}

func TestProductsCommandReportsEmptyPlatform(testInstance *testing.T) {
	builder := audit.ProductsCommandBuilder{
		ServiceProvider: buildStubServiceProvider([]backends.Backend{}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	commandOutput, executionError := executeCommand(testInstance, command, nil)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, commandOutput, "No security products are available")
}

func TestAuditCommandRendersJSONReport(testInstance *testing.T) {
	auditTime := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	stubResult := model.NewAuditResult(stubProductNameConstant, auditTime)
	stubResult.Exceptions = []model.ExceptionRecord{
		{Path: `C:\Tools\cli.exe`, Kind: model.ExceptionKindPath, Product: stubProductNameConstant, Exists: true},
		{Path: `C:\Gone\old.exe`, Kind: model.ExceptionKindPath, Product: stubProductNameConstant, Exists: false},
	}

	builder := audit.CommandBuilder{
		ServiceProvider: buildStubServiceProvider([]backends.Backend{
			&stubBackend{product: stubProductNameConstant, available: true, result: stubResult},
		}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	commandOutput, executionError := executeCommand(testInstance, command, []string{"--format", "json"})
	require.NoError(testInstance, executionError)

	decodedDocument, decodeError := report.DecodeJSON([]byte(commandOutput))
	require.NoError(testInstance, decodeError)
	require.Equal(testInstance, 2, decodedDocument.Summary.TotalExceptions)
	require.Equal(testInstance, 1, decodedDocument.Summary.StaleExceptions)
	require.Equal(testInstance, []string{stubProductNameConstant}, decodedDocument.Summary.ProductsAudited)
	require.Nil(testInstance, decodedDocument.Recommendations)
}

type flushRecordingWriter struct {
	buffer     bytes.Buffer
	flushCount int
}

func (writer *flushRecordingWriter) Write(data []byte) (int, error) {
	return writer.buffer.Write(data)
}

func (writer *flushRecordingWriter) Flush() error {
	writer.flushCount++
	return nil
}

func TestAuditCommandFlushesStandardOutput(testInstance *testing.T) {
	auditTime := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	stubResult := model.NewAuditResult(stubProductNameConstant, auditTime)

	builder := audit.CommandBuilder{
		ServiceProvider: buildStubServiceProvider([]backends.Backend{
			&stubBackend{product: stubProductNameConstant, available: true, result: stubResult},
		}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	recordingWriter := &flushRecordingWriter{}
	command.SetOut(recordingWriter)
	command.SetErr(recordingWriter)
	command.SetArgs([]string{"--format", "json"})
	command.SetContext(context.Background())

	require.NoError(testInstance, command.Execute())
	require.Positive(testInstance, recordingWriter.flushCount)
	require.NotEmpty(testInstance, recordingWriter.buffer.String())
}

func TestAuditCommandLogsConfigurationFileFromContext(testInstance *testing.T) {
	auditTime := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	stubResult := model.NewAuditResult(stubProductNameConstant, auditTime)

	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	builder := audit.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return zap.New(observedCore)
		},
		ServiceProvider: buildStubServiceProvider([]backends.Backend{
			&stubBackend{product: stubProductNameConstant, available: true, result: stubResult},
		}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	command.SetArgs([]string{"--format", "json"})
	command.SetContext(utils.NewCommandContextAccessor().WithConfigurationFilePath(context.Background(), "/etc/secaudit/config.yaml"))

	require.NoError(testInstance, command.Execute())

	startedEntries := observedLogs.FilterMessage("audit started").All()
	require.Len(testInstance, startedEntries, 1)
	require.Equal(testInstance, "/etc/secaudit/config.yaml", startedEntries[0].ContextMap()["configuration_file"])
}

func TestAuditCommandIncludesRecommendationsWhenRequested(testInstance *testing.T) {
	auditTime := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	stubResult := model.NewAuditResult(stubProductNameConstant, auditTime)

	builder := audit.CommandBuilder{
		ConfigurationProvider: func() audit.CommandConfiguration {
			return audit.CommandConfiguration{Format: audit.FormatJSON}
		},
		ServiceProvider: buildStubServiceProvider([]backends.Backend{
			&stubBackend{product: stubProductNameConstant, available: true, result: stubResult},
		}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	commandOutput, executionError := executeCommand(testInstance, command, []string{"--recommend"})
	require.NoError(testInstance, executionError)

	decodedDocument, decodeError := report.DecodeJSON([]byte(commandOutput))
	require.NoError(testInstance, decodeError)
	require.NotNil(testInstance, decodedDocument.Recommendations)
}

func TestAuditCommandFailsWithoutBackends(testInstance *testing.T) {
	builder := audit.CommandBuilder{
		ServiceProvider: buildStubServiceProvider([]backends.Backend{}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	_, executionError := executeCommand(testInstance, command, nil)
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "no security product backends")
}

func TestAuditCommandRejectsUnknownFormat(testInstance *testing.T) {
	builder := audit.CommandBuilder{
		ServiceProvider: buildStubServiceProvider([]backends.Backend{
			&stubBackend{product: stubProductNameConstant, available: true},
		}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	_, executionError := executeCommand(testInstance, command, []string{"--format", "xml"})
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "unsupported report format")
}

func TestCheckCommandRequiresTarget(testInstance *testing.T) {
	builder := audit.CheckCommandBuilder{
		ServiceProvider: buildStubServiceProvider([]backends.Backend{}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	_, executionError := executeCommand(testInstance, command, nil)
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "--process or --port")
}

type stubProcessRunner struct {
	outputsByCommand map[string]string
}

func (runner stubProcessRunner) Run(_ context.Context, command sysquery.Command) (sysquery.Result, error) {
	commandKey := string(command.Tool)
	for _, argument := range command.Arguments {
		commandKey += " " + argument
	}
	return sysquery.Result{StandardOutput: runner.outputsByCommand[commandKey]}, nil
}

func TestCheckCommandReportsProcessAndPort(testInstance *testing.T) {
	processRunner := stubProcessRunner{outputsByCommand: map[string]string{
		"ps aux": "USER PID %CPU %MEM VSZ RSS TTY STAT START TIME COMMAND\n" +
			"dev 42 0.0 0.1 1000 200 ? S 09:00 0:00 /usr/local/bin/uvicorn app:main\n",
		"ss -tuln": "Netid State Recv-Q Send-Q Local Address:Port Peer Address:Port\n" +
			"tcp LISTEN 0 128 0.0.0.0:8000 0.0.0.0:*\n",
	}}

	builder := audit.CheckCommandBuilder{
		ServiceProvider: func(registryEntries []model.KnownToolEntry, logger *zap.Logger) *auditor.Service {
			return auditor.NewService(auditor.Options{
				Platform: backends.PlatformLinux,
				Executor: sysquery.NewExecutor(processRunner, logger),
				Backends: []backends.Backend{},
				Registry: []model.KnownToolEntry{},
			})
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	commandOutput, executionError := executeCommand(testInstance, command, []string{"--process", "uvicorn", "--port", "9000"})
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, commandOutput, `Process "uvicorn": RUNNING`)
	require.Contains(testInstance, commandOutput, "Port 9000: FREE")
}

func TestCheckCommandRendersJSON(testInstance *testing.T) {
	processRunner := stubProcessRunner{outputsByCommand: map[string]string{}}

	builder := audit.CheckCommandBuilder{
		ServiceProvider: func(registryEntries []model.KnownToolEntry, logger *zap.Logger) *auditor.Service {
			return auditor.NewService(auditor.Options{
				Platform: backends.PlatformLinux,
				Executor: sysquery.NewExecutor(processRunner, logger),
				Backends: []backends.Backend{},
				Registry: []model.KnownToolEntry{},
			})
		},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	commandOutput, executionError := executeCommand(testInstance, command, []string{"--port", "8000", "--format", "json"})
	require.NoError(testInstance, executionError)

	decodedCheck := map[string]map[string]any{}
	require.NoError(testInstance, json.Unmarshal([]byte(commandOutput), &decodedCheck))
	require.Contains(testInstance, decodedCheck, "port")
	require.Equal(testInstance, false, decodedCheck["port"]["in_use"])
}

func TestCleanupCommandReportsNoStaleExceptions(testInstance *testing.T) {
	auditTime := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	stubResult := model.NewAuditResult(stubProductNameConstant, auditTime)
	stubResult.Exceptions = []model.ExceptionRecord{
		{Path: `C:\Tools\cli.exe`, Kind: model.ExceptionKindPath, Product: stubProductNameConstant, Exists: true},
	}

	builder := audit.CleanupCommandBuilder{
		ServiceProvider: buildStubServiceProvider([]backends.Backend{
			&stubBackend{product: stubProductNameConstant, available: true, result: stubResult},
		}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	commandOutput, executionError := executeCommand(testInstance, command, nil)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, commandOutput, "No stale exceptions found.")
}

func TestCleanupCommandReportsManualRemoval(testInstance *testing.T) {
	auditTime := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	stubResult := model.NewAuditResult(stubProductNameConstant, auditTime)
	stubResult.Exceptions = []model.ExceptionRecord{
		{Path: `C:\Gone\old.exe`, Kind: model.ExceptionKindPath, Product: stubProductNameConstant, Exists: false},
	}

	builder := audit.CleanupCommandBuilder{
		ServiceProvider: buildStubServiceProvider([]backends.Backend{
			&stubBackend{product: stubProductNameConstant, available: true, result: stubResult},
		}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	commandOutput, executionError := executeCommand(testInstance, command, []string{"--apply"})
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, commandOutput, "Manual removal required")
	require.Contains(testInstance, commandOutput, "1 stale exception(s) processed.")
}

func TestRecommendCommandRendersOutcomeJSON(testInstance *testing.T) {
	auditTime := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	stubResult := model.NewAuditResult(stubProductNameConstant, auditTime)

	builder := audit.RecommendCommandBuilder{
		ServiceProvider: buildStubServiceProvider([]backends.Backend{
			&stubBackend{product: stubProductNameConstant, available: true, result: stubResult},
		}),
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	commandOutput, executionError := executeCommand(testInstance, command, []string{"--format", "json"})
	require.NoError(testInstance, executionError)

	decodedOutcome := map[string]any{}
	require.NoError(testInstance, json.Unmarshal([]byte(commandOutput), &decodedOutcome))
	require.Contains(testInstance, decodedOutcome, "missing")
	require.Contains(testInstance, decodedOutcome, "already_covered")
}
