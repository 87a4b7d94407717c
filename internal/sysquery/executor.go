package sysquery

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

const (
	toolPowerShellStringConstant = "powershell"
	toolUFWStringConstant        = "ufw"
	toolIPTablesStringConstant   = "iptables"
	toolPSStringConstant         = "ps"
	toolSSStringConstant         = "ss"
	toolNetstatStringConstant    = "netstat"

	processRunnerNotConfiguredMessageConstant = "process runner not configured"
	commandStartedMessageConstant             = "system query started"
	commandCompletedMessageConstant           = "system query completed"
	commandFailedMessageConstant              = "system query failed"
	logFieldToolNameConstant                  = "tool_name"
	logFieldArgumentsConstant                 = "arguments"
	logFieldExitCodeConstant                  = "exit_code"
)

// ToolName identifies a supported system query executable.
type ToolName string

// Supported tool enumerations.
const (
	ToolPowerShell ToolName = ToolName(toolPowerShellStringConstant)
	ToolUFW        ToolName = ToolName(toolUFWStringConstant)
	ToolIPTables   ToolName = ToolName(toolIPTablesStringConstant)
	ToolPS         ToolName = ToolName(toolPSStringConstant)
	ToolSS         ToolName = ToolName(toolSSStringConstant)
	ToolNetstat    ToolName = ToolName(toolNetstatStringConstant)
)

// Command describes one system query invocation.
type Command struct {
	Tool      ToolName
	Arguments []string
	Timeout   time.Duration
}

// Result captures the observable output of executing a system query.
type Result struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// ProcessRunner represents the ability to run system query commands.
type ProcessRunner interface {
	Run(executionContext context.Context, command Command) (Result, error)
}

// OSProcessRunner executes commands using the operating system facilities.
type OSProcessRunner struct{}

// NewOSProcessRunner creates a runner backed by os/exec.
func NewOSProcessRunner() *OSProcessRunner {
	return &OSProcessRunner{}
}

// Run executes the supplied command using os/exec. A non-zero exit status is
// reported through Result.ExitCode rather than as an error.
func (runner *OSProcessRunner) Run(executionContext context.Context, command Command) (Result, error) {
	commandArguments := append([]string{}, command.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Tool), commandArguments...)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	runError := executable.Run()
	if runError != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return Result{}, contextError
		}

		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return Result{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return Result{}, runError
	}

	return Result{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       0,
	}, nil
}

// Executor coordinates system query construction, timeouts, and execution logging.
type Executor struct {
	processRunner ProcessRunner
	logger        *zap.Logger
}

// NewExecutor builds an Executor around the provided runner and logger.
func NewExecutor(processRunner ProcessRunner, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{processRunner: processRunner, logger: logger}
}

// Execute runs the command with its configured timeout applied to the context.
func (executor *Executor) Execute(executionContext context.Context, command Command) (Result, error) {
	if executor.processRunner == nil {
		return Result{}, errors.New(processRunnerNotConfiguredMessageConstant)
	}

	if command.Timeout > 0 {
		timeoutContext, cancelFunction := context.WithTimeout(executionContext, command.Timeout)
		defer cancelFunction()
		executionContext = timeoutContext
	}

	executor.logger.Debug(
		commandStartedMessageConstant,
		zap.String(logFieldToolNameConstant, string(command.Tool)),
		zap.Strings(logFieldArgumentsConstant, command.Arguments),
	)

	executionResult, executionError := executor.processRunner.Run(executionContext, command)
	if executionError != nil {
		executor.logger.Debug(
			commandFailedMessageConstant,
			zap.String(logFieldToolNameConstant, string(command.Tool)),
			zap.Error(executionError),
		)
		return executionResult, executionError
	}

	executor.logger.Debug(
		commandCompletedMessageConstant,
		zap.String(logFieldToolNameConstant, string(command.Tool)),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
	)

	return executionResult, nil
}

// ExecutePowerShell runs a PowerShell command string with the supplied timeout.
func (executor *Executor) ExecutePowerShell(executionContext context.Context, commandText string, timeout time.Duration) (Result, error) {
	powerShellCommand := Command{
		Tool:      ToolPowerShell,
		Arguments: []string{powerShellCommandFlagConstant, commandText},
		Timeout:   timeout,
	}
	return executor.Execute(executionContext, powerShellCommand)
}

const powerShellCommandFlagConstant = "-Command"
