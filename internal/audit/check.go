package audit

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/secaudit/internal/utils/flags"
)

const (
	checkCommandNameConstant             = "check"
	checkCommandShortDescriptionConstant = "Check whether a process is running or a port is listening"
	checkCommandLongDescriptionConstant  = "Probes the live system for a named process or a listening port so exception recommendations can be validated against what is actually running."
	checkMissingTargetMessageConstant    = "either --process or --port must be provided"
	processRunningTemplateConstant       = "Process %q: RUNNING\n"
	processNotRunningTemplateConstant    = "Process %q: NOT RUNNING\n"
	portInUseTemplateConstant            = "Port %d: IN USE\n"
	portFreeTemplateConstant             = "Port %d: FREE\n"
)

// CheckCommandBuilder assembles the check cobra command.
type CheckCommandBuilder struct {
	LoggerProvider  LoggerProvider
	ServiceProvider ServiceProvider
}

type processCheckResult struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
}

type portCheckResult struct {
	Number int  `json:"number"`
	InUse  bool `json:"in_use"`
}

type checkReport struct {
	Process *processCheckResult `json:"process,omitempty"`
	Port    *portCheckResult    `json:"port,omitempty"`
}

// Build constructs the cobra command for process and port checks.
func (builder *CheckCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   checkCommandNameConstant,
		Short: checkCommandShortDescriptionConstant,
		Long:  checkCommandLongDescriptionConstant,
	}

	formatFlagValues := flags.BindFormatFlag(command, FormatText, flags.FormatFlagDefinition{
		Choices: []string{FormatText, FormatJSON},
		Usage:   formatFlagUsageConstant,
		Enabled: true,
	})
	command.Flags().String(flags.ProcessFlagName, "", flags.ProcessFlagUsage)
	command.Flags().Int(flags.PortFlagName, 0, flags.PortFlagUsage)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, formatFlagValues.Format)
	}

	return command, nil
}

func (builder *CheckCommandBuilder) run(command *cobra.Command, selectedFormat string) error {
	if selectedFormat != FormatText && selectedFormat != FormatJSON {
		return fmt.Errorf(unsupportedFormatTemplateConstant, selectedFormat)
	}

	processName, _ := command.Flags().GetString(flags.ProcessFlagName)
	portNumber, _ := command.Flags().GetInt(flags.PortFlagName)

	processRequested := command.Flags().Changed(flags.ProcessFlagName)
	portRequested := command.Flags().Changed(flags.PortFlagName)
	if !processRequested && !portRequested {
		return errors.New(checkMissingTargetMessageConstant)
	}

	logger := resolveLogger(builder.LoggerProvider)
	service := resolveService(builder.ServiceProvider, nil, logger)

	checkOutcome := checkReport{}
	if processRequested {
		checkOutcome.Process = &processCheckResult{
			Name:    processName,
			Running: service.ProcessRunning(command.Context(), processName),
		}
	}
	if portRequested {
		checkOutcome.Port = &portCheckResult{
			Number: portNumber,
			InUse:  service.PortInUse(command.Context(), portNumber),
		}
	}

	if selectedFormat == FormatJSON {
		renderedOutcome, renderError := json.MarshalIndent(checkOutcome, "", recommendJSONIndentConstant)
		if renderError != nil {
			return renderError
		}
		return writeReport(command, "", append(renderedOutcome, newlineConstant...))
	}

	outputWriter := command.OutOrStdout()
	if checkOutcome.Process != nil {
		statusTemplate := processNotRunningTemplateConstant
		if checkOutcome.Process.Running {
			statusTemplate = processRunningTemplateConstant
		}
		fmt.Fprintf(outputWriter, statusTemplate, checkOutcome.Process.Name)
	}
	if checkOutcome.Port != nil {
		statusTemplate := portFreeTemplateConstant
		if checkOutcome.Port.InUse {
			statusTemplate = portInUseTemplateConstant
		}
		fmt.Fprintf(outputWriter, statusTemplate, checkOutcome.Port.Number)
	}

	return nil
}
