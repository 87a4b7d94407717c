package audit

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/secaudit/internal/report"
	"github.com/temirov/secaudit/internal/utils/flags"
)

const (
	recommendCommandNameConstant             = "recommend"
	recommendCommandShortDescriptionConstant = "Reconcile current exceptions against the known developer-tool registry"
	recommendCommandLongDescriptionConstant  = "Audits every available backend, compares the collected exclusions with the known-tool registry, and reports which tool paths are missing coverage and which are already covered."
	recommendJSONIndentConstant              = "  "
)

// RecommendCommandBuilder assembles the recommend cobra command.
type RecommendCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceProvider       ServiceProvider
}

// Build constructs the cobra command for registry reconciliation.
func (builder *RecommendCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   recommendCommandNameConstant,
		Short: recommendCommandShortDescriptionConstant,
		Long:  recommendCommandLongDescriptionConstant,
	}

	formatFlagValues := flags.BindFormatFlag(command, FormatMarkdown, flags.FormatFlagDefinition{
		Choices: []string{FormatMarkdown, FormatJSON},
		Usage:   formatFlagUsageConstant,
		Enabled: true,
	})
	command.Flags().String(flags.RegistryFlagName, "", flags.RegistryFlagUsage)
	command.Flags().String(flags.OutputFlagName, "", flags.OutputFlagUsage)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, formatFlagValues.Format)
	}

	return command, nil
}

func (builder *RecommendCommandBuilder) run(command *cobra.Command, flagFormat string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)

	selectedFormat := configuration.Format
	if command.Flags().Changed(flags.FormatFlagName) {
		selectedFormat = flagFormat
	}
	if selectedFormat != FormatMarkdown && selectedFormat != FormatJSON {
		return fmt.Errorf(unsupportedFormatTemplateConstant, selectedFormat)
	}

	registryFilePath := configuration.RegistryFile
	if command.Flags().Changed(flags.RegistryFlagName) {
		registryFilePath, _ = command.Flags().GetString(flags.RegistryFlagName)
	}

	registryEntries, registryError := resolveRegistryEntries(registryFilePath)
	if registryError != nil {
		return fmt.Errorf(registryLoadErrorTemplateConstant, registryError)
	}

	logger := resolveLogger(builder.LoggerProvider)
	service := resolveService(builder.ServiceProvider, registryEntries, logger)

	if len(service.AvailableProducts()) == 0 {
		return errors.New(noBackendsAvailableMessageConstant)
	}

	auditResults := service.Audit(command.Context(), nil)
	reconcileOutcome := service.GenerateRecommendations(auditResults)
	runMetadata := service.BuildMetadata()

	var reportContent []byte
	if selectedFormat == FormatJSON {
		renderedOutcome, renderError := json.MarshalIndent(reconcileOutcome, "", recommendJSONIndentConstant)
		if renderError != nil {
			return renderError
		}
		reportContent = append(renderedOutcome, newlineConstant...)
	} else {
		reportContent = []byte(report.RenderRecommendationsMarkdown(reconcileOutcome, runMetadata) + newlineConstant)
	}

	outputPath, _ := command.Flags().GetString(flags.OutputFlagName)
	return writeReport(command, outputPath, reportContent)
}
