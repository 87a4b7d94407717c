package audit

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/secaudit/internal/reconcile"
	"github.com/temirov/secaudit/internal/report"
	"github.com/temirov/secaudit/internal/utils"
	"github.com/temirov/secaudit/internal/utils/flags"
)

const (
	auditCommandNameConstant             = "audit"
	auditCommandShortDescriptionConstant = "Inventory security exceptions across installed products"
	auditCommandLongDescriptionConstant  = "Collects antivirus exclusions and firewall rules from every available backend, flags stale entries whose targets no longer exist, and renders a markdown or JSON report."
	recommendFlagNameConstant            = "recommend"
	recommendFlagUsageConstant           = "Include known-tool recommendations in the report"
	formatFlagUsageConstant              = "Report output format"
	noBackendsAvailableMessageConstant   = "no security product backends are available on this platform"
	unsupportedFormatTemplateConstant    = "unsupported report format: %s"
	registryLoadErrorTemplateConstant    = "unable to load known-tool registry: %w"
	auditStartedMessageConstant          = "audit started"
	configurationFileLogFieldConstant    = "configuration_file"
	newlineConstant                      = "\n"
)

// CommandBuilder assembles the audit cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceProvider       ServiceProvider
}

// Build constructs the cobra command for the exception audit workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   auditCommandNameConstant,
		Short: auditCommandShortDescriptionConstant,
		Long:  auditCommandLongDescriptionConstant,
	}

	productFlagValues := flags.BindProductFlags(command, flags.ProductFlagValues{}, flags.ProductFlagDefinition{Enabled: true})
	formatFlagValues := flags.BindFormatFlag(command, FormatMarkdown, flags.FormatFlagDefinition{
		Choices: []string{FormatMarkdown, FormatJSON},
		Usage:   formatFlagUsageConstant,
		Enabled: true,
	})
	command.Flags().Bool(recommendFlagNameConstant, false, recommendFlagUsageConstant)
	command.Flags().String(flags.OutputFlagName, "", flags.OutputFlagUsage)
	command.Flags().String(flags.RegistryFlagName, "", flags.RegistryFlagUsage)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, productFlagValues.Products, formatFlagValues.Format)
	}

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, flagProducts []string, flagFormat string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)

	selectedProducts := configuration.Products
	if command.Flags().Changed(flags.ProductFlagName) {
		selectedProducts = flagProducts
	}

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
	auditStartedFields := []zap.Field{}
	if configurationFilePath, configurationFileKnown := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context()); configurationFileKnown {
		auditStartedFields = append(auditStartedFields, zap.String(configurationFileLogFieldConstant, configurationFilePath))
	}
	logger.Debug(auditStartedMessageConstant, auditStartedFields...)

	service := resolveService(builder.ServiceProvider, registryEntries, logger)

	if len(selectedProducts) == 0 && len(service.AvailableProducts()) == 0 {
		return errors.New(noBackendsAvailableMessageConstant)
	}

	auditResults := service.Audit(command.Context(), selectedProducts)
	runMetadata := service.BuildMetadata()

	var reconcileOutcome *reconcile.Outcome
	includeRecommendations, _ := command.Flags().GetBool(recommendFlagNameConstant)
	if includeRecommendations {
		computedOutcome := service.GenerateRecommendations(auditResults)
		reconcileOutcome = &computedOutcome
	}

	var reportContent []byte
	if selectedFormat == FormatJSON {
		renderedReport, renderError := report.RenderJSON(auditResults, reconcileOutcome, runMetadata)
		if renderError != nil {
			return renderError
		}
		reportContent = append(renderedReport, newlineConstant...)
	} else {
		reportContent = []byte(report.RenderMarkdown(auditResults, reconcileOutcome, runMetadata) + newlineConstant)
	}

	outputPath, _ := command.Flags().GetString(flags.OutputFlagName)
	return writeReport(command, outputPath, reportContent)
}
