package audit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/secaudit/internal/utils/flags"
)

const (
	cleanupCommandNameConstant             = "cleanup"
	cleanupCommandShortDescriptionConstant = "Remove stale exceptions whose targets no longer exist"
	cleanupCommandLongDescriptionConstant  = "Audits the selected products, finds exceptions pointing at paths that are gone, and removes them through backends that support mutation. Removals run in preview mode unless --apply is given."
	noStaleExceptionsMessageConstant       = "No stale exceptions found."
	cleanupActionLineTemplateConstant      = "%s: %s\n"
	cleanupSummaryTemplateConstant         = "\n%d stale exception(s) processed.\n"
)

// CleanupCommandBuilder assembles the cleanup cobra command.
type CleanupCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceProvider       ServiceProvider
}

// Build constructs the cobra command for stale exception cleanup.
func (builder *CleanupCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   cleanupCommandNameConstant,
		Short: cleanupCommandShortDescriptionConstant,
		Long:  cleanupCommandLongDescriptionConstant,
	}

	productFlagValues := flags.BindProductFlags(command, flags.ProductFlagValues{}, flags.ProductFlagDefinition{Enabled: true})
	flags.BindExecutionFlags(command, flags.ExecutionDefaults{DryRun: true, Apply: false}, flags.ExecutionFlagDefinitions{
		DryRun: flags.ExecutionFlagDefinition{Name: flags.DryRunFlagName, Usage: flags.DryRunFlagUsage, Enabled: true},
		Apply:  flags.ExecutionFlagDefinition{Name: flags.ApplyFlagName, Usage: flags.ApplyFlagUsage, Enabled: true},
	})

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, productFlagValues.Products)
	}

	return command, nil
}

func (builder *CleanupCommandBuilder) run(command *cobra.Command, flagProducts []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)

	selectedProducts := configuration.Products
	if command.Flags().Changed(flags.ProductFlagName) {
		selectedProducts = flagProducts
	}

	applyChanges, _ := command.Flags().GetBool(flags.ApplyFlagName)

	logger := resolveLogger(builder.LoggerProvider)
	service := resolveService(builder.ServiceProvider, nil, logger)

	cleanupActions := service.Cleanup(command.Context(), selectedProducts, applyChanges)

	outputWriter := command.OutOrStdout()
	if len(cleanupActions) == 0 {
		fmt.Fprintln(outputWriter, noStaleExceptionsMessageConstant)
		return nil
	}

	for _, cleanupAction := range cleanupActions {
		fmt.Fprintf(outputWriter, cleanupActionLineTemplateConstant, cleanupAction.Product, cleanupAction.Message)
	}
	fmt.Fprintf(outputWriter, cleanupSummaryTemplateConstant, len(cleanupActions))

	return nil
}
