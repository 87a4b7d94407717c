package flags

import "github.com/spf13/cobra"

const (
	// ProductFlagName exposes the shared product selection flag name.
	ProductFlagName = "product"
	// ProductFlagUsage describes the shared product selection flag purpose.
	ProductFlagUsage = "Security products to audit (repeatable)"
	// FormatFlagName exposes the shared output format flag name.
	FormatFlagName = "format"
	// OutputFlagName exposes the shared output file flag name.
	OutputFlagName = "output"
	// OutputFlagUsage describes the shared output file flag purpose.
	OutputFlagUsage = "Write the report to a file instead of standard output"
	// RegistryFlagName exposes the shared known-tool registry flag name.
	RegistryFlagName = "registry"
	// RegistryFlagUsage describes the shared known-tool registry flag purpose.
	RegistryFlagUsage = "Path to a YAML file overriding the built-in known-tool registry"
	// DryRunFlagName exposes the shared dry-run flag name.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the shared dry-run flag purpose.
	DryRunFlagUsage = "Preview removals without making changes"
	// ApplyFlagName exposes the shared apply flag name.
	ApplyFlagName = "apply"
	// ApplyFlagUsage describes the shared apply flag purpose.
	ApplyFlagUsage = "Apply removals instead of previewing them"
	// ProcessFlagName exposes the shared process lookup flag name.
	ProcessFlagName = "process"
	// ProcessFlagUsage describes the shared process lookup flag purpose.
	ProcessFlagUsage = "Process name to look for in the running-process snapshot"
	// PortFlagName exposes the shared port lookup flag name.
	PortFlagName = "port"
	// PortFlagUsage describes the shared port lookup flag purpose.
	PortFlagUsage = "Port number to look for in the listening-port snapshot"
)

// ProductFlagDefinition captures configuration for product selection flags.
type ProductFlagDefinition struct {
	Name    string
	Usage   string
	Enabled bool
}

// ProductFlagValues stores product selection flag values.
type ProductFlagValues struct {
	Products []string
}

// BindProductFlags attaches the shared product selection flag to the provided command.
func BindProductFlags(command *cobra.Command, defaults ProductFlagValues, definition ProductFlagDefinition) *ProductFlagValues {
	values := ProductFlagValues{Products: append([]string{}, defaults.Products...)}
	if command == nil {
		return &values
	}
	if !definition.Enabled {
		return &values
	}

	flagName := definition.Name
	if len(flagName) == 0 {
		flagName = ProductFlagName
	}
	flagUsage := definition.Usage
	if len(flagUsage) == 0 {
		flagUsage = ProductFlagUsage
	}

	command.Flags().StringSliceVar(&values.Products, flagName, defaults.Products, flagUsage)
	return &values
}

// FormatFlagDefinition captures configuration for report format flags.
type FormatFlagDefinition struct {
	Name    string
	Choices []string
	Usage   string
	Enabled bool
}

// FormatFlagValues stores report format flag values.
type FormatFlagValues struct {
	Format string
}

// BindFormatFlag attaches the shared report format flag to the provided command.
func BindFormatFlag(command *cobra.Command, defaultFormat string, definition FormatFlagDefinition) *FormatFlagValues {
	values := FormatFlagValues{Format: defaultFormat}
	if command == nil {
		return &values
	}
	if !definition.Enabled {
		return &values
	}

	flagName := definition.Name
	if len(flagName) == 0 {
		flagName = FormatFlagName
	}

	command.Flags().StringVar(&values.Format, flagName, defaultFormat, FormatChoiceUsage(defaultFormat, definition.Choices, definition.Usage))
	return &values
}
