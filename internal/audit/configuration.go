package audit

import "strings"

const (
	registryFileConfigurationKeySuffixConstant = ".registry_file"
	productsConfigurationKeySuffixConstant     = ".products"
	formatConfigurationKeySuffixConstant       = ".format"

	// FormatMarkdown renders the human-readable report.
	FormatMarkdown = "markdown"
	// FormatJSON renders the machine-readable report.
	FormatJSON = "json"
	// FormatText renders plain status lines for the check command.
	FormatText = "text"
)

// CommandConfiguration captures persistent settings shared by the audit command family.
type CommandConfiguration struct {
	RegistryFile string   `mapstructure:"registry_file"`
	Products     []string `mapstructure:"products"`
	Format       string   `mapstructure:"format"`
}

// DefaultCommandConfiguration returns baseline configuration values for the audit commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RegistryFile: "",
		Products:     nil,
		Format:       FormatMarkdown,
	}
}

// DefaultConfigurationValues exposes the baseline values keyed for the configuration loader.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKeyPrefix + registryFileConfigurationKeySuffixConstant: defaults.RegistryFile,
		configurationKeyPrefix + productsConfigurationKeySuffixConstant:     defaults.Products,
		configurationKeyPrefix + formatConfigurationKeySuffixConstant:       defaults.Format,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.RegistryFile = strings.TrimSpace(configuration.RegistryFile)
	sanitized.Products = sanitizeProducts(configuration.Products)
	sanitized.Format = strings.ToLower(strings.TrimSpace(configuration.Format))
	if len(sanitized.Format) == 0 {
		sanitized.Format = FormatMarkdown
	}

	return sanitized
}

func sanitizeProducts(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for index := range raw {
		trimmed := strings.ToLower(strings.TrimSpace(raw[index]))
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	if len(sanitized) == 0 {
		return nil
	}
	return sanitized
}
