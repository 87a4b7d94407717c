package audit

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/secaudit/internal/auditor"
	"github.com/temirov/secaudit/internal/model"
	"github.com/temirov/secaudit/internal/registry"
	"github.com/temirov/secaudit/internal/utils"
	pathutils "github.com/temirov/secaudit/internal/utils/path"
)

const (
	reportFilePermissionsConstant = 0o644
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the persisted command configuration.
type ConfigurationProvider func() CommandConfiguration

// ServiceProvider supplies an auditor service wired with the given registry and logger.
type ServiceProvider func(registryEntries []model.KnownToolEntry, logger *zap.Logger) *auditor.Service

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveConfiguration(provider ConfigurationProvider) CommandConfiguration {
	if provider == nil {
		return DefaultCommandConfiguration().sanitize()
	}
	return provider().sanitize()
}

func resolveService(provider ServiceProvider, registryEntries []model.KnownToolEntry, logger *zap.Logger) *auditor.Service {
	if provider != nil {
		return provider(registryEntries, logger)
	}
	return auditor.NewService(auditor.Options{Logger: logger, Registry: registryEntries})
}

// resolveRegistryEntries loads the known-tool registry from the supplied file,
// falling back to the compiled-in defaults when no file is configured.
func resolveRegistryEntries(registryFilePath string) ([]model.KnownToolEntry, error) {
	trimmedPath := strings.TrimSpace(registryFilePath)
	if len(trimmedPath) == 0 {
		return registry.Default(), nil
	}

	expandedPath := pathutils.NewHomeExpander().Expand(trimmedPath)
	return registry.LoadFromFile(expandedPath)
}

// writeReport sends content to the output file when one is configured and to
// the command's standard output otherwise.
func writeReport(command *cobra.Command, outputPath string, content []byte) error {
	trimmedOutputPath := strings.TrimSpace(outputPath)
	if len(trimmedOutputPath) == 0 {
		_, writeError := utils.NewFlushingWriter(command.OutOrStdout()).Write(content)
		return writeError
	}

	expandedOutputPath := pathutils.NewHomeExpander().Expand(trimmedOutputPath)
	return os.WriteFile(expandedOutputPath, content, reportFilePermissionsConstant)
}
