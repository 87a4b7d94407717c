package backends

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/temirov/secaudit/internal/model"
	pathutils "github.com/temirov/secaudit/internal/utils/path"
)

const (
	bitdefenderProductNameConstant = "bitdefender"

	bitdefenderUnavailableMessageConstant   = "Bitdefender not detected on this system"
	bitdefenderLimitedAPIWarningConstant    = "Bitdefender has limited API access. Results may be incomplete. Check Bitdefender GUI for full exclusion list."
	bitdefenderNoDataWarningConstant        = "Could not find parseable exclusion data. Manual export from Bitdefender GUI recommended."
	bitdefenderVendorMarkerConstant         = "Bitdefender"
	bitdefenderSourceFileRawDataKeyConstant = "source_file"
)

// bitdefenderConfigFilePatterns lists file name patterns that may carry
// exclusion data in vendor configuration directories.
var bitdefenderConfigFilePatterns = []string{"*.xml", "*.json", "*.ini", "settings*", "exclusions*"}

// bitdefenderPathPattern matches Windows-drive path substrings inside
// otherwise undocumented configuration file formats.
var bitdefenderPathPattern = regexp.MustCompile(`[A-Za-z]:\\[^"'<>|?*` + "\n\r" + `]+`)

// BitdefenderBackend scrapes candidate Bitdefender configuration directories
// for path-like exclusion entries. The product offers no supported query API,
// so every audit is best effort and flagged as such.
type BitdefenderBackend struct {
	dependencies    Dependencies
	configLocations []string
}

// NewBitdefenderBackend constructs a Bitdefender backend scanning the supplied
// configuration directories; defaults are used when none are given. Locations
// are trimmed, home-expanded, and pruned of entries nested under another
// location before scanning.
func NewBitdefenderBackend(dependencies Dependencies, configLocations []string) *BitdefenderBackend {
	locationSanitizer := pathutils.NewScanLocationSanitizerWithConfiguration(nil, pathutils.ScanLocationSanitizerConfiguration{
		PruneNestedPaths: true,
	})

	sanitizedLocations := locationSanitizer.Sanitize(configLocations)
	if len(sanitizedLocations) == 0 {
		sanitizedLocations = locationSanitizer.Sanitize(defaultBitdefenderConfigLocations())
	}

	return &BitdefenderBackend{
		dependencies:    dependencies.sanitize(),
		configLocations: sanitizedLocations,
	}
}

func defaultBitdefenderConfigLocations() []string {
	programData := os.Getenv("ProgramData")
	if len(programData) == 0 {
		programData = `C:\ProgramData`
	}

	locations := []string{
		filepath.Join(programData, "Bitdefender"),
		`C:\Program Files\Bitdefender`,
		`C:\Program Files (x86)\Bitdefender`,
	}

	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil {
		locations = append(locations, filepath.Join(homeDirectory, "AppData", "Roaming", "Bitdefender"))
	}

	return locations
}

// Product returns the backend identifier.
func (backend *BitdefenderBackend) Product() string {
	return bitdefenderProductNameConstant
}

// IsAvailable reports whether Bitdefender appears installed on this platform.
func (backend *BitdefenderBackend) IsAvailable() bool {
	if backend.dependencies.Platform != PlatformWindows {
		return false
	}

	for _, configLocation := range backend.configLocations {
		if backend.dependencies.PathChecker.PathExists(configLocation) {
			return true
		}
	}

	return false
}

// Audit scans every configuration location for path-like exclusion entries.
func (backend *BitdefenderBackend) Audit(executionContext context.Context) model.AuditResult {
	auditResult := model.NewAuditResult(bitdefenderProductNameConstant, backend.dependencies.Clock.Now())

	if !backend.IsAvailable() {
		return unavailableResult(bitdefenderProductNameConstant, auditResult.AuditTime, bitdefenderUnavailableMessageConstant)
	}

	auditResult.Warnings = append(auditResult.Warnings, bitdefenderLimitedAPIWarningConstant)

	discoveredPaths := map[string]struct{}{}
	for _, configLocation := range backend.configLocations {
		if executionContext.Err() != nil {
			break
		}
		backend.scanLocation(configLocation, discoveredPaths, &auditResult)
	}

	if len(auditResult.Exceptions) == 0 {
		auditResult.Warnings = append(auditResult.Warnings, bitdefenderNoDataWarningConstant)
	}

	return auditResult
}

func (backend *BitdefenderBackend) scanLocation(configLocation string, discoveredPaths map[string]struct{}, auditResult *model.AuditResult) {
	walkError := filepath.WalkDir(configLocation, func(filePath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			if errors.Is(entryError, fs.ErrPermission) {
				auditResult.RequiresElevation = true
				return nil
			}
			return nil
		}
		if directoryEntry.IsDir() {
			return nil
		}
		if !matchesConfigPattern(directoryEntry.Name()) {
			return nil
		}

		fileContent, readError := os.ReadFile(filePath)
		if readError != nil {
			if errors.Is(readError, fs.ErrPermission) {
				auditResult.RequiresElevation = true
			}
			return nil
		}

		for _, discoveredPath := range bitdefenderPathPattern.FindAllString(string(fileContent), -1) {
			if strings.Contains(discoveredPath, bitdefenderVendorMarkerConstant) {
				continue
			}
			if _, alreadyDiscovered := discoveredPaths[discoveredPath]; alreadyDiscovered {
				continue
			}
			discoveredPaths[discoveredPath] = struct{}{}

			auditResult.Exceptions = append(auditResult.Exceptions, model.ExceptionRecord{
				Path:    discoveredPath,
				Kind:    model.ExceptionKindPath,
				Product: bitdefenderProductNameConstant,
				Exists:  backend.dependencies.PathChecker.PathExists(discoveredPath),
				RawData: map[string]any{bitdefenderSourceFileRawDataKeyConstant: filePath},
			})
		}

		return nil
	})

	if walkError != nil && errors.Is(walkError, fs.ErrPermission) {
		auditResult.RequiresElevation = true
	}
}

func matchesConfigPattern(fileName string) bool {
	loweredFileName := strings.ToLower(fileName)
	for _, configPattern := range bitdefenderConfigFilePatterns {
		if patternMatched, _ := filepath.Match(configPattern, loweredFileName); patternMatched {
			return true
		}
	}
	return false
}
