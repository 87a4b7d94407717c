package registry

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/temirov/secaudit/internal/model"
)

const (
	registryReadErrorTemplateConstant       = "unable to read registry file: %w"
	registryParseErrorTemplateConstant      = "unable to parse registry file: %w"
	registryEntryKeyMissingTemplateConstant = "registry entry %d is missing a key"
	registryEntryPathsTemplateConstant      = "registry entry %q must list at least one path"
	registryDefaultCategoryNameConstant     = "general"
)

// registryDocument is the YAML shape of an external registry file.
type registryDocument struct {
	Tools []model.KnownToolEntry `yaml:"tools"`
}

// Default returns the built-in developer-tool registry, sorted by key.
func Default() []model.KnownToolEntry {
	entries := []model.KnownToolEntry{
		{
			Key:         "python",
			DisplayName: "Python Runtime",
			Paths:       []string{`C:\Python312\python.exe`, `C:\Python312\pythonw.exe`, `C:\Python312\Scripts\`},
			Reason:      "Core runtime for development tooling",
			Category:    "runtime",
		},
		{
			Key:         "uvicorn",
			DisplayName: "Uvicorn ASGI Server",
			Paths:       []string{`C:\Python312\Scripts\uvicorn.exe`},
			Reason:      "Local backend ASGI server",
			Category:    "server",
			Ports:       []int{8000, 8001, 8080},
		},
		{
			Key:         "nodejs",
			DisplayName: "Node.js",
			Paths:       []string{`C:\Program Files\nodejs\node.exe`, `C:\Program Files\nodejs\npm.cmd`},
			Reason:      "Frontend development and tooling",
			Category:    "runtime",
		},
		{
			Key:         "git",
			DisplayName: "Git Version Control",
			Paths:       []string{`C:\Program Files\Git\`},
			Reason:      "Version control for all projects",
			Category:    "tools",
		},
		{
			Key:         "vscode",
			DisplayName: "Visual Studio Code",
			Paths:       []string{`C:\Program Files\Microsoft VS Code\`},
			Reason:      "Primary development IDE",
			Category:    "ide",
		},
		{
			Key:         "tailscale",
			DisplayName: "Tailscale VPN",
			Paths:       []string{`C:\Program Files\Tailscale\`},
			Reason:      "VPN for remote network access",
			Category:    "network",
			Ports:       []int{41641},
		},
	}

	sortEntries(entries)
	return entries
}

// LoadFromFile parses a YAML registry file and validates its entries.
func LoadFromFile(filePath string) ([]model.KnownToolEntry, error) {
	fileContent, readError := os.ReadFile(filePath)
	if readError != nil {
		return nil, fmt.Errorf(registryReadErrorTemplateConstant, readError)
	}

	var document registryDocument
	if unmarshalError := yaml.Unmarshal(fileContent, &document); unmarshalError != nil {
		return nil, fmt.Errorf(registryParseErrorTemplateConstant, unmarshalError)
	}

	for entryIndex := range document.Tools {
		if len(document.Tools[entryIndex].Key) == 0 {
			return nil, fmt.Errorf(registryEntryKeyMissingTemplateConstant, entryIndex)
		}
		if len(document.Tools[entryIndex].Paths) == 0 {
			return nil, fmt.Errorf(registryEntryPathsTemplateConstant, document.Tools[entryIndex].Key)
		}
		if len(document.Tools[entryIndex].DisplayName) == 0 {
			document.Tools[entryIndex].DisplayName = document.Tools[entryIndex].Key
		}
		if len(document.Tools[entryIndex].Category) == 0 {
			document.Tools[entryIndex].Category = registryDefaultCategoryNameConstant
		}
	}

	sortEntries(document.Tools)
	return document.Tools, nil
}

func sortEntries(entries []model.KnownToolEntry) {
	sort.SliceStable(entries, func(firstIndex int, secondIndex int) bool {
		return entries[firstIndex].Key < entries[secondIndex].Key
	})
}
