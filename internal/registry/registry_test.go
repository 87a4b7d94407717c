package registry_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/secaudit/internal/registry"
)

func writeRegistryFile(testInstance *testing.T, content string) string {
	filePath := filepath.Join(testInstance.TempDir(), "registry.yaml")
	require.NoError(testInstance, os.WriteFile(filePath, []byte(content), 0o644))
	return filePath
}

func TestDefaultRegistryIsSortedAndComplete(testInstance *testing.T) {
	entries := registry.Default()

	require.NotEmpty(testInstance, entries)
	require.True(testInstance, sort.SliceIsSorted(entries, func(firstIndex int, secondIndex int) bool {
		return entries[firstIndex].Key < entries[secondIndex].Key
	}))

	for _, registryEntry := range entries {
		require.NotEmpty(testInstance, registryEntry.Key)
		require.NotEmpty(testInstance, registryEntry.DisplayName)
		require.NotEmpty(testInstance, registryEntry.Paths)
		require.NotEmpty(testInstance, registryEntry.Reason)
	}
}

func TestLoadFromFileParsesAndDefaults(testInstance *testing.T) {
	registryPath := writeRegistryFile(testInstance, `
tools:
  - key: uvicorn
    name: Uvicorn ASGI Server
    paths:
      - /usr/local/bin/uvicorn
    reason: Backend dev server
    category: server
    ports: [8000, 8001]
  - key: poetry
    paths:
      - /usr/local/bin/poetry
    reason: Dependency management
`)

	entries, loadError := registry.LoadFromFile(registryPath)

	require.NoError(testInstance, loadError)
	require.Len(testInstance, entries, 2)

	require.Equal(testInstance, "poetry", entries[0].Key)
	require.Equal(testInstance, "poetry", entries[0].DisplayName, "missing display names default to the key")
	require.Equal(testInstance, "general", entries[0].Category)

	require.Equal(testInstance, "uvicorn", entries[1].Key)
	require.Equal(testInstance, []int{8000, 8001}, entries[1].Ports)
}

func TestLoadFromFileRejectsEntriesWithoutPaths(testInstance *testing.T) {
	registryPath := writeRegistryFile(testInstance, `
tools:
  - key: broken
    reason: no paths listed
`)

	_, loadError := registry.LoadFromFile(registryPath)

	require.Error(testInstance, loadError)
	require.Contains(testInstance, loadError.Error(), "broken")
}

func TestLoadFromFileMissingFile(testInstance *testing.T) {
	_, loadError := registry.LoadFromFile(filepath.Join(testInstance.TempDir(), "absent.yaml"))

	require.Error(testInstance, loadError)
}
