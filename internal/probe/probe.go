package probe

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/temirov/secaudit/internal/sysquery"
)

const (
	windowsPlatformConstant = "windows"

	windowsProcessCommandConstant = "Get-Process | Where-Object {$_.Path -ne $null} | Select-Object Name, Path, Id | ConvertTo-Json"
	windowsProcessTimeoutConstant = 30 * time.Second
	windowsPortTimeoutConstant    = 30 * time.Second
	unixProbeTimeoutConstant      = 10 * time.Second

	listeningStateMarkerConstant   = "LISTENING"
	establishedStateMarkerConstant = "ESTABLISHED"
	unknownPortStateConstant       = "UNKNOWN"
	portSeparatorConstant          = ":"
	newlineConstant                = "\n"
)

var psListArguments = []string{"aux"}
var ssListArguments = []string{"-tuln"}
var netstatListArguments = []string{"-an"}

// ProcessInfo describes one running process.
type ProcessInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	PID  int    `json:"pid"`
}

// PortInfo describes one listening port.
type PortInfo struct {
	Port  int    `json:"port"`
	State string `json:"state"`
}

// Probe answers process and port queries against the live system.
type Probe struct {
	executor *sysquery.Executor
	platform string
}

// NewProbe constructs a probe over the supplied executor. An empty platform
// defaults to the runtime platform.
func NewProbe(executor *sysquery.Executor, platform string) *Probe {
	if len(platform) == 0 {
		platform = runtime.GOOS
	}
	return &Probe{executor: executor, platform: platform}
}

// ListProcesses returns a snapshot of running processes with paths.
func (probe *Probe) ListProcesses(executionContext context.Context) []ProcessInfo {
	if probe.platform == windowsPlatformConstant {
		return probe.listWindowsProcesses(executionContext)
	}
	return probe.listUnixProcesses(executionContext)
}

func (probe *Probe) listWindowsProcesses(executionContext context.Context) []ProcessInfo {
	executionResult, executionError := probe.executor.ExecutePowerShell(executionContext, windowsProcessCommandConstant, windowsProcessTimeoutConstant)
	if executionError != nil || executionResult.ExitCode != 0 {
		return nil
	}

	trimmedOutput := strings.TrimSpace(executionResult.StandardOutput)
	if len(trimmedOutput) == 0 {
		return nil
	}

	type windowsProcessEntry struct {
		Name string `json:"Name"`
		Path string `json:"Path"`
		ID   int    `json:"Id"`
	}

	var processEntries []windowsProcessEntry
	if unmarshalError := json.Unmarshal([]byte(trimmedOutput), &processEntries); unmarshalError != nil {
		var singleEntry windowsProcessEntry
		if singleError := json.Unmarshal([]byte(trimmedOutput), &singleEntry); singleError != nil {
			return nil
		}
		processEntries = []windowsProcessEntry{singleEntry}
	}

	processes := make([]ProcessInfo, 0, len(processEntries))
	for _, processEntry := range processEntries {
		processes = append(processes, ProcessInfo{
			Name: processEntry.Name,
			Path: processEntry.Path,
			PID:  processEntry.ID,
		})
	}
	return processes
}

func (probe *Probe) listUnixProcesses(executionContext context.Context) []ProcessInfo {
	executionResult, executionError := probe.executor.Execute(executionContext, sysquery.Command{
		Tool:      sysquery.ToolPS,
		Arguments: psListArguments,
		Timeout:   unixProbeTimeoutConstant,
	})
	if executionError != nil || executionResult.ExitCode != 0 {
		return nil
	}

	outputLines := strings.Split(executionResult.StandardOutput, newlineConstant)
	if len(outputLines) == 0 {
		return nil
	}

	processes := []ProcessInfo{}
	for _, outputLine := range outputLines[1:] {
		lineFields := strings.Fields(outputLine)
		if len(lineFields) < 11 {
			continue
		}

		processIdentifier, parseError := strconv.Atoi(lineFields[1])
		if parseError != nil {
			continue
		}

		commandText := strings.Join(lineFields[10:], " ")
		processes = append(processes, ProcessInfo{
			Name: lineFields[10],
			Path: commandText,
			PID:  processIdentifier,
		})
	}
	return processes
}

// ListListeningPorts returns a snapshot of ports currently listening.
func (probe *Probe) ListListeningPorts(executionContext context.Context) []PortInfo {
	if probe.platform == windowsPlatformConstant {
		return probe.listWindowsPorts(executionContext)
	}
	return probe.listUnixPorts(executionContext)
}

func (probe *Probe) listWindowsPorts(executionContext context.Context) []PortInfo {
	executionResult, executionError := probe.executor.Execute(executionContext, sysquery.Command{
		Tool:      sysquery.ToolNetstat,
		Arguments: netstatListArguments,
		Timeout:   windowsPortTimeoutConstant,
	})
	if executionError != nil || executionResult.ExitCode != 0 {
		return nil
	}

	ports := []PortInfo{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, newlineConstant) {
		if !strings.Contains(outputLine, listeningStateMarkerConstant) && !strings.Contains(outputLine, establishedStateMarkerConstant) {
			continue
		}

		lineFields := strings.Fields(outputLine)
		if len(lineFields) < 2 {
			continue
		}

		portNumber, portFound := trailingPortNumber(lineFields[1])
		if !portFound {
			continue
		}

		portState := unknownPortStateConstant
		if len(lineFields) > 3 {
			portState = lineFields[len(lineFields)-1]
		}

		ports = append(ports, PortInfo{Port: portNumber, State: portState})
	}
	return ports
}

func (probe *Probe) listUnixPorts(executionContext context.Context) []PortInfo {
	executionResult, executionError := probe.executor.Execute(executionContext, sysquery.Command{
		Tool:      sysquery.ToolSS,
		Arguments: ssListArguments,
		Timeout:   unixProbeTimeoutConstant,
	})
	if executionError != nil || executionResult.ExitCode != 0 {
		return nil
	}

	outputLines := strings.Split(executionResult.StandardOutput, newlineConstant)
	if len(outputLines) == 0 {
		return nil
	}

	ports := []PortInfo{}
	for _, outputLine := range outputLines[1:] {
		lineFields := strings.Fields(outputLine)
		if len(lineFields) < 5 {
			continue
		}

		portNumber, portFound := trailingPortNumber(lineFields[4])
		if !portFound {
			continue
		}

		ports = append(ports, PortInfo{Port: portNumber, State: lineFields[1]})
	}
	return ports
}

// ProcessRunning reports whether name is a case-insensitive substring of any
// running process's name or path.
func (probe *Probe) ProcessRunning(executionContext context.Context, name string) bool {
	loweredName := strings.ToLower(name)

	for _, processInformation := range probe.ListProcesses(executionContext) {
		if strings.Contains(strings.ToLower(processInformation.Name), loweredName) {
			return true
		}
		if strings.Contains(strings.ToLower(processInformation.Path), loweredName) {
			return true
		}
	}

	return false
}

// PortInUse reports whether the exact port number appears in the listening snapshot.
func (probe *Probe) PortInUse(executionContext context.Context, port int) bool {
	for _, portInformation := range probe.ListListeningPorts(executionContext) {
		if portInformation.Port == port {
			return true
		}
	}
	return false
}

// trailingPortNumber extracts the numeric port from an address:port field.
func trailingPortNumber(addressField string) (int, bool) {
	separatorIndex := strings.LastIndex(addressField, portSeparatorConstant)
	if separatorIndex < 0 {
		return 0, false
	}

	portNumber, parseError := strconv.Atoi(addressField[separatorIndex+1:])
	if parseError != nil {
		return 0, false
	}
	return portNumber, true
}
