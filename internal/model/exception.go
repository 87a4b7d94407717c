package model

// ExceptionKind enumerates the categories of security exceptions recognized by backends.
type ExceptionKind string

// Exception kind values emitted by backends.
const (
	ExceptionKindPath         ExceptionKind = "path"
	ExceptionKindProcess      ExceptionKind = "process"
	ExceptionKindFolder       ExceptionKind = "folder"
	ExceptionKindExtension    ExceptionKind = "extension"
	ExceptionKindFirewallRule ExceptionKind = "firewall"
)

// TrafficDirection enumerates firewall rule directions.
type TrafficDirection string

// Traffic direction values used by firewall-type records.
const (
	TrafficDirectionInbound  TrafficDirection = "inbound"
	TrafficDirectionOutbound TrafficDirection = "outbound"
	TrafficDirectionBoth     TrafficDirection = "both"
)

// ExceptionRecord represents one normalized security exception or exclusion entry.
//
// Path is an opaque identifier: a filesystem path, a process name, or a
// rendered firewall rule description depending on Kind. Exists may only be
// false for path, folder, and process records whose target could be checked
// and was not found; extension records are always reported as existing.
type ExceptionRecord struct {
	Path      string           `json:"path"`
	Kind      ExceptionKind    `json:"exception_type"`
	Product   string           `json:"product"`
	Exists    bool             `json:"exists"`
	Ports     []int            `json:"ports"`
	Direction TrafficDirection `json:"direction"`
	RawData   map[string]any   `json:"raw_data,omitempty"`
}

// SupportsExistenceCheck reports whether Exists carries meaning for the record kind.
func (record ExceptionRecord) SupportsExistenceCheck() bool {
	switch record.Kind {
	case ExceptionKindPath, ExceptionKindFolder, ExceptionKindProcess:
		return true
	default:
		return false
	}
}
