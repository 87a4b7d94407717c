package model

// KnownToolEntry describes one developer tool whose paths should be exempted
// from security scanning. Entries are configuration data: the registry is
// read-only after initialization and new tools require no code changes.
type KnownToolEntry struct {
	Key         string   `json:"key" yaml:"key"`
	DisplayName string   `json:"name" yaml:"name"`
	Paths       []string `json:"paths" yaml:"paths"`
	Reason      string   `json:"reason" yaml:"reason"`
	Category    string   `json:"category" yaml:"category"`
	Ports       []int    `json:"ports,omitempty" yaml:"ports,omitempty"`
}

// RecommendationItem captures the reconciliation verdict for one (tool, path) pair.
type RecommendationItem struct {
	ToolName   string `json:"name"`
	Path       string `json:"path"`
	PathExists bool   `json:"exists"`
	Reason     string `json:"reason"`
	Category   string `json:"category"`
	IsCovered  bool   `json:"is_covered"`
	Ports      []int  `json:"ports,omitempty"`
}
