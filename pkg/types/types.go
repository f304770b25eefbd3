package types

import "time"

// Alert is a single report record: one vulnerable installed package under one advisory.
type Alert struct {
	ID               string   `json:"id" yaml:"id"`
	CVEs             []string `json:"cves" yaml:"cves"`
	Package          string   `json:"package" yaml:"package"`
	InstalledVersion string   `json:"installed_version" yaml:"installed_version"`
	FixedVersion     string   `json:"fixed_version" yaml:"fixed_version"`
	Summary          string   `json:"summary" yaml:"summary"`

	// Carried by the json and yaml reports only.
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Published   *time.Time `json:"published,omitempty" yaml:"published,omitempty"`
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var Formats = []Format{FormatText, FormatJSON, FormatYAML}

type StateBackend string

const (
	StateBackendFile StateBackend = "file"
	StateBackendBolt StateBackend = "bolt"
)

// Process exit statuses
const (
	ExitClean       = 0
	ExitIssuesFound = 1
	ExitUsage       = 2
	ExitFatal       = 3
)
