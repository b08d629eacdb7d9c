package domain

import "time"

// Agent represents a remote managed host registered with the console.
type Agent struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Hostname string    `json:"hostname,omitempty"`
	Platform string    `json:"platform,omitempty"`
	Version  string    `json:"version,omitempty"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"last_seen"`

	// Metadata holds console-specific fields (groups, tags, etc.)
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Agent status constants as reported by the console directory.
const (
	AgentStatusOnline  = "online"
	AgentStatusOffline = "offline"
)

// SecurityStatus is the structured payload of a "security_status" command.
type SecurityStatus struct {
	FirewallEnabled  bool   `json:"firewall_enabled"`
	AntivirusEnabled bool   `json:"antivirus_enabled"`
	PatchLevel       string `json:"patch_level,omitempty"`
	ThreatsFound     int    `json:"threats_found"`
}

// InventorySnapshot is the structured payload of an "inventory_snapshot"
// command.
type InventorySnapshot struct {
	OS            string `json:"os,omitempty"`
	Kernel        string `json:"kernel,omitempty"`
	PackageCount  int    `json:"package_count"`
	PendingReboot bool   `json:"pending_reboot"`
}
