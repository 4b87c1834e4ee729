// Package catalog is the capture-type ground truth shared by the collection
// orchestrator and the parse-and-load layer (§6): an embedded, named-entry
// table of capture types filtered by vendor and trackedness.
package catalog

import "github.com/velocitycmdb/velocitycmdb/internal/vendor"

// Type names one kind of capture (a command family collected from a
// device), e.g. "configs", "version", "arp".
type Type string

const (
	TypeConfigs   Type = "configs"
	TypeVersion   Type = "version"
	TypeInventory Type = "inventory"
	TypeARP       Type = "arp"
	TypeMAC       Type = "mac"
)

// Entry is one row of the catalog: which vendors support this capture type
// and the command each runs, whether it feeds the change-detection archive,
// and where raw captures land on disk.
type Entry struct {
	Type      Type
	Tracked   bool
	Commands  map[vendor.Vendor]string
	OutputDir string
}

// Catalog is the ground truth consulted by collection (to build job files)
// and parse-load (to pick a loader per file).
var Catalog = map[Type]Entry{
	TypeConfigs: {
		Type:    TypeConfigs,
		Tracked: true,
		Commands: map[vendor.Vendor]string{
			vendor.CiscoIOS:     "show running-config",
			vendor.CiscoNXOS:    "show running-config",
			vendor.AristaEOS:    "show running-config",
			vendor.JuniperJunOS: "show configuration",
			vendor.HPProCurve:   "show running-config",
		},
		OutputDir: "configs",
	},
	TypeVersion: {
		Type:    TypeVersion,
		Tracked: true,
		Commands: map[vendor.Vendor]string{
			vendor.CiscoIOS:     "show version",
			vendor.CiscoNXOS:    "show version",
			vendor.AristaEOS:    "show version",
			vendor.JuniperJunOS: "show version",
			vendor.HPProCurve:   "show version",
		},
		OutputDir: "version",
	},
	TypeInventory: {
		Type:    TypeInventory,
		Tracked: true,
		Commands: map[vendor.Vendor]string{
			vendor.CiscoIOS:     "show inventory",
			vendor.CiscoNXOS:    "show inventory",
			vendor.AristaEOS:    "show inventory",
			vendor.JuniperJunOS: "show chassis hardware",
			vendor.HPProCurve:   "show system information",
		},
		OutputDir: "inventory",
	},
	TypeARP: {
		Type:    TypeARP,
		Tracked: false,
		Commands: map[vendor.Vendor]string{
			vendor.CiscoIOS:     "show ip arp",
			vendor.CiscoNXOS:    "show ip arp",
			vendor.AristaEOS:    "show ip arp",
			vendor.JuniperJunOS: "show arp",
			vendor.HPProCurve:   "show arp",
		},
		OutputDir: "arp",
	},
	TypeMAC: {
		Type:    TypeMAC,
		Tracked: false,
		Commands: map[vendor.Vendor]string{
			vendor.CiscoIOS:     "show mac address-table",
			vendor.CiscoNXOS:    "show mac address-table",
			vendor.AristaEOS:    "show mac address-table",
			vendor.JuniperJunOS: "show ethernet-switching table",
			vendor.HPProCurve:   "show mac-address",
		},
		OutputDir: "mac",
	},
}

// Tracked returns the capture types fed into the change-detection archive.
func Tracked() []Type {
	return []Type{TypeConfigs, TypeVersion, TypeInventory}
}

// CommandFor returns the command this capture type runs on v, and whether
// the vendor is supported at all.
func CommandFor(t Type, v vendor.Vendor) (string, bool) {
	entry, ok := Catalog[t]
	if !ok {
		return "", false
	}
	cmd, ok := entry.Commands[v]
	return cmd, ok
}
