package models

import "time"

// ArpEntry is one append-only ARP sighting. History is preserved across
// captures even for MAC addresses that move between devices (§9 Open
// Question #4); the query layer, not the loader, detects mobility.
type ArpEntry struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	ContextID   string    `json:"context_id,omitempty"` // VRF/VDOM grouping
	Context     string    `json:"context,omitempty"`
	IPAddress   string    `json:"ip_address"`
	MACAddress  string    `json:"mac_address"` // canonical lowercase colon-separated
	Interface   string    `json:"interface,omitempty"`
	EntryType   string    `json:"entry_type,omitempty"`
	CapturedAt  time.Time `json:"captured_at"`
}
