// Package models holds the normalized relational entities persisted by
// velocitycmdb: devices, components, ARP entries, and the capture/snapshot/
// change records that back the change-detection archive.
package models

import "time"

// Device is a network element tracked by the CMDB, identified primarily by
// NormalizedName (the lowercased hostname).
type Device struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	NormalizedName   string    `json:"normalized_name"`
	ManagementIP     string    `json:"management_ip"`
	IPv4Address      string    `json:"ipv4_address,omitempty"`
	VendorID         string    `json:"vendor_id,omitempty"`
	SiteID           string    `json:"site_id,omitempty"`
	RoleID           string    `json:"role_id,omitempty"`
	DeviceType       string    `json:"device_type,omitempty"` // e.g. "cisco_ios"
	Model            string    `json:"model,omitempty"`
	SoftwareVersion  string    `json:"software_version,omitempty"`
	Serial           string    `json:"serial,omitempty"`
	SourceSystem     string    `json:"source_system,omitempty"`
	FingerprintedAt  time.Time `json:"fingerprinted_at,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// NormalizeName lowercases a hostname to produce a Device's stable identity
// key (§3 invariant 1).
func NormalizeName(hostname string) string {
	out := make([]rune, 0, len(hostname))
	for _, r := range hostname {
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		out = append(out, r)
	}
	return string(out)
}
