package templatedb

import (
	"regexp"

	"github.com/velocitycmdb/velocitycmdb/internal/vendor"
)

// Builtin returns the small starter template set velocitycmdb ships with
// so `init`/`collect`/`fingerprint` work against a fresh install without
// an operator having to author templates first. Real deployments are
// expected to grow this set; Builtin is a floor, not a ceiling. Rows is
// tuned so a single realistic match clears the documented score
// thresholds (20 fingerprint/configs/version/inventory, 25 ARP/MAC; §4.2).
func Builtin() []Template {
	return []Template{
		{
			Name:   "cisco_ios_show_version",
			Vendor: vendor.CiscoIOS,
			Rows:   24,
			Pattern: regexp.MustCompile(
				`(?m)Cisco IOS Software.*\n` +
					`SOFTWARE_VERSION:\s*(?P<software_version>\S+)\n` +
					`MODEL:\s*(?P<model>\S+)\n` +
					`SERIAL_NUMBER:\s*(?P<serial>\S+)`,
			),
		},
		{
			Name:    "generic_show_version",
			Vendor:  vendor.Unknown,
			Rows:    19,
			Pattern: regexp.MustCompile(`(?mi)version\s+(?P<software_version>\S+)`),
		},
		{
			Name:    "cisco_ios_show_running_config",
			Vendor:  vendor.CiscoIOS,
			Rows:    24,
			Pattern: regexp.MustCompile(`(?m)^hostname\s+(?P<name>\S+)`),
		},
		{
			Name:    "cisco_ios_show_inventory",
			Vendor:  vendor.CiscoIOS,
			Rows:    19,
			Pattern: regexp.MustCompile(
				`(?m)^NAME:\s*"(?P<name>[^"]+)",\s*DESCR:\s*"(?P<description>[^"]*)"\s*` +
					`PID:\s*(?P<model>\S+)\s*,\s*VID:\s*\S*\s*,\s*SN:\s*(?P<serial>\S+)`,
			),
		},
		{
			Name:    "cisco_ios_show_ip_arp",
			Vendor:  vendor.CiscoIOS,
			Rows:    29,
			Pattern: regexp.MustCompile(
				`(?m)^Internet\s+(?P<ip_address>\d+\.\d+\.\d+\.\d+)\s+\S+\s+(?P<mac_address>[0-9a-fA-F.:-]+)\s+\S+\s+(?P<interface>\S+)`,
			),
		},
		{
			Name:    "cisco_ios_show_mac_address_table",
			Vendor:  vendor.CiscoIOS,
			Rows:    29,
			Pattern: regexp.MustCompile(
				`(?m)^\s*\d+\s+(?P<mac_address>[0-9a-fA-F.:-]+)\s+\S+\s+(?P<interface>\S+)`,
			),
		},
	}
}
