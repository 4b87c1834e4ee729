package fingerprint

import (
	"strings"

	"github.com/velocitycmdb/velocitycmdb/internal/vendor"
)

// Trigger enqueues a follow-up command when a vendor's initial probe output
// is known to carry insufficient data for the tracked fields (§4.2 step 2:
// "an HP ProCurve show version that contains 'image stamp' carries no
// serial"). Generalized into a data table so new (vendor, signal) pairs
// don't need new code paths.
type Trigger struct {
	Vendor          vendor.Vendor
	OutputContains  string
	FollowUpCommand string
}

var Triggers = []Trigger{
	{Vendor: vendor.HPProCurve, OutputContains: "image stamp", FollowUpCommand: "show system information"},
}

// FollowUps returns the follow-up commands any trigger for v matching
// output's content implies.
func FollowUps(v vendor.Vendor, output string) []string {
	var cmds []string
	for _, t := range Triggers {
		if t.Vendor == v && strings.Contains(output, t.OutputContains) {
			cmds = append(cmds, t.FollowUpCommand)
		}
	}
	return cmds
}
