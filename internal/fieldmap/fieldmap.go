// Package fieldmap holds the vendor-agnostic field-resolution priority
// lists (§4.2) as plain data, shared by fingerprint and parse-and-load so
// the priority rules live in exactly one place.
package fieldmap

// Chain is an ordered list of candidate field names to try, most preferred
// first, plus an excludes set of values that don't count as a real match
// even when present (placeholder strings some vendors emit).
type Chain struct {
	Candidates []string
	Excludes   map[string]struct{}
}

// Resolve walks Candidates in order and returns the first non-empty,
// non-excluded value found in fields.
func (c Chain) Resolve(fields map[string][]string) (string, bool) {
	for _, name := range c.Candidates {
		values, ok := fields[name]
		if !ok {
			continue
		}
		for _, v := range values {
			if v == "" {
				continue
			}
			if _, excluded := c.Excludes[v]; excluded {
				continue
			}
			return v, true
		}
	}
	return "", false
}

// ResolveAll behaves like Resolve but returns every non-excluded value for
// the first candidate name that produced any, supporting stacked fields
// such as Cisco IOS's repeated HARDWARE/SERIAL lines (§4.2).
func (c Chain) ResolveAll(fields map[string][]string) []string {
	for _, name := range c.Candidates {
		values, ok := fields[name]
		if !ok {
			continue
		}
		var out []string
		for _, v := range values {
			if v == "" {
				continue
			}
			if _, excluded := c.Excludes[v]; excluded {
				continue
			}
			out = append(out, v)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

var placeholderSerials = map[string]struct{}{
	"N/A":          {},
	"NONE":         {},
	"0":            {},
	"UNPROVISIONED": {},
}

// SerialNumber is the priority chain for a device's chassis serial (§4.2).
var SerialNumber = Chain{
	Candidates: []string{"chassis_serial", "serial", "system_serial_number"},
	Excludes:   placeholderSerials,
}

// Model is the priority chain for a device's hardware model designation.
var Model = Chain{
	Candidates: []string{"model", "pid", "hardware"},
}

// SoftwareVersion is the priority chain for the running OS/firmware version.
var SoftwareVersion = Chain{
	Candidates: []string{"software_version", "version", "os_version"},
}

// ComponentSerial is the priority chain used when extracting per-component
// (module/PSU/fan) serials from a stacked inventory listing.
var ComponentSerial = Chain{
	Candidates: []string{"component_serial", "serial"},
	Excludes:   placeholderSerials,
}
