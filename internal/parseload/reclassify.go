package parseload

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/velocitycmdb/velocitycmdb/internal/store"
	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// typePatterns matches a component's combined name/description/position
// text against per-type regular expressions, most distinctive first.
// Ordering matters: transceiver and psu patterns are checked before the
// broader module/chassis patterns so a "PWR-SUP-700W" doesn't fall through
// to "module".
var typePatterns = []struct {
	t        models.ComponentType
	patterns []*regexp.Regexp
}{
	{models.ComponentTransceiver, compileAll(
		`\bxcvr\b`, `\bsfp\+?\b`, `\bqsfp(\+|28|-dd)?\b`, `\bxfp\b`, `\bcfp\b`,
		`\boptic`, `transceiver`, `glc-`, `sfp\+-\d+g`, `qsfp-\d+g`,
		`-lr\d*$`, `-sr\d*$`, `\bgbic\b`, `1000base`, `10gbase`, `25gbase`, `40gbase`, `100gbase`,
	)},
	{models.ComponentPSU, compileAll(
		`\bpwr\b`, `\bpsu\b`, `\bps\d+\b`, `power\s*supply`, `^power$`,
		`power\s*module`, `pwr-\w+`, `\bpem\b`, `jpsu-`,
	)},
	{models.ComponentFan, compileAll(
		`\bfan\b`, `\bcooling\b`, `fan\s*tray`, `fan\s*module`,
	)},
	{models.ComponentSupervisor, compileAll(
		`\bsupervisor\b`, `\bsup\b`, `\bengine\b`, `routing\s*engine`,
		`\bre\b`, `\brp\b`, `supervisor\s*module`, `ws-sup`, `management\s*module`,
	)},
	{models.ComponentModule, compileAll(
		`\bmodule\b`, `\bcard\b`, `\blinecard\b`, `line\s*card`, `\bpic\b`, `\bfpc\b`, `\bmic\b`,
		`ws-x\d+`, `interface\s*card`,
	)},
	{models.ComponentChassis, compileAll(
		`\bchassis\b`, `\bchas\b`, `-chas$`, `^ws-c\d+`, `\bstack\b`, `switch\s+\d+`, `nexus\s*\d+`, `catalyst\s*\d+`,
	)},
}

var junkPatterns = compileAll(
	`^\s*$`, `^-+$`, `^%$`, `^/$`, `invalid input detected`, `^switched(bootstrap)?$`,
	`^cpu$`, `^ip$`, `^mac$`, `^pkts$`, `^rom$`, `^software$`, `^status$`, `^system$`,
	`^up$`, `^0$`, `^information$`, `#$`, `^terminal\s+(length|width)`, `^set$`, `^no\s+page`, `^off$`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// IsJunk reports whether name/description look like a parsing artifact
// (CLI echo, banner fragment, pager prompt) rather than a real component.
func IsJunk(name, description string) bool {
	text := strings.ToLower(strings.TrimSpace(name + " " + description))
	for _, p := range junkPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Classify assigns a component type from its name/description/position
// using pattern matching, grounded on the original deployment's standalone
// fixup scripts. Returns ok=false when no pattern matches (component stays
// unknown rather than being guessed).
func Classify(name, description, position string) (models.ComponentType, bool) {
	combined := strings.ToLower(name + " " + description + " " + position)
	for _, tp := range typePatterns {
		for _, p := range tp.patterns {
			if p.MatchString(combined) {
				return tp.t, true
			}
		}
	}
	return models.ComponentUnknown, false
}

// ReclassifyReport summarizes one reclassification pass.
type ReclassifyReport struct {
	Considered int
	Classified int
	Junk       int
	StillUnknown int
}

// Reclassify re-examines components currently typed ComponentUnknown and
// assigns a concrete type where the name/description pattern-match
// succeeds. It never deletes junk components; it only skips them, leaving
// that decision to an operator-driven cleanup verb.
func Reclassify(ctx context.Context, components store.ComponentRepository, batchSize int) (*ReclassifyReport, error) {
	report := &ReclassifyReport{}
	candidates, err := components.ListUnknownType(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("list unknown-type components: %w", err)
	}

	for _, c := range candidates {
		report.Considered++
		if IsJunk(c.Name, c.Description) {
			report.Junk++
			continue
		}
		t, ok := Classify(c.Name, c.Description, c.Position)
		if !ok {
			report.StillUnknown++
			continue
		}
		if err := components.UpdateType(ctx, c.ID, t, ""); err != nil {
			return report, fmt.Errorf("update component %q type: %w", c.ID, err)
		}
		report.Classified++
	}
	return report, nil
}
