// Package templatedb is the template-scored extraction engine shared by
// fingerprinting and parse-and-load: an embedded table of signatures
// filtered and ranked by specificity.
package templatedb

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/velocitycmdb/velocitycmdb/internal/vendor"
)

// ErrLowConfidence is returned by BestMatch when no candidate template
// clears minScore. Parse errors are data, not panics or silent fallbacks.
var ErrLowConfidence = errors.New("templatedb: no template met minimum score")

// Template is one named regular expression with capture groups mapping to
// field names. Rows is a specificity weight: more specific templates (more
// named groups, longer literal runs) sort first in a FilterList cascade.
type Template struct {
	Name    string
	Vendor  vendor.Vendor
	Pattern *regexp.Regexp
	Rows    int
}

// ScoredResult is the outcome of scoring one template against a command's
// output. Fields map to slices to support stacked repeats (e.g. Cisco IOS
// HARDWARE/SERIAL lists for multi-slot chassis, §4.2).
type ScoredResult struct {
	TemplateName string
	Score        int
	Fields       map[string][]string
}

// Database is an in-memory, read-only collection of templates loaded at
// startup (§4.2 "template database").
type Database struct {
	templates map[string]Template
}

func NewDatabase(templates []Template) *Database {
	db := &Database{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		db.templates[t.Name] = t
	}
	return db
}

// FilterList returns template names applicable to vendor and command,
// most-specific first (§4.2 5-step cascade):
//
//	[vendor]_[command_with_underscores]
//	[vendor]_[base_command]
//	[command_with_underscores]
//	[base_command]
//	[first_word]
//
// where base_command drops the last word of command (e.g. "show system
// info" → base "show_system"). Only candidates that actually name a
// loaded template are included, in cascade order. Any remaining
// vendor-matching or vendor-agnostic template not reached by the cascade
// (e.g. a generic catch-all template with no vendor-prefixed name) is
// appended last, sorted by descending Rows weight, as the least-specific
// fallback tier.
func (db *Database) FilterList(v vendor.Vendor, command string) []string {
	prefix := v.String()
	if p, ok := v.Profile(); ok {
		prefix = p.TemplateFilterPrefix
	}

	words := strings.Fields(command)
	var full, base, first string
	if len(words) > 0 {
		full = strings.Join(words, "_")
		first = words[0]
		if len(words) > 1 {
			base = strings.Join(words[:len(words)-1], "_")
		} else {
			base = full
		}
	}

	var ordered []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		if _, ok := db.templates[name]; !ok {
			return
		}
		ordered = append(ordered, name)
		seen[name] = true
	}

	add(prefix + "_" + full)
	if base != full {
		add(prefix + "_" + base)
	}
	add(full)
	if base != full {
		add(base)
	}
	add(first)

	var rest []Template
	for name, t := range db.templates {
		if seen[name] {
			continue
		}
		if t.Vendor != vendor.Unknown && t.Vendor != v {
			continue
		}
		rest = append(rest, t)
	}
	sort.Slice(rest, func(i, j int) bool {
		iSpecific := rest[i].Vendor != vendor.Unknown
		jSpecific := rest[j].Vendor != vendor.Unknown
		if iSpecific != jSpecific {
			return iSpecific
		}
		if rest[i].Rows != rest[j].Rows {
			return rest[i].Rows > rest[j].Rows
		}
		return rest[i].Name < rest[j].Name
	})
	for _, t := range rest {
		ordered = append(ordered, t.Name)
	}

	return ordered
}

// Score runs one template's pattern against output and tallies a score: one
// point per matched line, weighted by the template's specificity.
func (db *Database) Score(ctx context.Context, candidate string, output string) (ScoredResult, error) {
	t, ok := db.templates[candidate]
	if !ok {
		return ScoredResult{}, errors.New("templatedb: unknown template " + candidate)
	}

	fields := make(map[string][]string)
	matches := t.Pattern.FindAllStringSubmatch(output, -1)
	names := t.Pattern.SubexpNames()

	for _, m := range matches {
		select {
		case <-ctx.Done():
			return ScoredResult{}, ctx.Err()
		default:
		}
		for i, name := range names {
			if i == 0 || name == "" {
				continue
			}
			if m[i] == "" {
				continue
			}
			fields[name] = append(fields[name], m[i])
		}
	}

	score := len(matches) * (t.Rows + 1)
	return ScoredResult{TemplateName: t.Name, Score: score, Fields: fields}, nil
}

// BestMatch scores every name in filterList and returns the highest-scoring
// result. A result below minScore is ErrLowConfidence rather than a guess.
func (db *Database) BestMatch(output string, filterList []string, minScore int) (ScoredResult, error) {
	var best ScoredResult
	found := false

	for _, name := range filterList {
		res, err := db.Score(context.Background(), name, output)
		if err != nil {
			continue
		}
		if !found || res.Score > best.Score {
			best = res
			found = true
		}
	}

	if !found || best.Score < minScore {
		return ScoredResult{}, ErrLowConfidence
	}
	return best, nil
}
