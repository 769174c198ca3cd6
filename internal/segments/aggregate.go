// Package segments folds a provider's nested segment-reporting payload
// into named revenue slices with percentage shares. The provider schema
// drifts across companies and API versions, so the walk is heuristic:
// known container keys, date-keyed wrappers, and a numeric-map catch-all.
package segments

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
)

// maxDepth bounds the recursive walk over untrusted payloads.
const maxDepth = 32

var (
	containerKeys = map[string]bool{
		"Segments": true,
		"segments": true,
		"Product":  true,
		"Products": true,
		"product":  true,
	}
	dateKeyRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	periodKeyRe = regexp.MustCompile(`(?i)period`)
)

// Aggregate scans the raw payload and returns entries sorted descending
// by value. When any summed value is positive, non-positive entries are
// excluded from the percentage base; when none are, all entries are kept
// so the chart is not empty. A zero total yields an empty slice.
func Aggregate(raw json.RawMessage) ([]model.SegmentEntry, error) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, eris.Wrap(err, "segments: decode payload")
	}
	return fromValue(payload), nil
}

// fromValue aggregates an already-decoded payload. Pure function: two
// runs over the same payload yield identical output.
func fromValue(payload any) []model.SegmentEntry {
	sums := map[string]float64{}
	order := []string{}

	add := func(name string, v float64) {
		if _, seen := sums[name]; !seen {
			order = append(order, name)
		}
		sums[name] += v
	}
	walk(payload, 0, add)

	chosen := make([]model.SegmentEntry, 0, len(order))
	var total float64
	for _, name := range order {
		if sums[name] > 0 {
			chosen = append(chosen, model.SegmentEntry{Name: name, Value: sums[name]})
			total += sums[name]
		}
	}
	// All non-positive: fall back to the unfiltered set rather than
	// returning an empty chart.
	if len(chosen) == 0 {
		for _, name := range order {
			chosen = append(chosen, model.SegmentEntry{Name: name, Value: sums[name]})
			total += sums[name]
		}
	}
	if total == 0 {
		return []model.SegmentEntry{}
	}

	for i := range chosen {
		chosen[i].Percentage = 100 * chosen[i].Value / total
	}
	sort.SliceStable(chosen, func(i, j int) bool {
		if chosen[i].Value != chosen[j].Value {
			return chosen[i].Value > chosen[j].Value
		}
		return chosen[i].Name < chosen[j].Name
	})
	return chosen
}

func walk(node any, depth int, add func(string, float64)) {
	if depth > maxDepth {
		return
	}

	switch v := node.(type) {
	case []any:
		for _, item := range v {
			walk(item, depth+1, add)
		}
	case map[string]any:
		// Date-keyed wrapper: {"2023-09-30": {...}}.
		if len(v) == 1 {
			for k, inner := range v {
				if dateKeyRe.MatchString(k) {
					walk(inner, depth+1, add)
					return
				}
			}
		}

		folded := false
		for k, inner := range v {
			if containerKeys[k] || k == "Geographical" {
				if m, ok := inner.(map[string]any); ok {
					foldNumericMap(m, depth+1, add)
					folded = true
				}
			}
		}
		if folded {
			return
		}

		// Catch-all: treat the object itself as a candidate numeric map
		// and keep walking.
		collectNumerics(v, add)
		for _, inner := range v {
			switch inner.(type) {
			case map[string]any, []any:
				walk(inner, depth+1, add)
			}
		}
	}
}

// foldNumericMap sums a container's direct numeric leaves and recurses
// into its nested objects.
func foldNumericMap(m map[string]any, depth int, add func(string, float64)) {
	if depth > maxDepth {
		return
	}
	collectNumerics(m, add)
	for _, inner := range m {
		switch inner.(type) {
		case map[string]any, []any:
			walk(inner, depth+1, add)
		}
	}
}

func collectNumerics(m map[string]any, add func(string, float64)) {
	for k, inner := range m {
		if strings.EqualFold(k, "date") || periodKeyRe.MatchString(k) {
			continue
		}
		if n, ok := inner.(float64); ok {
			add(normalizeName(k), n)
		}
	}
}

// normalizeName turns provider keys into display names: underscores
// become spaces and camel-case boundaries split, except after a single
// leading letter so brand spellings like "iPhone" survive.
func normalizeName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")

	var b strings.Builder
	runLen := 0
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' && i > 0 {
			prev := runes[i-1]
			if prev >= 'a' && prev <= 'z' && runLen >= 2 {
				b.WriteRune(' ')
				runLen = 0
			}
		}
		if r == ' ' {
			runLen = 0
		} else {
			runLen++
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
