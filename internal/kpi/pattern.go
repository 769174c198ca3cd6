// Package kpi extracts operational metrics from financial documents,
// either with regex templates or through an LLM prompt.
package kpi

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
)

// maxInputBytes bounds the text scanned per extraction call. Filing
// sections are truncated upstream, but the cap also protects the
// multipart upload path.
const maxInputBytes = 500_000

const patternConfidence = 0.85

// template is one KPI definition: an ordered regex list with a captured
// numeric group and an optional unit-suffix group.
type template struct {
	kpiType     string
	displayName string
	category    model.KPICategory
	unit        model.KPIUnit
	patterns    []*regexp.Regexp
}

// Templates are tried in declaration order; matches from later regexes of
// the same template are not suppressed, so near-duplicates collapse in
// the dedup pass.
var templates = []template{
	{
		kpiType:     "subscribers",
		displayName: "Subscribers",
		category:    model.KPICategoryCustomer,
		unit:        model.KPIUnitCount,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(million|billion|thousand|bil|[mbk])?\s+(?:paid\s+|global\s+|total\s+)?subscribers`),
			regexp.MustCompile(`(?i)subscriber\s+base\s+(?:of|reached)\s+([\d,]+(?:\.\d+)?)\s*(million|billion|thousand|bil|[mbk])?`),
		},
	},
	{
		kpiType:     "members",
		displayName: "Members",
		category:    model.KPICategoryCustomer,
		unit:        model.KPIUnitCount,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(million|billion|thousand|bil|[mbk])?\s+(?:active\s+|paid\s+)?members`),
		},
	},
	{
		kpiType:     "daily_active_users",
		displayName: "Daily Active Users",
		category:    model.KPICategoryCustomer,
		unit:        model.KPIUnitCount,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(million|billion|thousand|bil|[mbk])?\s+(?:daily\s+active\s+users|DAUs?\b)`),
		},
	},
	{
		kpiType:     "monthly_active_users",
		displayName: "Monthly Active Users",
		category:    model.KPICategoryCustomer,
		unit:        model.KPIUnitCount,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(million|billion|thousand|bil|[mbk])?\s+(?:monthly\s+active\s+users|MAUs?\b)`),
		},
	},
	{
		kpiType:     "stores",
		displayName: "Store Count",
		category:    model.KPICategoryOperational,
		unit:        model.KPIUnitCount,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(thousand|[k])?\s+(?:retail\s+|company-operated\s+)?stores`),
			regexp.MustCompile(`(?i)store\s+count\s+(?:of|reached)\s+([\d,]+(?:\.\d+)?)`),
		},
	},
	{
		kpiType:     "units_sold",
		displayName: "Units Sold",
		category:    model.KPICategoryOperational,
		unit:        model.KPIUnitCount,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:sold|shipped|delivered)\s+([\d,]+(?:\.\d+)?)\s*(million|billion|thousand|bil|[mbk])?\s+(?:units|vehicles|devices)`),
		},
	},
	{
		kpiType:     "arpu",
		displayName: "Average Revenue Per User",
		category:    model.KPICategoryFinancial,
		unit:        model.KPIUnitUSD,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:ARPU|average\s+revenue\s+per\s+(?:user|member))\s+(?:of|was|grew\s+to|increased\s+to)\s+\$?([\d,]+(?:\.\d+)?)`),
		},
	},
	{
		kpiType:     "gross_margin",
		displayName: "Gross Margin",
		category:    model.KPICategoryEfficiency,
		unit:        model.KPIUnitPercentage,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)gross\s+margin\s+(?:of|was|at|expanded\s+to|improved\s+to)?\s*([\d,]+(?:\.\d+)?)\s*%`),
		},
	},
	{
		kpiType:     "operating_margin",
		displayName: "Operating Margin",
		category:    model.KPICategoryEfficiency,
		unit:        model.KPIUnitPercentage,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)operating\s+margin\s+(?:of|was|at|expanded\s+to|improved\s+to)?\s*([\d,]+(?:\.\d+)?)\s*%`),
		},
	},
	{
		kpiType:     "churn_rate",
		displayName: "Churn Rate",
		category:    model.KPICategoryCustomer,
		unit:        model.KPIUnitPercentage,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)churn\s+(?:rate\s+)?(?:of|was|at|declined\s+to|improved\s+to)?\s*([\d,]+(?:\.\d+)?)\s*%`),
		},
	},
	{
		kpiType:     "revenue_growth",
		displayName: "Revenue Growth",
		category:    model.KPICategoryGrowth,
		unit:        model.KPIUnitPercentage,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)revenue\s+(?:grew|increased|growth\s+of)\s+(?:by\s+)?([\d,]+(?:\.\d+)?)\s*%`),
		},
	},
}

// unitScale maps a captured unit suffix to its multiplier. Absence of a
// suffix leaves the value unscaled.
func unitScale(suffix string) float64 {
	switch strings.ToLower(suffix) {
	case "billion", "bil", "b":
		return 1e9
	case "million", "m":
		return 1e6
	case "thousand", "k":
		return 1e3
	default:
		return 1
	}
}

// parseNumber strips thousands separators and parses the numeric capture.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ExtractPattern scans text with every template regex and returns the
// deduplicated KPI list. Confidence is fixed; the earliest match per
// kpiType survives, and later values within 1% relative of a kept value
// for the same type are dropped.
func ExtractPattern(text string) []model.ExtractedKPI {
	if len(text) > maxInputBytes {
		text = text[:maxInputBytes]
	}

	now := time.Now().UTC()
	var raw []model.ExtractedKPI

	for _, tpl := range templates {
		for _, re := range tpl.patterns {
			if re.NumSubexp() == 0 {
				continue
			}
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				value, ok := parseNumber(m[1])
				if !ok {
					continue
				}
				if len(m) > 2 {
					value *= unitScale(m[2])
				}
				raw = append(raw, model.ExtractedKPI{
					KPIType:          tpl.kpiType,
					DisplayName:      tpl.displayName,
					Category:         tpl.category,
					Value:            value,
					Unit:             tpl.unit,
					Period:           model.KPIPeriodQuarterly,
					SourceText:       m[0],
					ExtractionMethod: model.ExtractionPattern,
					Confidence:       patternConfidence,
					QualityScore:     patternConfidence,
					AnomalyFlags:     []string{},
					CreatedAt:        now,
					UpdatedAt:        now,
				})
			}
		}
	}

	return dedupe(raw)
}

// dedupe collapses near-duplicate values per kpiType. A candidate is
// dropped when an already-kept value of the same type is within 1%
// relative difference; values further apart both survive.
func dedupe(kpis []model.ExtractedKPI) []model.ExtractedKPI {
	kept := make([]model.ExtractedKPI, 0, len(kpis))
	for _, k := range kpis {
		dup := false
		for _, prev := range kept {
			if prev.KPIType != k.KPIType {
				continue
			}
			if relativeDiff(prev.Value, k.Value) < 0.01 {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, k)
		}
	}
	return kept
}

func relativeDiff(a, b float64) float64 {
	base := math.Max(math.Abs(a), math.Abs(b))
	if base == 0 {
		return 0
	}
	return math.Abs(a-b) / base
}
