package scraper

import (
	"fmt"
	"sort"
	"strings"
)

// NormalizeFloorPlans turns a pipe-delimited unit-info string into a sorted,
// duplicate-free list of plan labels joined by ", ". Each unit entry is
// expected to be "<plan>,<details>"; entries without a comma are ignored.
// Empty or malformed input yields "".
func NormalizeFloorPlans(unitInfo string) string {
	if unitInfo == "" {
		return ""
	}

	unique := make(map[string]struct{})
	for _, unit := range strings.Split(unitInfo, "|") {
		if unit == "" || !strings.Contains(unit, ",") {
			continue
		}
		plan := strings.TrimSpace(strings.SplitN(unit, ",", 2)[0])
		if plan != "" {
			unique[plan] = struct{}{}
		}
	}

	plans := make([]string, 0, len(unique))
	for plan := range unique {
		plans = append(plans, plan)
	}
	sort.Strings(plans)

	return strings.Join(plans, ", ")
}

// ProjectFromRaw builds a Project from one raw upstream record, defaulting
// absent fields to "". The registration number stays blank until the detail
// fetcher fills it in.
func ProjectFromRaw(raw map[string]any) Project {
	return Project{
		Name:       stringField(raw, "psmName"),
		Developer:  stringField(raw, "lmtDName"),
		PriceRange: stringField(raw, "showPriceRange"),
		Units:      stringField(raw, "totalUnits"),
		Brochure:   stringField(raw, "sblink"),
		TotalArea:  stringField(raw, "projArea"),
		FloorPlan:  NormalizeFloorPlans(stringField(raw, "unitInfo")),
		PDPPath:    stringField(raw, "pdpUrl"),
	}
}

// stringField reads a field that the upstream serves as either a string or a
// number, returning "" when absent.
func stringField(raw map[string]any, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; unit counts are integral.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
