package domain

import (
	"strings"
	"time"
)

// Bandwidth classes handed to the access gateway. The values are the
// rate-limit strings the gateway applies verbatim.
const (
	BandwidthUnlimited = "unlimited"
	BandwidthFast      = "5M/5M"
	BandwidthDefault   = "2M/2M"
)

// hour tiers checked longest-first so "24" wins over "4" and "14" over "1"
var planHourTiers = []struct {
	needle string
	hours  int
}{
	{"24", 24},
	{"14", 14},
	{"7", 7},
	{"3", 3},
}

// PlanDuration derives the entitlement duration from a plan description.
// Descriptions are free text from the portal's catalog ("3-Hour Unlimited",
// "24 Hours 5Mbps"); matching is by substring, hour tiers before the bare
// "unlimited" day pass, one hour when nothing matches.
func PlanDuration(planDescription string) time.Duration {
	desc := strings.ToLower(planDescription)
	for _, tier := range planHourTiers {
		if strings.Contains(desc, tier.needle) {
			return time.Duration(tier.hours) * time.Hour
		}
	}
	if strings.Contains(desc, "unlimited") {
		return 24 * time.Hour
	}
	return time.Hour
}

// BandwidthClass derives the gateway rate-limit class from a plan description.
func BandwidthClass(planDescription string) string {
	desc := strings.ToLower(planDescription)
	switch {
	case strings.Contains(desc, "unlimited"):
		return BandwidthUnlimited
	case strings.Contains(desc, "5mbps"):
		return BandwidthFast
	default:
		return BandwidthDefault
	}
}
