package testdata

import "time"

// Plans mirroring the captive portal's catalog
type TestPlan struct {
	Description    string
	Amount         int64
	BandwidthClass string
	Duration       time.Duration
}

var (
	ThreeHourPlan = TestPlan{
		Description:    "3-Hour Unlimited",
		Amount:         20,
		BandwidthClass: "unlimited",
		Duration:       3 * time.Hour,
	}

	DayPassPlan = TestPlan{
		Description:    "24 Hours 5Mbps",
		Amount:         100,
		BandwidthClass: "5M/5M",
		Duration:       24 * time.Hour,
	}

	SevenHourPlan = TestPlan{
		Description:    "7 Hours 5Mbps",
		Amount:         50,
		BandwidthClass: "5M/5M",
		Duration:       7 * time.Hour,
	}
)

// Sandbox MSISDNs. PrimaryPhoneLocal is the same subscriber as PrimaryPhone
// in the portal's local format.
var (
	PrimaryPhone      = "254708374149"
	PrimaryPhoneLocal = "0708374149"
	SecondPhone       = "254711222333"
	ThirdPhone        = "254722444555"
)
