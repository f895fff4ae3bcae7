package domain

import (
	"regexp"
	"strings"
)

// Safaricom MSISDNs: 2547XXXXXXXX or 2541XXXXXXXX, and the local
// 07XX/01XX form subscribers actually type into the portal.
var (
	canonicalMSISDN = regexp.MustCompile(`^254[17]\d{8}$`)
	localMSISDN     = regexp.MustCompile(`^0[17]\d{8}$`)
)

// NormalizeMSISDN converts user input into the canonical 254-prefixed form
// the provider requires. It strips whitespace and a leading "+", accepts
// already-canonical numbers unchanged, and rejects everything else.
// Normalizing an already-normalized number is a no-op.
func NormalizeMSISDN(raw string) (string, error) {
	s := strings.Join(strings.Fields(raw), "")
	s = strings.TrimPrefix(s, "+")

	switch {
	case canonicalMSISDN.MatchString(s):
		return s, nil
	case localMSISDN.MatchString(s):
		return "254" + s[1:], nil
	default:
		return "", NewInvalidPhoneNumberError(raw)
	}
}
