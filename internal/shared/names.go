package shared

import (
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims, collapses inner whitespace and NFC-normalises a display name.
// Devanagari input from different keyboards otherwise yields distinct byte sequences.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}

// ValidateMobile checks that mobile parses as a plausible number for region.
func ValidateMobile(mobile, region string) error {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return Validation("Customer mobile is required.")
	}
	if region == "" {
		region = "IN"
	}
	num, err := libphonenumber.Parse(mobile, region)
	if err != nil {
		return Validation(fmt.Sprintf("Invalid mobile number: %s", mobile))
	}
	if !libphonenumber.IsPossibleNumber(num) {
		return Validation(fmt.Sprintf("Invalid mobile number: %s", mobile))
	}
	return nil
}
