package service

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

// defaultPhoneRegion applies to numbers written without a country code
const defaultPhoneRegion = "VN"

// normalizePhone returns the E.164 form of raw. Empty input stays empty.
func normalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := libphonenumber.Parse(raw, defaultPhoneRegion)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return "", validation("Invalid phone number: %s", raw)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}
