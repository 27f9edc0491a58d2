package domain

import (
	dErrors "cadastro/pkg/domain-errors"
)

// TaxIDLength is the number of digits of a normalized tax identifier.
const TaxIDLength = 14

var (
	firstCheckWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondCheckWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// TaxID is a normalized, checksum-valid 14-digit business identifier.
// The zero value is not a valid TaxID; obtain one through ParseTaxID.
type TaxID string

// ParseTaxID strips every non-digit from raw and validates the result:
// exactly 14 digits, not all identical, and both check digits correct.
func ParseTaxID(raw string) (TaxID, error) {
	digits := make([]byte, 0, TaxIDLength)
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) != TaxIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid tax id")
	}
	if allSame(digits) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid tax id")
	}
	if checkDigit(digits[:12], firstCheckWeights) != digits[12]-'0' ||
		checkDigit(digits[:13], secondCheckWeights) != digits[13]-'0' {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid tax id")
	}
	return TaxID(digits), nil
}

// IsValidTaxID reports whether raw normalizes to a valid TaxID.
func IsValidTaxID(raw string) bool {
	_, err := ParseTaxID(raw)
	return err == nil
}

func (t TaxID) String() string { return string(t) }

// Formatted renders the conventional 00.000.000/0000-00 mask.
// Invalid values are returned unchanged.
func (t TaxID) Formatted() string {
	s := string(t)
	if len(s) != TaxIDLength {
		return s
	}
	return s[0:2] + "." + s[2:5] + "." + s[5:8] + "/" + s[8:12] + "-" + s[12:14]
}

func checkDigit(digits []byte, weights []int) byte {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return byte(11 - r)
}

func allSame(digits []byte) bool {
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}
