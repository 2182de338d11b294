package payment

import (
	"errors"
	"strings"
)

var ErrInvalidCustomerID = errors.New("customer id is not a valid CPF")

var cpfFormatting = strings.NewReplacer(".", "", "-", "")

// NormalizeCustomerID strips CPF punctuation ("529.982.247-25") and returns the
// bare digits once the checksum holds.
func NormalizeCustomerID(cpf string) (string, error) {
	bare := cpfFormatting.Replace(strings.TrimSpace(cpf))
	if err := ValidateCustomerID(bare); err != nil {
		return "", err
	}
	return bare, nil
}

// ValidateCustomerID checks a bare Brazilian CPF: 11 digits, not all equal,
// with both check digits matching.
func ValidateCustomerID(cpf string) error {
	if len(cpf) != 11 {
		return ErrInvalidCustomerID
	}

	digits := make([]int, 11)
	allEqual := true
	for i, r := range cpf {
		if r < '0' || r > '9' {
			return ErrInvalidCustomerID
		}
		digits[i] = int(r - '0')
		if digits[i] != digits[0] {
			allEqual = false
		}
	}
	if allEqual {
		return ErrInvalidCustomerID
	}

	if checkDigit(digits[:9]) != digits[9] || checkDigit(digits[:10]) != digits[10] {
		return ErrInvalidCustomerID
	}
	return nil
}

func checkDigit(digits []int) int {
	sum := 0
	weight := len(digits) + 1
	for _, d := range digits {
		sum += d * weight
		weight--
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}
