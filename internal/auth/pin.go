package auth

import (
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

const (
	minPINLength = 4
	maxPINLength = 8
)

// ValidatePIN enforces the lightweight PIN shape: 4 to 8 digits.
func ValidatePIN(pin string) error {
	if len(pin) < minPINLength || len(pin) > maxPINLength {
		return apperrors.NewValidationError("pin must be 4-8 digits", nil)
	}
	for _, ch := range pin {
		if ch < '0' || ch > '9' {
			return apperrors.NewValidationError("pin must be 4-8 digits", nil)
		}
	}
	return nil
}

// HashPIN hashes a staff PIN for storage.
func HashPIN(pin string, cost int) (string, error) {
	if err := ValidatePIN(pin); err != nil {
		return "", err
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPIN compares a presented PIN against the stored hash.
func VerifyPIN(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
