package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePIN(t *testing.T) {
	cases := []struct {
		name  string
		pin   string
		valid bool
	}{
		{"four digits", "1234", true},
		{"eight digits", "12345678", true},
		{"too short", "123", false},
		{"too long", "123456789", false},
		{"letters", "12ab", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePIN(tc.pin)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestHashAndVerifyPIN(t *testing.T) {
	hash, err := HashPIN("4821", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "4821", hash)

	assert.True(t, VerifyPIN(hash, "4821"))
	assert.False(t, VerifyPIN(hash, "4822"))
}

func TestHashPINRejectsInvalidShape(t *testing.T) {
	_, err := HashPIN("12", bcrypt.MinCost)
	assert.Error(t, err)
}

func TestHashPINClampsBogusCost(t *testing.T) {
	hash, err := HashPIN("4821", 99)
	require.NoError(t, err)
	assert.True(t, VerifyPIN(hash, "4821"))
}
