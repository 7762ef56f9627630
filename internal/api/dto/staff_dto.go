package dto

import (
	"time"

	"github.com/crewline/staff-sync-service/internal/domain"
)

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

// StaffLoginResponse payload.
type StaffLoginResponse struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	IdentityKey string    `json:"identity_key"`
	Staff       StaffView `json:"staff"`
}

// CreateStaffRequest payload for onboarding.
type CreateStaffRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	PIN   string `json:"pin"`
	Role  string `json:"role"`
}

// StaffView is the external staff representation.
type StaffView struct {
	RecordID    string `json:"record_id"`
	IdentityKey string `json:"identity_key,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
}

// NewStaffView maps a domain record.
func NewStaffView(record *domain.StaffRecord) StaffView {
	view := StaffView{
		RecordID: record.RecordID,
		Name:     record.Name,
		Email:    record.Email,
		Role:     string(record.Role),
		Active:   record.Active,
	}
	if record.HasCanonicalKey() {
		view.IdentityKey = *record.CanonicalIdentityKey
	}
	return view
}
