package entities

import "time"

// SessionPolicy is the per (tenant, end-user phone) AI participation override.
// No row means AI enabled.
type SessionPolicy struct {
	ID          int       `json:"id"`
	TenantID    int       `json:"tenant_id"`
	PhoneNumber string    `json:"phone_number"`
	AIEnabled   bool      `json:"ai_enabled"`
	UpdatedAt   time.Time `json:"updated_at"`
}
