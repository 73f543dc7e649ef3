package entities

import "time"

// Provider names accepted in tenants.provider. Matching is case-insensitive
// at dispatch time; the database stores the lowercase form.
const (
	ProviderMeta = "meta"
	ProviderZAPI = "zapi"
)

// Tenant is one onboarded business account. All *Enc fields hold Fernet
// ciphertext; plaintext credentials only exist transiently inside the
// dispatcher and the tenant directory scan.
type Tenant struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	DisplayNumber    string    `json:"display_number"`
	PhoneNumberID    string    `json:"phone_number_id"` // empty for zapi tenants
	Provider         string    `json:"provider"`
	WhatsAppTokenEnc string    `json:"-"`
	WebhookSecretEnc string    `json:"-"`
	VerifyTokenEnc   string    `json:"-"`
	ZAPIInstanceEnc  string    `json:"-"`
	ZAPITokenEnc     string    `json:"-"`
	AIPrompt         string    `json:"ai_prompt"`
	Language         string    `json:"language"`
	Tone             string    `json:"tone"`
	BusinessHours    string    `json:"business_hours"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}
