package entities

// AdminUser operates the provisioning API. Not related to WhatsApp end users.
type AdminUser struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}
