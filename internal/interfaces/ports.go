package interfaces

import (
	"context"

	"zapagent/internal/entities"
)

// Generator produces the assistant reply for one user message. Implementations
// must soft-fail: on upstream errors they return a fallback reply, never an
// empty string.
type Generator interface {
	Generate(ctx context.Context, userInput, prompt, language, tone string, history []entities.HistoryEntry) string
}

// SendOutcome reports one outbound delivery attempt. Success mirrors the
// upstream 2xx check; Body is kept for logging only.
type SendOutcome struct {
	Success    bool
	StatusCode int
	Body       string
}

// Sender delivers one reply through a concrete provider. Credentials are
// plaintext by the time a Sender exists; construction is the dispatcher's job.
type Sender interface {
	Send(ctx context.Context, phone, text string) SendOutcome
}

// Dispatcher maps a tenant's configured provider to a ready-to-use Sender.
type Dispatcher interface {
	Dispatch(tenant *entities.Tenant) (Sender, error)
}

// SecretStore is the reversible encryption capability for tenant credentials.
type SecretStore interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TenantStore is the read side of the tenant directory used by the pipeline.
type TenantStore interface {
	GetByPhoneNumberID(ctx context.Context, phoneNumberID string) (*entities.Tenant, error)
	GetByZAPIInstance(ctx context.Context, instanceID string) (*entities.Tenant, error)
	GetByDisplayNumber(ctx context.Context, phone string) (*entities.Tenant, error)
}

// ConversationStore appends turns and serves bounded recent history.
type ConversationStore interface {
	Append(ctx context.Context, turn *entities.ConversationTurn) error
	RecentHistory(ctx context.Context, tenantID int, phone string, limit int) ([]entities.HistoryEntry, error)
}

// SessionPolicyStore holds the per (tenant, phone) AI-enable flag.
type SessionPolicyStore interface {
	Get(ctx context.Context, tenantID int, phone string) (*entities.SessionPolicy, error)
	Upsert(ctx context.Context, tenantID int, phone string, aiEnabled bool) error
}
