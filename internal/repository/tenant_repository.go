package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"zapagent/internal/entities"
	"zapagent/internal/interfaces"
)

const tenantColumns = `id, name, COALESCE(display_number, ''), COALESCE(phone_number_id, ''), provider,
	COALESCE(whatsapp_token, ''), COALESCE(webhook_secret, ''), COALESCE(verify_token, ''),
	COALESCE(zapi_instance_id, ''), COALESCE(zapi_token, ''),
	COALESCE(ai_prompt, ''), language, tone, COALESCE(business_hours, ''), active, created_at`

// TenantRepository is the tenant directory. Resolution is read-only; only the
// provisioning API mutates tenants (plus the active flag).
type TenantRepository struct {
	db      *pgxpool.Pool
	secrets interfaces.SecretStore
	log     *logrus.Logger
}

func NewTenantRepository(db *pgxpool.Pool, secrets interfaces.SecretStore, log *logrus.Logger) *TenantRepository {
	return &TenantRepository{db: db, secrets: secrets, log: log}
}

func scanTenant(row pgx.Row) (*entities.Tenant, error) {
	var t entities.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.DisplayNumber, &t.PhoneNumberID, &t.Provider,
		&t.WhatsAppTokenEnc, &t.WebhookSecretEnc, &t.VerifyTokenEnc,
		&t.ZAPIInstanceEnc, &t.ZAPITokenEnc,
		&t.AIPrompt, &t.Language, &t.Tone, &t.BusinessHours, &t.Active, &t.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id int) (*entities.Tenant, error) {
	return scanTenant(r.db.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE id = $1", id))
}

func (r *TenantRepository) GetByPhoneNumberID(ctx context.Context, phoneNumberID string) (*entities.Tenant, error) {
	return scanTenant(r.db.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE phone_number_id = $1", phoneNumberID))
}

func (r *TenantRepository) GetByDisplayNumber(ctx context.Context, phone string) (*entities.Tenant, error) {
	return scanTenant(r.db.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE display_number = $1", phone))
}

// GetByZAPIInstance scans every zapi tenant, decrypting the stored instance id
// and comparing against the payload's instanceId. There is no plaintext index
// because the column is ciphertext, so this is O(n) over tenants — fine at
// onboarding scale. A row that fails to decrypt is skipped, not fatal.
func (r *TenantRepository) GetByZAPIInstance(ctx context.Context, instanceID string) (*entities.Tenant, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE provider = 'zapi' AND zapi_instance_id IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		decrypted, err := r.secrets.Decrypt(t.ZAPIInstanceEnc)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"tenant_id": t.ID,
			}).Warn("Skipping tenant with undecryptable zapi instance id")
			continue
		}
		if decrypted == instanceID {
			return t, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, nil // Not found
}

func (r *TenantRepository) Create(ctx context.Context, t *entities.Tenant) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO tenants (name, display_number, phone_number_id, provider,
			whatsapp_token, webhook_secret, verify_token, zapi_instance_id, zapi_token,
			ai_prompt, language, tone, business_hours, active)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''),
			NULLIF($8, ''), NULLIF($9, ''), $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`, t.Name, t.DisplayNumber, t.PhoneNumberID, t.Provider,
		t.WhatsAppTokenEnc, t.WebhookSecretEnc, t.VerifyTokenEnc,
		t.ZAPIInstanceEnc, t.ZAPITokenEnc,
		t.AIPrompt, t.Language, t.Tone, t.BusinessHours, t.Active).Scan(&t.ID, &t.CreatedAt)
}

func (r *TenantRepository) List(ctx context.Context) ([]entities.Tenant, error) {
	rows, err := r.db.Query(ctx, "SELECT "+tenantColumns+" FROM tenants ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := []entities.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

// SetActive flips the tenant pause flag. The orchestrator only reads it.
func (r *TenantRepository) SetActive(ctx context.Context, id int, active bool) error {
	tag, err := r.db.Exec(ctx, "UPDATE tenants SET active = $1 WHERE id = $2", active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
