package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zapagent/internal/entities"
)

// SessionRepository stores per (tenant, phone) AI participation flags.
type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Get(ctx context.Context, tenantID int, phone string) (*entities.SessionPolicy, error) {
	var p entities.SessionPolicy
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, phone_number, ai_enabled, updated_at
		FROM client_sessions
		WHERE tenant_id = $1 AND phone_number = $2
	`, tenantID, phone).Scan(&p.ID, &p.TenantID, &p.PhoneNumber, &p.AIEnabled, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil // No row means default-enabled
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert is atomic at the row level; concurrent toggles for the same
// (tenant, phone) serialize in the database.
func (r *SessionRepository) Upsert(ctx context.Context, tenantID int, phone string, aiEnabled bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO client_sessions (tenant_id, phone_number, ai_enabled, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tenant_id, phone_number)
		DO UPDATE SET ai_enabled = EXCLUDED.ai_enabled, updated_at = NOW()
	`, tenantID, phone, aiEnabled)
	return err
}
