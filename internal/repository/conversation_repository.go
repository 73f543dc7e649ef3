package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"zapagent/internal/entities"
)

// ConversationRepository is the append-only conversation log.
type ConversationRepository struct {
	db *pgxpool.Pool
}

func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Append(ctx context.Context, turn *entities.ConversationTurn) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO conversations (tenant_id, phone_number, user_message, ai_response)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, turn.TenantID, turn.PhoneNumber, turn.UserMessage, turn.AIResponse).Scan(&turn.ID, &turn.CreatedAt)
}

// RecentHistory returns the last `limit` turns for (tenant, phone) flattened
// into alternating user/assistant entries, oldest first.
func (r *ConversationRepository) RecentHistory(ctx context.Context, tenantID int, phone string, limit int) ([]entities.HistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_message, ai_response FROM conversations
		WHERE tenant_id = $1 AND phone_number = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, tenantID, phone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := [][2]string{}
	for rows.Next() {
		var userMsg, aiMsg string
		if err := rows.Scan(&userMsg, &aiMsg); err != nil {
			return nil, err
		}
		turns = append(turns, [2]string{userMsg, aiMsg})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query is newest-first; walk backwards to restore chronological order.
	history := make([]entities.HistoryEntry, 0, len(turns)*2)
	for i := len(turns) - 1; i >= 0; i-- {
		history = append(history,
			entities.HistoryEntry{Role: "user", Content: turns[i][0]},
			entities.HistoryEntry{Role: "assistant", Content: turns[i][1]})
	}
	return history, nil
}

// ListByPhone returns full turns for the admin API, newest first.
func (r *ConversationRepository) ListByPhone(ctx context.Context, tenantID int, phone string, limit int) ([]entities.ConversationTurn, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, phone_number, user_message, ai_response, created_at
		FROM conversations
		WHERE tenant_id = $1 AND ($2 = '' OR phone_number = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, tenantID, phone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []entities.ConversationTurn{}
	for rows.Next() {
		var t entities.ConversationTurn
		if err := rows.Scan(&t.ID, &t.TenantID, &t.PhoneNumber, &t.UserMessage, &t.AIResponse, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
