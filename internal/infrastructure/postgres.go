package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	// Auto-migrate schema
	if err := client.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) Migrate() error {
	ctx := context.Background()

	// Tenants Table. All *_token / *_secret / zapi_* columns hold Fernet
	// ciphertext; the schema is blind to key material.
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tenants (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			display_number VARCHAR(32),
			phone_number_id VARCHAR(64) UNIQUE,
			provider VARCHAR(16) NOT NULL,
			whatsapp_token TEXT,
			webhook_secret TEXT,
			verify_token TEXT,
			zapi_instance_id TEXT,
			zapi_token TEXT,
			ai_prompt TEXT,
			language VARCHAR(50) DEFAULT 'Portuguese',
			tone VARCHAR(50) DEFAULT 'Formal',
			business_hours VARCHAR(64),
			active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create tenants table: %w", err)
	}

	// Conversations Table (append-only)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			id SERIAL PRIMARY KEY,
			tenant_id INT NOT NULL REFERENCES tenants(id),
			phone_number VARCHAR(32) NOT NULL,
			user_message TEXT NOT NULL,
			ai_response TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create conversations table: %w", err)
	}
	_, err = p.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_conversations_history
		ON conversations (tenant_id, phone_number, created_at);
	`)
	if err != nil {
		return fmt.Errorf("create conversations index: %w", err)
	}

	// Client Sessions Table. Absence of a row means AI enabled.
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS client_sessions (
			id SERIAL PRIMARY KEY,
			tenant_id INT NOT NULL REFERENCES tenants(id),
			phone_number VARCHAR(32) NOT NULL,
			ai_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (tenant_id, phone_number)
		);
	`)
	if err != nil {
		return fmt.Errorf("create client_sessions table: %w", err)
	}

	// Admin Users Table
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS admin_users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) DEFAULT 'admin',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create admin_users table: %w", err)
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
