package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zapagent/internal/entities"
)

type AdminRepository struct {
	db *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Create(ctx context.Context, user *entities.AdminUser) error {
	return r.db.QueryRow(ctx,
		"INSERT INTO admin_users (username, password_hash, role) VALUES ($1, $2, $3) RETURNING id",
		user.Username, user.PasswordHash, user.Role).Scan(&user.ID)
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*entities.AdminUser, error) {
	var user entities.AdminUser
	err := r.db.QueryRow(ctx,
		"SELECT id, username, password_hash, role FROM admin_users WHERE username = $1",
		username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)
	if err == pgx.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
