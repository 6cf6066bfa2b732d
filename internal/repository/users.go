package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
)

// UserRepository — учётные записи пользователей.
type UserRepository interface {
	// Create сохраняет пользователя. ErrConflict — username или email заняты.
	Create(ctx context.Context, u *model.User) error
	// GetByEmail ищет пользователя по email (без учёта регистра).
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// Create добавляет пользователя и заполняет ID и CreatedAt.
func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = model.UserID(uuid.New().String())
	}

	query := `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, LOWER($3), $4)
		RETURNING email, created_at`

	err := r.db.QueryRow(ctx, query, u.ID.String(), u.Username, u.Email, u.PasswordHash).
		Scan(&u.Email, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

// GetByEmail возвращает пользователя или ErrNotFound.
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE email = LOWER($1)`

	u := &model.User{}
	var id string
	err := r.db.QueryRow(ctx, query, email).
		Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	u.ID = model.UserID(id)
	return u, nil
}
