package user_repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewUserRepository(db *pgxpool.Pool, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

// CreateUser inserts a new account.
func (r *UserRepository) CreateUser(ctx context.Context, user domain.User, passHash []byte) (uuid.UUID, error) {
	const op = "UserRepository.CreateUser"

	query := `
		INSERT INTO users (email, phone, full_name, role, pass_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id
	`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.Phone,
		user.FullName,
		user.Role.String(),
		passHash,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, repository.ErrUserExists)
		}
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// GetByEmail loads an account and its password hash for login.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, []byte, error) {
	const op = "UserRepository.GetByEmail"

	query := `
		SELECT user_id, email, phone, full_name, role, pass_hash, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`

	var u domain.User
	var roleStr string
	var passHash []byte
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Phone, &u.FullName, &roleStr, &passHash, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, nil, fmt.Errorf("%s: %w", op, repository.ErrUserNotFound)
		}
		return domain.User{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	u.Role = domain.UserRole(roleStr)
	return u, passHash, nil
}

// GetByID loads an account.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const op = "UserRepository.GetByID"

	query := `
		SELECT user_id, email, phone, full_name, role, created_at
		FROM users
		WHERE user_id = $1
	`

	var u domain.User
	var roleStr string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Phone, &u.FullName, &roleStr, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, fmt.Errorf("%s: %w", op, repository.ErrUserNotFound)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u.Role = domain.UserRole(roleStr)
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
