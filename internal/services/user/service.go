package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/jwt"
	"artisan_dispo/internal/lib/logger/sl"
	"artisan_dispo/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User, passHash []byte) (uuid.UUID, error)
	GetByEmail(ctx context.Context, email string) (domain.User, []byte, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
)

type Service struct {
	log      *slog.Logger
	repo     UserRepository
	secret   string
	tokenTTL time.Duration
}

func New(log *slog.Logger, repo UserRepository, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// Register creates an account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, email, phone, fullName, password string, role domain.UserRole) (uuid.UUID, error) {
	const op = "user.Service.Register"
	log := s.log.With(slog.String("op", op), slog.String("email", email))

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.CreateUser(ctx, domain.User{
		Email:    email,
		Phone:    phone,
		FullName: fullName,
		Role:     role,
	}, passHash)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		log.Error("failed to create user", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("user_id", id.String()))
	return id, nil
}

// Login checks credentials and returns a signed token. A wrong password and
// an unknown email produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	const op = "user.Service.Login"
	log := s.log.With(slog.String("op", op))

	account, passHash, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(passHash, []byte(password)); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := jwt.NewToken(account, s.secret, s.tokenTTL)
	if err != nil {
		log.Error("failed to sign token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.String("user_id", account.ID.String()))
	return token, nil
}

// GetUser loads an account by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const op = "user.Service.GetUser"

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}
