package jwt

import (
	"errors"
	"fmt"
	"time"

	"artisan_dispo/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what we put in and read back from an access token.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Role   domain.UserRole
}

// NewToken mints a signed access token for a user.
func NewToken(user domain.User, secret string, ttl time.Duration) (string, error) {
	const op = "jwt.NewToken"

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role.String(),
		"exp":   time.Now().Add(ttl).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// ParseToken validates a token and extracts its claims.
func ParseToken(tokenString, secret string) (Claims, error) {
	const op = "jwt.ParseToken"

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uidStr, _ := mapClaims["uid"].(string)
	uid, err := uuid.Parse(uidStr)
	if err != nil {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	email, _ := mapClaims["email"].(string)
	role, _ := mapClaims["role"].(string)

	return Claims{
		UserID: uid,
		Email:  email,
		Role:   domain.UserRole(role),
	}, nil
}
