package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole separates clients from artisans and admins.
type UserRole string

const (
	RoleClient  UserRole = "client"
	RoleArtisan UserRole = "artisan"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) String() string {
	return string(r)
}

// User is a platform account. Artisans additionally own an ArtisanProfile.
type User struct {
	ID        uuid.UUID
	Email     string
	Phone     string
	FullName  string
	Role      UserRole
	CreatedAt time.Time
}
