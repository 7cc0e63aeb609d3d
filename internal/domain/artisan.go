package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArtisanProfile is the long-lived profile of a tradesperson on the platform.
// It is created at registration and mutated by the artisan (availability,
// service zones) and by admin verification workflows.
type ArtisanProfile struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CompanyName string
	Siren       string
	Siret       string

	// Categories lists the trades the artisan serves. Used as a hard filter
	// during matching.
	Categories []TradeCategory

	// Zones defines where the artisan will travel for work.
	Zones []ServiceZone

	Verification VerificationFlags
	Status       ArtisanStatus

	// Notation is the aggregate review average on a 0-5 scale.
	// It only influences matching when NombreAvis > 0.
	Notation   float64
	NombreAvis int32

	Calendar Calendar

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ServiceZone is one area the artisan covers. GPS is optional; when absent,
// distance scoring degrades to a neutral value instead of excluding the artisan.
type ServiceZone struct {
	City string
	GPS  *GPSCoordinates
}

// VerificationFlags tracks the document checks an artisan has passed.
// DecennaleVerified only applies to trades that legally require it.
type VerificationFlags struct {
	SiretVerified     bool
	KbisVerified      bool
	IdentityVerified  bool
	LiabilityVerified bool
	DecennaleVerified bool
}

// TradeCategory is a trade the platform knows about.
type TradeCategory string

const (
	TradeUnspecified TradeCategory = ""
	TradePlomberie   TradeCategory = "plomberie"
	TradeElectricite TradeCategory = "electricite"
	TradePeinture    TradeCategory = "peinture"
	TradeMenuiserie  TradeCategory = "menuiserie"
	TradeMaconnerie  TradeCategory = "maconnerie"
	TradeChauffage   TradeCategory = "chauffage"
	TradeToiture     TradeCategory = "toiture"
	TradeSerrurerie  TradeCategory = "serrurerie"
)

func (t TradeCategory) String() string {
	return string(t)
}

// Valid reports whether the category is one the platform accepts.
func (t TradeCategory) Valid() bool {
	for _, c := range KnownTradeCategories {
		if c == t {
			return true
		}
	}
	return false
}

// KnownTradeCategories lists every category accepted from the search form.
var KnownTradeCategories = []TradeCategory{
	TradePlomberie, TradeElectricite, TradePeinture, TradeMenuiserie,
	TradeMaconnerie, TradeChauffage, TradeToiture, TradeSerrurerie,
}

// ServesCategory reports whether the artisan serves the given trade.
func (a ArtisanProfile) ServesCategory(cat TradeCategory) bool {
	for _, c := range a.Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// ArtisanStatus is the lifecycle state of a profile.
type ArtisanStatus string

const (
	ArtisanStatusUnspecified ArtisanStatus = ""
	ArtisanStatusPending     ArtisanStatus = "PENDING"   // Registered, verification in progress
	ArtisanStatusActive      ArtisanStatus = "ACTIVE"    // Verified, visible in search
	ArtisanStatusSuspended   ArtisanStatus = "SUSPENDED" // Suspended by admin
)

func (s ArtisanStatus) String() string {
	return string(s)
}

// ArtisanFilter is a partial-update / listing filter for artisan profiles.
type ArtisanFilter struct {
	CompanyName *string
	Siret       *string
	Category    *TradeCategory
	City        *string
	Status      *ArtisanStatus
	UserID      *uuid.UUID

	Pagination *PaginationParams
}
