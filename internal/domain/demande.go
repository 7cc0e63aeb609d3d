package domain

import (
	"time"

	"github.com/google/uuid"
)

// Demande is a client's request for work. It is either directed at one
// artisan or published publicly for any qualified artisan to answer, which is
// the fallback the UI offers when a search returns no results.
type Demande struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	Category    TradeCategory
	Title       string
	Description string
	City        string
	PostalCode  string
	GPS         *GPSCoordinates

	DesiredDates    []time.Time
	Flexible        bool
	FlexibilityDays int
	Urgency         Urgency

	// ArtisanID is set for directed demandes and nil for public ones.
	ArtisanID *uuid.UUID
	Public    bool

	Status    DemandeStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DemandeStatus is the lifecycle state of a demande.
type DemandeStatus string

const (
	DemandeStatusUnspecified DemandeStatus = ""
	DemandeStatusOpen        DemandeStatus = "OPEN"
	DemandeStatusQuoted      DemandeStatus = "QUOTED"    // At least one devis received
	DemandeStatusAccepted    DemandeStatus = "ACCEPTED"  // A devis was accepted, contract signed
	DemandeStatusCancelled   DemandeStatus = "CANCELLED"
)

func (s DemandeStatus) String() string {
	return string(s)
}

// Devis is a quote submitted by an artisan for a demande.
type Devis struct {
	ID        uuid.UUID
	DemandeID uuid.UUID
	ArtisanID uuid.UUID

	AmountCents int64
	Message     string

	// StartDate and EndDate are the work window the artisan proposes. On
	// acceptance this range becomes contract-occupied in their calendar.
	StartDate time.Time
	EndDate   time.Time

	Status    DevisStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DevisStatus is the lifecycle state of a devis.
type DevisStatus string

const (
	DevisStatusUnspecified DevisStatus = ""
	DevisStatusPending     DevisStatus = "PENDING"
	DevisStatusAccepted    DevisStatus = "ACCEPTED"
	DevisStatusRejected    DevisStatus = "REJECTED"
	DevisStatusWithdrawn   DevisStatus = "WITHDRAWN"
)

func (s DevisStatus) String() string {
	return string(s)
}

// Contract is the signed agreement produced by accepting a devis. Its date
// range automatically occupies the artisan's availability.
type Contract struct {
	ID        uuid.UUID
	DemandeID uuid.UUID
	DevisID   uuid.UUID
	ArtisanID uuid.UUID
	ClientID  uuid.UUID

	AmountCents int64
	StartDate   time.Time
	EndDate     time.Time

	Status    ContractStatus
	SignedAt  time.Time
	CreatedAt time.Time
}

// ContractStatus is the lifecycle state of a contract.
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "ACTIVE"
	ContractStatusCompleted ContractStatus = "COMPLETED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
)

func (s ContractStatus) String() string {
	return string(s)
}

// DemandeFilter is a listing filter for demandes.
type DemandeFilter struct {
	ClientID  *uuid.UUID
	ArtisanID *uuid.UUID
	Category  *TradeCategory
	City      *string
	Status    *DemandeStatus
	Public    *bool

	Pagination *PaginationParams
}
