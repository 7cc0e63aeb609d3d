package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationChannel selects the delivery mechanism.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

func (c NotificationChannel) String() string {
	return string(c)
}

// NotificationStatus is persisted as a plain status column; the watcher
// moves records pending -> sent/failed on its fixed-interval tick.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

func (s NotificationStatus) String() string {
	return string(s)
}

// Notification is one queued email or SMS.
type Notification struct {
	ID        uuid.UUID
	Channel   NotificationChannel
	Recipient string
	// Subject is empty for SMS
	Subject   string
	Body      string
	Status    NotificationStatus
	LastError *string
	CreatedAt time.Time
	SentAt    *time.Time
}
