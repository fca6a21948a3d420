package models

import "time"

// Subscriber status values.
const (
	// SubscriberStatusActive marks a subscription eligible for delivery.
	SubscriberStatusActive = "active"
	// SubscriberStatusInactive marks a subscription retired after a delivery failure.
	SubscriberStatusInactive = "inactive"
)

// Subscriber represents a web-push subscription. The push service endpoint
// URL acts as the natural external key; re-subscribing with the same
// endpoint updates the row instead of duplicating it.
type Subscriber struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Endpoint  string `gorm:"type:text;not null;uniqueIndex"` // Push service endpoint URL.
	PublicKey string `gorm:"type:text;not null"`             // Subscription p256dh key.
	AuthToken string `gorm:"type:text;not null"`             // Subscription auth secret.

	UserID *uint64 `gorm:"index"`             // Owning user ID, nil for anonymous subscriptions.
	User   *User   `gorm:"foreignKey:UserID"` // Owning user.

	Status string `gorm:"type:text;not null;default:'active';index"` // active or inactive.

	SubscribedTime time.Time `gorm:"not null;autoCreateTime"` // Subscription timestamp.
}

// SentNotification is an append-only record of one delivered notification,
// one row per (broadcast, receiver) pair.
type SentNotification struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Title   string `gorm:"type:text;not null"` // Notification title.
	Message string `gorm:"type:text;not null"` // Notification body.

	ReceiverID uint64      `gorm:"not null;index"`        // Receiving subscriber ID.
	Receiver   *Subscriber `gorm:"foreignKey:ReceiverID"` // Receiving subscriber.

	SentTime time.Time `gorm:"not null;autoCreateTime"` // Delivery timestamp.
}
