// Package push manages web-push subscriptions and broadcast fan-out. The
// transport itself is an external collaborator behind the Sender interface.
package push

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jzelenk/adminboard/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dispatch errors.
var (
	// ErrDisabled indicates the push subsystem is switched off. Every public
	// operation returns it instead of attempting work.
	ErrDisabled = errors.New("push: notifications disabled")
	// ErrValidation indicates an empty subscription field.
	ErrValidation = errors.New("push: invalid subscription")
)

// Subscription is the transport-facing view of a subscriber.
type Subscription struct {
	Endpoint  string
	PublicKey string
	AuthToken string
}

// Sender delivers one notification to one subscription.
type Sender interface {
	Send(ctx context.Context, sub Subscription, title, message string) error
}

// DeliveryReport summarizes one broadcast fan-out.
type DeliveryReport struct {
	Delivered   int `json:"delivered"`
	Failed      int `json:"failed"`
	Deactivated int `json:"deactivated"`
}

// Dispatcher implements the notification dispatch contract.
type Dispatcher struct {
	db      *gorm.DB
	sender  Sender
	enabled func() bool
	timeout time.Duration
}

// NewDispatcher constructs a Dispatcher. The enabled func is consulted on
// every public operation so the feature flag applies without a restart.
func NewDispatcher(conn *gorm.DB, sender Sender, enabled func() bool, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{db: conn, sender: sender, enabled: enabled, timeout: timeout}
}

// Enabled reports whether the subsystem is switched on.
func (d *Dispatcher) Enabled() bool {
	return d.enabled != nil && d.enabled()
}

// Subscribe upserts a subscription keyed by endpoint. Re-subscribing with a
// known endpoint refreshes the keys and reactivates the row.
func (d *Dispatcher) Subscribe(ctx context.Context, userID *uint64, endpoint, publicKey, authToken string) error {
	if !d.Enabled() {
		return ErrDisabled
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" || strings.TrimSpace(publicKey) == "" || strings.TrimSpace(authToken) == "" {
		return ErrValidation
	}

	row := models.Subscriber{
		Endpoint:  endpoint,
		PublicKey: publicKey,
		AuthToken: authToken,
		UserID:    userID,
		Status:    models.SubscriberStatusActive,
	}
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"public_key", "auth_token", "user_id", "status"}),
		}).
		Create(&row).Error
}

// IsEndpointSubscribed reports whether an active subscription exists for the
// endpoint.
func (d *Dispatcher) IsEndpointSubscribed(ctx context.Context, endpoint string) (bool, error) {
	_, ok, err := d.SubscriberID(ctx, endpoint)
	return ok, err
}

// SubscriberID returns the active subscriber's ID for an endpoint.
func (d *Dispatcher) SubscriberID(ctx context.Context, endpoint string) (uint64, bool, error) {
	if !d.Enabled() {
		return 0, false, ErrDisabled
	}

	var row models.Subscriber
	errFind := d.db.WithContext(ctx).
		Where("endpoint = ? AND status = ?", strings.TrimSpace(endpoint), models.SubscriberStatusActive).
		First(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, errFind
	}
	return row.ID, true, nil
}

// SendNotification fans a broadcast out to every active subscriber. Each
// delivery runs under its own timeout; a failure deactivates that subscriber
// and never aborts the rest of the fan-out. One SentNotification row is
// appended per successful delivery.
func (d *Dispatcher) SendNotification(ctx context.Context, title, message string) (DeliveryReport, error) {
	if !d.Enabled() {
		return DeliveryReport{}, ErrDisabled
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(message) == "" {
		return DeliveryReport{}, ErrValidation
	}

	var subscribers []models.Subscriber
	if errFind := d.db.WithContext(ctx).
		Where("status = ?", models.SubscriberStatusActive).
		Order("id ASC").
		Find(&subscribers).Error; errFind != nil {
		return DeliveryReport{}, errFind
	}

	var report DeliveryReport
	for _, subscriber := range subscribers {
		errSend := d.deliverOne(ctx, subscriber, title, message)
		if errSend != nil {
			report.Failed++
			log.WithError(errSend).WithField("subscriber", subscriber.ID).
				Warn("push delivery failed, deactivating subscriber")
			if errDeactivate := d.db.WithContext(ctx).Model(&models.Subscriber{}).
				Where("id = ?", subscriber.ID).
				Update("status", models.SubscriberStatusInactive).Error; errDeactivate == nil {
				report.Deactivated++
			}
			continue
		}

		sent := models.SentNotification{
			Title:      title,
			Message:    message,
			ReceiverID: subscriber.ID,
		}
		if errRecord := d.db.WithContext(ctx).Create(&sent).Error; errRecord != nil {
			log.WithError(errRecord).WithField("subscriber", subscriber.ID).
				Error("record sent notification failed")
		}
		report.Delivered++
	}
	return report, nil
}

// deliverOne sends to a single subscriber under the per-subscriber timeout.
func (d *Dispatcher) deliverOne(ctx context.Context, subscriber models.Subscriber, title, message string) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	sub := Subscription{
		Endpoint:  subscriber.Endpoint,
		PublicKey: subscriber.PublicKey,
		AuthToken: subscriber.AuthToken,
	}
	return d.sender.Send(sendCtx, sub, title, message)
}
