package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/jzelenk/adminboard/internal/config"
)

// WebPushSender delivers notifications through the Web Push protocol with
// VAPID authentication.
type WebPushSender struct {
	publicKey  string
	privateKey string
	contact    string
}

// NewWebPushSender constructs a WebPushSender from push config.
func NewWebPushSender(cfg config.PushConfig) *WebPushSender {
	return &WebPushSender{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		contact:    cfg.Contact,
	}
}

// Send implements Sender.
func (s *WebPushSender) Send(ctx context.Context, sub Subscription, title, message string) error {
	payload, errEncode := json.Marshal(map[string]string{
		"title":   title,
		"message": message,
	})
	if errEncode != nil {
		return errEncode
	}

	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.PublicKey,
			Auth:   sub.AuthToken,
		},
	}
	resp, errSend := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
		Subscriber:      s.contact,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60,
	})
	if errSend != nil {
		return errSend
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push: endpoint returned %d", resp.StatusCode)
	}
	return nil
}
