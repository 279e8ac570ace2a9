package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"stamp_card/internal/model"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrRejected is returned when the push service answers with a non-2xx status
var ErrRejected = errors.New("push service rejected the notification")

// Sender delivers one encrypted payload to one subscription
type Sender interface {
	Send(ctx context.Context, sub model.PushSubscription, payload []byte) error
}

// VAPIDKeys is the application server key pair
type VAPIDKeys struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// LoadOrGenerateVAPIDKeys reads the key pair stored at path, generating and
// storing a new one when the file does not exist yet.
func LoadOrGenerateVAPIDKeys(path string) (VAPIDKeys, error) {
	var keys VAPIDKeys
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &keys); err != nil {
			return VAPIDKeys{}, fmt.Errorf("failed to parse VAPID keys file %s: %w", path, err)
		}
		if keys.PublicKey == "" || keys.PrivateKey == "" {
			return VAPIDKeys{}, fmt.Errorf("VAPID keys file %s is incomplete", path)
		}
		return keys, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return VAPIDKeys{}, fmt.Errorf("failed to read VAPID keys file %s: %w", path, err)
	}

	keys.PrivateKey, keys.PublicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return VAPIDKeys{}, fmt.Errorf("failed to generate VAPID keys: %w", err)
	}
	data, err = json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return VAPIDKeys{}, fmt.Errorf("failed to encode VAPID keys: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return VAPIDKeys{}, fmt.Errorf("failed to create directory for VAPID keys: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return VAPIDKeys{}, fmt.Errorf("failed to store VAPID keys: %w", err)
	}
	return keys, nil
}

// WebPushSender sends notifications with the Web Push protocol
type WebPushSender struct {
	keys       VAPIDKeys
	subscriber string
	ttl        int
	client     *http.Client
}

// NewWebPushSender creates a WebPushSender. subscriber is the VAPID contact (mailto: or https: URL).
func NewWebPushSender(keys VAPIDKeys, subscriber string, client *http.Client) *WebPushSender {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &WebPushSender{keys: keys, subscriber: subscriber, ttl: 60, client: client}
}

// PublicKey returns the VAPID public key browsers subscribe with
func (s *WebPushSender) PublicKey() string {
	return s.keys.PublicKey
}

func (s *WebPushSender) Send(ctx context.Context, sub model.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subscriber,
		TTL:             s.ttl,
		VAPIDPublicKey:  s.keys.PublicKey,
		VAPIDPrivateKey: s.keys.PrivateKey,
	})
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	return nil
}
