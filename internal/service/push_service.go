package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"stamp_card/internal/model"
	"stamp_card/internal/push"

	"go.uber.org/atomic"
)

// PushRequest describes a manual push broadcast. A nil IDs slice targets every subscribed user.
type PushRequest struct {
	Title   string
	Message string
	IDs     []string
	Icon    string
}

type pushPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Icon    string `json:"icon,omitempty"`
}

// SubscriberSource lists users that can receive push messages
type SubscriberSource interface {
	SubscribedUsers(ids []string) []model.User
}

// PushService fans a notification out to subscribed users
type PushService interface {
	Send(ctx context.Context, req PushRequest) int
}

type pushService struct {
	users       SubscriberSource
	sender      push.Sender
	concurrency int
}

// NewPushService creates a new PushService delivering through sender with at most concurrency requests in flight
func NewPushService(users SubscriberSource, sender push.Sender, concurrency int) PushService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &pushService{users: users, sender: sender, concurrency: concurrency}
}

// Send delivers the notification to every target and returns how many deliveries succeeded.
// A failed delivery is logged and does not stop the others.
func (s *pushService) Send(ctx context.Context, req PushRequest) int {
	targets := s.users.SubscribedUsers(req.IDs)
	delivered := atomic.NewInt64(0)

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for _, user := range targets {
		payload, err := json.Marshal(pushPayload{
			Title:   req.Title,
			Message: fmt.Sprintf("Hola: %s %s", user.Name, req.Message),
			Icon:    req.Icon,
		})
		if err != nil {
			log.Printf("ERROR: failed to encode push payload for user %s: %v", user.ID, err)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(user model.User, payload []byte) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.sender.Send(ctx, *user.Subscription, payload); err != nil {
				log.Printf("WARN: push to user %s failed: %v", user.ID, err)
				return
			}
			delivered.Inc()
		}(user, payload)
	}
	wg.Wait()

	return int(delivered.Load())
}
