package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"stamp_card/internal/model"
	"stamp_card/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrPrizeNotFound = errors.New("prize not found")
	ErrAlreadyMaxed  = errors.New("user already has the maximum number of stamps")
)

// LoyaltyService owns the process-wide AppState. Every mutation runs under a
// single lock and saves the full state before returning.
type LoyaltyService interface {
	FindUserByEndpointOrPhone(endpoint, phone string) (model.User, bool)
	UpsertSubscription(ctx context.Context, name, phone string, sub model.PushSubscription) (model.User, bool)
	RegisterUser(ctx context.Context, name string) (model.User, bool)
	AddStamp(ctx context.Context, userID string) (int, string, error)
	RedeemCard(ctx context.Context, userID string) error
	DeleteUser(ctx context.Context, userID string) error
	ListActiveUsers() []model.ActiveUser
	SubscribedUsers(ids []string) []model.User

	CreatePrize(ctx context.Context, name string) model.Prize
	DeletePrize(ctx context.Context, prizeID string) error
	ListPrizes() []model.Prize

	Admin() model.AdminCredentials
	Snapshot() *model.AppState
}

// LoyaltyOption configures a LoyaltyService
type LoyaltyOption func(*loyaltyService)

// WithRandomIndex replaces the prize picker. pick(n) must return a value in [0, n).
func WithRandomIndex(pick func(n int) int) LoyaltyOption {
	return func(s *loyaltyService) {
		s.pick = pick
	}
}

// WithIDGenerator replaces the id source for new users and prizes
func WithIDGenerator(newID func() string) LoyaltyOption {
	return func(s *loyaltyService) {
		s.newID = newID
	}
}

type loyaltyService struct {
	mu    sync.Mutex
	state *model.AppState
	store repository.StateStore
	pick  func(n int) int
	newID func() string
}

// NewLoyaltyService loads the state from store and returns the service owning it
func NewLoyaltyService(ctx context.Context, store repository.StateStore, opts ...LoyaltyOption) (LoyaltyService, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state from %s store: %w", store.Driver(), err)
	}
	state.Normalize()
	s := &loyaltyService{
		state: state,
		store: store,
		pick:  rand.IntN,
		newID: newTimeOrderedID,
	}
	for _, o := range opts {
		o(s)
	}
	log.Printf("INFO: loaded state from %s store (%d users, %d prizes)", store.Driver(), len(state.Users), len(state.Prizes))
	return s, nil
}

// newTimeOrderedID returns a UUIDv7, falling back to the clock if the generator fails
func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return id.String()
}

// persist must be called with s.mu held. The save outlives a cancelled
// request context. A failed save is logged and the in-memory state stays
// authoritative.
func (s *loyaltyService) persist(ctx context.Context) {
	if err := s.store.Save(context.WithoutCancel(ctx), s.state); err != nil {
		log.Printf("ERROR: failed to save state to %s store: %v", s.store.Driver(), err)
	}
}

func (s *loyaltyService) userIndex(userID string) int {
	for i := range s.state.Users {
		if s.state.Users[i].ID == userID {
			return i
		}
	}
	return -1
}

func (s *loyaltyService) prizeIndex(prizeID string) int {
	for i := range s.state.Prizes {
		if s.state.Prizes[i].ID == prizeID {
			return i
		}
	}
	return -1
}

// findByEndpointOrPhone must be called with s.mu held
func (s *loyaltyService) findByEndpointOrPhone(endpoint, phone string) int {
	if endpoint != "" {
		for i := range s.state.Users {
			u := &s.state.Users[i]
			if u.Subscription != nil && u.Subscription.Endpoint == endpoint {
				return i
			}
		}
	}
	for i := range s.state.Users {
		if s.state.Users[i].Phone == phone {
			return i
		}
	}
	return -1
}

func (s *loyaltyService) FindUserByEndpointOrPhone(endpoint, phone string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findByEndpointOrPhone(endpoint, phone)
	if idx < 0 {
		return model.User{}, false
	}
	return s.state.Users[idx].Clone(), true
}

func (s *loyaltyService) UpsertSubscription(ctx context.Context, name, phone string, sub model.PushSubscription) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	isNew := false
	idx := s.findByEndpointOrPhone(sub.Endpoint, phone)
	if idx >= 0 {
		u := &s.state.Users[idx]
		u.Name = name
		u.Phone = phone
		u.Subscription = &sub
	} else {
		s.state.Users = append(s.state.Users, model.User{
			ID:           s.newID(),
			Name:         name,
			Phone:        phone,
			Subscription: &sub,
			Stamps:       0,
		})
		idx = len(s.state.Users) - 1
		isNew = true
	}
	user := s.state.Users[idx].Clone()
	s.persist(ctx)
	return user, isNew
}

// RegisterUser adds a user known only by name. An existing user with the same name is returned unchanged.
func (s *loyaltyService) RegisterUser(ctx context.Context, name string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.state.Users {
		if u.Name == name {
			return u.Clone(), false
		}
	}
	user := model.User{ID: s.newID(), Name: name}
	s.state.Users = append(s.state.Users, user)
	s.persist(ctx)
	return user, true
}

func (s *loyaltyService) AddStamp(ctx context.Context, userID string) (int, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndex(userID)
	if idx < 0 {
		return 0, "", ErrUserNotFound
	}
	u := &s.state.Users[idx]
	if u.Stamps >= model.MaxStamps {
		return u.Stamps, u.Prize, ErrAlreadyMaxed
	}
	u.Stamps++

	// Assigned prizes are not flagged redeemed, so two users can hold the same prize.
	if u.Stamps == model.MaxStamps && u.Prize == "" {
		var available []string
		for _, p := range s.state.Prizes {
			if !p.Redeemed {
				available = append(available, p.ID)
			}
		}
		if len(available) > 0 {
			u.Prize = available[s.pick(len(available))]
		}
	}
	stamps, prize := u.Stamps, u.Prize
	s.persist(ctx)
	return stamps, prize, nil
}

func (s *loyaltyService) RedeemCard(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndex(userID)
	if idx < 0 {
		return ErrUserNotFound
	}
	s.state.Users[idx].Stamps = 0
	s.state.Users[idx].Prize = ""
	s.persist(ctx)
	return nil
}

func (s *loyaltyService) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndex(userID)
	if idx < 0 {
		return ErrUserNotFound
	}
	s.state.Users = append(s.state.Users[:idx], s.state.Users[idx+1:]...)
	s.persist(ctx)
	return nil
}

func (s *loyaltyService) ListActiveUsers() []model.ActiveUser {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]model.ActiveUser, 0, len(s.state.Users))
	for _, u := range s.state.Users {
		if !u.HasSubscription() {
			continue
		}
		view := model.ActiveUser{ID: u.ID, Name: u.Name, Phone: u.Phone, Stamps: u.Stamps}
		if u.Prize != "" {
			prize := u.Prize
			view.Prize = &prize
		}
		active = append(active, view)
	}
	return active
}

// SubscribedUsers returns copies of the users with a push subscription. A nil
// ids slice selects every subscribed user.
func (s *loyaltyService) SubscribedUsers(ids []string) []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	var wanted map[string]bool
	if ids != nil {
		wanted = make(map[string]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
	}
	users := make([]model.User, 0)
	for _, u := range s.state.Users {
		if !u.HasSubscription() {
			continue
		}
		if wanted != nil && !wanted[u.ID] {
			continue
		}
		users = append(users, u.Clone())
	}
	return users
}

func (s *loyaltyService) CreatePrize(ctx context.Context, name string) model.Prize {
	s.mu.Lock()
	defer s.mu.Unlock()

	prize := model.Prize{ID: s.newID(), Name: name, Redeemed: false}
	s.state.Prizes = append(s.state.Prizes, prize)
	s.persist(ctx)
	return prize
}

// DeletePrize removes the prize. Users already holding its id keep it.
func (s *loyaltyService) DeletePrize(ctx context.Context, prizeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.prizeIndex(prizeID)
	if idx < 0 {
		return ErrPrizeNotFound
	}
	s.state.Prizes = append(s.state.Prizes[:idx], s.state.Prizes[idx+1:]...)
	s.persist(ctx)
	return nil
}

func (s *loyaltyService) ListPrizes() []model.Prize {
	s.mu.Lock()
	defer s.mu.Unlock()

	prizes := make([]model.Prize, len(s.state.Prizes))
	copy(prizes, s.state.Prizes)
	return prizes
}

func (s *loyaltyService) Admin() model.AdminCredentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Admin
}

func (s *loyaltyService) Snapshot() *model.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}
