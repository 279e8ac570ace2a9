package model

// MaxStamps is the number of stamps that completes a card
const MaxStamps = 10

// PushKeys holds the client keys of a browser push subscription
type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription is the endpoint+keys bundle a browser issues for push messages
type PushSubscription struct {
	Endpoint       string   `json:"endpoint"`
	ExpirationTime *float64 `json:"expirationTime"`
	Keys           PushKeys `json:"keys"`
}

// User represents a loyalty card holder
type User struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Phone        string            `json:"phone"`
	Subscription *PushSubscription `json:"subscription,omitempty"`
	Stamps       int               `json:"stamps"`
	Prize        string            `json:"prize,omitempty"` // Prize ID, empty when none is assigned
}

// HasSubscription reports whether the user can be reached by push
func (u User) HasSubscription() bool {
	return u.Subscription != nil && u.Subscription.Endpoint != ""
}

// Clone returns a copy of u that shares no pointers with it
func (u User) Clone() User {
	if u.Subscription != nil {
		sub := *u.Subscription
		if sub.ExpirationTime != nil {
			exp := *sub.ExpirationTime
			sub.ExpirationTime = &exp
		}
		u.Subscription = &sub
	}
	return u
}

// ActiveUser is the admin-facing view of a subscribed user
type ActiveUser struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Phone  string  `json:"phone"`
	Stamps int     `json:"stamps"`
	Prize  *string `json:"prize"`
}
