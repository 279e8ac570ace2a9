package model

// ChangeCategory tags a realtime "something changed" signal
type ChangeCategory string

const (
	ClientsChanged ChangeCategory = "clientsChanged"
	PrizesChanged  ChangeCategory = "prizesChanged"
)

const (
	EventTypeConnected = "connected"
	EventTypeMessage   = "message"
)

// Event is the envelope sent over the realtime channel
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Payload string `json:"payload,omitempty"`
}
