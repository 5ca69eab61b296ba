package client

import (
	"time"

	"github.com/google/uuid"
)

// Event is implemented by the two event kinds this SDK can submit.
type Event interface {
	ID() string
}

type baseEvent struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	UserID     string `json:"user_id"`
	GameID     string `json:"game_id"`
	Timestamp  string `json:"timestamp"`
	Platform   string `json:"platform"`
	AppVersion string `json:"app_version"`
	SessionID  string `json:"session_id"`
}

func (b baseEvent) ID() string { return b.EventID }

// InstallEvent is sent when a user installs the game.
type InstallEvent struct {
	baseEvent
	Source  string `json:"source,omitempty"`
	Country string `json:"country,omitempty"`
}

// PurchaseEvent is sent when a user makes a purchase.
type PurchaseEvent struct {
	baseEvent
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	Quantity      int     `json:"quantity"`
	Store         string  `json:"store,omitempty"`
	TransactionID string  `json:"transaction_id"`
}

// Session identifies the client context shared by every event it emits.
type Session struct {
	UserID     string
	GameID     string
	Platform   string
	AppVersion string
	SessionID  string
}

func newBase(s Session, eventType string) baseEvent {
	return baseEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		UserID:     s.UserID,
		GameID:     s.GameID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Platform:   s.Platform,
		AppVersion: s.AppVersion,
		SessionID:  s.SessionID,
	}
}

// NewInstallEvent builds an install event with a fresh event id and the
// current instant.
func NewInstallEvent(s Session, source, country string) InstallEvent {
	return InstallEvent{
		baseEvent: newBase(s, "install"),
		Source:    source,
		Country:   country,
	}
}

// NewPurchaseEvent builds a purchase event. Quantity defaults to 1; the
// transaction id is derived from the event id.
func NewPurchaseEvent(s Session, productID, productName string, price float64, currency string, quantity int, store string) PurchaseEvent {
	base := newBase(s, "purchase")
	if quantity <= 0 {
		quantity = 1
	}
	return PurchaseEvent{
		baseEvent:     base,
		ProductID:     productID,
		ProductName:   productName,
		Price:         price,
		Currency:      currency,
		Quantity:      quantity,
		Store:         store,
		TransactionID: "txn_" + base.EventID,
	}
}
