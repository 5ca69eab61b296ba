package domain

import (
	"strings"
	"time"
	"unicode"
)

// EventType discriminates the two telemetry event kinds.
type EventType string

const (
	TypeInstall  EventType = "install"
	TypePurchase EventType = "purchase"
)

// Source is the fixed tag stamped on every record handed to the sink.
const Source = "game_analytics_api"

// InstallPayload is the raw body of POST /events/install.
type InstallPayload struct {
	EventID    string `json:"event_id"`
	UserID     string `json:"user_id"`
	GameID     string `json:"game_id"`
	Timestamp  string `json:"timestamp"`
	Platform   string `json:"platform"`
	AppVersion string `json:"app_version"`
	SessionID  string `json:"session_id"`
	Source     string `json:"source,omitempty"`
	Country    string `json:"country,omitempty"`
}

// PurchasePayload is the raw body of POST /events/purchase.
type PurchasePayload struct {
	EventID    string `json:"event_id"`
	UserID     string `json:"user_id"`
	GameID     string `json:"game_id"`
	Timestamp  string `json:"timestamp"`
	Platform   string `json:"platform"`
	AppVersion string `json:"app_version"`
	SessionID  string `json:"session_id"`

	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	Price         *Price `json:"price"`
	Currency      string `json:"currency"`
	Quantity      *int   `json:"quantity,omitempty"`
	Store         string `json:"store,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Event is the normalized, immutable form handed downstream. Purchase-only
// fields are zero for installs and vice versa; Type tells them apart.
type Event struct {
	Type       EventType `json:"event_type"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	GameID     string    `json:"game_id"`
	Timestamp  time.Time `json:"timestamp"`
	Platform   string    `json:"platform"`
	AppVersion string    `json:"app_version"`
	SessionID  string    `json:"session_id"`

	// install; the attribution source is renamed on the wire so it cannot
	// collide with the record-level source tag added at enrichment time.
	Source  string `json:"install_source,omitempty"`
	Country string `json:"country,omitempty"`

	// purchase
	ProductID     string `json:"product_id,omitempty"`
	ProductName   string `json:"product_name,omitempty"`
	Price         Price  `json:"price,omitempty"`
	Currency      string `json:"currency,omitempty"`
	Quantity      int    `json:"quantity,omitempty"`
	Store         string `json:"store,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Record is the on-the-wire shape of one delivered event: the original
// fields plus server-side enrichment. One Record per sink line.
type Record struct {
	IngestionTimestamp string `json:"ingestion_timestamp"`
	RecordSource       string `json:"source"`
	Event
}

// Enrich stamps the event with the ingestion instant and the fixed source
// tag. Called once per record at send time, not reused across a batch.
func Enrich(e Event, now time.Time) Record {
	return Record{
		IngestionTimestamp: now.UTC().Format(time.RFC3339Nano),
		RecordSource:       Source,
		Event:              e,
	}
}

func (p *InstallPayload) Validate() error {
	v := newValidationError()
	requireCommon(v, p.EventID, p.UserID, p.GameID, p.Timestamp, p.Platform, p.AppVersion, p.SessionID)
	if p.Timestamp != "" {
		if _, err := parseInstant(p.Timestamp); err != nil {
			v.add("timestamp", "must be a valid instant")
		}
	}
	return v.orNil()
}

func (p *InstallPayload) ToEvent() (Event, error) {
	if err := p.Validate(); err != nil {
		return Event{}, err
	}
	ts, _ := parseInstant(p.Timestamp)
	return Event{
		Type:       TypeInstall,
		EventID:    strings.TrimSpace(p.EventID),
		UserID:     strings.TrimSpace(p.UserID),
		GameID:     strings.TrimSpace(p.GameID),
		Timestamp:  ts,
		Platform:   strings.TrimSpace(p.Platform),
		AppVersion: strings.TrimSpace(p.AppVersion),
		SessionID:  strings.TrimSpace(p.SessionID),
		Source:     strings.TrimSpace(p.Source),
		Country:    strings.TrimSpace(p.Country),
	}, nil
}

func (p *PurchasePayload) Validate() error {
	v := newValidationError()
	requireCommon(v, p.EventID, p.UserID, p.GameID, p.Timestamp, p.Platform, p.AppVersion, p.SessionID)
	if p.Timestamp != "" {
		if _, err := parseInstant(p.Timestamp); err != nil {
			v.add("timestamp", "must be a valid instant")
		}
	}
	if strings.TrimSpace(p.ProductID) == "" {
		v.add("product_id", "is required")
	}
	if strings.TrimSpace(p.ProductName) == "" {
		v.add("product_name", "is required")
	}
	if p.Price == nil {
		v.add("price", "is required")
	} else if *p.Price < 0 {
		v.add("price", "must not be negative")
	}
	if cur := normalizeCurrency(p.Currency); !validCurrency(cur) {
		v.add("currency", "must be a 3-letter code")
	}
	if p.Quantity != nil && *p.Quantity <= 0 {
		v.add("quantity", "must be positive")
	}
	return v.orNil()
}

func (p *PurchasePayload) ToEvent() (Event, error) {
	if err := p.Validate(); err != nil {
		return Event{}, err
	}
	ts, _ := parseInstant(p.Timestamp)

	qty := 1
	if p.Quantity != nil {
		qty = *p.Quantity
	}

	eventID := strings.TrimSpace(p.EventID)

	txn := strings.TrimSpace(p.TransactionID)
	if txn == "" {
		txn = "txn_" + eventID
	}

	return Event{
		Type:          TypePurchase,
		EventID:       eventID,
		UserID:        strings.TrimSpace(p.UserID),
		GameID:        strings.TrimSpace(p.GameID),
		Timestamp:     ts,
		Platform:      strings.TrimSpace(p.Platform),
		AppVersion:    strings.TrimSpace(p.AppVersion),
		SessionID:     strings.TrimSpace(p.SessionID),
		ProductID:     strings.TrimSpace(p.ProductID),
		ProductName:   strings.TrimSpace(p.ProductName),
		Price:         *p.Price,
		Currency:      normalizeCurrency(p.Currency),
		Quantity:      qty,
		Store:         strings.TrimSpace(p.Store),
		TransactionID: txn,
	}, nil
}

func requireCommon(v *ValidationError, eventID, userID, gameID, timestamp, platform, appVersion, sessionID string) {
	if strings.TrimSpace(eventID) == "" {
		v.add("event_id", "is required")
	}
	if strings.TrimSpace(userID) == "" {
		v.add("user_id", "is required")
	}
	if strings.TrimSpace(gameID) == "" {
		v.add("game_id", "is required")
	}
	if strings.TrimSpace(timestamp) == "" {
		v.add("timestamp", "is required")
	}
	if strings.TrimSpace(platform) == "" {
		v.add("platform", "is required")
	}
	if strings.TrimSpace(appVersion) == "" {
		v.add("app_version", "is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		v.add("session_id", "is required")
	}
}

// parseInstant accepts RFC3339 with or without a zone offset. Game clients
// commonly send naive ISO timestamps; those are taken as UTC.
func parseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func normalizeCurrency(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func validCurrency(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
