package order

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const serverTimestampLayout = "2006-01-02 15:04:05"

// WireOrder mirrors the server's order payload. Heterogeneous producers (SMS
// parser, walk-in form, legacy API) wrote the station binding under different
// names over the years; every synonym is decoded here and nowhere else.
type WireOrder struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`

	StationID        json.RawMessage `json:"stationId"`
	StationIDSnake   json.RawMessage `json:"station_id"`
	AssignedStation  json.RawMessage `json:"assigned_station"`
	AssignedTo       json.RawMessage `json:"assigned_to_station"`
	BaristaStation   json.RawMessage `json:"barista_station"`
	CreatedAtStation json.RawMessage `json:"created_at_station"`

	CustomerName string `json:"customer_name"`
	PhoneNumber  string `json:"phone_number"`

	CoffeeType string `json:"coffee_type"`
	MilkType   string `json:"milk_type"`
	Sweetener  string `json:"sweetener"`
	Size       string `json:"size"`
	Shots      int    `json:"shots"`
	Notes      string `json:"notes"`
	VIP        bool   `json:"vip"`

	IsWalkIn bool `json:"is_walk_in"`
	PickedUp bool `json:"picked_up"`

	CreatedAt   string `json:"created_at"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at"`
	PickedUpAt  string `json:"picked_up_at"`
}

// ToOrder converts a wire payload into the canonical domain form. The first
// non-empty station synonym wins, in declaration order.
func (w WireOrder) ToOrder() Order {
	o := Order{
		ID:           w.ID,
		OrderNumber:  w.OrderNumber,
		Status:       Status(w.Status),
		CustomerName: w.CustomerName,
		PhoneNumber:  w.PhoneNumber,
		CoffeeType:   w.CoffeeType,
		MilkType:     w.MilkType,
		Sweetener:    w.Sweetener,
		Size:         w.Size,
		Shots:        w.Shots,
		Notes:        w.Notes,
		VIP:          w.VIP,
		IsWalkIn:     w.IsWalkIn,
		PickedUp:     w.PickedUp,
		CreatedAt:    ParseTime(w.CreatedAt),
		StartedAt:    ParseTime(w.StartedAt),
		CompletedAt:  ParseTime(w.CompletedAt),
		PickedUpAt:   ParseTime(w.PickedUpAt),
	}
	if !o.Status.Valid() {
		o.Status = StatusPending
	}
	for _, raw := range []json.RawMessage{
		w.StationID, w.StationIDSnake, w.AssignedStation, w.AssignedTo, w.BaristaStation,
	} {
		if id, ok := stationIDFrom(raw); ok {
			o.StationID = id
			break
		}
	}
	if id, ok := stationIDFrom(w.CreatedAtStation); ok {
		o.CreatedAtStation = id
	}
	o.IsLocalOrder = strings.HasPrefix(o.ID, LocalIDPrefix)
	o.Normalize()
	return o
}

// stationIDFrom accepts number, numeric string, or "station_N" forms. Legacy
// producers used all three.
func stationIDFrom(raw json.RawMessage) (int, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n > 0 {
			return n, true
		}
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "station_")
	s = strings.TrimPrefix(s, "station")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ToWire converts a domain order back to the server's payload shape. Only the
// canonical station field is written; the synonyms exist for reads.
func (o Order) ToWire() WireOrder {
	w := WireOrder{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		Status:       string(o.Status),
		CustomerName: o.CustomerName,
		PhoneNumber:  o.PhoneNumber,
		CoffeeType:   o.CoffeeType,
		MilkType:     o.MilkType,
		Sweetener:    o.Sweetener,
		Size:         o.Size,
		Shots:        o.Shots,
		Notes:        o.Notes,
		VIP:          o.VIP,
		IsWalkIn:     o.IsWalkIn,
		PickedUp:     o.PickedUp,
		CreatedAt:    formatTime(o.CreatedAt),
		StartedAt:    formatTime(o.StartedAt),
		CompletedAt:  formatTime(o.CompletedAt),
		PickedUpAt:   formatTime(o.PickedUpAt),
	}
	if o.StationID > 0 {
		w.StationID = json.RawMessage(strconv.Itoa(o.StationID))
	}
	if o.CreatedAtStation > 0 {
		w.CreatedAtStation = json.RawMessage(strconv.Itoa(o.CreatedAtStation))
	}
	return w
}

// ParseTime accepts the timestamp formats the server has emitted over time.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(serverTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
