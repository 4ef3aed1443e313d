package order

import (
	"sort"
	"strings"
	"time"
)

// Status tracks an order through the barista workflow. Transitions only move
// forward: pending -> in_progress -> completed -> picked_up.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusPickedUp   Status = "picked_up"
)

// Rank orders statuses along the workflow. Higher rank means further along.
// Unknown statuses rank below pending so a malformed server payload can never
// push an order past a locally applied transition.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusInProgress:
		return 2
	case StatusCompleted:
		return 3
	case StatusPickedUp:
		return 4
	default:
		return 0
	}
}

// Valid reports whether s is one of the four workflow statuses.
func (s Status) Valid() bool {
	return s.Rank() > 0
}

// LocalIDPrefix marks ids generated on this device before (or instead of)
// server acknowledgment.
const LocalIDPrefix = "local_"

// Order is the central entity of the sync core.
type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	Status      Status `json:"status"`

	// StationID is the canonical station binding resolved at the ingestion
	// boundary. Zero means unassigned.
	StationID int `json:"stationId"`
	// CreatedAtStation records the station the order was created at, when
	// known. It takes precedence over any later station heuristics.
	CreatedAtStation int `json:"createdAtStation,omitempty"`

	CustomerName string `json:"customerName"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`

	CoffeeType      string `json:"coffeeType"`
	MilkType        string `json:"milkType,omitempty"`
	Sweetener       string `json:"sweetener,omitempty"`
	Size            string `json:"size,omitempty"`
	Shots           int    `json:"shots,omitempty"`
	Notes           string `json:"notes,omitempty"`
	VIP             bool   `json:"vip"`
	AlternativeMilk bool   `json:"alternativeMilk"`
	DairyFree       bool   `json:"dairyFree"`

	IsWalkIn     bool `json:"isWalkIn"`
	IsLocalOrder bool `json:"isLocalOrder"`
	PickedUp     bool `json:"pickedUp"`

	CreatedAt   time.Time `json:"createdAt"`
	StartedAt   time.Time `json:"startedAt,omitzero"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
	PickedUpAt  time.Time `json:"pickedUpAt,omitzero"`
}

// IsLocal reports whether the order originated on this device.
func (o Order) IsLocal() bool {
	return o.IsLocalOrder || strings.HasPrefix(o.ID, LocalIDPrefix)
}

// PrepTime returns the observed preparation duration, or zero when the order
// has not moved through claim and completion yet.
func (o Order) PrepTime() time.Duration {
	if o.StartedAt.IsZero() || o.CompletedAt.IsZero() {
		return 0
	}
	if o.CompletedAt.Before(o.StartedAt) {
		return 0
	}
	return o.CompletedAt.Sub(o.StartedAt)
}

// alternativeMilks are the milk types that flag an order as dairy-free.
var alternativeMilks = map[string]bool{
	"soy":       true,
	"almond":    true,
	"oat":       true,
	"coconut":   true,
	"rice":      true,
	"macadamia": true,
}

// vipKeywords promote an order to priority handling when found in its notes.
var vipKeywords = []string{"vip", "urgent", "priority", "staff"}

// Normalize derives the milk flags and the inferred VIP flag. Producers call
// it once after filling in the raw fields.
func (o *Order) Normalize() {
	milk := strings.ToLower(strings.TrimSpace(o.MilkType))
	if alternativeMilks[milk] {
		o.AlternativeMilk = true
		o.DairyFree = true
	}
	if o.VIP {
		return
	}
	notes := strings.ToLower(o.Notes)
	for _, kw := range vipKeywords {
		if strings.Contains(notes, kw) {
			o.VIP = true
			return
		}
	}
}

// SortPending orders a pending list for display: VIP first, then FIFO by
// creation time.
func SortPending(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].VIP != orders[j].VIP {
			return orders[i].VIP
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}

// Station describes a preparation point.
type Station struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Barista      string   `json:"barista,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// DefaultStationID is where station-less inbound orders surface until a
// barista assigns them.
const DefaultStationID = 1
