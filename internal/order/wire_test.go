package order

import (
	"encoding/json"
	"testing"
	"time"
)

func TestToOrder_StationSynonymPriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"camelCase number", `{"id":"1","stationId":3}`, 3},
		{"snake_case string", `{"id":"1","station_id":"2"}`, 2},
		{"assigned_station prefixed", `{"id":"1","assigned_station":"station_4"}`, 4},
		{"assigned_to_station", `{"id":"1","assigned_to_station":5}`, 5},
		{"barista_station", `{"id":"1","barista_station":"6"}`, 6},
		{"first synonym wins", `{"id":"1","stationId":3,"station_id":9}`, 3},
		{"null skipped", `{"id":"1","stationId":null,"station_id":7}`, 7},
		{"zero skipped", `{"id":"1","stationId":0,"station_id":8}`, 8},
		{"none present", `{"id":"1"}`, 0},
		{"garbage string", `{"id":"1","stationId":"counter"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w WireOrder
			if err := json.Unmarshal([]byte(tt.body), &w); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := w.ToOrder().StationID; got != tt.want {
				t.Fatalf("StationID = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToOrder_CreatedAtStationIndependent(t *testing.T) {
	var w WireOrder
	body := `{"id":"1","station_id":2,"created_at_station":"station_5"}`
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	o := w.ToOrder()
	if o.StationID != 2 {
		t.Fatalf("StationID = %d, want 2", o.StationID)
	}
	if o.CreatedAtStation != 5 {
		t.Fatalf("CreatedAtStation = %d, want 5", o.CreatedAtStation)
	}
}

func TestToOrder_DefaultsAndLocalDetection(t *testing.T) {
	var w WireOrder
	body := `{"id":"local_9f","status":"bogus","milk_type":"oat","notes":"VIP order"}`
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	o := w.ToOrder()
	if o.Status != StatusPending {
		t.Fatalf("Status = %q, want pending for unknown wire status", o.Status)
	}
	if !o.IsLocalOrder {
		t.Fatal("local_ id not flagged IsLocalOrder")
	}
	if !o.DairyFree || !o.VIP {
		t.Fatalf("Normalize not applied: dairyFree=%v vip=%v", o.DairyFree, o.VIP)
	}
}

func TestParseTime_AcceptedLayouts(t *testing.T) {
	tests := []struct {
		name  string
		value string
		zero  bool
	}{
		{"rfc3339", "2026-03-01T09:30:00Z", false},
		{"rfc3339 nano", "2026-03-01T09:30:00.123456789Z", false},
		{"server local", "2026-03-01 09:30:00", false},
		{"empty", "", true},
		{"garbage", "yesterday", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTime(tt.value)
			if got.IsZero() != tt.zero {
				t.Fatalf("ParseTime(%q) zero=%v, want %v", tt.value, got.IsZero(), tt.zero)
			}
		})
	}
}

func TestWireRoundTrip_KeepsCanonicalStation(t *testing.T) {
	o := Order{
		ID:               "12",
		Status:           StatusInProgress,
		StationID:        4,
		CreatedAtStation: 4,
		CoffeeType:       "Flat White",
		CreatedAt:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	got := o.ToWire().ToOrder()
	if got.StationID != 4 || got.CreatedAtStation != 4 {
		t.Fatalf("round trip station = %d/%d, want 4/4", got.StationID, got.CreatedAtStation)
	}
	if got.Status != StatusInProgress {
		t.Fatalf("round trip status = %q, want in_progress", got.Status)
	}
	if !got.CreatedAt.Equal(o.CreatedAt) {
		t.Fatalf("round trip createdAt = %v, want %v", got.CreatedAt, o.CreatedAt)
	}
}
