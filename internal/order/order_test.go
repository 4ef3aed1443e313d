package order

import (
	"testing"
	"time"
)

func TestStatusRank_Ordering(t *testing.T) {
	ranks := []Status{StatusPending, StatusInProgress, StatusCompleted, StatusPickedUp}
	for i := 1; i < len(ranks); i++ {
		if ranks[i].Rank() <= ranks[i-1].Rank() {
			t.Fatalf("Rank(%s)=%d not above Rank(%s)=%d", ranks[i], ranks[i].Rank(), ranks[i-1], ranks[i-1].Rank())
		}
	}
	if Status("cancelled").Rank() != 0 {
		t.Fatalf("unknown status rank = %d, want 0", Status("cancelled").Rank())
	}
	if Status("cancelled").Valid() {
		t.Fatal("unknown status reported valid")
	}
}

func TestNormalize_MilkFlags(t *testing.T) {
	tests := []struct {
		milk     string
		wantAlt  bool
		wantFree bool
	}{
		{"Oat", true, true},
		{"  Soy ", true, true},
		{"almond", true, true},
		{"full cream", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.milk, func(t *testing.T) {
			o := Order{MilkType: tt.milk}
			o.Normalize()
			if o.AlternativeMilk != tt.wantAlt || o.DairyFree != tt.wantFree {
				t.Fatalf("Normalize(%q): alt=%v free=%v, want alt=%v free=%v",
					tt.milk, o.AlternativeMilk, o.DairyFree, tt.wantAlt, tt.wantFree)
			}
		})
	}
}

func TestNormalize_VIPInferredFromNotes(t *testing.T) {
	o := Order{Notes: "for the URGENT meeting upstairs"}
	o.Normalize()
	if !o.VIP {
		t.Fatal("VIP not inferred from notes keyword")
	}

	o = Order{Notes: "extra hot please"}
	o.Normalize()
	if o.VIP {
		t.Fatal("VIP inferred from unrelated notes")
	}

	// Explicit flag survives regardless of notes.
	o = Order{VIP: true, Notes: "plain"}
	o.Normalize()
	if !o.VIP {
		t.Fatal("explicit VIP flag lost")
	}
}

func TestIsLocal(t *testing.T) {
	if !(Order{ID: "local_abc"}).IsLocal() {
		t.Fatal("local_ prefixed id not detected as local")
	}
	if !(Order{ID: "42", IsLocalOrder: true}).IsLocal() {
		t.Fatal("IsLocalOrder flag not detected")
	}
	if (Order{ID: "42"}).IsLocal() {
		t.Fatal("server id detected as local")
	}
}

func TestPrepTime(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	o := Order{StartedAt: start, CompletedAt: start.Add(4 * time.Minute)}
	if got := o.PrepTime(); got != 4*time.Minute {
		t.Fatalf("PrepTime = %v, want 4m", got)
	}
	if got := (Order{StartedAt: start}).PrepTime(); got != 0 {
		t.Fatalf("PrepTime without completion = %v, want 0", got)
	}
	if got := (Order{StartedAt: start, CompletedAt: start.Add(-time.Minute)}).PrepTime(); got != 0 {
		t.Fatalf("PrepTime with inverted timestamps = %v, want 0", got)
	}
}

func TestSortPending_VIPFirstThenFIFO(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	orders := []Order{
		{ID: "a", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "b", VIP: true, CreatedAt: base.Add(3 * time.Minute)},
		{ID: "c", CreatedAt: base.Add(1 * time.Minute)},
		{ID: "d", VIP: true, CreatedAt: base.Add(1 * time.Minute)},
	}
	SortPending(orders)
	want := []string{"d", "b", "c", "a"}
	for i, id := range want {
		if orders[i].ID != id {
			t.Fatalf("position %d = %s, want %s (order %v)", i, orders[i].ID, id, ids(orders))
		}
	}
}

func ids(orders []Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}
