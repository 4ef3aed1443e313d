// Package fallback keeps the station usable when the server is not.
//
// It owns the sticky degraded-mode flag, serves last-known-good (or sample)
// collections while remote calls are bypassed, and records every write made
// in that state as a durable sync-queue entry for later replay.
package fallback

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fruithappens/Coffeecue-sub002/internal/order"
	"github.com/fruithappens/Coffeecue-sub002/internal/router"
	"github.com/fruithappens/Coffeecue-sub002/internal/storage"
)

// Op tags a sync-queue entry.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

// QueueEntry is one write recorded while degraded, replayed when
// connectivity returns.
type QueueEntry struct {
	Op         Op           `json:"op"`
	OrderID    string       `json:"orderId"`
	Status     order.Status `json:"status,omitempty"`
	StationID  int          `json:"stationId,omitempty"`
	Payload    *order.Order `json:"payload,omitempty"`
	RecordedAt time.Time    `json:"recordedAt"`
}

// Provider supplies order data and accepts writes while the gateway is
// unreachable or disabled.
type Provider struct {
	mode  *Mode
	store *storage.Store
	log   zerolog.Logger

	mu         sync.Mutex
	pending    []order.Order
	inProgress []order.Order
	completed  []order.Order
}

// NewProvider builds a Provider persisting its sync queue through store.
func NewProvider(mode *Mode, store *storage.Store, log zerolog.Logger) *Provider {
	if mode == nil {
		mode = &Mode{}
	}
	return &Provider{mode: mode, store: store, log: log}
}

// Mode exposes the shared degraded-mode flag.
func (p *Provider) Mode() *Mode { return p.mode }

// Remember caches the last collections successfully fetched from the server,
// so degraded reads keep showing something plausible.
func (p *Provider) Remember(pending, inProgress, completed []order.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = cloneOrders(pending)
	p.inProgress = cloneOrders(inProgress)
	p.completed = cloneOrders(completed)
}

// LoadPending returns the degraded-mode pending collection.
func (p *Provider) LoadPending() []order.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneOrders(p.pending)
}

// LoadInProgress returns the degraded-mode in-progress collection.
func (p *Provider) LoadInProgress() []order.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneOrders(p.inProgress)
}

// LoadCompleted returns the degraded-mode completed collection.
func (p *Provider) LoadCompleted() []order.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneOrders(p.completed)
}

// RecordOptimisticWrite appends a sync-queue entry. The durable queue is
// always rewritten whole; a failed append leaves the previous queue intact.
func (p *Provider) RecordOptimisticWrite(entry QueueEntry) error {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	queue, err := p.loadQueue()
	if err != nil {
		return err
	}
	queue = append(queue, entry)
	if err := p.store.Put(storage.Durable, storage.SyncQueueKey, queue); err != nil {
		return fmt.Errorf("persist sync queue: %w", err)
	}
	p.log.Info().Str("op", string(entry.Op)).Str("order", entry.OrderID).
		Int("queued", len(queue)).Msg("recorded offline write")
	return nil
}

// PendingWrites returns the recorded queue in insertion order.
func (p *Provider) PendingWrites() ([]QueueEntry, error) {
	return p.loadQueue()
}

// ReplaceQueue overwrites the durable queue, used by replay to drop confirmed
// entries while keeping failed ones.
func (p *Provider) ReplaceQueue(queue []QueueEntry) error {
	if len(queue) == 0 {
		return p.store.Delete(storage.Durable, storage.SyncQueueKey)
	}
	if err := p.store.Put(storage.Durable, storage.SyncQueueKey, queue); err != nil {
		return fmt.Errorf("persist sync queue: %w", err)
	}
	return nil
}

func (p *Provider) loadQueue() ([]QueueEntry, error) {
	var queue []QueueEntry
	if _, err := p.store.Get(storage.Durable, storage.SyncQueueKey, &queue); err != nil {
		return nil, fmt.Errorf("load sync queue: %w", err)
	}
	return queue, nil
}

// SeedSampleData fills the caches with deterministic demo orders spread over
// stationCount stations, for offline/demo operation with no history.
func (p *Provider) SeedSampleData(stationCount int) {
	now := time.Now()
	names := []string{"Avery", "Jordan", "Sam", "Riley", "Casey", "Morgan"}
	coffees := []string{"Latte", "Cappuccino", "Flat White", "Long Black", "Mocha", "Espresso"}
	milks := []string{"Full Cream", "Oat", "Soy", "Almond", "Full Cream", ""}

	var pending []order.Order
	for i := 0; i < len(names); i++ {
		o := order.Order{
			ID:           fmt.Sprintf("sample_%d", i+1),
			OrderNumber:  fmt.Sprintf("S%02d", i+1),
			Status:       order.StatusPending,
			CustomerName: names[i],
			CoffeeType:   coffees[i],
			MilkType:     milks[i],
			CreatedAt:    now.Add(-time.Duration(len(names)-i) * time.Minute),
		}
		o.StationID = router.AssignFallbackStation(o, stationCount)
		o.Normalize()
		pending = append(pending, o)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 && len(p.inProgress) == 0 && len(p.completed) == 0 {
		p.pending = pending
	}
}

func cloneOrders(orders []order.Order) []order.Order {
	if len(orders) == 0 {
		return nil
	}
	dup := make([]order.Order, len(orders))
	copy(dup, orders)
	return dup
}
