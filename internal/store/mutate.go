package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fruithappens/Coffeecue-sub002/internal/fallback"
	"github.com/fruithappens/Coffeecue-sub002/internal/order"
)

// Validation failures rejected at the mutating-operation boundary.
var (
	ErrUnknownOrder      = errors.New("order not found in the expected collection")
	ErrMissingCoffeeType = errors.New("walk-in order needs a coffee type")
	ErrMissingStation    = errors.New("walk-in order needs a station")
)

// OpResult is the tagged outcome of a mutating operation. Applied means the
// local transition happened and the UI may show it; Confirmed means the
// server acknowledged it. Applied-but-unconfirmed work sits in the sync
// queue for replay.
type OpResult struct {
	Applied   bool
	Confirmed bool
	Err       error
}

// Claim moves a pending order into in-progress, stamping StartedAt. Local
// orders skip the remote gateway entirely; for the rest a failed remote
// confirmation never reverts the optimistic move.
func (s *Store) Claim(ctx context.Context, orderID string) OpResult {
	s.mu.Lock()
	i := indexByID(s.pending, orderID)
	if i < 0 {
		s.mu.Unlock()
		return OpResult{Err: fmt.Errorf("claim %q: %w", orderID, ErrUnknownOrder)}
	}
	o := s.pending[i]
	s.pending = removeAt(s.pending, i)
	o.Status = order.StatusInProgress
	o.StartedAt = s.now()
	s.inProgress = append(s.inProgress, o)
	stationID := s.stationID
	s.persistSnapshotLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyObservers(snap)
	s.scheduleWaitPush()

	if o.IsLocal() {
		return OpResult{Applied: true, Confirmed: true}
	}
	return s.confirm(OpResult{Applied: true}, fallback.QueueEntry{
		Op:        fallback.OpUpdate,
		OrderID:   o.ID,
		Status:    order.StatusInProgress,
		StationID: stationID,
	}, func() bool {
		return s.gw.Claim(ctx, o.ID, stationID).OK()
	})
}

// Complete moves an in-progress order into completed. The observed prep time
// feeds the wait estimator, and inventory depletion fires as a side effect.
func (s *Store) Complete(ctx context.Context, orderID string) OpResult {
	s.mu.Lock()
	i := indexByID(s.inProgress, orderID)
	if i < 0 {
		s.mu.Unlock()
		return OpResult{Err: fmt.Errorf("complete %q: %w", orderID, ErrUnknownOrder)}
	}
	o := s.inProgress[i]
	s.inProgress = removeAt(s.inProgress, i)
	o.Status = order.StatusCompleted
	o.CompletedAt = s.now()
	s.completed = append(s.completed, o)
	if prep := o.PrepTime(); prep > 0 {
		s.stats.Record(prep)
	}
	s.persistSnapshotLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyObservers(snap)
	s.background(func() {
		s.inventory.DepleteForOrder(o)
		s.notifier.NotifyOrderCompleted(o)
	})

	if o.IsLocal() {
		return OpResult{Applied: true, Confirmed: true}
	}
	return s.confirm(OpResult{Applied: true}, fallback.QueueEntry{
		Op:      fallback.OpUpdate,
		OrderID: o.ID,
		Status:  order.StatusCompleted,
	}, func() bool {
		return s.gw.Complete(ctx, o.ID).OK()
	})
}

// MarkPickedUp moves a completed order into the bounded previously-picked-up
// view and cancels its reminder notification.
func (s *Store) MarkPickedUp(ctx context.Context, orderID string) OpResult {
	s.mu.Lock()
	i := indexByID(s.completed, orderID)
	if i < 0 {
		s.mu.Unlock()
		return OpResult{Err: fmt.Errorf("pickup %q: %w", orderID, ErrUnknownOrder)}
	}
	o := s.completed[i]
	s.completed = removeAt(s.completed, i)
	o.Status = order.StatusPickedUp
	o.PickedUp = true
	o.PickedUpAt = s.now()
	s.pickedUp = append(s.pickedUp, o)
	if len(s.pickedUp) > maxPickedUpHistory {
		s.pickedUp = s.pickedUp[len(s.pickedUp)-maxPickedUpHistory:]
	}
	s.persistSnapshotLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyObservers(snap)
	s.background(func() { s.notifier.CancelReminder(o.ID) })

	if o.IsLocal() {
		return OpResult{Applied: true, Confirmed: true}
	}
	return s.confirm(OpResult{Applied: true}, fallback.QueueEntry{
		Op:      fallback.OpUpdate,
		OrderID: o.ID,
		Status:  order.StatusPickedUp,
	}, func() bool {
		return s.gw.MarkPickedUp(ctx, o.ID).OK()
	})
}

// CreateWalkIn synthesizes a locally-identified order, inserts it into
// pending immediately, persists it to the station's local backlog, and only
// afterward attempts the remote create. A remote failure is silent; the
// local order stays authoritative for the UI.
func (s *Store) CreateWalkIn(ctx context.Context, payload order.Order) (order.Order, OpResult) {
	if strings.TrimSpace(payload.CoffeeType) == "" {
		return order.Order{}, OpResult{Err: ErrMissingCoffeeType}
	}
	if payload.StationID <= 0 {
		return order.Order{}, OpResult{Err: ErrMissingStation}
	}

	o := payload
	o.ID = order.LocalIDPrefix + uuid.New().String()
	o.Status = order.StatusPending
	o.IsWalkIn = true
	o.IsLocalOrder = true
	o.CreatedAtStation = o.StationID
	o.CreatedAt = s.now()
	if o.OrderNumber == "" {
		o.OrderNumber = "W" + o.ID[len(o.ID)-4:]
	}
	o.Normalize()

	s.mu.Lock()
	if o.StationID == s.stationID {
		s.pending = append(s.pending, o)
		order.SortPending(s.pending)
	}
	s.appendLocalBacklogLocked(o)
	s.persistSnapshotLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyObservers(snap)
	s.scheduleWaitPush()

	res := s.confirm(OpResult{Applied: true}, fallback.QueueEntry{
		Op:      fallback.OpCreate,
		OrderID: o.ID,
		Payload: &o,
	}, func() bool {
		created, r := s.gw.CreateWalkIn(ctx, o)
		if !r.OK() {
			return false
		}
		s.adoptServerIdentity(o.ID, created)
		return true
	})
	return o, res
}

// confirm runs the best-effort remote leg of an optimistic operation. When
// degraded, or when the call fails, the write lands in the sync queue and
// the result stays Applied-but-unconfirmed.
func (s *Store) confirm(res OpResult, entry fallback.QueueEntry, attempt func() bool) OpResult {
	if !s.degraded() && attempt() {
		res.Confirmed = true
		return res
	}
	if s.fb != nil {
		if err := s.fb.RecordOptimisticWrite(entry); err != nil {
			s.log.Error().Err(err).Str("order", entry.OrderID).Msg("failed to queue offline write")
		}
	}
	return res
}

// adoptServerIdentity swaps a local walk-in's placeholder id for the
// server-assigned one wherever the order currently lives.
func (s *Store) adoptServerIdentity(localID string, created order.Order) {
	if created.ID == "" || created.ID == localID {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range []*[]order.Order{&s.pending, &s.inProgress, &s.completed, &s.pickedUp} {
		if i := indexByID(*list, localID); i >= 0 {
			o := &(*list)[i]
			o.ID = created.ID
			if created.OrderNumber != "" {
				o.OrderNumber = created.OrderNumber
			}
			o.IsLocalOrder = false
			break
		}
	}
	s.removeLocalBacklogLocked(localID)
	s.persistSnapshotLocked()
}
