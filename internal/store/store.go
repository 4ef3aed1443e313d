package store

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fruithappens/Coffeecue-sub002/internal/fallback"
	"github.com/fruithappens/Coffeecue-sub002/internal/gateway"
	"github.com/fruithappens/Coffeecue-sub002/internal/order"
	"github.com/fruithappens/Coffeecue-sub002/internal/storage"
	"github.com/fruithappens/Coffeecue-sub002/internal/waittime"
)

// Inventory is the external collaborator depleted when an order completes.
type Inventory interface {
	DepleteForOrder(o order.Order)
}

// Notifier is the external collaborator for UI/audio signals. All calls are
// fire-and-forget.
type Notifier interface {
	NotifyNewOrder(o order.Order)
	NotifyOrderCompleted(o order.Order)
	CancelReminder(orderID string)
}

// NopCollaborators satisfies both collaborator interfaces with no-ops.
type NopCollaborators struct{}

func (NopCollaborators) DepleteForOrder(order.Order)      {}
func (NopCollaborators) NotifyNewOrder(order.Order)       {}
func (NopCollaborators) NotifyOrderCompleted(order.Order) {}
func (NopCollaborators) CancelReminder(string)            {}

// Snapshot is the read-only view the dashboard consumes.
type Snapshot struct {
	StationID          int
	Pending            []order.Order
	InProgress         []order.Order
	Completed          []order.Order
	PreviouslyPickedUp []order.Order

	QueueCount   int
	WaitEstimate int
	Online       bool
	AuthLimited  bool
	IsRefreshing bool
	LastUpdated  time.Time
	LastError    error
}

// Options configure a Store.
type Options struct {
	Gateway      gateway.OrderGateway
	Fallback     *fallback.Provider
	Storage      *storage.Store
	StationID    int
	BaseWaitMins int
	Inventory    Inventory
	Notifier     Notifier
	Log          zerolog.Logger

	// WaitPushDebounce delays the wait-time feedback push so a burst of
	// pending-count changes produces one server call. Zero uses the default.
	WaitPushDebounce time.Duration
}

const (
	defaultWaitPushDebounce = 2 * time.Second

	// maxPickedUpHistory bounds the previously-picked-up view.
	maxPickedUpHistory = 50
)

// Store owns the four order collections for the currently selected station
// and is the only writer of their cache snapshots.
type Store struct {
	gw      gateway.OrderGateway
	fb      *fallback.Provider
	storage *storage.Store
	stats   *waittime.Stats
	log     zerolog.Logger

	inventory Inventory
	notifier  Notifier

	baseWait     int
	waitDebounce time.Duration

	mu         sync.Mutex
	stationID  int
	pending    []order.Order
	inProgress []order.Order
	completed  []order.Order
	pickedUp   []order.Order

	online       bool
	isRefreshing bool
	lastUpdated  time.Time
	lastErr      error

	waitTimer    *time.Timer
	lastWaitPush int

	observers []func(Snapshot)

	now func() time.Time

	// requestRefresh asks the scheduler for a prompt background fetch, set
	// by the composition root. Station switches use it.
	requestRefresh func()
}

// New builds a Store for the given station and synchronously restores its
// last cache snapshot, so the UI has data before the first fetch completes.
func New(opts Options) *Store {
	s := &Store{
		gw:           opts.Gateway,
		fb:           opts.Fallback,
		storage:      opts.Storage,
		stats:        &waittime.Stats{},
		log:          opts.Log,
		inventory:    opts.Inventory,
		notifier:     opts.Notifier,
		baseWait:     opts.BaseWaitMins,
		waitDebounce: opts.WaitPushDebounce,
		stationID:    opts.StationID,
		lastWaitPush: -1,
		now:          time.Now,
	}
	if s.stationID <= 0 {
		s.stationID = order.DefaultStationID
	}
	if s.baseWait <= 0 {
		s.baseWait = 2
	}
	if s.waitDebounce <= 0 {
		s.waitDebounce = defaultWaitPushDebounce
	}
	if s.inventory == nil {
		s.inventory = NopCollaborators{}
	}
	if s.notifier == nil {
		s.notifier = NopCollaborators{}
	}

	s.mu.Lock()
	s.restoreSnapshotLocked(s.stationID)
	s.mu.Unlock()
	return s
}

// SetRefreshRequester wires the scheduler's prompt-refresh hook.
func (s *Store) SetRefreshRequester(fn func()) {
	s.mu.Lock()
	s.requestRefresh = fn
	s.mu.Unlock()
}

// Subscribe registers an observer invoked with a fresh snapshot after every
// state change. Observers run outside the store lock.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// StationID returns the currently selected station.
func (s *Store) StationID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stationID
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	authLimited := false
	if s.fb != nil {
		authLimited = s.fb.Mode().AuthLimited()
	}
	return Snapshot{
		StationID:          s.stationID,
		Pending:            cloneOrders(s.pending),
		InProgress:         cloneOrders(s.inProgress),
		Completed:          cloneOrders(s.completed),
		PreviouslyPickedUp: cloneOrders(s.pickedUp),
		QueueCount:         len(s.pending),
		WaitEstimate:       waittime.Estimate(len(s.pending), s.baseWait, s.stats),
		Online:             s.online,
		AuthLimited:        authLimited,
		IsRefreshing:       s.isRefreshing,
		LastUpdated:        s.lastUpdated,
		LastError:          s.lastErr,
	}
}

// notifyObservers publishes the given snapshot. Callers must not hold the
// store lock.
func (s *Store) notifyObservers(snap Snapshot) {
	s.mu.Lock()
	observers := make([]func(Snapshot), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}

// Stats exposes the rolling prep-time window, for the wait estimator feedback
// loop and status display.
func (s *Store) Stats() *waittime.Stats {
	return s.stats
}

// Refreshing flips the syncing indicator around a fetch.
func (s *Store) setRefreshing(on bool) Snapshot {
	s.mu.Lock()
	s.isRefreshing = on
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap
}

func cloneOrders(orders []order.Order) []order.Order {
	if len(orders) == 0 {
		return nil
	}
	dup := make([]order.Order, len(orders))
	copy(dup, orders)
	return dup
}

func indexByID(orders []order.Order, id string) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func removeAt(orders []order.Order, i int) []order.Order {
	return append(orders[:i], orders[i+1:]...)
}

// degraded reports whether fetches and confirmations should bypass the
// network entirely.
func (s *Store) degraded() bool {
	return s.fb != nil && s.fb.Mode().Degraded()
}

// background runs fn without blocking the caller; used for fire-and-forget
// collaborator calls.
func (s *Store) background(fn func()) {
	go fn()
}
