package store

import (
	"time"

	"github.com/fruithappens/Coffeecue-sub002/internal/order"
	"github.com/fruithappens/Coffeecue-sub002/internal/storage"
)

// CacheSnapshot is the serialized bundle of one station's four collections.
// Two redundant copies are written on every change so a write torn during
// navigation still leaves one readable snapshot.
type CacheSnapshot struct {
	Pending    []order.Order `json:"pending"`
	InProgress []order.Order `json:"inProgress"`
	Completed  []order.Order `json:"completed"`
	PickedUp   []order.Order `json:"pickedUp"`
	SavedAt    time.Time     `json:"savedAt"`
}

// persistSnapshotLocked rewrites both cache slots for the current station.
// Callers hold the store lock.
func (s *Store) persistSnapshotLocked() {
	if s.storage == nil {
		return
	}
	snap := CacheSnapshot{
		Pending:    s.pending,
		InProgress: s.inProgress,
		Completed:  s.completed,
		PickedUp:   s.pickedUp,
		SavedAt:    s.now(),
	}
	if err := s.storage.Put(storage.Durable, storage.OrdersKey(s.stationID), snap); err != nil {
		s.log.Error().Err(err).Int("station", s.stationID).Msg("cannot persist order snapshot")
	}
	if err := s.storage.Put(storage.Durable, storage.OrdersBackupKey(s.stationID), snap); err != nil {
		s.log.Error().Err(err).Int("station", s.stationID).Msg("cannot persist backup snapshot")
	}
}

// restoreSnapshotLocked loads a station's last snapshot into memory, reading
// the backup slot when the primary is missing or unreadable. Callers hold
// the store lock.
func (s *Store) restoreSnapshotLocked(stationID int) {
	if s.storage == nil {
		return
	}
	var snap CacheSnapshot
	ok, err := s.storage.Get(storage.Durable, storage.OrdersKey(stationID), &snap)
	if err != nil || !ok {
		if err != nil {
			s.log.Warn().Err(err).Int("station", stationID).Msg("primary snapshot unreadable, trying backup")
		}
		snap = CacheSnapshot{}
		ok, err = s.storage.Get(storage.Durable, storage.OrdersBackupKey(stationID), &snap)
		if err != nil || !ok {
			return
		}
	}
	s.pending = snap.Pending
	s.inProgress = snap.InProgress
	s.completed = snap.Completed
	s.pickedUp = snap.PickedUp
	if !snap.SavedAt.IsZero() {
		s.lastUpdated = snap.SavedAt
	}
}

// loadLocalBacklogLocked returns the station's unacknowledged walk-ins.
func (s *Store) loadLocalBacklogLocked(stationID int) []order.Order {
	if s.storage == nil {
		return nil
	}
	var backlog []order.Order
	if _, err := s.storage.Get(storage.Durable, storage.LocalOrdersKey(stationID), &backlog); err != nil {
		s.log.Warn().Err(err).Int("station", stationID).Msg("local backlog unreadable")
		return nil
	}
	return backlog
}

// appendLocalBacklogLocked records a walk-in in its station's backlog.
func (s *Store) appendLocalBacklogLocked(o order.Order) {
	if s.storage == nil {
		return
	}
	stationID := o.CreatedAtStation
	if stationID <= 0 {
		stationID = s.stationID
	}
	backlog := s.loadLocalBacklogLocked(stationID)
	if indexByID(backlog, o.ID) >= 0 {
		return
	}
	backlog = append(backlog, o)
	if err := s.storage.Put(storage.Durable, storage.LocalOrdersKey(stationID), backlog); err != nil {
		s.log.Error().Err(err).Int("station", stationID).Msg("cannot persist local backlog")
	}
}

// removeLocalBacklogLocked drops an acknowledged walk-in from whichever
// station backlog holds it, checking the current station first.
func (s *Store) removeLocalBacklogLocked(localID string) {
	if s.storage == nil {
		return
	}
	stations := []int{s.stationID}
	for _, list := range [][]order.Order{s.pending, s.inProgress, s.completed, s.pickedUp} {
		for _, o := range list {
			if o.CreatedAtStation > 0 && o.CreatedAtStation != s.stationID {
				stations = append(stations, o.CreatedAtStation)
			}
		}
	}
	for _, stationID := range stations {
		backlog := s.loadLocalBacklogLocked(stationID)
		i := indexByID(backlog, localID)
		if i < 0 {
			continue
		}
		backlog = removeAt(backlog, i)
		var err error
		if len(backlog) == 0 {
			err = s.storage.Delete(storage.Durable, storage.LocalOrdersKey(stationID))
		} else {
			err = s.storage.Put(storage.Durable, storage.LocalOrdersKey(stationID), backlog)
		}
		if err != nil {
			s.log.Error().Err(err).Int("station", stationID).Msg("cannot rewrite local backlog")
		}
		return
	}
}
