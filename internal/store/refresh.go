package store

import (
	"context"
	"fmt"
	"time"

	"github.com/fruithappens/Coffeecue-sub002/internal/fallback"
	"github.com/fruithappens/Coffeecue-sub002/internal/gateway"
	"github.com/fruithappens/Coffeecue-sub002/internal/order"
	"github.com/fruithappens/Coffeecue-sub002/internal/router"
	"github.com/fruithappens/Coffeecue-sub002/internal/waittime"
)

// Refresh retrieves the three remote collections (or their fallback
// equivalents), routes them to the current station, and merges them into the
// in-memory state without regressing any locally advanced order.
func (s *Store) Refresh(ctx context.Context) {
	s.notifyObservers(s.setRefreshing(true))

	pending, inProgress, completed, online, fetchErr := s.loadCollections(ctx)

	s.mu.Lock()
	stationID := s.stationID
	s.mu.Unlock()

	pending = router.FilterForStation(pending, stationID)
	inProgress = router.FilterForStation(inProgress, stationID)
	completed = router.FilterForStation(completed, stationID)

	s.mu.Lock()
	if stationID != s.stationID {
		// A station switch landed while we were fetching; this result is
		// for the wrong station and must not bleed through.
		s.isRefreshing = false
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notifyObservers(snap)
		return
	}
	newlyPending := s.mergeLocked(pending, inProgress, completed, online)
	s.online = online
	s.lastErr = fetchErr
	s.lastUpdated = s.now()
	s.isRefreshing = false
	s.persistSnapshotLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyObservers(snap)
	for _, o := range newlyPending {
		o := o
		s.background(func() { s.notifier.NotifyNewOrder(o) })
	}
	s.scheduleWaitPush()

	if online {
		s.replaySyncQueue(ctx)
	}
}

// loadCollections picks the data source: the gateway when healthy, the
// fallback provider when degraded or when any remote fetch failed.
func (s *Store) loadCollections(ctx context.Context) (pending, inProgress, completed []order.Order, online bool, err error) {
	if s.degraded() {
		return s.fb.LoadPending(), s.fb.LoadInProgress(), s.fb.LoadCompleted(), false, nil
	}

	pending, resP := s.gw.FetchPending(ctx)
	inProgress, resI := s.gw.FetchInProgress(ctx)
	completed, resC := s.gw.FetchCompleted(ctx)
	if resP.OK() && resI.OK() && resC.OK() {
		if s.fb != nil {
			s.fb.Remember(pending, inProgress, completed)
		}
		return pending, inProgress, completed, true, nil
	}

	for _, res := range []gateway.Result{resP, resI, resC} {
		if !res.OK() {
			err = fmt.Errorf("fetch orders: %s", res.Status)
			if res.Err != nil {
				err = fmt.Errorf("fetch orders: %w", res.Err)
			}
			break
		}
	}
	s.log.Warn().Err(err).Msg("remote fetch failed, serving cached collections")
	if s.fb != nil {
		return s.fb.LoadPending(), s.fb.LoadInProgress(), s.fb.LoadCompleted(), false, err
	}
	return nil, nil, nil, false, err
}

// mergeLocked folds a routed fetch result into the in-memory collections and
// returns the orders newly seen in pending. Rules:
//
//   - an order already advanced locally never moves back: incoming placement
//     below the in-memory status rank is dropped
//   - locally advanced orders the server does not know yet stay where they are
//   - the local walk-in backlog joins pending without duplication
//   - the incoming completed collection splits on the pickup marker, and the
//     previously-picked-up view merges rather than replaces so local pickups
//     survive a server that has not caught up
//   - when the fetch did not reach the server (fetched == false), the
//     in-memory pending set is retained too: a restored snapshot must not be
//     wiped by an unreachable server and an empty fallback cache
func (s *Store) mergeLocked(pending, inProgress, completed []order.Order, fetched bool) []order.Order {
	rank := make(map[string]int)
	for _, list := range [][]order.Order{s.pending, s.inProgress, s.completed, s.pickedUp} {
		for _, o := range list {
			rank[o.ID] = o.Status.Rank()
		}
	}
	known := func(id string) bool { _, ok := rank[id]; return ok }

	var newlyPending []order.Order

	var nextPending []order.Order
	for _, o := range pending {
		if rank[o.ID] > order.StatusPending.Rank() {
			continue
		}
		o.Status = order.StatusPending
		if !known(o.ID) {
			newlyPending = append(newlyPending, o)
		}
		nextPending = append(nextPending, o)
	}

	var nextInProgress []order.Order
	for _, o := range inProgress {
		if rank[o.ID] > order.StatusInProgress.Rank() {
			continue
		}
		o.Status = order.StatusInProgress
		nextInProgress = append(nextInProgress, o)
	}

	var nextCompleted, incomingPickedUp []order.Order
	for _, o := range completed {
		if o.PickedUp || o.Status == order.StatusPickedUp {
			o.Status = order.StatusPickedUp
			incomingPickedUp = append(incomingPickedUp, o)
			continue
		}
		if rank[o.ID] > order.StatusCompleted.Rank() {
			continue
		}
		o.Status = order.StatusCompleted
		nextCompleted = append(nextCompleted, o)
	}

	// Retain locally advanced orders the fetch did not account for.
	seen := make(map[string]bool)
	for _, list := range [][]order.Order{nextPending, nextInProgress, nextCompleted, incomingPickedUp} {
		for _, o := range list {
			seen[o.ID] = true
		}
	}
	if !fetched {
		for _, o := range s.pending {
			if !seen[o.ID] {
				nextPending = append(nextPending, o)
				seen[o.ID] = true
			}
		}
	}
	for _, o := range s.inProgress {
		if !seen[o.ID] {
			nextInProgress = append(nextInProgress, o)
			seen[o.ID] = true
		}
	}
	for _, o := range s.completed {
		if !seen[o.ID] {
			nextCompleted = append(nextCompleted, o)
			seen[o.ID] = true
		}
	}

	// Merge, never replace, the previously-picked-up view.
	nextPickedUp := cloneOrders(s.pickedUp)
	for _, o := range incomingPickedUp {
		if indexByID(nextPickedUp, o.ID) < 0 {
			nextPickedUp = append(nextPickedUp, o)
		}
	}
	if len(nextPickedUp) > maxPickedUpHistory {
		nextPickedUp = nextPickedUp[len(nextPickedUp)-maxPickedUpHistory:]
	}

	// Local walk-ins the server has not acknowledged stay visible.
	for _, o := range s.loadLocalBacklogLocked(s.stationID) {
		if !seen[o.ID] && indexByID(nextPickedUp, o.ID) < 0 && rank[o.ID] <= order.StatusPending.Rank() {
			nextPending = append(nextPending, o)
			seen[o.ID] = true
		}
	}

	order.SortPending(nextPending)
	s.pending = nextPending
	s.inProgress = nextInProgress
	s.completed = nextCompleted
	s.pickedUp = nextPickedUp
	return newlyPending
}

// ChangeStation switches the active station: snapshot the outgoing station's
// collections, clear shared state so nothing bleeds across, restore the
// incoming station's snapshot, and ask for a fresh fetch. The three commit
// phases run under one lock acquisition.
func (s *Store) ChangeStation(stationID int) {
	s.mu.Lock()
	if stationID <= 0 || stationID == s.stationID {
		s.mu.Unlock()
		return
	}
	s.persistSnapshotLocked()
	s.pending, s.inProgress, s.completed, s.pickedUp = nil, nil, nil, nil
	s.stationID = stationID
	s.lastWaitPush = -1
	s.restoreSnapshotLocked(stationID)
	req := s.requestRefresh
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info().Int("station", stationID).Msg("switched station")
	s.notifyObservers(snap)
	if req != nil {
		req()
	}
}

// scheduleWaitPush debounces the wait-time feedback loop: whenever the
// pending count changes, one push is scheduled and later pushes within the
// window replace it. Fire-and-forget; never blocks a refresh.
func (s *Store) scheduleWaitPush() {
	s.mu.Lock()
	count := len(s.pending)
	if count == s.lastWaitPush {
		s.mu.Unlock()
		return
	}
	s.lastWaitPush = count
	if s.waitTimer != nil {
		s.waitTimer.Stop()
	}
	s.waitTimer = time.AfterFunc(s.waitDebounce, s.pushWaitTime)
	s.mu.Unlock()
}

func (s *Store) pushWaitTime() {
	if s.degraded() {
		return
	}
	s.mu.Lock()
	count := len(s.pending)
	stationID := s.stationID
	s.mu.Unlock()

	minutes := waittime.Estimate(count, s.baseWait, s.stats)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if res := s.gw.UpdateWaitTime(ctx, minutes, stationID); !res.OK() {
		s.log.Debug().Stringer("status", res.Status).Msg("wait-time push not confirmed")
	}
}

// replaySyncQueue retries writes recorded while degraded, in order. Entries
// the server accepts are dropped; the rest stay queued for the next pass.
func (s *Store) replaySyncQueue(ctx context.Context) {
	if s.fb == nil {
		return
	}
	queue, err := s.fb.PendingWrites()
	if err != nil {
		s.log.Error().Err(err).Msg("cannot load sync queue for replay")
		return
	}
	if len(queue) == 0 {
		return
	}

	var remaining []fallback.QueueEntry
	for _, entry := range queue {
		if s.replayEntry(ctx, entry) {
			continue
		}
		remaining = append(remaining, entry)
	}
	if err := s.fb.ReplaceQueue(remaining); err != nil {
		s.log.Error().Err(err).Msg("cannot persist sync queue after replay")
		return
	}
	s.log.Info().Int("replayed", len(queue)-len(remaining)).Int("remaining", len(remaining)).
		Msg("sync queue replay finished")
}

func (s *Store) replayEntry(ctx context.Context, entry fallback.QueueEntry) bool {
	switch entry.Op {
	case fallback.OpCreate:
		if entry.Payload == nil {
			return true // nothing to send; drop the malformed entry
		}
		created, res := s.gw.CreateWalkIn(ctx, *entry.Payload)
		if !res.OK() {
			return false
		}
		s.adoptServerIdentity(entry.OrderID, created)
		return true
	case fallback.OpUpdate:
		switch entry.Status {
		case order.StatusInProgress:
			return s.gw.Claim(ctx, entry.OrderID, entry.StationID).OK()
		case order.StatusCompleted:
			return s.gw.Complete(ctx, entry.OrderID).OK()
		case order.StatusPickedUp:
			return s.gw.MarkPickedUp(ctx, entry.OrderID).OK()
		}
	}
	return true
}
