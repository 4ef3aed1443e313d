// Package router decides which station an order is visible at.
//
// Station bindings arrive from heterogeneous producers and are normalized to
// one canonical field at the wire boundary (internal/order). The router only
// reasons about the canonical form: creation-time binding first, then the
// resolved station field, then the inbound-order default rule.
package router

import (
	"hash/fnv"

	"github.com/fruithappens/Coffeecue-sub002/internal/order"
)

// ResolveStation returns the station an order belongs to, or zero when it has
// no binding. A creation-time binding always wins over later heuristics.
func ResolveStation(o order.Order) int {
	if o.CreatedAtStation > 0 {
		return o.CreatedAtStation
	}
	return o.StationID
}

// FilterForStation returns the orders visible at stationID.
//
// Orders with no binding at all surface at the default station only when they
// are inbound (non-walk-in) orders; a station-less walk-in stays hidden
// everywhere until someone assigns it, so it cannot leak to every station.
func FilterForStation(orders []order.Order, stationID int) []order.Order {
	if stationID <= 0 {
		return nil
	}
	var out []order.Order
	for _, o := range orders {
		if visibleAt(o, stationID) {
			out = append(out, o)
		}
	}
	return out
}

func visibleAt(o order.Order, stationID int) bool {
	if o.CreatedAtStation > 0 {
		return o.CreatedAtStation == stationID
	}
	if o.StationID > 0 {
		return o.StationID == stationID
	}
	return !o.IsWalkIn && stationID == order.DefaultStationID
}

// AssignFallbackStation deterministically derives a station for an order that
// carries no binding, distributing demo and test data across stationCount
// stations without randomness.
func AssignFallbackStation(o order.Order, stationCount int) int {
	if stationCount <= 0 {
		return order.DefaultStationID
	}
	if id := ResolveStation(o); id > 0 {
		return id
	}
	h := fnv.New32a()
	h.Write([]byte(o.ID))
	return int(h.Sum32()%uint32(stationCount)) + 1
}
