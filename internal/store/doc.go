// Package store holds the authoritative local view of a station's orders.
//
// # Architecture Overview
//
// The Store keeps four collections — pending, in progress, completed, and
// previously picked up — and guarantees that an order lives in exactly one
// of them. All reads go through Snapshot, which returns deep copies, so the
// UI can never observe or corrupt internal state.
//
// # Optimistic Mutations
//
// Claim, Complete, MarkPickedUp, and CreateWalkIn apply locally first and
// report an OpResult with two independent outcomes: Applied (the local
// transition happened) and Confirmed (the server acknowledged it). When the
// remote leg fails, or while the gateway is degraded, the write is recorded
// in the fallback provider's sync queue and replayed after the next
// successful refresh. A failed confirmation never reverts a local move.
//
// # Refresh and Merge
//
// Refresh fetches the three remote collections (or their fallback
// equivalents when degraded), routes them to the current station, and merges
// them without regressing any locally advanced order: an incoming placement
// below the in-memory status rank is dropped, and locally advanced orders
// the server does not know yet stay put. Locally created walk-ins join
// pending from the per-station backlog.
//
// # Persistence
//
// Every mutation and refresh persists the full snapshot to a primary and a
// backup slot keyed by station, so a crash between polls loses nothing and a
// corrupt primary still restores. ChangeStation persists the outgoing
// station's snapshot, swaps in the incoming one, and requests a prompt
// refresh.
//
// # Collaborators
//
// Inventory and Notifier are optional hooks: stock depletion on completion,
// new-order and completion announcements, and reminder cancellation on
// pickup. They run on background goroutines and never block an operation.
package store
