// Package ui provides the terminal dashboard for a Coffeecue barista station.
//
// # Architecture Overview
//
// The UI is a tview application laid out as four order tables — pending,
// in progress, ready for pickup, and collected — under a one-line status
// bar. It is a thin projection of store.Snapshot: every visible value comes
// from the snapshot, and every mutation goes through the order store, which
// applies it optimistically and notifies subscribers. The UI never talks to
// the network itself.
//
// # Package Structure
//
//   - ui.go: Options, the Run entry point, and global key handling
//   - viewmodel.go: widget construction, layout, and focus management
//   - tables.go: order table rendering and formatting helpers
//   - header.go: status bar rendering (lipgloss styles bridged into tview)
//   - walkin.go: modal forms for walk-in creation and station switching
//   - logs.go: modal log viewer backed by the logtail package
//
// # Event Flow
//
//  1. Run() builds the viewModel and subscribes to the order store
//  2. Store notifications arrive on background goroutines and are marshalled
//     onto the UI goroutine with QueueUpdateDraw
//  3. Key presses call store operations in their own goroutines; the
//     optimistic state change arrives back through the subscription
//  4. Context cancellation stops the application cleanly
//
// # Key Bindings
//
//   - Enter: advance the selected order one stage (claim / complete / pickup)
//   - Tab: cycle focus between the four tables
//   - n: create a walk-in order at this station
//   - s: switch station
//   - r: request a prompt refresh (debounced)
//   - l: view the station log
//   - q or Ctrl+C: exit
package ui
