package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/fruithappens/Coffeecue-sub002/internal/config"
	"github.com/fruithappens/Coffeecue-sub002/internal/order"
	"github.com/fruithappens/Coffeecue-sub002/internal/scheduler"
	"github.com/fruithappens/Coffeecue-sub002/internal/store"
)

// Options configure the UI runtime.
type Options struct {
	Context   context.Context
	Store     *store.Store
	Scheduler *scheduler.Scheduler
	Config    config.Config
	Log       zerolog.Logger
	PrefsPath string
	ThemeName string
}

// Run wires up the tview components and blocks until ctx is cancelled or the
// user quits.
func Run(opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires an order store")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	app := tview.NewApplication()
	model := newViewModel(app, opts)
	model.update(opts.Store.Snapshot())

	opts.Store.Subscribe(func(snapshot store.Snapshot) {
		app.QueueUpdateDraw(func() {
			model.update(snapshot)
		})
	})

	go func() {
		<-ctx.Done()
		app.QueueUpdateDraw(func() { app.Stop() })
	}()

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Modals get the keyboard to themselves, except the kill switch.
		if model.root.HasPage("modal") {
			if event.Key() == tcell.KeyCtrlC {
				app.Stop()
				return nil
			}
			return event
		}

		switch event.Key() {
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyTab:
			model.cycleFocus()
			return nil
		case tcell.KeyEnter:
			model.advanceSelected(ctx)
			return nil
		}

		switch event.Rune() {
		case 'q':
			app.Stop()
			return nil
		case 'r':
			if opts.Scheduler != nil {
				opts.Scheduler.RequestRefresh()
			}
			return nil
		case 'n':
			model.openWalkInForm(ctx)
			return nil
		case 's':
			model.openStationPicker()
			return nil
		case 'l':
			model.openLogView()
			return nil
		}
		return event
	})

	return app.SetRoot(model.root, true).EnableMouse(false).Run()
}

// advanceSelected moves the highlighted order one lifecycle stage forward.
// The store applies the change optimistically, so the table refreshes at
// once; the remote confirmation happens off the UI goroutine.
func (vm *viewModel) advanceSelected(ctx context.Context) {
	o, ok := vm.selectedOrder()
	if !ok {
		return
	}
	var advance func(context.Context, string) store.OpResult
	switch o.Status {
	case order.StatusPending:
		advance = vm.options.Store.Claim
	case order.StatusInProgress:
		advance = vm.options.Store.Complete
	case order.StatusCompleted:
		advance = vm.options.Store.MarkPickedUp
	default:
		return
	}
	go func() {
		res := advance(ctx, o.ID)
		if res.Err != nil {
			vm.options.Log.Warn().Err(res.Err).Str("order", o.ID).Msg("order advance rejected")
		}
	}()
}
