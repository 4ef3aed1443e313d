package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/fruithappens/Coffeecue-sub002/internal/order"
	"github.com/fruithappens/Coffeecue-sub002/internal/store"
)

type viewModel struct {
	app     *tview.Application
	options Options
	root    *tview.Pages
	theme   Theme

	// Header components
	statusView *tview.TextView
	cmdBar     *tview.TextView

	// One table per lifecycle stage
	pendingTable    *tview.Table
	inProgressTable *tview.Table
	completedTable  *tview.Table
	pickedUpTable   *tview.Table

	focusRing []*tview.Table
	focusIdx  int

	snapshot store.Snapshot
}

func newViewModel(app *tview.Application, opts Options) *viewModel {
	// Single-line borders even when focused; the focus ring highlights
	// the border color instead.
	tview.Borders.HorizontalFocus = tview.Borders.Horizontal
	tview.Borders.VerticalFocus = tview.Borders.Vertical
	tview.Borders.TopLeftFocus = tview.Borders.TopLeft
	tview.Borders.TopRightFocus = tview.Borders.TopRight
	tview.Borders.BottomLeftFocus = tview.Borders.BottomLeft
	tview.Borders.BottomRightFocus = tview.Borders.BottomRight

	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.ContrastBackgroundColor = tcell.ColorBlack
	tview.Styles.PrimaryTextColor = tcell.ColorDefault

	vm := &viewModel{
		app:     app,
		options: opts,
		theme:   themeByName(opts.ThemeName),
	}

	vm.statusView = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	vm.statusView.SetBackgroundColor(tcell.ColorBlack)

	vm.cmdBar = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	vm.cmdBar.SetBackgroundColor(tcell.ColorBlack)
	vm.cmdBar.SetText(keyBar())

	vm.pendingTable = vm.newOrderTable("Pending")
	vm.inProgressTable = vm.newOrderTable("In Progress")
	vm.completedTable = vm.newOrderTable("Ready for Pickup")
	vm.pickedUpTable = vm.newOrderTable("Collected")
	vm.focusRing = []*tview.Table{
		vm.pendingTable, vm.inProgressTable, vm.completedTable, vm.pickedUpTable,
	}

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(vm.pendingTable, 0, 3, true).
		AddItem(vm.pickedUpTable, 0, 1, false)
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(vm.inProgressTable, 0, 1, false).
		AddItem(vm.completedTable, 0, 1, false)
	body := tview.NewFlex().
		AddItem(left, 0, 1, true).
		AddItem(right, 0, 1, false)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(vm.statusView, 1, 0, false).
		AddItem(body, 0, 1, true).
		AddItem(vm.cmdBar, 1, 0, false)

	vm.root = tview.NewPages().AddPage("main", layout, true, true)
	return vm
}

func (vm *viewModel) newOrderTable(title string) *tview.Table {
	table := tview.NewTable()
	table.SetBorder(true).SetTitle(" [::b]" + title + "[::-] ")
	table.SetSelectable(true, false)
	table.SetFixed(1, 0)
	table.SetBackgroundColor(tcell.ColorBlack)
	table.SetBorderColor(tcell.ColorSlateGray)
	return table
}

// update re-renders every widget from a fresh snapshot.
func (vm *viewModel) update(snapshot store.Snapshot) {
	vm.snapshot = snapshot
	vm.statusView.SetText(vm.renderStatus())
	vm.fillTable(vm.pendingTable, snapshot.Pending)
	vm.fillTable(vm.inProgressTable, snapshot.InProgress)
	vm.fillTable(vm.completedTable, snapshot.Completed)
	vm.fillTable(vm.pickedUpTable, snapshot.PreviouslyPickedUp)
}

// focusedOrders returns the collection backing the currently focused table.
func (vm *viewModel) focusedOrders() []order.Order {
	switch vm.focusRing[vm.focusIdx] {
	case vm.pendingTable:
		return vm.snapshot.Pending
	case vm.inProgressTable:
		return vm.snapshot.InProgress
	case vm.completedTable:
		return vm.snapshot.Completed
	default:
		return vm.snapshot.PreviouslyPickedUp
	}
}

// selectedOrder resolves the highlighted row to an order, if any.
func (vm *viewModel) selectedOrder() (order.Order, bool) {
	orders := vm.focusedOrders()
	row, _ := vm.focusRing[vm.focusIdx].GetSelection()
	i := row - 1 // row 0 is the header
	if i < 0 || i >= len(orders) {
		return order.Order{}, false
	}
	return orders[i], true
}

func (vm *viewModel) cycleFocus() {
	vm.focusIdx = (vm.focusIdx + 1) % len(vm.focusRing)
	vm.app.SetFocus(vm.focusRing[vm.focusIdx])
}
