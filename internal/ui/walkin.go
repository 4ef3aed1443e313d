package ui

import (
	"context"
	"strconv"
	"strings"

	"github.com/rivo/tview"

	"github.com/fruithappens/Coffeecue-sub002/internal/order"
	"github.com/fruithappens/Coffeecue-sub002/internal/prefs"
)

var walkInCoffees = []string{
	"Latte", "Cappuccino", "Flat White", "Long Black", "Espresso", "Mocha",
}

var walkInMilks = []string{
	"Full Cream", "Skim", "Oat", "Soy", "Almond", "None",
}

// openWalkInForm shows the modal used to key in a counter order. The order
// lands on this station immediately; server sync happens in the background.
func (vm *viewModel) openWalkInForm(ctx context.Context) {
	var (
		name   string
		coffee = walkInCoffees[0]
		milk   = walkInMilks[0]
		vip    bool
	)

	form := tview.NewForm().
		AddInputField("Customer", "", 24, nil, func(text string) { name = text }).
		AddDropDown("Coffee", walkInCoffees, 0, func(option string, _ int) { coffee = option }).
		AddDropDown("Milk", walkInMilks, 0, func(option string, _ int) { milk = option }).
		AddCheckbox("VIP", false, func(checked bool) { vip = checked })
	form.AddButton("Create", func() {
		vm.closeModal()
		vm.submitWalkIn(ctx, order.Order{
			CustomerName: strings.TrimSpace(name),
			CoffeeType:   coffee,
			MilkType:     milk,
			VIP:          vip,
			StationID:    vm.options.Store.StationID(),
		})
	})
	form.AddButton("Cancel", func() { vm.closeModal() })
	form.SetBorder(true).SetTitle(" [::b]New Walk-in Order[::-] ")
	form.SetCancelFunc(func() { vm.closeModal() })

	vm.showModal(form, 44, 13)
}

func (vm *viewModel) submitWalkIn(ctx context.Context, o order.Order) {
	if o.MilkType == "None" {
		o.MilkType = ""
	}
	go func() {
		created, res := vm.options.Store.CreateWalkIn(ctx, o)
		if res.Err != nil {
			vm.options.Log.Warn().Err(res.Err).Msg("walk-in rejected")
			return
		}
		vm.options.Log.Info().Str("order", created.ID).Bool("confirmed", res.Confirmed).
			Msg("walk-in created")
	}()
}

// openStationPicker prompts for a station number and switches to it.
func (vm *viewModel) openStationPicker() {
	input := ""
	form := tview.NewForm().
		AddInputField("Station", "", 6, tview.InputFieldInteger, func(text string) { input = text })
	form.AddButton("Switch", func() {
		vm.closeModal()
		stationID, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil || stationID <= 0 {
			return
		}
		store := vm.options.Store
		if stationID == store.StationID() {
			return
		}
		go func() {
			store.ChangeStation(stationID)
			vm.rememberStation(stationID)
		}()
	})
	form.AddButton("Cancel", func() { vm.closeModal() })
	form.SetBorder(true).SetTitle(" [::b]Switch Station[::-] ")
	form.SetCancelFunc(func() { vm.closeModal() })

	vm.showModal(form, 30, 7)
}

// rememberStation records the switch so the next launch resumes here.
func (vm *viewModel) rememberStation(stationID int) {
	p := prefs.Load(vm.options.PrefsPath)
	p.LastStation = stationID
	if err := prefs.Save(vm.options.PrefsPath, p); err != nil {
		vm.options.Log.Warn().Err(err).Msg("cannot persist station preference")
	}
}

// showModal centers a primitive over the main layout.
func (vm *viewModel) showModal(p tview.Primitive, width, height int) {
	centered := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
	vm.root.AddPage("modal", centered, true, true)
	vm.app.SetFocus(p)
}

func (vm *viewModel) closeModal() {
	vm.root.RemovePage("modal")
	vm.app.SetFocus(vm.focusRing[vm.focusIdx])
}
