package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/fruithappens/Coffeecue-sub002/internal/order"
)

var tableHeaders = []string{"ORDER", "CUSTOMER", "COFFEE", "MILK", "FLAGS", "AGE"}

func (vm *viewModel) fillTable(table *tview.Table, orders []order.Order) {
	table.Clear()
	for col, h := range tableHeaders {
		cell := tview.NewTableCell(h).
			SetTextColor(tcell.ColorSlateGray).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false).
			SetExpansion(1)
		table.SetCell(0, col, cell)
	}

	for i, o := range orders {
		color := statusColor(o.Status)
		if o.VIP {
			color = tcell.ColorYellow
		}
		row := i + 1
		for col, text := range []string{
			orderLabel(o),
			o.CustomerName,
			o.CoffeeType,
			o.MilkType,
			orderFlags(o),
			formatAge(o.CreatedAt, time.Now()),
		} {
			table.SetCell(row, col, tview.NewTableCell(text).
				SetTextColor(color).
				SetExpansion(1))
		}
	}

	if row, _ := table.GetSelection(); row > len(orders) {
		table.Select(len(orders), 0)
	}
}

func statusColor(status order.Status) tcell.Color {
	switch status {
	case order.StatusPending:
		return tcell.ColorGoldenrod
	case order.StatusInProgress:
		return tcell.ColorCornflowerBlue
	case order.StatusCompleted:
		return tcell.ColorMediumSeaGreen
	default:
		return tcell.ColorGray
	}
}

// orderLabel prefers the human order number over raw ids.
func orderLabel(o order.Order) string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	if len(o.ID) > 8 {
		return o.ID[:8]
	}
	return o.ID
}

// orderFlags packs the attention markers into a short badge column.
func orderFlags(o order.Order) string {
	var flags []string
	if o.VIP {
		flags = append(flags, "VIP")
	}
	if o.IsWalkIn {
		flags = append(flags, "walk-in")
	}
	if o.AlternativeMilk {
		flags = append(flags, "alt-milk")
	}
	if o.IsLocal() {
		flags = append(flags, "unsynced")
	}
	return strings.Join(flags, " ")
}

// formatAge renders how long ago an order arrived, compactly.
func formatAge(created, now time.Time) string {
	if created.IsZero() {
		return "-"
	}
	age := now.Sub(created)
	if age < 0 {
		age = 0
	}
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	default:
		return fmt.Sprintf("%dh%02dm", int(age.Hours()), int(age.Minutes())%60)
	}
}
