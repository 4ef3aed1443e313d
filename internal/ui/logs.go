package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/fruithappens/Coffeecue-sub002/internal/logtail"
)

const logViewLines = 200

// openLogView shows the tail of the station log in a modal, so a barista
// can check why the dashboard went offline without leaving the counter.
func (vm *viewModel) openLogView() {
	lines, err := logtail.Tail(vm.options.Config.LogPath(), logViewLines)

	view := tview.NewTextView().SetDynamicColors(true)
	view.SetBorder(true).SetTitle(" [::b]Station Log[::-] ")
	view.SetBackgroundColor(tcell.ColorBlack)
	if err != nil {
		view.SetText("[red]cannot read log: " + tview.Escape(err.Error()))
	} else if len(lines) == 0 {
		view.SetText("[gray]log is empty")
	} else {
		view.SetText(strings.Join(lines, "\n"))
		view.ScrollToEnd()
	}
	view.SetDoneFunc(func(tcell.Key) { vm.closeModal() })

	vm.showModal(view, 100, 30)
}
