package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// renderStatus builds the single-line status bar: identity, connectivity,
// queue pressure, and the wait estimate customers are being quoted.
func (vm *viewModel) renderStatus() string {
	styles := vm.theme.Styles()
	snap := vm.snapshot

	parts := []string{
		styles.Logo.Render("coffeecue"),
		styles.Text.Render(fmt.Sprintf("station %d", snap.StationID)),
	}

	switch {
	case snap.AuthLimited:
		parts = append(parts, styles.DangerText.Render("AUTH DEGRADED"))
	case !snap.Online:
		parts = append(parts, styles.WarningText.Render("OFFLINE"))
	default:
		parts = append(parts, styles.SuccessText.Render("ONLINE"))
	}

	if snap.IsRefreshing {
		parts = append(parts, styles.MutedText.Render("syncing…"))
	}

	parts = append(parts,
		styles.Text.Render(fmt.Sprintf("queue %d", snap.QueueCount)),
		styles.Text.Render(fmt.Sprintf("wait ~%dm", snap.WaitEstimate)),
	)

	if !snap.LastUpdated.IsZero() {
		parts = append(parts, styles.MutedText.Render("updated "+snap.LastUpdated.Format("15:04:05")))
	}
	if snap.LastError != nil {
		parts = append(parts, styles.DangerText.Render(shortError(snap.LastError.Error())))
	}

	return tview.TranslateANSI(strings.Join(parts, "  "))
}

// shortError keeps the status bar to one line even for chatty errors.
func shortError(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	const max = 60
	if len(msg) > max {
		return msg[:max-1] + "…"
	}
	return msg
}

func keyBar() string {
	keys := []string{
		"[::b]enter[::-] advance",
		"[::b]tab[::-] panel",
		"[::b]n[::-] walk-in",
		"[::b]s[::-] station",
		"[::b]r[::-] refresh",
		"[::b]l[::-] log",
		"[::b]q[::-] quit",
	}
	return " " + strings.Join(keys, "   ")
}
