// Package dashboard implements the interactive xnftctl terminal dashboard: a
// bubbletea model rendering controller state, plus the pure formatting and
// frame-drawing helpers it uses, kept separate so they can be unit tested
// without a terminal.
package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"xnftctl/pkg/controller"
	"xnftctl/pkg/wasm"
)

// Colours used by the dashboard.
var (
	Cyan   = lipgloss.Color("#00FFFF")
	Orange = lipgloss.Color("#FF7400")
	Green  = lipgloss.Color("#00CC66")
	Yellow = lipgloss.Color("#FFAA00")
	Red    = lipgloss.Color("#FF4444")
	Gray   = lipgloss.Color("#666666")
	Dark   = lipgloss.Color("#111111")
)

// FormatAge converts a duration into a short human-readable string.
func FormatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// FormatWithCommas adds thousand separators to an unsigned numeric string.
// Anything else is returned unchanged.
func FormatWithCommas(s string) string {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return s
	}
	digits := strconv.FormatUint(n, 10)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// FormatCount renders a token count, "-" when it has not been fetched yet.
func FormatCount(c *wasm.Count) string {
	if c == nil || c.String() == "" {
		return "-"
	}
	return FormatWithCommas(c.String())
}

// FormatOwned renders an owned-token count. A full page is shown as "100+"
// because the contract does not report anything beyond the first page.
func FormatOwned(n *int, pageLimit int) string {
	if n == nil {
		return "-"
	}
	if pageLimit > 0 && *n >= pageLimit {
		return fmt.Sprintf("%d+", pageLimit)
	}
	return strconv.Itoa(*n)
}

// ShortAddress elides the middle of an address that does not fit in maxW
// characters.
func ShortAddress(addr string, maxW int) string {
	if len(addr) <= maxW || maxW < 12 {
		return addr
	}
	keep := (maxW - 3) / 2
	return addr[:keep] + "..." + addr[len(addr)-(maxW-3-keep):]
}

// ShortHash shortens a transaction hash to its first and last 6 characters.
func ShortHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:6] + "..." + hash[len(hash)-6:]
}

// FlowLabel is the label shown next to a flow's status.
func FlowLabel(op controller.Op) string {
	switch op {
	case controller.OpSupply:
		return "Supply"
	case controller.OpOwned:
		return "Owned"
	case controller.OpMint:
		return "Mint"
	case controller.OpTransfer:
		return "Transfer"
	default:
		return string(op)
	}
}

// RenderFlowStatus returns the styled status of a flow. spin is the current
// spinner frame, shown while a request is in flight.
func RenderFlowStatus(st controller.Status, spin string, now time.Time) string {
	switch {
	case st.Loading():
		return lipgloss.NewStyle().Foreground(Yellow).Render(spin + " Loading...")
	case st.LastError != "":
		return lipgloss.NewStyle().Foreground(Red).Render("failed")
	case st.FinishedAt.IsZero():
		return lipgloss.NewStyle().Foreground(Gray).Render("idle")
	default:
		return lipgloss.NewStyle().Foreground(Green).Render("ok " + FormatAge(now.Sub(st.FinishedAt)) + " ago")
	}
}

// ColorizeLogLine colours the level token of a zerolog console line.
func ColorizeLogLine(line string) string {
	levels := []struct {
		tag   string
		color lipgloss.Color
	}{
		{" ERR ", Red},
		{" WRN ", Yellow},
		{" INF ", Green},
		{" DBG ", Gray},
	}
	for _, l := range levels {
		if i := strings.Index(line, l.tag); i >= 0 {
			return line[:i+1] + lipgloss.NewStyle().Foreground(l.color).Render(strings.TrimSpace(l.tag)) + line[i+len(l.tag)-1:]
		}
	}
	return line
}

// LogViewportRows returns the number of log lines visible in the log panel
// for a terminal of the given height.
func LogViewportRows(height int) int {
	_, _, logRows := layoutRows(height)
	return logRows
}

// layoutRows splits the terminal height between the two panel rows and the
// log pane. One line goes to the header and four to borders.
func layoutRows(height int) (top, middle, logs int) {
	available := height - 1
	top = max(available*3/10, 6)
	middle = max(available*2/10, 5)
	logs = max(available-top-middle-4, 3)
	return top, middle, logs
}
