package ui

import (
	"github.com/pterm/pterm"
)

var (
	// Emojis
	SuccessEmoji  = "✅"
	ErrorEmoji    = "❌"
	InfoEmoji     = "ℹ️ "
	WalletEmoji   = "👛"
	MintEmoji     = "🪙"
	TransferEmoji = "📤"
	LinkEmoji     = "🔗"

	// Printers
	Info    = pterm.PrefixPrinter{Prefix: pterm.Prefix{Text: InfoEmoji, Style: pterm.NewStyle(pterm.FgCyan)}, MessageStyle: pterm.NewStyle(pterm.FgDefault)}
	Success = pterm.PrefixPrinter{Prefix: pterm.Prefix{Text: SuccessEmoji, Style: pterm.NewStyle(pterm.FgGreen)}, MessageStyle: pterm.NewStyle(pterm.FgDefault)}
	Warn    = pterm.PrefixPrinter{Prefix: pterm.Prefix{Text: "⚠️ ", Style: pterm.NewStyle(pterm.FgYellow)}, MessageStyle: pterm.NewStyle(pterm.FgDefault)}
	Error   = pterm.PrefixPrinter{Prefix: pterm.Prefix{Text: ErrorEmoji, Style: pterm.NewStyle(pterm.FgRed)}, MessageStyle: pterm.NewStyle(pterm.FgDefault)}
	Wallet  = pterm.PrefixPrinter{Prefix: pterm.Prefix{Text: WalletEmoji, Style: pterm.NewStyle(pterm.FgMagenta)}, MessageStyle: pterm.NewStyle(pterm.FgDefault)}
	Link    = pterm.PrefixPrinter{Prefix: pterm.Prefix{Text: LinkEmoji, Style: pterm.NewStyle(pterm.FgBlue)}, MessageStyle: pterm.NewStyle(pterm.FgLightBlue)}
)

func init() {
	pterm.EnableColor()
}

// Spin configures and returns a spinner
func Spin(text string) (*pterm.SpinnerPrinter, error) {
	pterm.DefaultSpinner.Sequence = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return pterm.DefaultSpinner.WithText(text).Start()
}

// Quiet disables styled output, used by tests and NO_COLOR environments.
func Quiet() {
	pterm.DisableStyling()
}
