package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"xnftctl/pkg/config"
	"xnftctl/pkg/controller"
	"xnftctl/pkg/dashboard"
	"xnftctl/pkg/ui"
	"xnftctl/pkg/validate"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Inspect transactions",
}

var txShowCmd = &cobra.Command{
	Use:   "show <hash>",
	Short: "Show an indexed transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash := args[0]
		if err := validate.TxHash(hash); err != nil {
			return err
		}

		a := mustApp()
		ctx, cancel := a.queryCtx(cmd.Context())
		defer cancel()
		res, err := a.lcd.GetTx(ctx, hash)
		if err != nil {
			return fmt.Errorf("failed to look up transaction: %w", err)
		}

		status := "Success"
		if res.Code != 0 {
			status = fmt.Sprintf("Failed (%s code %d)", res.Codespace, res.Code)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendRows([]table.Row{
			{"Hash", res.TxHash},
			{"Status", status},
			{"Height", dashboard.FormatWithCommas(strconv.FormatInt(res.Height, 10))},
			{"Gas (used / wanted)", fmt.Sprintf("%d / %d", res.GasUsed, res.GasWanted)},
			{"Time", res.Timestamp},
		})
		if res.Code != 0 {
			t.AppendRow(table.Row{"Log", res.RawLog})
		}
		t.Render()
		ui.Link.Println(a.cfg.ExplorerTxLink(res.TxHash))
		return nil
	},
}

// printTransaction renders the outcome of a mint or transfer.
func printTransaction(cfg *config.Config, tx controller.Transaction) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Kind", "Token", "Recipient", "Height", "Gas Used", "Hash"})
	recipient := tx.Recipient
	if recipient == "" {
		recipient = "-"
	}
	t.AppendRow(table.Row{
		dashboard.FlowLabel(tx.Kind),
		tx.TokenID,
		recipient,
		dashboard.FormatWithCommas(strconv.FormatInt(tx.Height, 10)),
		tx.GasUsed,
		tx.TransactionHash,
	})
	t.Render()
	ui.Link.Println(cfg.ExplorerTxLink(tx.TransactionHash))
}

func signerMissing(cfg *config.Config) error {
	return fmt.Errorf("%w: %s was not found on PATH", controller.ErrSignerUnavailable, cfg.GetXiondBinary())
}

func init() {
	txCmd.AddCommand(txShowCmd)
	rootCmd.AddCommand(txCmd)
}
