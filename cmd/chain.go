package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"xnftctl/pkg/dashboard"
	"xnftctl/pkg/query"
	"xnftctl/pkg/signer"
	"xnftctl/pkg/ui"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Show the status of the configured chain endpoint",
	Long:  `Shows node versions, the latest block and the contract settings in a lightweight non-interactive output.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := mustApp()
		ctx, cancel := a.queryCtx(cmd.Context())
		defer cancel()

		node, err := a.lcd.NodeInfo(ctx)
		if err != nil {
			return fmt.Errorf("failed to reach %s: %w", a.lcd.BaseURL(), err)
		}
		block, err := a.lcd.LatestBlock(ctx)
		if err != nil {
			return fmt.Errorf("failed to read latest block: %w", err)
		}

		renderNodeTable(a.lcd.BaseURL(), node)
		renderBlockTable(block, time.Now())
		renderContractTable(a)

		if block.ChainID != a.cfg.GetChainID() {
			ui.Warn.Printfln("Configured chain-id %s does not match the node (%s)", a.cfg.GetChainID(), block.ChainID)
		}
		return nil
	},
}

func renderNodeTable(endpoint string, node *query.NodeInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"LCD", "Network", "Moniker", "App", "Cosmos SDK", "CometBFT"})
	t.AppendRow(table.Row{endpoint, node.Network, node.Moniker, node.AppName + " " + node.AppVersion, node.CosmosSDKVersion, node.CometBFTVersion})

	ui.Info.Println("Node")
	t.Render()
	fmt.Println()
}

func renderBlockTable(block *query.BlockInfo, now time.Time) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Chain ID", "Height", "Age", "Hash"})
	t.AppendRow(table.Row{
		block.ChainID,
		dashboard.FormatWithCommas(strconv.FormatInt(block.Height, 10)),
		dashboard.FormatAge(now.Sub(block.Time)),
		dashboard.ShortHash(block.Hash),
	})

	ui.Info.Println("Latest Block")
	t.Render()
	fmt.Println()
}

func renderContractTable(a *app) {
	s := a.ctrl.Settings()
	signerState := "Not found"
	if a.ctrl.SignerReady() {
		signerState = a.cfg.GetXiondBinary()
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Contract", s.Contract},
		{"Treasury", s.Treasury},
		{"Fee", feeDisplay(s.Fee())},
		{"Token IDs", s.TokenIDSource},
		{"Signer", signerState},
	})

	ui.Info.Println("Collection")
	t.Render()
}

func feeDisplay(fee signer.Fee) string {
	parts := make([]string, 0, len(fee.Amount))
	for _, c := range fee.Amount {
		parts = append(parts, c.Display())
	}
	return strings.Join(parts, ", ") + " / " + fee.Gas + " gas"
}

func init() {
	rootCmd.AddCommand(chainCmd)
}
