package cmd

import (
	"github.com/spf13/cobra"

	"xnftctl/pkg/controller"
	"xnftctl/pkg/ui"
)

var supplyCmd = &cobra.Command{
	Use:   "supply",
	Short: "Show the number of tokens minted by the collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := mustApp()
		ctx, cancel := a.queryCtx(cmd.Context())
		defer cancel()
		if err := spin("Querying collection supply", func() error {
			return a.ctrl.FetchSupplyCount(ctx)
		}); err != nil {
			return err
		}
		printSupply(a.ctrl.Settings().Contract, a.ctrl.Snapshot())
		return nil
	},
}

func printSupply(contract string, st controller.State) {
	ui.Info.Printfln("Collection: %s", contract)
	if st.Supply == nil {
		ui.Warn.Println("Total supply: unknown")
		return
	}
	ui.Success.Printfln("Total supply: %s", st.Supply.String())
}

func init() {
	rootCmd.AddCommand(supplyCmd)
}
