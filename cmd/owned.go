package cmd

import (
	"github.com/spf13/cobra"

	"xnftctl/pkg/ui"
)

var (
	ownedKey     string
	ownedAddress string
)

var ownedCmd = &cobra.Command{
	Use:   "owned",
	Short: "Show how many tokens an account owns",
	Long: `Counts the tokens of the collection owned by an account, given either as a
keyring entry (--key) or as an address (--address). Only the first page of tokens
is read, so counts above the page limit are reported as the limit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := mustApp()
		acct, err := a.connect(cmd.Context(), ownedKey, ownedAddress)
		if err != nil {
			return err
		}
		ui.Wallet.Printfln("Account: %s", acct.Address)

		ctx, cancel := a.queryCtx(cmd.Context())
		defer cancel()
		if err := spin("Querying owned tokens", func() error {
			return a.ctrl.FetchOwnedCount(ctx)
		}); err != nil {
			return err
		}

		st := a.ctrl.Snapshot()
		if st.Owned == nil {
			ui.Warn.Println("Owned tokens: unknown")
			return nil
		}
		limit := a.ctrl.Settings().OwnedPageLimit
		if *st.Owned >= limit {
			ui.Success.Printfln("Owned tokens: %d or more", limit)
			return nil
		}
		ui.Success.Printfln("Owned tokens: %d", *st.Owned)
		return nil
	},
}

func init() {
	ownedCmd.Flags().StringVar(&ownedKey, "key", "", "Keyring entry of the owner")
	ownedCmd.Flags().StringVar(&ownedAddress, "address", "", "Address of the owner")
	rootCmd.AddCommand(ownedCmd)
}
