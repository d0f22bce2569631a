package cmd

import (
	"github.com/spf13/cobra"

	"xnftctl/pkg/config"
	"xnftctl/pkg/controller"
	"xnftctl/pkg/ui"
)

var mintKey string

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint the next token of the collection to your account",
	Long: `Mints a token with id supply+1 to the signing account and refreshes the supply.
The fee is paid by the treasury through its fee grant.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := mustApp()
		if !a.ctrl.SignerReady() {
			return signerMissing(a.cfg)
		}
		acct, err := a.connect(cmd.Context(), mintKey, "")
		if err != nil {
			return err
		}
		ui.Wallet.Printfln("Signer: %s", acct.Address)

		if a.ctrl.Settings().TokenIDSource != config.TokenIDSourceChain {
			if err := spin("Querying collection supply", func() error {
				ctx, cancel := a.queryCtx(cmd.Context())
				defer cancel()
				return a.ctrl.FetchSupplyCount(ctx)
			}); err != nil {
				return err
			}
		}

		ctx, cancel := a.txCtx(cmd.Context())
		defer cancel()
		var tx controller.Transaction
		if err := spin("Minting", func() error {
			var err error
			tx, err = a.ctrl.Mint(ctx)
			return err
		}); err != nil {
			return err
		}

		printTransaction(a.cfg, tx)
		printSupply(a.ctrl.Settings().Contract, a.ctrl.Snapshot())
		return nil
	},
}

func init() {
	mintCmd.Flags().StringVar(&mintKey, "key", "", "Keyring entry that signs and receives the token")
	rootCmd.AddCommand(mintCmd)
}
