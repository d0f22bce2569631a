package cmd

import (
	"github.com/spf13/cobra"

	"xnftctl/pkg/controller"
	"xnftctl/pkg/ui"
)

var (
	transferKey       string
	transferTokenID   string
	transferRecipient string
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer a token you own to another address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := mustApp()
		if !a.ctrl.SignerReady() {
			return signerMissing(a.cfg)
		}
		acct, err := a.connect(cmd.Context(), transferKey, "")
		if err != nil {
			return err
		}
		ui.Wallet.Printfln("Signer: %s", acct.Address)

		draft := controller.Draft{TokenID: transferTokenID, Recipient: transferRecipient}
		ctx, cancel := a.txCtx(cmd.Context())
		defer cancel()
		var tx controller.Transaction
		if err := spin("Transferring token "+transferTokenID, func() error {
			var err error
			tx, err = a.ctrl.TransferDraft(ctx, draft)
			return err
		}); err != nil {
			return err
		}

		printTransaction(a.cfg, tx)
		if owned := a.ctrl.Snapshot().Owned; owned != nil {
			ui.Info.Printfln("Tokens left in %s: %d", acct.Address, *owned)
		}
		return nil
	},
}

func init() {
	transferCmd.Flags().StringVar(&transferKey, "key", "", "Keyring entry of the current owner")
	transferCmd.Flags().StringVar(&transferTokenID, "token-id", "", "Id of the token to transfer")
	transferCmd.Flags().StringVar(&transferRecipient, "recipient", "", "Address receiving the token")
	_ = transferCmd.MarkFlagRequired("token-id")
	_ = transferCmd.MarkFlagRequired("recipient")
	rootCmd.AddCommand(transferCmd)
}
