package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"xnftctl/pkg/ui"
)

var (
	accountKey     string
	accountAddress string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Resolve an account and show what it can do",
	Long: `Connects to an account the same way the flow commands do and prints it. A
keyring entry (--key) can sign mints and transfers; an address (--address) can only be queried.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := mustApp()
		acct, err := a.connect(cmd.Context(), accountKey, accountAddress)
		if err != nil {
			return err
		}

		key := acct.KeyName
		if key == "" {
			key = "-"
		}
		canSign := "No"
		if acct.CanSign() && a.ctrl.SignerReady() {
			canSign = "Yes"
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Address", "Key", "Can Sign"})
		t.AppendRow(table.Row{acct.Address, key, canSign})

		ui.Wallet.Println("Account")
		t.Render()
		return nil
	},
}

func init() {
	accountCmd.Flags().StringVar(&accountKey, "key", "", "Keyring entry to resolve")
	accountCmd.Flags().StringVar(&accountAddress, "address", "", "Address to connect without signing")
	rootCmd.AddCommand(accountCmd)
}
