package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"xnftctl/pkg/controller"
	"xnftctl/pkg/dashboard"
	"xnftctl/pkg/logging"
)

var dashKey string

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Launch the interactive NFT dashboard",
	Long: `Launches a terminal dashboard showing the connected account, the collection
supply and the last transaction, with shortcuts to run every flow.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := mustApp()
		log := logging.New("dash")

		if dashKey != "" || a.cfg.GetKey() != "" {
			if _, err := a.connect(cmd.Context(), dashKey, ""); err != nil {
				return err
			}
		}

		m := dashboard.New(a.ctrl, dashboard.Options{
			Version:        Version,
			Network:        a.cfg.GetChainID(),
			RequestTimeout: a.cfg.GetRequestTimeout(),
			TxTimeout:      a.txTimeout(),
			ExplorerTxLink: a.cfg.ExplorerTxLink,
		})
		p := tea.NewProgram(m, tea.WithAltScreen())

		// State changes and log lines can be produced while the program is
		// inside Update, where p.Send would block. They go through a queue.
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		fwd := dashboard.NewForwarder(256)
		go fwd.Run(ctx, p.Send)

		unsubscribe := a.ctrl.Subscribe(func(st controller.State) {
			fwd.Post(dashboard.StateMsg(st))
		})
		defer unsubscribe()
		restore := logging.SetOutput(dashboard.NewLogWriter(fwd.Post))
		defer restore()

		if !a.ctrl.SignerReady() {
			log.Warn().Str("binary", a.cfg.GetXiondBinary()).Msg("signer not found, mint and transfer are disabled")
		}
		go func() {
			startCtx, cancel := context.WithTimeout(ctx, a.cfg.GetRequestTimeout())
			defer cancel()
			_ = a.ctrl.Start(startCtx)
		}()

		_, err := p.Run()
		return err
	},
}

func init() {
	dashCmd.Flags().StringVar(&dashKey, "key", "", "Keyring entry to connect at startup")
	rootCmd.AddCommand(dashCmd)
}
