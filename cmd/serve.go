package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xnftctl/pkg/logging"
	"xnftctl/pkg/server"
	"xnftctl/pkg/ui"
)

var (
	serveAddress string
	serveKey     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the NFT flows over a local HTTP API",
	Long: `Starts a JSON API exposing the controller state, the four flows and the wallet
session, plus Prometheus metrics on /metrics. Only one account is connected at a time,
shared by every client of the API.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New("server")
		a := mustApp()

		cfg := server.ConfigFromConfig(a.cfg)
		if serveAddress != "" {
			cfg.Address = serveAddress
		}

		if serveKey != "" || a.cfg.GetKey() != "" {
			acct, err := a.connect(cmd.Context(), serveKey, "")
			if err != nil {
				return err
			}
			ui.Wallet.Printfln("Connected %s", acct.Address)
		}
		if !a.ctrl.SignerReady() {
			ui.Warn.Printfln("%s not found on PATH: mint and transfer are disabled", a.cfg.GetXiondBinary())
		}

		srv := server.New(cfg, a.ctrl, a.metrics.Handler(), log)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
			defer cancel()
			if err := a.ctrl.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("initial supply fetch failed")
			}
		}()

		ui.Success.Printfln("Listening on http://%s", cfg.Address)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "Listen address, overrides server.address from the config")
	serveCmd.Flags().StringVar(&serveKey, "key", "", "Keyring entry to connect at startup")
	rootCmd.AddCommand(serveCmd)
}
