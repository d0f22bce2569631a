package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"xnftctl/pkg/config"
	"xnftctl/pkg/controller"
	"xnftctl/pkg/logging"
	"xnftctl/pkg/metrics"
	"xnftctl/pkg/query"
	"xnftctl/pkg/signer"
	"xnftctl/pkg/ui"
	"xnftctl/pkg/validate"
	"xnftctl/pkg/wallet"
)

// runner is swapped by tests to fake xiond.
var runner signer.CommandRunner = signer.ExecRunner{}

// app bundles the clients every flow command needs.
type app struct {
	cfg      *config.Config
	lcd      *query.Client
	executor *signer.CLIExecutor
	metrics  *metrics.Metrics
	ctrl     *controller.Controller
}

// newApp wires the LCD client, the xiond signer and a wallet session into a
// controller. The signer is only attached when the xiond binary is found.
func newApp(cfg *config.Config) *app {
	if cfg == nil {
		cfg = &config.Config{}
	}

	lcd := query.NewClient(cfg.GetLCDURL(),
		query.WithHTTPClient(&http.Client{Timeout: cfg.GetRequestTimeout()}),
		query.WithLogger(logging.New("lcd")),
	)

	executor := signer.NewCLIExecutor(signer.CLIConfig{
		Binary:         cfg.GetXiondBinary(),
		ChainID:        cfg.GetChainID(),
		Node:           cfg.GetRPCNode(),
		KeyringBackend: cfg.GetKeyringBackend(),
		ConfirmTimeout: cfg.GetConfirmTimeout(),
		PollInterval:   cfg.GetPollInterval(),
	}, runner, lcd, logging.New("signer"))

	session := wallet.NewSession(&signer.CLIKeyResolver{
		Binary:         cfg.GetXiondBinary(),
		KeyringBackend: cfg.GetKeyringBackend(),
		Runner:         runner,
	})

	m := metrics.New()
	opts := []controller.Option{
		controller.WithQuerier(lcd),
		controller.WithSession(session),
		controller.WithRecorder(m),
		controller.WithLogger(logging.New("controller")),
	}
	if executor.Available() {
		opts = append(opts, controller.WithExecutor(executor))
	}

	return &app{
		cfg:      cfg,
		lcd:      lcd,
		executor: executor,
		metrics:  m,
		ctrl:     controller.New(controller.SettingsFromConfig(cfg), opts...),
	}
}

// connect resolves the account a command acts for. An explicit address wins,
// then an explicit key, then the key from the config file.
func (a *app) connect(ctx context.Context, keyName, address string) (wallet.Account, error) {
	if address != "" {
		if keyName != "" {
			return wallet.Account{}, fmt.Errorf("--key and --address are mutually exclusive")
		}
		if err := validate.XionAddress(address); err != nil {
			return wallet.Account{}, fmt.Errorf("invalid address: %w", err)
		}
		return a.ctrl.Session().ConnectAddress(address)
	}

	if keyName == "" {
		keyName = a.cfg.GetKey()
	}
	if keyName == "" {
		return wallet.Account{}, fmt.Errorf("no account given: pass --key or --address, or set key in %s", config.DefaultConfigFile)
	}
	if err := validate.KeyName(keyName); err != nil {
		return wallet.Account{}, fmt.Errorf("invalid key name: %w", err)
	}
	ctx, cancel := a.queryCtx(ctx)
	defer cancel()
	return a.ctrl.Session().Connect(ctx, keyName)
}

// queryCtx bounds a single LCD query or key lookup by request-timeout.
func (a *app) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.cfg.GetRequestTimeout())
}

// txCtx bounds a mint or transfer: the broadcast, the confirmation wait and
// the refresh that follows.
func (a *app) txCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.txTimeout())
}

func (a *app) txTimeout() time.Duration {
	return a.cfg.GetRequestTimeout() + a.cfg.GetConfirmTimeout()
}

// spin runs fn behind a spinner, reporting success or failure on it.
func spin(text string, fn func() error) error {
	spinner, _ := ui.Spin(text)
	err := fn()
	if spinner == nil {
		return err
	}
	if err != nil {
		spinner.Fail(text + " failed")
		return err
	}
	spinner.Success(text)
	return nil
}

// mustApp is the usual entry point of flow commands.
func mustApp() *app {
	return newApp(config.Loaded)
}
