package signer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"xnftctl/pkg/query"
)

// CLIConfig holds the xiond settings shared by every invocation.
type CLIConfig struct {
	Binary         string
	ChainID        string
	Node           string
	KeyringBackend string
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// CLIExecutor signs with the local xiond keyring and broadcasts in sync mode.
type CLIExecutor struct {
	cfg    CLIConfig
	runner CommandRunner
	txs    query.TxGetter
	log    zerolog.Logger
}

// broadcastOutput is the relevant part of `xiond tx ... --output json`.
type broadcastOutput struct {
	Height    string `json:"height"`
	TxHash    string `json:"txhash"`
	Code      uint32 `json:"code"`
	Codespace string `json:"codespace"`
	RawLog    string `json:"raw_log"`
}

// NewCLIExecutor returns an executor that shells out to cfg.Binary and
// confirms transactions through txs.
func NewCLIExecutor(cfg CLIConfig, runner CommandRunner, txs query.TxGetter, log zerolog.Logger) *CLIExecutor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 60 * time.Second
	}
	return &CLIExecutor{cfg: cfg, runner: runner, txs: txs, log: log}
}

// Available reports whether the xiond binary can be found on PATH.
func (e *CLIExecutor) Available() bool {
	_, err := e.runner.LookPath(e.cfg.Binary)
	return err == nil
}

// Execute signs and broadcasts req, then waits until the transaction is included.
func (e *CLIExecutor) Execute(ctx context.Context, req ExecuteRequest) (Result, error) {
	args, err := e.executeArgs(req)
	if err != nil {
		return Result{}, err
	}

	e.log.Debug().Str("contract", req.Contract).Str("sender", req.Sender).Msg("broadcasting execute")

	out, err := e.runner.Run(ctx, e.cfg.Binary, args...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to broadcast execute: %w", err)
	}

	bcast, err := parseBroadcast(out)
	if err != nil {
		return Result{}, err
	}
	if bcast.Code != 0 {
		return Result{}, &TxError{TxHash: bcast.TxHash, Code: bcast.Code, Codespace: bcast.Codespace, RawLog: bcast.RawLog}
	}

	e.log.Info().Str("txhash", bcast.TxHash).Msg("transaction broadcast, waiting for inclusion")

	waitCtx, cancel := context.WithTimeout(ctx, e.cfg.ConfirmTimeout)
	defer cancel()

	tx, err := WaitForTx(waitCtx, e.txs, bcast.TxHash, e.cfg.PollInterval)
	if err != nil {
		return Result{}, err
	}
	if tx.Code != 0 {
		return Result{}, &TxError{TxHash: tx.TxHash, Code: tx.Code, Codespace: tx.Codespace, RawLog: tx.RawLog}
	}

	return Result{
		TransactionHash: tx.TxHash,
		Height:          tx.Height,
		GasWanted:       tx.GasWanted,
		GasUsed:         tx.GasUsed,
	}, nil
}

func (e *CLIExecutor) executeArgs(req ExecuteRequest) ([]string, error) {
	msg, err := json.Marshal(req.Msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal execute message: %w", err)
	}

	args := []string{
		"tx", "wasm", "execute", req.Contract, string(msg),
		"--from", req.Sender,
		"--chain-id", e.cfg.ChainID,
		"--node", e.cfg.Node,
		"--keyring-backend", e.cfg.KeyringBackend,
		"--gas", req.Fee.Gas,
		"--fees", FormatCoins(req.Fee.Amount),
	}
	if req.Fee.Granter != "" {
		args = append(args, "--fee-granter", req.Fee.Granter)
	}
	if req.Memo != "" {
		args = append(args, "--note", req.Memo)
	}
	if len(req.Funds) > 0 {
		args = append(args, "--amount", FormatCoins(req.Funds))
	}
	args = append(args, "--broadcast-mode", "sync", "--output", "json", "--yes")
	return args, nil
}

// parseBroadcast extracts the broadcast response. xiond may print gas
// estimates or warnings before the JSON object, so parsing starts at the first '{'.
func parseBroadcast(out []byte) (*broadcastOutput, error) {
	s := string(out)
	start := strings.Index(s, "{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in broadcast output: %s", strings.TrimSpace(s))
	}

	var res broadcastOutput
	if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to parse broadcast output: %w", err)
	}
	if res.TxHash == "" {
		return nil, fmt.Errorf("broadcast output has no txhash")
	}
	return &res, nil
}

// WaitForTx polls getter until hash is indexed or ctx is done. A not-found
// answer means the transaction is not in a block yet and polling continues.
func WaitForTx(ctx context.Context, getter query.TxGetter, hash string, interval time.Duration) (*query.TxResponse, error) {
	if getter == nil {
		return nil, fmt.Errorf("no transaction lookup configured to confirm %s", hash)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		tx, err := getter.GetTx(ctx, hash)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, query.ErrTxNotFound) {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("transaction %s not confirmed: %w", hash, ctx.Err())
			}
			return nil, fmt.Errorf("failed to look up transaction %s: %w", hash, err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not confirmed: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}
