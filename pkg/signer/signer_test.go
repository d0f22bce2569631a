package signer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"xnftctl/pkg/query"
)

const (
	sender   = "xion1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5atkush"
	contract = "xion1fpv5yfe0rsq5w44tcs7puzpq4v5hql9e3tnnr72krferprsc3vdswsede4"
	treasury = "xion1ymwvwwgn546ecxw7k94ll3dnd7gg5rhda07zuckcgkja7m2rqcpsqlu52s"
	txHash   = "9F0C1D6A4B2E3F5061728394A5B6C7D8E9F00112233445566778899AABBCCDD"
)

func testConfig() CLIConfig {
	return CLIConfig{
		Binary:         "xiond",
		ChainID:        "xion-testnet-1",
		Node:           "https://rpc.example.com:443",
		KeyringBackend: "test",
		ConfirmTimeout: time.Second,
		PollInterval:   5 * time.Millisecond,
	}
}

func mintRequest() ExecuteRequest {
	return ExecuteRequest{
		Sender:   sender,
		Contract: contract,
		Msg:      map[string]any{"mint": map[string]any{"token_id": "6"}},
		Fee: Fee{
			Amount:  []Coin{{Denom: "uxion", Amount: "1"}},
			Gas:     "500000",
			Granter: treasury,
		},
	}
}

// ── Coins ──────────────────────────────────────────────────────────

func TestCoin_Formatting(t *testing.T) {
	c := Coin{Denom: "uxion", Amount: "1"}
	assert.Equal(t, "1uxion", c.String())
	assert.Equal(t, "0.000001 XION", c.Display())
	assert.Equal(t, "2.5 XION", Coin{Denom: "uxion", Amount: "2500000"}.Display())
	assert.Equal(t, "7stake", Coin{Denom: "stake", Amount: "7"}.Display())
	assert.Equal(t, "abcuxion", Coin{Denom: "uxion", Amount: "abc"}.Display())

	assert.Equal(t, "1uxion,5uatom", FormatCoins([]Coin{{"uxion", "1"}, {"uatom", "5"}}))
	assert.Equal(t, "", FormatCoins(nil))
}

// ── executeArgs ────────────────────────────────────────────────────

func TestExecuteArgs(t *testing.T) {
	e := NewCLIExecutor(testConfig(), &mockRunner{}, &mockTxGetter{}, zerolog.Nop())

	args, err := e.executeArgs(mintRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"tx", "wasm", "execute", contract, `{"mint":{"token_id":"6"}}`,
		"--from", sender,
		"--chain-id", "xion-testnet-1",
		"--node", "https://rpc.example.com:443",
		"--keyring-backend", "test",
		"--gas", "500000",
		"--fees", "1uxion",
		"--fee-granter", treasury,
		"--broadcast-mode", "sync", "--output", "json", "--yes",
	}, args)
}

func TestExecuteArgs_MemoAndFunds(t *testing.T) {
	e := NewCLIExecutor(testConfig(), &mockRunner{}, &mockTxGetter{}, zerolog.Nop())
	req := mintRequest()
	req.Fee.Granter = ""
	req.Memo = "hello"
	req.Funds = []Coin{{Denom: "uxion", Amount: "10"}}

	args, err := e.executeArgs(req)
	require.NoError(t, err)
	assert.NotContains(t, args, "--fee-granter")
	assert.Contains(t, args, "--note")
	assert.Contains(t, args, "hello")
	assert.Contains(t, args, "--amount")
	assert.Contains(t, args, "10uxion")
}

func TestExecuteArgs_UnmarshalableMsg(t *testing.T) {
	e := NewCLIExecutor(testConfig(), &mockRunner{}, &mockTxGetter{}, zerolog.Nop())
	req := mintRequest()
	req.Msg = make(chan int)

	_, err := e.executeArgs(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal execute message")
}

// ── parseBroadcast ─────────────────────────────────────────────────

func TestParseBroadcast(t *testing.T) {
	out := []byte("gas estimate: 181234\n" + `{"height":"0","txhash":"` + txHash + `","codespace":"","code":0,"raw_log":""}` + "\n")
	res, err := parseBroadcast(out)
	require.NoError(t, err)
	assert.Equal(t, txHash, res.TxHash)
	assert.Equal(t, uint32(0), res.Code)
}

func TestParseBroadcast_Errors(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		wantErr string
	}{
		{"no json", "Error: key not found", "no JSON object found"},
		{"truncated", `{"txhash":`, "failed to parse broadcast output"},
		{"missing hash", `{"code":0}`, "no txhash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseBroadcast([]byte(tt.out))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// ── Execute ────────────────────────────────────────────────────────

func TestExecute_Success(t *testing.T) {
	runner := &mockRunner{}
	txs := &mockTxGetter{}
	e := NewCLIExecutor(testConfig(), runner, txs, zerolog.Nop())

	runner.On("Run", "xiond", mock.Anything).
		Return([]byte(`{"height":"0","txhash":"`+txHash+`","code":0}`), nil).Once()
	txs.On("GetTx", txHash).Return(nil, fmt.Errorf("%w: %s", query.ErrTxNotFound, txHash)).Once()
	txs.On("GetTx", txHash).Return(&query.TxResponse{TxHash: txHash, Height: 4321, GasWanted: 500000, GasUsed: 181234}, nil).Once()

	res, err := e.Execute(context.Background(), mintRequest())
	require.NoError(t, err)
	assert.Equal(t, Result{TransactionHash: txHash, Height: 4321, GasWanted: 500000, GasUsed: 181234}, res)
	runner.AssertExpectations(t)
	txs.AssertExpectations(t)
}

func TestExecute_RunFails(t *testing.T) {
	runner := &mockRunner{}
	e := NewCLIExecutor(testConfig(), runner, &mockTxGetter{}, zerolog.Nop())
	runner.On("Run", "xiond", mock.Anything).Return(nil, errors.New("exit status 1: key not found"))

	_, err := e.Execute(context.Background(), mintRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to broadcast execute")
	assert.Contains(t, err.Error(), "key not found")
}

func TestExecute_CheckTxRejected(t *testing.T) {
	runner := &mockRunner{}
	txs := &mockTxGetter{}
	e := NewCLIExecutor(testConfig(), runner, txs, zerolog.Nop())
	runner.On("Run", "xiond", mock.Anything).
		Return([]byte(`{"txhash":"`+txHash+`","code":13,"codespace":"sdk","raw_log":"insufficient fee"}`), nil)

	_, err := e.Execute(context.Background(), mintRequest())
	var txErr *TxError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, uint32(13), txErr.Code)
	assert.Contains(t, err.Error(), "insufficient fee")
	txs.AssertNotCalled(t, "GetTx", mock.Anything)
}

func TestExecute_DeliverTxFailed(t *testing.T) {
	runner := &mockRunner{}
	txs := &mockTxGetter{}
	e := NewCLIExecutor(testConfig(), runner, txs, zerolog.Nop())
	runner.On("Run", "xiond", mock.Anything).Return([]byte(`{"txhash":"`+txHash+`","code":0}`), nil)
	txs.On("GetTx", txHash).Return(&query.TxResponse{TxHash: txHash, Height: 10, Code: 5, Codespace: "wasm", RawLog: "token_id already claimed"}, nil)

	_, err := e.Execute(context.Background(), mintRequest())
	var txErr *TxError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, "wasm", txErr.Codespace)
	assert.Contains(t, err.Error(), "already claimed")
}

func TestExecute_ConfirmTimeout(t *testing.T) {
	runner := &mockRunner{}
	txs := &mockTxGetter{}
	cfg := testConfig()
	cfg.ConfirmTimeout = 30 * time.Millisecond
	e := NewCLIExecutor(cfg, runner, txs, zerolog.Nop())
	runner.On("Run", "xiond", mock.Anything).Return([]byte(`{"txhash":"`+txHash+`","code":0}`), nil)
	txs.On("GetTx", txHash).Return(nil, query.ErrTxNotFound)

	_, err := e.Execute(context.Background(), mintRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "not confirmed")
}

// ── WaitForTx ──────────────────────────────────────────────────────

func TestWaitForTx_LookupError(t *testing.T) {
	txs := &mockTxGetter{}
	txs.On("GetTx", txHash).Return(nil, errors.New("status 502")).Once()

	_, err := WaitForTx(context.Background(), txs, txHash, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to look up transaction")
	txs.AssertExpectations(t)
}

func TestWaitForTx_NilGetter(t *testing.T) {
	_, err := WaitForTx(context.Background(), nil, txHash, time.Millisecond)
	assert.Error(t, err)
}

// ── Available / keys ───────────────────────────────────────────────

func TestAvailable(t *testing.T) {
	runner := &mockRunner{}
	runner.On("LookPath", "xiond").Return("/usr/local/bin/xiond", nil).Once()
	runner.On("LookPath", "xiond").Return("", errors.New("not found")).Once()

	e := NewCLIExecutor(testConfig(), runner, nil, zerolog.Nop())
	assert.True(t, e.Available())
	assert.False(t, e.Available())
}

func TestCLIKeyResolver(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", "xiond", []string{"keys", "show", "minter", "-a", "--keyring-backend", "test"}).
		Return([]byte("WARNING: insecure keyring\n"+sender+"\n"), nil)

	k := &CLIKeyResolver{Binary: "xiond", KeyringBackend: "test", Runner: runner}
	addr, err := k.Address(context.Background(), "minter")
	require.NoError(t, err)
	assert.Equal(t, sender, addr)
}

func TestCLIKeyResolver_Errors(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", "xiond", []string{"keys", "show", "ghost", "-a", "--keyring-backend", "test"}).
		Return(nil, errors.New("ghost is not a valid name or address"))
	runner.On("Run", "xiond", []string{"keys", "show", "blank", "-a", "--keyring-backend", "test"}).
		Return([]byte("\n"), nil)

	k := &CLIKeyResolver{Binary: "xiond", KeyringBackend: "test", Runner: runner}
	_, err := k.Address(context.Background(), "ghost")
	assert.ErrorContains(t, err, "failed to resolve key ghost")

	_, err = k.Address(context.Background(), "blank")
	assert.ErrorContains(t, err, "empty address")
}
