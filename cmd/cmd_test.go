package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"xnftctl/pkg/config"
	"xnftctl/pkg/controller"
	"xnftctl/pkg/mocks"
)

const (
	alice = "xion1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5atkush"
	bob   = "xion14w46h2at4w46h2at4w46h2at4w46h2at78qh8k"
)

var txHash = strings.Repeat("AB", 32)

func TestMain(m *testing.M) {
	pterm.DisableOutput()
	os.Exit(m.Run())
}

// ── fixtures ───────────────────────────────────────────────────────

// fakeLCD answers the handful of LCD routes the commands use.
type fakeLCD struct {
	mu          sync.Mutex
	supply      int
	tokens      []string
	supplyCalls int
	tokensCalls int
}

func (f *fakeLCD) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case strings.Contains(path, "/smart/"):
		encoded, _ := url.PathUnescape(path[strings.LastIndex(path, "/smart/")+len("/smart/"):])
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var q map[string]json.RawMessage
		_ = json.Unmarshal(raw, &q)
		if _, ok := q["num_tokens"]; ok {
			f.supplyCalls++
			fmt.Fprintf(w, `{"data":{"count":%d}}`, f.supply)
			return
		}
		f.tokensCalls++
		tokens, _ := json.Marshal(f.tokens)
		fmt.Fprintf(w, `{"data":{"tokens":%s}}`, tokens)
	case strings.HasPrefix(path, "/cosmos/tx/v1beta1/txs/"):
		hash := strings.TrimPrefix(path, "/cosmos/tx/v1beta1/txs/")
		fmt.Fprintf(w, `{"tx_response":{"height":"77","txhash":%q,"code":0,"gas_wanted":"200000","gas_used":"150000","timestamp":"2026-01-01T00:00:00Z"}}`, hash)
	case path == "/cosmos/base/tendermint/v1beta1/node_info":
		fmt.Fprint(w, `{"default_node_info":{"network":"xion-testnet-1","moniker":"fake","version":"0.38.17"},"application_version":{"app_name":"xiond","version":"v20.0.0","cosmos_sdk_version":"v0.50.13"}}`)
	case path == "/cosmos/base/tendermint/v1beta1/blocks/latest":
		fmt.Fprint(w, `{"block_id":{"hash":"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},"block":{"header":{"chain_id":"xion-testnet-1","height":"1234567","time":"2026-01-01T00:00:00Z"}}}`)
	default:
		http.NotFound(w, r)
	}
}

func writeConfig(t *testing.T, lcdURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xnftctl.yaml")
	content := fmt.Sprintf("lcd-url: %s\npoll-interval: 10ms\nconfirm-timeout: 2s\nlog-level: error\n", lcdURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// useRunner installs a fake xiond for the duration of the test.
func useRunner(t *testing.T, withBinary bool) *mocks.MockCommandRunner {
	t.Helper()
	r := new(mocks.MockCommandRunner)
	if withBinary {
		r.On("LookPath", "xiond").Return("/usr/local/bin/xiond", nil).Maybe()
	} else {
		r.On("LookPath", "xiond").Return("", os.ErrNotExist).Maybe()
	}
	prev := runner
	runner = r
	t.Cleanup(func() { runner = prev })
	return r
}

func expectKey(r *mocks.MockCommandRunner, name, addr string) {
	r.On("Run", "xiond", []string{"keys", "show", name, "-a", "--keyring-backend", "test"}).Return([]byte(addr+"\n"), nil)
}

// hangingRunner is a xiond whose broadcasts never return on their own. Key
// lookups answer immediately.
type hangingRunner struct {
	mu    sync.Mutex
	calls int
}

func (h *hangingRunner) LookPath(file string) (string, error) {
	return "/usr/local/bin/" + file, nil
}

func (h *hangingRunner) Run(ctx context.Context, _ string, args ...string) ([]byte, error) {
	if len(args) > 0 && args[0] == "keys" {
		return []byte(alice + "\n"), nil
	}
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func useHangingRunner(t *testing.T) *hangingRunner {
	t.Helper()
	h := &hangingRunner{}
	prev := runner
	runner = h
	t.Cleanup(func() { runner = prev })
	return h
}

// writeShortTimeouts writes a config whose execute budget is 100ms.
func writeShortTimeouts(t *testing.T, lcdURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xnftctl.yaml")
	content := fmt.Sprintf("lcd-url: %s\nrequest-timeout: 50ms\nconfirm-timeout: 50ms\nlog-level: error\n", lcdURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func resetFlags() {
	configFile = config.DefaultConfigFile
	logLevel = ""
	ownedKey, ownedAddress = "", ""
	mintKey = ""
	transferKey, transferTokenID, transferRecipient = "", "", ""
	accountKey, accountAddress = "", ""

	// Required-flag checks look at Changed, which survives between Execute calls.
	var clear func(c *cobra.Command)
	clear = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		for _, sub := range c.Commands() {
			clear(sub)
		}
	}
	clear(rootCmd)
}

// run executes the root command and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	rootCmd.SetArgs(args)
	runErr := rootCmd.Execute()

	_ = w.Close()
	os.Stdout = oldStdout
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String(), runErr
}

// ── version output ─────────────────────────────────────────────────

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	CommitSHA = "abc1234"
	BuildDate = "2024-01-01"

	output, err := run(t, "version")
	require.NoError(t, err)

	assert.Contains(t, output, "xnftctl 1.2.3")
	assert.Contains(t, output, "abc1234")
	assert.Contains(t, output, "2024-01-01")
	assert.Contains(t, output, runtime.GOOS)
	assert.Contains(t, output, runtime.GOARCH)
}

func TestGetRootCmd(t *testing.T) {
	cmd := GetRootCmd()
	assert.NotNil(t, cmd)
	assert.Equal(t, "xnftctl", cmd.Use)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"supply", "owned", "mint", "transfer", "account", "chain", "tx", "dash", "serve", "version", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestBannerDisabled(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"supply"}, false},
		{[]string{"supply", "--no-banner"}, true},
		{[]string{"--no-banner=true", "mint"}, true},
		{[]string{"completion", "bash"}, true},
		{[]string{"dash"}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bannerDisabled(tt.args), "%v", tt.args)
	}

	t.Setenv("NO_COLOR", "1")
	assert.True(t, bannerDisabled([]string{"supply"}))
}

// ── completion ─────────────────────────────────────────────────────

func TestWriteCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		var buf bytes.Buffer
		require.NoError(t, writeCompletion(&buf, shell), shell)
		assert.Contains(t, buf.String(), "xnftctl", shell)
	}

	err := writeCompletion(&bytes.Buffer{}, "tcsh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported shell")
}

// ── wiring ─────────────────────────────────────────────────────────

func TestNewApp_SignerAttachedOnlyWithBinary(t *testing.T) {
	useRunner(t, false)
	a := newApp(nil)
	assert.True(t, a.ctrl.QueryReady())
	assert.False(t, a.ctrl.SignerReady())

	useRunner(t, true)
	a = newApp(&config.Config{})
	assert.True(t, a.ctrl.SignerReady())
	assert.Equal(t, config.DefaultLCDURL, a.lcd.BaseURL())
}

func TestAppConnect(t *testing.T) {
	r := useRunner(t, true)
	expectKey(r, "alice", alice)
	expectKey(r, "configured", bob)

	a := newApp(&config.Config{})

	acct, err := a.connect(t.Context(), "", alice)
	require.NoError(t, err)
	assert.Equal(t, alice, acct.Address)
	assert.False(t, acct.CanSign())

	acct, err = a.connect(t.Context(), "alice", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", acct.KeyName)
	assert.True(t, acct.CanSign())

	a = newApp(&config.Config{Key: "configured"})
	acct, err = a.connect(t.Context(), "", "")
	require.NoError(t, err)
	assert.Equal(t, bob, acct.Address)
}

func TestAppConnect_Errors(t *testing.T) {
	useRunner(t, true)
	a := newApp(&config.Config{})

	tests := []struct {
		name, key, address, want string
	}{
		{"both", "alice", alice, "mutually exclusive"},
		{"neither", "", "", "no account given"},
		{"bad address", "", "cosmos1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5lzv7xu", "invalid address"},
		{"bad key", "rm -rf", "", "invalid key name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.connect(t.Context(), tt.key, tt.address)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	_, ok := a.ctrl.Session().Account()
	assert.False(t, ok)
}

func TestSpin(t *testing.T) {
	assert.NoError(t, spin("ok", func() error { return nil }))
	assert.ErrorIs(t, spin("fails", func() error { return controller.ErrNoAccount }), controller.ErrNoAccount)
}

// ── flow commands ──────────────────────────────────────────────────

func TestSupplyCommand(t *testing.T) {
	useRunner(t, false)
	lcd := &fakeLCD{supply: 41}
	srv := httptest.NewServer(lcd)
	defer srv.Close()

	_, err := run(t, "supply", "--config-file", writeConfig(t, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, 1, lcd.supplyCalls)
}

func TestSupplyCommand_Unreachable(t *testing.T) {
	useRunner(t, false)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":13,"message":"node is down"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := run(t, "supply", "--config-file", writeConfig(t, srv.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node is down")
}

func TestOwnedCommand_ByAddress(t *testing.T) {
	useRunner(t, false)
	lcd := &fakeLCD{tokens: []string{"1", "4", "9"}}
	srv := httptest.NewServer(lcd)
	defer srv.Close()

	_, err := run(t, "owned", "--address", alice, "--config-file", writeConfig(t, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, 1, lcd.tokensCalls)
}

func TestOwnedCommand_NoAccount(t *testing.T) {
	useRunner(t, false)
	srv := httptest.NewServer(&fakeLCD{})
	defer srv.Close()

	_, err := run(t, "owned", "--config-file", writeConfig(t, srv.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no account given")
}

func TestMintCommand(t *testing.T) {
	r := useRunner(t, true)
	expectKey(r, "alice", alice)
	r.On("Run", "xiond", mock.MatchedBy(func(args []string) bool {
		return len(args) > 4 && args[0] == "tx" && strings.Contains(args[4], `"token_id":"6"`)
	})).Return([]byte(fmt.Sprintf("gas estimate: 180000\n{\"height\":\"0\",\"txhash\":%q,\"code\":0}", txHash)), nil).Once()

	lcd := &fakeLCD{supply: 5}
	srv := httptest.NewServer(lcd)
	defer srv.Close()

	output, err := run(t, "mint", "--key", "alice", "--config-file", writeConfig(t, srv.URL))
	require.NoError(t, err)

	// One read before the mint to pick the id, one refresh after it.
	assert.Equal(t, 2, lcd.supplyCalls)
	assert.Contains(t, output, txHash)
	assert.Contains(t, output, "Mint")
	r.AssertExpectations(t)
}

func TestMintCommand_NoSigner(t *testing.T) {
	useRunner(t, false)
	lcd := &fakeLCD{supply: 5}
	srv := httptest.NewServer(lcd)
	defer srv.Close()

	_, err := run(t, "mint", "--key", "alice", "--config-file", writeConfig(t, srv.URL))
	require.ErrorIs(t, err, controller.ErrSignerUnavailable)
	assert.Zero(t, lcd.supplyCalls)
}

func TestMintCommand_BroadcastRejected(t *testing.T) {
	r := useRunner(t, true)
	expectKey(r, "alice", alice)
	r.On("Run", "xiond", mock.MatchedBy(func(args []string) bool { return args[0] == "tx" })).
		Return([]byte(fmt.Sprintf(`{"txhash":%q,"code":13,"codespace":"sdk","raw_log":"insufficient fee"}`, txHash)), nil).Once()

	lcd := &fakeLCD{supply: 5}
	srv := httptest.NewServer(lcd)
	defer srv.Close()

	_, err := run(t, "mint", "--key", "alice", "--config-file", writeConfig(t, srv.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient fee")
	assert.Equal(t, 1, lcd.supplyCalls)
}

func TestTransferCommand(t *testing.T) {
	r := useRunner(t, true)
	expectKey(r, "alice", alice)
	r.On("Run", "xiond", mock.MatchedBy(func(args []string) bool {
		return len(args) > 4 && args[0] == "tx" &&
			strings.Contains(args[4], `"transfer_nft"`) &&
			strings.Contains(args[4], `"token_id":"3"`) &&
			strings.Contains(args[4], bob)
	})).Return([]byte(fmt.Sprintf(`{"txhash":%q,"code":0}`, txHash)), nil).Once()

	lcd := &fakeLCD{tokens: []string{"1"}}
	srv := httptest.NewServer(lcd)
	defer srv.Close()

	output, err := run(t, "transfer", "--key", "alice", "--token-id", "3", "--recipient", bob, "--config-file", writeConfig(t, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, 1, lcd.tokensCalls)
	assert.Contains(t, output, bob)
	r.AssertExpectations(t)
}

func TestFlowCommands_HungSignerTimesOut(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"mint", []string{"mint", "--key", "alice"}},
		{"transfer", []string{"transfer", "--key", "alice", "--token-id", "1", "--recipient", bob}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := useHangingRunner(t)
			srv := httptest.NewServer(&fakeLCD{supply: 5})
			defer srv.Close()

			start := time.Now()
			_, err := run(t, append(tt.args, "--config-file", writeShortTimeouts(t, srv.URL))...)
			require.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Less(t, time.Since(start), 5*time.Second)
			assert.Equal(t, 1, h.calls)
		})
	}
}

func TestTransferCommand_RequiresFlags(t *testing.T) {
	useRunner(t, true)
	_, err := run(t, "transfer", "--key", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

// ── inspection commands ────────────────────────────────────────────

func TestAccountCommand(t *testing.T) {
	r := useRunner(t, true)
	expectKey(r, "alice", alice)

	output, err := run(t, "account", "--key", "alice")
	require.NoError(t, err)
	assert.Contains(t, output, alice)
	assert.Contains(t, output, "Yes")

	output, err = run(t, "account", "--address", bob)
	require.NoError(t, err)
	assert.Contains(t, output, bob)
	assert.Contains(t, output, "No")
}

func TestChainCommand(t *testing.T) {
	useRunner(t, false)
	srv := httptest.NewServer(&fakeLCD{})
	defer srv.Close()

	output, err := run(t, "chain", "--config-file", writeConfig(t, srv.URL))
	require.NoError(t, err)
	assert.Contains(t, output, "xion-testnet-1")
	assert.Contains(t, output, "1,234,567")
	assert.Contains(t, output, "v0.50.13")
	assert.Contains(t, output, config.DefaultContract)
	assert.Contains(t, output, "0.000001 XION / 500000 gas")
}

func TestTxShowCommand(t *testing.T) {
	useRunner(t, false)
	srv := httptest.NewServer(&fakeLCD{})
	defer srv.Close()

	output, err := run(t, "tx", "show", txHash, "--config-file", writeConfig(t, srv.URL))
	require.NoError(t, err)
	assert.Contains(t, output, txHash)
	assert.Contains(t, output, "Success")
	assert.Contains(t, output, "150000 / 200000")

	_, err = run(t, "tx", "show", "nothex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "64 hex characters")
}
