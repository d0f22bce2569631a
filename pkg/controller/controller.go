// Package controller orchestrates the NFT flows: querying the collection
// supply, counting the tokens owned by the connected account, minting and
// transferring. It owns all session state and is shared by the dashboard, the
// HTTP API and the one-shot CLI commands.
//
// Each flow has its own status slot. Every request takes a sequence number
// from its slot and a response is applied only when it is newer than the last
// applied one, so overlapping requests of the same flow can complete in any
// order without older data overwriting newer data.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"xnftctl/pkg/config"
	"xnftctl/pkg/logging"
	"xnftctl/pkg/metrics"
	"xnftctl/pkg/query"
	"xnftctl/pkg/signer"
	"xnftctl/pkg/wallet"
	"xnftctl/pkg/wasm"
)

// Errors returned by the flows before anything is sent to the chain.
var (
	ErrQueryUnavailable  = errors.New("query client not available")
	ErrSignerUnavailable = errors.New("signing client not available")
	ErrNoAccount         = errors.New("no account connected")
	ErrInFlight          = errors.New("operation already in progress")
)

// Settings are the contract and fee parameters used by every flow.
type Settings struct {
	Contract       string
	Treasury       string
	Denom          string
	FeeAmount      string
	GasLimit       string
	OwnedPageLimit int
	TokenURIPrefix string
	TokenIDSource  string
}

// SettingsFromConfig builds Settings from a loaded config, applying defaults.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Contract:       cfg.GetContract(),
		Treasury:       cfg.GetTreasury(),
		Denom:          cfg.GetDenom(),
		FeeAmount:      cfg.GetFeeAmount(),
		GasLimit:       cfg.GetGasLimit(),
		OwnedPageLimit: cfg.GetOwnedPageLimit(),
		TokenURIPrefix: cfg.GetTokenURIPrefix(),
		TokenIDSource:  cfg.GetTokenIDSource(),
	}
}

// Fee returns the fee attached to every execute: a fixed amount and gas
// budget, paid by the treasury through its fee grant.
func (s Settings) Fee() signer.Fee {
	return signer.Fee{
		Amount:  []signer.Coin{{Denom: s.Denom, Amount: s.FeeAmount}},
		Gas:     s.GasLimit,
		Granter: s.Treasury,
	}
}

type slot struct {
	issued     uint64
	applied    uint64
	pending    int
	lastErr    error
	finishedAt time.Time
}

// Controller holds the session state and runs the flows. It is safe for
// concurrent use.
type Controller struct {
	settings Settings
	session  *wallet.Session
	recorder metrics.Recorder
	log      zerolog.Logger

	mu       sync.Mutex
	querier  query.SmartQuerier
	executor signer.Executor
	version  uint64
	supply   *wasm.Count
	owned    *int
	lastTx   *Transaction
	draft    Draft
	slots    map[Op]*slot
	subs     map[int]func(State)
	nextSub  int
}

// Option configures a Controller.
type Option func(*Controller)

// WithQuerier sets the LCD query capability.
func WithQuerier(q query.SmartQuerier) Option {
	return func(c *Controller) { c.querier = q }
}

// WithExecutor sets the signing capability used by mint and transfer.
func WithExecutor(e signer.Executor) Option {
	return func(c *Controller) { c.executor = e }
}

// WithSession sets the wallet session the account is read from.
func WithSession(s *wallet.Session) Option {
	return func(c *Controller) { c.session = s }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithLogger overrides the controller logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New returns a controller. Without a session one is created with no key resolver.
func New(settings Settings, opts ...Option) *Controller {
	if settings.OwnedPageLimit <= 0 {
		settings.OwnedPageLimit = config.DefaultOwnedPageLimit
	}
	c := &Controller{
		settings: settings,
		recorder: metrics.Nop{},
		log:      logging.New("controller"),
		slots:    make(map[Op]*slot, len(Ops)),
		subs:     make(map[int]func(State)),
	}
	for _, op := range Ops {
		c.slots[op] = &slot{}
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == nil {
		c.session = wallet.NewSession(nil)
	}
	c.session.OnChange(c.accountChanged)
	return c
}

// Session returns the wallet session the controller reads the account from.
func (c *Controller) Session() *wallet.Session {
	return c.session
}

// Settings returns the contract and fee parameters.
func (c *Controller) Settings() Settings {
	return c.settings
}

// Start performs the initial supply fetch when a query client is available.
func (c *Controller) Start(ctx context.Context) error {
	if !c.QueryReady() {
		return nil
	}
	return c.FetchSupplyCount(ctx)
}

// AttachQuerier makes the query capability available and fetches the supply.
func (c *Controller) AttachQuerier(ctx context.Context, q query.SmartQuerier) error {
	c.mu.Lock()
	c.querier = q
	c.version++
	c.mu.Unlock()
	c.notify()
	return c.Start(ctx)
}

// AttachExecutor makes the signing capability available.
func (c *Controller) AttachExecutor(e signer.Executor) {
	c.mu.Lock()
	c.executor = e
	c.version++
	c.mu.Unlock()
	c.notify()
}

// QueryReady reports whether a query client is attached.
func (c *Controller) QueryReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.querier != nil
}

// SignerReady reports whether a signer is attached.
func (c *Controller) SignerReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executor != nil
}

// SetDraftTokenID updates the token id of the pending transfer.
func (c *Controller) SetDraftTokenID(id string) {
	c.mu.Lock()
	c.draft.TokenID = id
	c.version++
	c.mu.Unlock()
	c.notify()
}

// SetDraftRecipient updates the recipient of the pending transfer.
func (c *Controller) SetDraftRecipient(addr string) {
	c.mu.Lock()
	c.draft.Recipient = addr
	c.version++
	c.mu.Unlock()
	c.notify()
}

// FetchSupplyCount queries the number of minted tokens and stores it.
// On failure the previous count is kept.
func (c *Controller) FetchSupplyCount(ctx context.Context) error {
	seq := c.begin(OpSupply)
	start := time.Now()

	count, err := c.querySupply(ctx)
	if err != nil {
		c.log.Error().Err(err).Str("op", string(OpSupply)).Uint64("seq", seq).Msg("failed to fetch token supply")
	} else if c.apply(OpSupply, seq, func() { c.supply = &count }) {
		c.log.Info().Str("count", count.String()).Uint64("seq", seq).Msg("token supply updated")
	}

	c.end(OpSupply, seq, err, start)
	return err
}

// FetchOwnedCount counts the tokens owned by the connected account. The
// count is the length of one page of the tokens query, so it never exceeds
// the page limit.
func (c *Controller) FetchOwnedCount(ctx context.Context) error {
	seq := c.begin(OpOwned)
	start := time.Now()

	owned, err := c.queryOwned(ctx)
	if err != nil {
		c.log.Error().Err(err).Str("op", string(OpOwned)).Uint64("seq", seq).Msg("failed to fetch owned tokens")
	} else if c.apply(OpOwned, seq, func() { c.owned = &owned }) {
		c.log.Info().Int("owned", owned).Uint64("seq", seq).Msg("owned token count updated")
	}

	c.end(OpOwned, seq, err, start)
	return err
}

// Mint mints the next token to the connected account. After a successful
// mint the supply is fetched again, exactly once.
func (c *Controller) Mint(ctx context.Context) (Transaction, error) {
	seq, ok := c.tryBegin(OpMint, nil)
	if !ok {
		c.log.Warn().Str("op", string(OpMint)).Msg("mint already in progress")
		return Transaction{}, ErrInFlight
	}
	start := time.Now()

	tx, err := c.mint(ctx)
	if err != nil {
		c.log.Error().Err(err).Str("op", string(OpMint)).Msg("mint failed")
		c.end(OpMint, seq, err, start)
		return Transaction{}, err
	}

	c.apply(OpMint, seq, func() { c.lastTx = &tx })
	c.log.Info().Str("txhash", tx.TransactionHash).Int64("height", tx.Height).Str("token_id", tx.TokenID).Msg("token minted")

	_ = c.FetchSupplyCount(ctx)

	c.end(OpMint, seq, nil, start)
	return tx, nil
}

// Transfer sends the draft token id to the draft recipient. Neither value is
// checked locally; an invalid draft is rejected by the chain. After a
// successful transfer the owned count is fetched again, exactly once.
func (c *Controller) Transfer(ctx context.Context) (Transaction, error) {
	return c.runTransfer(ctx, nil)
}

// TransferDraft replaces the draft with d and transfers it. The draft is
// stored when the transfer starts, so a concurrent draft edit cannot change
// what this call sends.
func (c *Controller) TransferDraft(ctx context.Context, d Draft) (Transaction, error) {
	return c.runTransfer(ctx, &d)
}

func (c *Controller) runTransfer(ctx context.Context, replace *Draft) (Transaction, error) {
	var draft Draft
	seq, ok := c.tryBegin(OpTransfer, func() {
		if replace != nil {
			c.draft = *replace
		}
		draft = c.draft
	})
	if !ok {
		c.log.Warn().Str("op", string(OpTransfer)).Msg("transfer already in progress")
		return Transaction{}, ErrInFlight
	}
	start := time.Now()

	tx, err := c.transfer(ctx, draft)
	if err != nil {
		c.log.Error().Err(err).Str("op", string(OpTransfer)).Msg("transfer failed")
		c.end(OpTransfer, seq, err, start)
		return Transaction{}, err
	}

	c.apply(OpTransfer, seq, func() { c.lastTx = &tx })
	c.log.Info().Str("txhash", tx.TransactionHash).Int64("height", tx.Height).Str("token_id", tx.TokenID).Str("recipient", tx.Recipient).Msg("token transferred")

	_ = c.FetchOwnedCount(ctx)

	c.end(OpTransfer, seq, nil, start)
	return tx, nil
}

func (c *Controller) querySupply(ctx context.Context) (wasm.Count, error) {
	c.mu.Lock()
	q := c.querier
	c.mu.Unlock()
	if q == nil {
		return "", ErrQueryUnavailable
	}

	var res wasm.NumTokensResponse
	if err := q.QuerySmart(ctx, c.settings.Contract, wasm.NewNumTokensQuery(), &res); err != nil {
		return "", fmt.Errorf("num_tokens query failed: %w", err)
	}
	return res.Count, nil
}

func (c *Controller) queryOwned(ctx context.Context) (int, error) {
	c.mu.Lock()
	q := c.querier
	c.mu.Unlock()
	if q == nil {
		return 0, ErrQueryUnavailable
	}
	acct, ok := c.session.Account()
	if !ok {
		return 0, ErrNoAccount
	}

	limit := c.settings.OwnedPageLimit
	var res wasm.TokensResponse
	if err := q.QuerySmart(ctx, c.settings.Contract, wasm.NewTokensQuery(acct.Address, limit), &res); err != nil {
		return 0, fmt.Errorf("tokens query failed: %w", err)
	}
	return min(len(res.Tokens), limit), nil
}

func (c *Controller) mint(ctx context.Context) (Transaction, error) {
	c.mu.Lock()
	exec := c.executor
	cached := c.supply
	c.mu.Unlock()
	if exec == nil {
		return Transaction{}, ErrSignerUnavailable
	}
	acct, ok := c.session.Account()
	if !ok {
		return Transaction{}, ErrNoAccount
	}

	supply := cached
	if c.settings.TokenIDSource == config.TokenIDSourceChain {
		count, err := c.querySupply(ctx)
		if err != nil {
			return Transaction{}, fmt.Errorf("failed to read supply before mint: %w", err)
		}
		supply = &count
	}
	tokenID := wasm.NextTokenID(supply)

	msg := wasm.NewMintMsg(tokenID, acct.Address, wasm.TokenURI(c.settings.TokenURIPrefix, tokenID))
	res, err := exec.Execute(ctx, signer.ExecuteRequest{
		Sender:   acct.Address,
		Contract: c.settings.Contract,
		Msg:      msg,
		Fee:      c.settings.Fee(),
	})
	if err != nil {
		return Transaction{}, fmt.Errorf("mint of token %s failed: %w", tokenID, err)
	}
	return Transaction{Kind: OpMint, TokenID: tokenID, Result: res}, nil
}

func (c *Controller) transfer(ctx context.Context, draft Draft) (Transaction, error) {
	c.mu.Lock()
	exec := c.executor
	c.mu.Unlock()
	if exec == nil {
		return Transaction{}, ErrSignerUnavailable
	}
	acct, ok := c.session.Account()
	if !ok {
		return Transaction{}, ErrNoAccount
	}

	msg := wasm.NewTransferNFTMsg(draft.Recipient, draft.TokenID)
	res, err := exec.Execute(ctx, signer.ExecuteRequest{
		Sender:   acct.Address,
		Contract: c.settings.Contract,
		Msg:      msg,
		Fee:      c.settings.Fee(),
	})
	if err != nil {
		return Transaction{}, fmt.Errorf("transfer of token %s failed: %w", draft.TokenID, err)
	}
	return Transaction{Kind: OpTransfer, TokenID: draft.TokenID, Recipient: draft.Recipient, Result: res}, nil
}

// begin issues a new sequence number for op and marks it pending.
func (c *Controller) begin(op Op) uint64 {
	c.mu.Lock()
	seq := c.beginLocked(op)
	c.mu.Unlock()

	c.recorder.FlowStarted(string(op))
	c.notify()
	return seq
}

// tryBegin is begin for flows that must not overlap with themselves. When
// the flow starts, fn runs under the same lock.
func (c *Controller) tryBegin(op Op, fn func()) (uint64, bool) {
	c.mu.Lock()
	if c.slots[op].pending > 0 {
		c.mu.Unlock()
		return 0, false
	}
	if fn != nil {
		fn()
	}
	seq := c.beginLocked(op)
	c.mu.Unlock()

	c.recorder.FlowStarted(string(op))
	c.notify()
	return seq, true
}

func (c *Controller) beginLocked(op Op) uint64 {
	s := c.slots[op]
	s.issued++
	s.pending++
	c.version++
	return s.issued
}

// apply runs fn under the lock if seq is newer than the last applied
// response of op. It reports whether fn ran.
func (c *Controller) apply(op Op, seq uint64, fn func()) bool {
	c.mu.Lock()
	s := c.slots[op]
	if seq <= s.applied {
		c.mu.Unlock()
		c.log.Debug().Str("op", string(op)).Uint64("seq", seq).Msg("discarding stale response")
		c.recorder.StaleDiscarded(string(op))
		return false
	}
	fn()
	s.applied = seq
	s.lastErr = nil
	c.version++
	c.mu.Unlock()

	c.notify()
	return true
}

// end releases the pending mark of seq. The slot error is only recorded for
// requests newer than the applied state.
func (c *Controller) end(op Op, seq uint64, err error, start time.Time) {
	c.mu.Lock()
	s := c.slots[op]
	s.pending--
	if err != nil && seq > s.applied {
		s.lastErr = err
	}
	s.finishedAt = time.Now()
	c.version++
	c.mu.Unlock()

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	c.recorder.FlowFinished(string(op), result, time.Since(start))
	c.notify()
}

// accountChanged drops the owned count of the previous account and marks any
// owned query still in flight as stale.
func (c *Controller) accountChanged(acct wallet.Account, connected bool) {
	c.mu.Lock()
	s := c.slots[OpOwned]
	s.applied = s.issued
	s.lastErr = nil
	c.owned = nil
	c.version++
	c.mu.Unlock()

	if connected {
		c.log.Info().Str("address", acct.Address).Msg("account connected")
	} else {
		c.log.Info().Msg("account logged out")
	}
	c.notify()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	st := State{
		Version:      c.version,
		ModalVisible: c.session.ModalVisible(),
		Draft:        c.draft,
		Status:       make(map[Op]Status, len(c.slots)),
		QueryReady:   c.querier != nil,
		SignerReady:  c.executor != nil,
	}
	if acct, ok := c.session.Account(); ok {
		st.Account = &acct
	}
	if c.supply != nil {
		v := *c.supply
		st.Supply = &v
	}
	if c.owned != nil {
		v := *c.owned
		st.Owned = &v
	}
	if c.lastTx != nil {
		v := *c.lastTx
		st.LastTx = &v
	}
	for op, s := range c.slots {
		status := Status{
			Pending:    s.pending,
			Issued:     s.issued,
			Applied:    s.applied,
			FinishedAt: s.finishedAt,
		}
		if s.lastErr != nil {
			status.LastError = s.lastErr.Error()
		}
		st.Status[op] = status
	}
	return st
}

// Subscribe registers fn to receive a snapshot after every state change and
// returns a function that removes it. fn is called without the controller
// lock held and may be called concurrently.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// SetModalVisible shows or hides the connect modal.
func (c *Controller) SetModalVisible(visible bool) {
	c.session.SetModalVisible(visible)
	c.touch()
}

// ToggleModal flips the connect modal and returns its new visibility.
func (c *Controller) ToggleModal() bool {
	visible := c.session.ToggleModal()
	c.touch()
	return visible
}

// Logout disconnects the current account.
func (c *Controller) Logout() {
	c.session.Logout()
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.version++
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	c.mu.Lock()
	if len(c.subs) == 0 {
		c.mu.Unlock()
		return
	}
	st := c.snapshotLocked()
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}
