// Package wallet holds the connected account of the current session.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"xnftctl/pkg/signer"
	"xnftctl/pkg/validate"
)

// ErrNoResolver is returned by Connect when the session cannot look up keys.
var ErrNoResolver = errors.New("no key resolver configured")

// Account is the connected signing identity. KeyName is empty for accounts
// connected by address only, which can query but not sign.
type Account struct {
	Address string `json:"address"`
	KeyName string `json:"keyName,omitempty"`
}

// CanSign reports whether the account is backed by a keyring entry.
func (a Account) CanSign() bool {
	return a.KeyName != ""
}

// Session tracks the connected account and the visibility of the connect modal.
type Session struct {
	mu        sync.Mutex
	resolver  signer.KeyResolver
	account   *Account
	modal     bool
	listeners []func(Account, bool)
}

// NewSession returns a disconnected session. resolver may be nil, in which
// case only ConnectAddress works.
func NewSession(resolver signer.KeyResolver) *Session {
	return &Session{resolver: resolver}
}

// Connect resolves keyName through the keyring and makes it the current account.
func (s *Session) Connect(ctx context.Context, keyName string) (Account, error) {
	if err := validate.KeyName(keyName); err != nil {
		return Account{}, err
	}
	if s.resolver == nil {
		return Account{}, ErrNoResolver
	}

	addr, err := s.resolver.Address(ctx, keyName)
	if err != nil {
		return Account{}, err
	}
	if err := validate.XionAddress(addr); err != nil {
		return Account{}, fmt.Errorf("key %s: %w", keyName, err)
	}

	acct := Account{Address: addr, KeyName: keyName}
	s.set(&acct)
	return acct, nil
}

// ConnectAddress connects a read-only account.
func (s *Session) ConnectAddress(addr string) (Account, error) {
	if err := validate.XionAddress(addr); err != nil {
		return Account{}, err
	}
	acct := Account{Address: addr}
	s.set(&acct)
	return acct, nil
}

// Account returns the connected account, if any.
func (s *Session) Account() (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return Account{}, false
	}
	return *s.account, true
}

// Logout clears the connected account.
func (s *Session) Logout() {
	s.set(nil)
}

// SetModalVisible shows or hides the connect modal.
func (s *Session) SetModalVisible(visible bool) {
	s.mu.Lock()
	s.modal = visible
	s.mu.Unlock()
}

// ToggleModal flips the modal visibility and returns the new value.
func (s *Session) ToggleModal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modal = !s.modal
	return s.modal
}

func (s *Session) ModalVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modal
}

// OnChange registers fn to be called after every connect and logout.
func (s *Session) OnChange(fn func(acct Account, connected bool)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) set(acct *Account) {
	s.mu.Lock()
	s.account = acct
	if acct != nil {
		s.modal = false
	}
	listeners := append([]func(Account, bool){}, s.listeners...)
	s.mu.Unlock()

	var current Account
	if acct != nil {
		current = *acct
	}
	for _, fn := range listeners {
		fn(current, acct != nil)
	}
}
