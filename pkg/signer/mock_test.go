package signer

import (
	"context"

	"github.com/stretchr/testify/mock"

	"xnftctl/pkg/query"
)

// mockRunner is a local testify mock of CommandRunner.
type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) LookPath(file string) (string, error) {
	args := m.Called(file)
	return args.String(0), args.Error(1)
}

func (m *mockRunner) Run(ctx context.Context, name string, cmdArgs ...string) ([]byte, error) {
	args := m.Called(name, cmdArgs)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

// mockTxGetter is a local testify mock of query.TxGetter.
type mockTxGetter struct {
	mock.Mock
}

func (m *mockTxGetter) GetTx(ctx context.Context, hash string) (*query.TxResponse, error) {
	args := m.Called(hash)
	tx, _ := args.Get(0).(*query.TxResponse)
	return tx, args.Error(1)
}
