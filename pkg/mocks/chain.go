package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"xnftctl/pkg/query"
	"xnftctl/pkg/signer"
)

// MockSmartQuerier is a testify mock for query.SmartQuerier. The first return
// value of a stubbed call is marshalled to JSON and decoded into out, so
// expectations can be written with plain maps or response structs.
type MockSmartQuerier struct {
	mock.Mock
}

func (m *MockSmartQuerier) QuerySmart(ctx context.Context, contract string, msg any, out any) error {
	args := m.Called(contract, msg)
	if err := args.Error(1); err != nil {
		return err
	}
	if res := args.Get(0); res != nil {
		data, err := json.Marshal(res)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out)
	}
	return nil
}

// MockTxGetter is a testify mock for query.TxGetter.
type MockTxGetter struct {
	mock.Mock
}

func (m *MockTxGetter) GetTx(ctx context.Context, hash string) (*query.TxResponse, error) {
	args := m.Called(hash)
	tx, _ := args.Get(0).(*query.TxResponse)
	return tx, args.Error(1)
}

// MockExecutor is a testify mock for signer.Executor.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, req signer.ExecuteRequest) (signer.Result, error) {
	args := m.Called(req)
	res, _ := args.Get(0).(signer.Result)
	return res, args.Error(1)
}
