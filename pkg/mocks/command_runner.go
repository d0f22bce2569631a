package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCommandRunner is a testify mock for signer.CommandRunner.
type MockCommandRunner struct {
	mock.Mock
}

func (m *MockCommandRunner) LookPath(file string) (string, error) {
	args := m.Called(file)
	return args.String(0), args.Error(1)
}

func (m *MockCommandRunner) Run(ctx context.Context, name string, cmdArgs ...string) ([]byte, error) {
	args := m.Called(name, cmdArgs)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

// MockKeyResolver is a testify mock for signer.KeyResolver.
type MockKeyResolver struct {
	mock.Mock
}

func (m *MockKeyResolver) Address(ctx context.Context, keyName string) (string, error) {
	args := m.Called(keyName)
	return args.String(0), args.Error(1)
}
