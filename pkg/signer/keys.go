package signer

import (
	"context"
	"fmt"
	"strings"
)

// KeyResolver maps a keyring entry name to its account address.
type KeyResolver interface {
	Address(ctx context.Context, keyName string) (string, error)
}

// CLIKeyResolver resolves keys with `xiond keys show <name> -a`.
type CLIKeyResolver struct {
	Binary         string
	KeyringBackend string
	Runner         CommandRunner
}

func (k *CLIKeyResolver) Address(ctx context.Context, keyName string) (string, error) {
	out, err := k.Runner.Run(ctx, k.Binary, "keys", "show", keyName, "-a", "--keyring-backend", k.KeyringBackend)
	if err != nil {
		return "", fmt.Errorf("failed to resolve key %s: %w", keyName, err)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	addr := strings.TrimSpace(lines[len(lines)-1])
	if addr == "" {
		return "", fmt.Errorf("key %s resolved to an empty address", keyName)
	}
	return addr, nil
}
