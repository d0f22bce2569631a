// Package validate provides reusable input validation functions for CLI arguments
// and configuration values. All validators return an error describing the violation
// or nil if the input is acceptable.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
)

// AddressPrefix is the bech32 human-readable part used by Xion accounts and contracts.
const AddressPrefix = "xion"

// keyNameRe matches keyring entry names that are safe to pass to xiond as a flag value.
var keyNameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// txHashRe matches a Cosmos transaction hash: 64 hex characters.
var txHashRe = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

// Bech32Address validates that s is a checksummed bech32 address with the given prefix.
func Bech32Address(prefix, s string) error {
	if s == "" {
		return fmt.Errorf("invalid address: empty")
	}

	sepIdx := strings.LastIndex(s, "1")
	if sepIdx < 1 {
		return fmt.Errorf("invalid address %q: missing bech32 separator '1'", s)
	}

	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	if hrp != prefix {
		return fmt.Errorf("invalid address %q: expected prefix %q, got %q", s, prefix, hrp)
	}
	if len(data) == 0 {
		return fmt.Errorf("invalid address %q: empty address data", s)
	}
	return nil
}

// XionAddress validates a bech32 address carrying the xion prefix.
func XionAddress(s string) error {
	return Bech32Address(AddressPrefix, s)
}

// KeyName validates a keyring entry name. Leading hyphens are rejected so the
// value can never be parsed as a flag by xiond.
func KeyName(s string) error {
	if !keyNameRe.MatchString(s) {
		return fmt.Errorf("invalid key name %q: allowed are 1-64 alphanumeric, dot, underscore or hyphen characters", s)
	}
	if strings.HasPrefix(s, "-") {
		return fmt.Errorf("invalid key name %q: must not start with a hyphen", s)
	}
	return nil
}

// TxHash validates a transaction hash.
func TxHash(s string) error {
	if !txHashRe.MatchString(s) {
		return fmt.Errorf("invalid transaction hash %q: must be 64 hex characters", s)
	}
	return nil
}

// EndpointURL validates that s is an absolute http(s) URL with a host.
func EndpointURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint %q: scheme must be http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: missing host", s)
	}
	return nil
}
