package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"xnftctl/pkg/validate"
)

// ServerConfig holds the settings of the local HTTP API.
type ServerConfig struct {
	Address        string   `yaml:"address" toml:"address"`
	AllowedOrigins []string `yaml:"allowed-origins" toml:"allowed-origins"`
	RatePerMinute  *int     `yaml:"rate-per-minute" toml:"rate-per-minute"`
}

// Config represents the structure of an xnftctl.yaml (or .toml) configuration file.
type Config struct {
	Contract       string       `yaml:"contract" toml:"contract"`
	Treasury       string       `yaml:"treasury" toml:"treasury"`
	ChainID        string       `yaml:"chain-id" toml:"chain-id"`
	LCDURL         string       `yaml:"lcd-url" toml:"lcd-url"`
	RPCNode        string       `yaml:"rpc-node" toml:"rpc-node"`
	Denom          string       `yaml:"denom" toml:"denom"`
	FeeAmount      string       `yaml:"fee-amount" toml:"fee-amount"`
	GasLimit       string       `yaml:"gas-limit" toml:"gas-limit"`
	OwnedPageLimit int          `yaml:"owned-page-limit" toml:"owned-page-limit"`
	TokenURIPrefix string       `yaml:"token-uri-prefix" toml:"token-uri-prefix"`
	ExplorerTxURL  string       `yaml:"explorer-tx-url" toml:"explorer-tx-url"`
	TokenIDSource  string       `yaml:"token-id-source" toml:"token-id-source"`
	XiondBinary    string       `yaml:"xiond-binary" toml:"xiond-binary"`
	KeyringBackend string       `yaml:"keyring-backend" toml:"keyring-backend"`
	Key            string       `yaml:"key" toml:"key"`
	RequestTimeout string       `yaml:"request-timeout" toml:"request-timeout"`
	ConfirmTimeout string       `yaml:"confirm-timeout" toml:"confirm-timeout"`
	PollInterval   string       `yaml:"poll-interval" toml:"poll-interval"`
	LogLevel       string       `yaml:"log-level" toml:"log-level"`
	Server         ServerConfig `yaml:"server" toml:"server"`
}

// Chain and contract defaults target the Xion testnet deployment of the demo collection.
const (
	DefaultContract       = "xion1fpv5yfe0rsq5w44tcs7puzpq4v5hql9e3tnnr72krferprsc3vdswsede4"
	DefaultTreasury       = "xion1ymwvwwgn546ecxw7k94ll3dnd7gg5rhda07zuckcgkja7m2rqcpsqlu52s"
	DefaultChainID        = "xion-testnet-1"
	DefaultLCDURL         = "https://api.xion-testnet-1.burnt.com"
	DefaultRPCNode        = "https://rpc.xion-testnet-1.burnt.com:443"
	DefaultDenom          = "uxion"
	DefaultFeeAmount      = "1"
	DefaultGasLimit       = "500000"
	DefaultTokenURIPrefix = "https://example.com/metadata/"
	DefaultExplorerTxURL  = "https://explorer.burnt.com/xion-testnet-1/tx/"
	DefaultXiondBinary    = "xiond"
	DefaultKeyringBackend = "test"
	DefaultLogLevel       = "info"
	DefaultServerAddress  = "localhost:8080"
)

// DefaultOwnedPageLimit is the page size of the owned-tokens query. CW721
// contracts cap pages at 100, so owned counts above it are reported as 100.
const DefaultOwnedPageLimit = 100

// Token id sources.
const (
	TokenIDSourceLocal = "local"
	TokenIDSourceChain = "chain"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultConfirmTimeout = 60 * time.Second
	DefaultPollInterval   = 2 * time.Second
	DefaultRatePerMinute  = 120
)

// DefaultAllowedOrigins are the CORS origins allowed when none are configured.
var DefaultAllowedOrigins = []string{"http://localhost:3000"}

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = "xnftctl.yaml"

// Loaded holds the currently loaded configuration (populated after Load).
var Loaded *Config

// Load reads and parses the config file at the given path. The format is
// chosen by extension: .toml files are parsed as TOML, anything else as YAML.
// If the file does not exist and the path is the default, an empty config is returned without error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) // #nosec G304 -- config file path is intentionally user-specified via CLI flag
	if err != nil {
		if os.IsNotExist(err) && path == DefaultConfigFile {
			Loaded = cfg
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := unmarshal(cleanPath, data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error in %s: %w", path, err)
	}

	Loaded = cfg
	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// Validate checks that all configured values are safe and well-formed.
func (c *Config) Validate() error {
	for _, entry := range []struct {
		name, addr string
	}{
		{"contract", c.Contract},
		{"treasury", c.Treasury},
	} {
		if entry.addr != "" {
			if err := validate.XionAddress(entry.addr); err != nil {
				return fmt.Errorf("%s: %w", entry.name, err)
			}
		}
	}

	for _, entry := range []struct {
		name, url string
	}{
		{"lcd-url", c.LCDURL},
		{"rpc-node", c.RPCNode},
		{"token-uri-prefix", c.TokenURIPrefix},
		{"explorer-tx-url", c.ExplorerTxURL},
	} {
		if entry.url != "" {
			if err := validate.EndpointURL(entry.url); err != nil {
				return fmt.Errorf("%s: %w", entry.name, err)
			}
		}
	}

	if c.FeeAmount != "" {
		amount, err := decimal.NewFromString(c.FeeAmount)
		if err != nil {
			return fmt.Errorf("fee-amount must be a number, got: %s", c.FeeAmount)
		}
		if !amount.IsPositive() || !amount.IsInteger() {
			return fmt.Errorf("fee-amount must be a positive integer in base units, got: %s", c.FeeAmount)
		}
	}

	if c.GasLimit != "" {
		gas, err := strconv.ParseUint(c.GasLimit, 10, 64)
		if err != nil || gas == 0 {
			return fmt.Errorf("gas-limit must be a positive integer, got: %s", c.GasLimit)
		}
	}

	if c.OwnedPageLimit < 0 || c.OwnedPageLimit > DefaultOwnedPageLimit {
		return fmt.Errorf("owned-page-limit must be between 1 and %d, got: %d", DefaultOwnedPageLimit, c.OwnedPageLimit)
	}

	switch c.TokenIDSource {
	case "", TokenIDSourceLocal, TokenIDSourceChain:
	default:
		return fmt.Errorf("token-id-source must be %q or %q, got: %s", TokenIDSourceLocal, TokenIDSourceChain, c.TokenIDSource)
	}

	if c.Key != "" {
		if err := validate.KeyName(c.Key); err != nil {
			return fmt.Errorf("key: %w", err)
		}
	}

	for _, entry := range []struct {
		name, value string
	}{
		{"request-timeout", c.RequestTimeout},
		{"confirm-timeout", c.ConfirmTimeout},
		{"poll-interval", c.PollInterval},
	} {
		if entry.value != "" {
			d, err := time.ParseDuration(entry.value)
			if err != nil || d <= 0 {
				return fmt.Errorf("%s must be a positive duration such as 30s, got: %s", entry.name, entry.value)
			}
		}
	}

	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
			return fmt.Errorf("log-level is not a known level: %s", c.LogLevel)
		}
	}

	if c.Server.RatePerMinute != nil && *c.Server.RatePerMinute < 0 {
		return fmt.Errorf("server.rate-per-minute must not be negative, got: %d", *c.Server.RatePerMinute)
	}

	return nil
}

func orDefault(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

func durationOrDefault(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// GetContract returns the configured NFT contract address, falling back to default.
func (c *Config) GetContract() string {
	if c == nil {
		return DefaultContract
	}
	return orDefault(c.Contract, DefaultContract)
}

// GetTreasury returns the configured fee-grant treasury address, falling back to default.
func (c *Config) GetTreasury() string {
	if c == nil {
		return DefaultTreasury
	}
	return orDefault(c.Treasury, DefaultTreasury)
}

func (c *Config) GetChainID() string {
	if c == nil {
		return DefaultChainID
	}
	return orDefault(c.ChainID, DefaultChainID)
}

func (c *Config) GetLCDURL() string {
	if c == nil {
		return DefaultLCDURL
	}
	return strings.TrimRight(orDefault(c.LCDURL, DefaultLCDURL), "/")
}

func (c *Config) GetRPCNode() string {
	if c == nil {
		return DefaultRPCNode
	}
	return orDefault(c.RPCNode, DefaultRPCNode)
}

func (c *Config) GetDenom() string {
	if c == nil {
		return DefaultDenom
	}
	return orDefault(c.Denom, DefaultDenom)
}

func (c *Config) GetFeeAmount() string {
	if c == nil {
		return DefaultFeeAmount
	}
	return orDefault(c.FeeAmount, DefaultFeeAmount)
}

func (c *Config) GetGasLimit() string {
	if c == nil {
		return DefaultGasLimit
	}
	return orDefault(c.GasLimit, DefaultGasLimit)
}

// GetOwnedPageLimit returns the owned-tokens page size, falling back to default.
func (c *Config) GetOwnedPageLimit() int {
	if c != nil && c.OwnedPageLimit > 0 {
		return c.OwnedPageLimit
	}
	return DefaultOwnedPageLimit
}

func (c *Config) GetTokenURIPrefix() string {
	if c == nil {
		return DefaultTokenURIPrefix
	}
	return orDefault(c.TokenURIPrefix, DefaultTokenURIPrefix)
}

func (c *Config) GetExplorerTxURL() string {
	if c == nil {
		return DefaultExplorerTxURL
	}
	return orDefault(c.ExplorerTxURL, DefaultExplorerTxURL)
}

// ExplorerTxLink returns the block explorer URL for a transaction hash.
func (c *Config) ExplorerTxLink(hash string) string {
	base := c.GetExplorerTxURL()
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + hash
}

// GetTokenIDSource returns where mint token ids come from: the cached supply
// ("local") or a fresh supply query right before minting ("chain").
func (c *Config) GetTokenIDSource() string {
	if c == nil {
		return TokenIDSourceLocal
	}
	return orDefault(c.TokenIDSource, TokenIDSourceLocal)
}

func (c *Config) GetXiondBinary() string {
	if c == nil {
		return DefaultXiondBinary
	}
	return orDefault(c.XiondBinary, DefaultXiondBinary)
}

func (c *Config) GetKeyringBackend() string {
	if c == nil {
		return DefaultKeyringBackend
	}
	return orDefault(c.KeyringBackend, DefaultKeyringBackend)
}

// GetKey returns the configured keyring entry, or "" when none is set.
func (c *Config) GetKey() string {
	if c == nil {
		return ""
	}
	return c.Key
}

func (c *Config) GetRequestTimeout() time.Duration {
	if c == nil {
		return DefaultRequestTimeout
	}
	return durationOrDefault(c.RequestTimeout, DefaultRequestTimeout)
}

func (c *Config) GetConfirmTimeout() time.Duration {
	if c == nil {
		return DefaultConfirmTimeout
	}
	return durationOrDefault(c.ConfirmTimeout, DefaultConfirmTimeout)
}

func (c *Config) GetPollInterval() time.Duration {
	if c == nil {
		return DefaultPollInterval
	}
	return durationOrDefault(c.PollInterval, DefaultPollInterval)
}

func (c *Config) GetLogLevel() string {
	if c == nil {
		return DefaultLogLevel
	}
	return orDefault(c.LogLevel, DefaultLogLevel)
}

func (c *Config) GetServerAddress() string {
	if c == nil {
		return DefaultServerAddress
	}
	return orDefault(c.Server.Address, DefaultServerAddress)
}

func (c *Config) GetAllowedOrigins() []string {
	if c != nil && len(c.Server.AllowedOrigins) > 0 {
		return c.Server.AllowedOrigins
	}
	return DefaultAllowedOrigins
}

// GetRatePerMinute returns the per-IP API rate limit. Zero disables limiting.
func (c *Config) GetRatePerMinute() int {
	if c != nil && c.Server.RatePerMinute != nil {
		return *c.Server.RatePerMinute
	}
	return DefaultRatePerMinute
}
