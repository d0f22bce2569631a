// Package query is a read-only client for the Cosmos LCD REST endpoint. It runs
// CosmWasm smart queries, looks up transactions and reports node status.
package query

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrTxNotFound is returned by GetTx when the node does not know the hash (yet).
var ErrTxNotFound = errors.New("transaction not found")

// grpc-gateway error code for NotFound.
const codeNotFound = 5

// SmartQuerier runs read-only queries against a contract.
type SmartQuerier interface {
	QuerySmart(ctx context.Context, contract string, msg any, out any) error
}

// TxGetter looks up a broadcast transaction by hash.
type TxGetter interface {
	GetTx(ctx context.Context, hash string) (*TxResponse, error)
}

// HTTPError is a non-2xx response from the LCD.
type HTTPError struct {
	Path       string
	StatusCode int
	Code       int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("lcd request %s failed with status %d: %s", e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("lcd request %s failed with status %d", e.Path, e.StatusCode)
}

type TxResponse struct {
	Height    int64  `json:"height,string"`
	TxHash    string `json:"txhash"`
	Code      uint32 `json:"code"`
	Codespace string `json:"codespace"`
	RawLog    string `json:"raw_log"`
	GasWanted int64  `json:"gas_wanted,string"`
	GasUsed   int64  `json:"gas_used,string"`
	Timestamp string `json:"timestamp"`
}

type NodeInfo struct {
	Network          string
	Moniker          string
	CometBFTVersion  string
	AppName          string
	AppVersion       string
	CosmosSDKVersion string
}

type BlockInfo struct {
	ChainID string
	Height  int64
	Time    time.Time
	Hash    string
}

// Client talks to one LCD endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default 15 second timeout client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient returns a client for the LCD at lcdURL.
func NewClient(lcdURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(lcdURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the LCD endpoint the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// QuerySmart runs a smart query and decodes the response data into out.
func (c *Client) QuerySmart(ctx context.Context, contract string, msg any, out any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(payload)
	path := fmt.Sprintf("/cosmwasm/wasm/v1/contract/%s/smart/%s", url.PathEscape(contract), url.PathEscape(encoded))

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.get(ctx, path, &envelope); err != nil {
		return err
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("empty smart query result")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode smart query result: %w (raw data: %s)", err, string(envelope.Data))
	}
	c.log.Debug().Str("contract", contract).RawJSON("query", payload).Msg("smart query")
	return nil
}

// GetTx returns the indexed result of a transaction.
func (c *Client) GetTx(ctx context.Context, hash string) (*TxResponse, error) {
	var envelope struct {
		TxResponse *TxResponse `json:"tx_response"`
	}
	err := c.get(ctx, "/cosmos/tx/v1beta1/txs/"+url.PathEscape(hash), &envelope)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusNotFound || httpErr.Code == codeNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTxNotFound, hash)
		}
		return nil, err
	}
	if envelope.TxResponse == nil {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, hash)
	}
	return envelope.TxResponse, nil
}

// NodeInfo returns the network and software versions of the node.
func (c *Client) NodeInfo(ctx context.Context) (*NodeInfo, error) {
	var res struct {
		DefaultNodeInfo struct {
			Network string `json:"network"`
			Moniker string `json:"moniker"`
			Version string `json:"version"`
		} `json:"default_node_info"`
		ApplicationVersion struct {
			Name             string `json:"name"`
			AppName          string `json:"app_name"`
			Version          string `json:"version"`
			CosmosSDKVersion string `json:"cosmos_sdk_version"`
		} `json:"application_version"`
	}
	if err := c.get(ctx, "/cosmos/base/tendermint/v1beta1/node_info", &res); err != nil {
		return nil, err
	}
	appName := res.ApplicationVersion.AppName
	if appName == "" {
		appName = res.ApplicationVersion.Name
	}
	return &NodeInfo{
		Network:          res.DefaultNodeInfo.Network,
		Moniker:          res.DefaultNodeInfo.Moniker,
		CometBFTVersion:  res.DefaultNodeInfo.Version,
		AppName:          appName,
		AppVersion:       res.ApplicationVersion.Version,
		CosmosSDKVersion: res.ApplicationVersion.CosmosSDKVersion,
	}, nil
}

// LatestBlock returns the header of the latest committed block.
func (c *Client) LatestBlock(ctx context.Context) (*BlockInfo, error) {
	var res struct {
		BlockID struct {
			Hash string `json:"hash"`
		} `json:"block_id"`
		Block struct {
			Header struct {
				ChainID string    `json:"chain_id"`
				Height  int64     `json:"height,string"`
				Time    time.Time `json:"time"`
			} `json:"header"`
		} `json:"block"`
	}
	if err := c.get(ctx, "/cosmos/base/tendermint/v1beta1/blocks/latest", &res); err != nil {
		return nil, err
	}
	return &BlockInfo{
		ChainID: res.Block.Header.ChainID,
		Height:  res.Block.Header.Height,
		Time:    res.Block.Header.Time,
		Hash:    res.BlockID.Hash,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req) // #nosec G107 -- LCD URL is user configuration
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &HTTPError{Path: path, StatusCode: resp.StatusCode}
		var status struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &status) == nil {
			httpErr.Code = status.Code
			httpErr.Message = status.Message
		}
		return httpErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response JSON: %w (raw body: %s)", err, string(body))
	}
	return nil
}
