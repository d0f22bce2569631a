// Package wasm defines the CW721 query and execute messages used against the
// NFT collection contract, along with the helpers that derive token ids and
// metadata URIs from them.
package wasm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// QueryMsg is the externally tagged CW721 query enum. Exactly one field is set.
type QueryMsg struct {
	NumTokens *NumTokensQuery `json:"num_tokens,omitempty"`
	Tokens    *TokensQuery    `json:"tokens,omitempty"`
}

type NumTokensQuery struct{}

type TokensQuery struct {
	Owner      string `json:"owner"`
	StartAfter string `json:"start_after,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// NewNumTokensQuery builds {"num_tokens":{}}.
func NewNumTokensQuery() QueryMsg {
	return QueryMsg{NumTokens: &NumTokensQuery{}}
}

// NewTokensQuery builds {"tokens":{"owner":...,"limit":...}}.
func NewTokensQuery(owner string, limit int) QueryMsg {
	return QueryMsg{Tokens: &TokensQuery{Owner: owner, Limit: limit}}
}

type NumTokensResponse struct {
	Count Count `json:"count"`
}

type TokensResponse struct {
	Tokens []string `json:"tokens"`
}

// ExecuteMsg is the externally tagged CW721 execute enum. Exactly one field is set.
type ExecuteMsg struct {
	Mint        *MintMsg        `json:"mint,omitempty"`
	TransferNFT *TransferNFTMsg `json:"transfer_nft,omitempty"`
}

// Extension is the empty metadata extension of a cw721-base collection.
type Extension struct{}

type MintMsg struct {
	TokenID   string    `json:"token_id"`
	Owner     string    `json:"owner"`
	TokenURI  string    `json:"token_uri"`
	Extension Extension `json:"extension"`
}

type TransferNFTMsg struct {
	Recipient string `json:"recipient"`
	TokenID   string `json:"token_id"`
}

// NewMintMsg builds a mint message for tokenID owned by owner.
func NewMintMsg(tokenID, owner, tokenURI string) ExecuteMsg {
	return ExecuteMsg{Mint: &MintMsg{
		TokenID:  tokenID,
		Owner:    owner,
		TokenURI: tokenURI,
	}}
}

// NewTransferNFTMsg builds a transfer_nft message.
func NewTransferNFTMsg(recipient, tokenID string) ExecuteMsg {
	return ExecuteMsg{TransferNFT: &TransferNFTMsg{
		Recipient: recipient,
		TokenID:   tokenID,
	}}
}

// Count is a token count as reported by the contract. CW721 serialises u64
// counts as JSON numbers, while some wrappers return them as strings; both are
// accepted and the raw text is kept.
type Count string

func (c *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("invalid count: %w", err)
		}
		*c = Count(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("invalid count %s: %w", string(b), err)
		}
		*c = Count(n.String())
	}
	return nil
}

// Int parses the count as an unsigned integer.
func (c Count) Int() (uint64, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(string(c)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c Count) String() string {
	return string(c)
}

// NextTokenID returns the candidate id for the next mint: count+1, or "1"
// when the count is unknown or unparsable.
func NextTokenID(count *Count) string {
	if count == nil {
		return "1"
	}
	n, ok := count.Int()
	if !ok || n == ^uint64(0) {
		return "1"
	}
	return strconv.FormatUint(n+1, 10)
}

// TokenURI returns the metadata URI of a token.
func TokenURI(prefix, tokenID string) string {
	return prefix + tokenID
}
