package wasm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "xion1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5atkush"

// ── Message shapes ─────────────────────────────────────────────────

func TestQueryMsg_JSON(t *testing.T) {
	b, err := json.Marshal(NewNumTokensQuery())
	require.NoError(t, err)
	assert.JSONEq(t, `{"num_tokens":{}}`, string(b))

	b, err = json.Marshal(NewTokensQuery(owner, 100))
	require.NoError(t, err)
	assert.JSONEq(t, `{"tokens":{"owner":"`+owner+`","limit":100}}`, string(b))
}

func TestExecuteMsg_JSON(t *testing.T) {
	b, err := json.Marshal(NewMintMsg("6", owner, TokenURI("https://example.com/metadata/", "6")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"mint":{"token_id":"6","owner":"`+owner+`","token_uri":"https://example.com/metadata/6","extension":{}}}`, string(b))

	b, err = json.Marshal(NewTransferNFTMsg(owner, "6"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"transfer_nft":{"recipient":"`+owner+`","token_id":"6"}}`, string(b))
}

func TestTransferNFTMsg_EmptyFieldsKept(t *testing.T) {
	b, err := json.Marshal(NewTransferNFTMsg("", ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"transfer_nft":{"recipient":"","token_id":""}}`, string(b))
}

// ── Count ──────────────────────────────────────────────────────────

func TestCount_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Count
	}{
		{"number", `{"count":5}`, "5"},
		{"string", `{"count":"5"}`, "5"},
		{"large number", `{"count":18446744073709551615}`, "18446744073709551615"},
		{"null", `{"count":null}`, ""},
		{"missing", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp NumTokensResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))
			assert.Equal(t, tt.want, resp.Count)
		})
	}
}

func TestCount_UnmarshalRejectsObjects(t *testing.T) {
	var resp NumTokensResponse
	assert.Error(t, json.Unmarshal([]byte(`{"count":{"n":1}}`), &resp))
}

func TestCount_Int(t *testing.T) {
	n, ok := Count("42").Int()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), n)

	_, ok = Count("").Int()
	assert.False(t, ok)
	_, ok = Count("4x").Int()
	assert.False(t, ok)
	_, ok = Count("-1").Int()
	assert.False(t, ok)
}

// ── NextTokenID ────────────────────────────────────────────────────

func TestNextTokenID(t *testing.T) {
	c := func(s string) *Count { v := Count(s); return &v }

	tests := []struct {
		name  string
		count *Count
		want  string
	}{
		{"unknown", nil, "1"},
		{"zero", c("0"), "1"},
		{"five", c("5"), "6"},
		{"padded", c(" 9 "), "10"},
		{"unparsable", c("abc"), "1"},
		{"empty", c(""), "1"},
		{"max", c("18446744073709551615"), "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextTokenID(tt.count))
		})
	}
}

func TestTokenURI(t *testing.T) {
	assert.Equal(t, "https://example.com/metadata/7", TokenURI("https://example.com/metadata/", "7"))
	assert.True(t, strings.HasSuffix(TokenURI("ipfs://cid/", "1"), "/1"))
}
