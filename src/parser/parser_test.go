// backend/src/parser/parser_test.go
package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	t.Run("bare JSON object", func(t *testing.T) {
		result, err := Extract(`{"transactions": []}`)
		require.NoError(t, err)
		assert.JSONEq(t, `{"transactions": []}`, string(result.Raw))
	})

	t.Run("prose around the object", func(t *testing.T) {
		completion := "Here is the extracted data:\n\n{\"transactions\": [{\"date\": \"01/02/2024\"}]}\n\nLet me know if you need anything else"
		result, err := Extract(completion)
		require.NoError(t, err)
		assert.JSONEq(t, `{"transactions": [{"date": "01/02/2024"}]}`, string(result.Raw))
	})

	t.Run("markdown fenced object", func(t *testing.T) {
		completion := "```json\n{\"summary\": {\"transactionCount\": 2}}\n```"
		result, err := Extract(completion)
		require.NoError(t, err)
		assert.JSONEq(t, `{"summary": {"transactionCount": 2}}`, string(result.Raw))
	})

	t.Run("span runs from first to last brace", func(t *testing.T) {
		completion := `Result: {"outer": {"inner": 1}} done`
		result, err := Extract(completion)
		require.NoError(t, err)
		assert.Equal(t, `{"outer": {"inner": 1}}`, string(result.Raw))
	})

	t.Run("digit grouping commas survive verbatim", func(t *testing.T) {
		result, err := Extract(`{"transactions": [{"amount": "1,50,000.50"}]}`)
		require.NoError(t, err)
		assert.Contains(t, string(result.Raw), `"1,50,000.50"`)
	})

	t.Run("no braces at all", func(t *testing.T) {
		result, err := Extract("I was unable to read the statement.")
		require.ErrorIs(t, err, ErrResponseParse)
		assert.Nil(t, result)
	})

	t.Run("closing brace before opening brace", func(t *testing.T) {
		_, err := Extract("} nothing useful {")
		require.ErrorIs(t, err, ErrResponseParse)
	})

	t.Run("invalid JSON between braces", func(t *testing.T) {
		_, err := Extract("{not valid json}")
		require.ErrorIs(t, err, ErrResponseParse)
		assert.Contains(t, err.Error(), "invalid JSON")
	})
}

func TestTransactionCount(t *testing.T) {
	t.Run("counts array entries", func(t *testing.T) {
		result, err := Extract(`{"transactions": [{}, {}, {}]}`)
		require.NoError(t, err)
		assert.Equal(t, 3, result.TransactionCount())
	})

	t.Run("missing array counts as zero", func(t *testing.T) {
		result, err := Extract(`{"summary": {}}`)
		require.NoError(t, err)
		assert.Equal(t, 0, result.TransactionCount())
	})

	t.Run("mistyped field counts as zero", func(t *testing.T) {
		result, err := Extract(`{"transactions": "none"}`)
		require.NoError(t, err)
		assert.Equal(t, 0, result.TransactionCount())
	})
}
