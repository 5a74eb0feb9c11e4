package errors

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_StructuredError(t *testing.T) {
	err := New(ErrCodeConfigNotFound, "no config file found", nil).
		WithSuggestion("run 'sagasu init'")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: no config file found")
	assert.Contains(t, out, "Hint: run 'sagasu init'")
	assert.Contains(t, out, "Code: ERR_101_CONFIG_NOT_FOUND")
}

func TestFormatForCLI_PlainErrorWrapped(t *testing.T) {
	out := FormatForCLI(fmt.Errorf("something broke"))

	assert.Contains(t, out, "something broke")
	assert.Contains(t, out, ErrCodeInternal)
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON_RoundTrips(t *testing.T) {
	err := New(ErrCodeTokenizerTimeout, "tokenizer did not respond", fmt.Errorf("deadline exceeded")).
		WithDetail("path", "/data/memo.txt")

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "ERR_301_TOKENIZER_TIMEOUT", parsed["code"])
	assert.Equal(t, "tokenizer did not respond", parsed["message"])
	assert.Equal(t, "TOKENIZER", parsed["category"])
	assert.Equal(t, "deadline exceeded", parsed["cause"])
	assert.Equal(t, true, parsed["retryable"])
}

func TestFormatForLog_StructuredError(t *testing.T) {
	err := New(ErrCodeIndexFailed, "batch execute failed", fmt.Errorf("io error")).
		WithDetail("batch_size", "48")

	fields := FormatForLog(err)

	assert.Equal(t, ErrCodeIndexFailed, fields["error_code"])
	assert.Equal(t, "batch execute failed", fields["message"])
	assert.Equal(t, "io error", fields["cause"])
	assert.Equal(t, "48", fields["detail_batch_size"])
}

func TestFormatForLog_PlainError(t *testing.T) {
	fields := FormatForLog(fmt.Errorf("plain"))
	assert.Equal(t, "plain", fields["error"])
}

func TestFormatForLog_Nil(t *testing.T) {
	assert.Nil(t, FormatForLog(nil))
}
