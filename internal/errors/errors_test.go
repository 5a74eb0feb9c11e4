package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
	}{
		{"config code", ErrCodeConfigInvalid, CategoryConfig},
		{"io code", ErrCodeFileNotFound, CategoryIO},
		{"tokenizer code", ErrCodeTokenizerTimeout, CategoryTokenizer},
		{"validation code", ErrCodeInvalidQuery, CategoryValidation},
		{"internal code", ErrCodeInternal, CategoryInternal},
		{"unknown short code", "ERR", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestNew_DerivesRetryableFromCode(t *testing.T) {
	assert.True(t, New(ErrCodeTokenizerTimeout, "timeout", nil).Retryable)
	assert.True(t, New(ErrCodeTokenizerUnavailable, "down", nil).Retryable)
	assert.True(t, New(ErrCodeSearchFailed, "failed", nil).Retryable)
	assert.False(t, New(ErrCodeFileNotFound, "missing", nil).Retryable)
	assert.False(t, New(ErrCodeConfigInvalid, "bad", nil).Retryable)
}

func TestNew_DerivesSeverityFromCode(t *testing.T) {
	assert.Equal(t, SeverityFatal, New(ErrCodeCorruptIndex, "corrupt", nil).Severity)
	assert.Equal(t, SeverityFatal, New(ErrCodeDiskFull, "full", nil).Severity)
	assert.Equal(t, SeverityWarning, New(ErrCodeTokenizerTimeout, "slow", nil).Severity)
	assert.Equal(t, SeverityError, New(ErrCodeInvalidQuery, "bad query", nil).Severity)
}

func TestError_FormatsCodeAndMessage(t *testing.T) {
	err := New(ErrCodeFileNotFound, "report.txt missing", nil)
	assert.Equal(t, "[ERR_201_FILE_NOT_FOUND] report.txt missing", err.Error())
}

func TestUnwrap_ReturnsCause(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := New(ErrCodeIndexFailed, "index update failed", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestIs_MatchesByCode(t *testing.T) {
	err := New(ErrCodeCorruptIndex, "segment checksum mismatch", nil)
	target := New(ErrCodeCorruptIndex, "different message", nil)
	other := New(ErrCodeFileNotFound, "different code", nil)

	assert.True(t, stderrors.Is(err, target))
	assert.False(t, stderrors.Is(err, other))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk error")
	err := Wrap(ErrCodeDiskFull, cause)

	require.NotNil(t, err)
	assert.Equal(t, "disk error", err.Message)
	assert.Equal(t, cause, err.Cause)
}

func TestWithDetail_Chains(t *testing.T) {
	err := New(ErrCodeExtractFailed, "extract failed", nil).
		WithDetail("path", "/data/report.txt").
		WithDetail("extractor", "plaintext")

	assert.Equal(t, "/data/report.txt", err.Details["path"])
	assert.Equal(t, "plaintext", err.Details["extractor"])
}

func TestWithSuggestion_SetsSuggestion(t *testing.T) {
	err := New(ErrCodeConfigNotFound, "config missing", nil).
		WithSuggestion("run 'sagasu init' to create a config")

	assert.Contains(t, err.Suggestion, "sagasu init")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeTokenizerTimeout, "slow", nil)))
	assert.False(t, IsRetryable(New(ErrCodeFileNotFound, "missing", nil)))
	assert.False(t, IsRetryable(fmt.Errorf("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeCorruptIndex, "corrupt", nil)))
	assert.False(t, IsFatal(New(ErrCodeInvalidQuery, "bad", nil)))
	assert.False(t, IsFatal(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeSearchFailed, GetCode(New(ErrCodeSearchFailed, "failed", nil)))
	assert.Equal(t, "", GetCode(fmt.Errorf("plain")))
}

func TestGetCategory(t *testing.T) {
	assert.Equal(t, CategoryTokenizer, GetCategory(New(ErrCodeTokenizerProtocol, "bad frame", nil)))
	assert.Equal(t, Category(""), GetCategory(fmt.Errorf("plain")))
}

func TestHelperConstructors(t *testing.T) {
	assert.Equal(t, CategoryConfig, ConfigError("bad config", nil).Category)
	assert.Equal(t, CategoryIO, IOError("missing file", nil).Category)
	assert.Equal(t, CategoryTokenizer, TokenizerError("dead process", nil).Category)
	assert.Equal(t, CategoryValidation, ValidationError("bad input", nil).Category)
	assert.Equal(t, CategoryInternal, InternalError("boom", nil).Category)
}
