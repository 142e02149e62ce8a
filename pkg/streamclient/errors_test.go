package streamclient

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		msg    string
		want   Category
	}{
		{"status 401", 401, "", CategoryAuthFailure},
		{"status 403", 403, "", CategoryAccessDenied},
		{"status 404", 404, "", CategoryModelNotFound},
		{"status 408", 408, "", CategoryTimeout},
		{"status 413", 413, "", CategoryTooLong},
		{"status 429", 429, "", CategoryRateLimited},
		{"status 400", 400, "", CategoryBadRequest},
		{"status 502", 502, "", CategoryServerUnavailable},
		{"status 503", 503, "", CategoryServerUnavailable},
		{"status 500", 500, "", CategoryServerError},
		{"invalid api key text", 0, "Invalid API key provided", CategoryAuthFailure},
		{"rate limit text", 0, "Rate limit exceeded, try again later", CategoryRateLimited},
		{"context length text", 0, "This model's maximum context length is 8192 tokens", CategoryTooLong},
		{"timeout text", 0, "request timed out", CategoryTimeout},
		{"deadline text", 0, "context deadline exceeded", CategoryTimeout},
		{"overloaded text", 0, "model overloaded", CategoryServerUnavailable},
		{"connection refused text", 0, "dial tcp: connection refused", CategoryConnectionFailed},
		{"unknown text", 0, "something odd happened", CategoryUnknown},
		{"status wins over text", 401, "rate limit exceeded", CategoryAuthFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.status, tt.msg))
		})
	}
}

func TestCategoryRetryable(t *testing.T) {
	retryable := []Category{
		CategoryRateLimited, CategoryTimeout, CategoryServerUnavailable,
		CategoryServerError, CategoryConnectionFailed,
	}
	terminal := []Category{
		CategoryAuthFailure, CategoryAccessDenied, CategoryModelNotFound,
		CategoryTooLong, CategoryBadRequest, CategoryUnknown,
	}

	for _, c := range retryable {
		assert.True(t, c.Retryable(), c.String())
	}
	for _, c := range terminal {
		assert.False(t, c.Retryable(), c.String())
	}
}

func TestCategoryOf(t *testing.T) {
	se := newStreamError(CategoryRateLimited, "slow down", nil)
	assert.Equal(t, CategoryRateLimited, CategoryOf(se))

	wrapped := fmt.Errorf("batch 3: %w", se)
	assert.Equal(t, CategoryRateLimited, CategoryOf(wrapped))

	assert.Equal(t, CategoryConnectionFailed, CategoryOf(errors.New("connection reset by peer")))
	assert.Equal(t, CategoryUnknown, CategoryOf(nil))
}

func TestStreamErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	se := newStreamError(CategoryServerError, "upstream", cause)

	assert.ErrorIs(t, se, cause)
	assert.Contains(t, se.Error(), "server_error")
	assert.Contains(t, se.Error(), "upstream")
}

func TestCategoryMessage(t *testing.T) {
	assert.Equal(t, "Authentication failed, check your API key", CategoryAuthFailure.Message())
	assert.Equal(t, "Translation failed", CategoryUnknown.Message())
}
