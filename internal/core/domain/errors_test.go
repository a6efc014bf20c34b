package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrValidation", ErrValidation, "validation error"},
		{"ErrPayloadTooLarge", ErrPayloadTooLarge, "payload too large"},
		{"ErrExcluded", ErrExcluded, "excluded by rule"},
		{"ErrBackendUnavailable", ErrBackendUnavailable, "embedding backend unavailable"},
		{"ErrConfiguration", ErrConfiguration, "configuration error"},
		{"ErrNotReady", ErrNotReady, "engine not ready"},
		{"ErrEngineFailed", ErrEngineFailed, "engine failed"},
		{"ErrStorage", ErrStorage, "storage error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrValidation,
		ErrPayloadTooLarge,
		ErrExcluded,
		ErrBackendUnavailable,
		ErrConfiguration,
		ErrNotReady,
		ErrEngineFailed,
		ErrStorage,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{nil, ""},
		{fmt.Errorf("title: %w", ErrValidation), CodeValidation},
		{fmt.Errorf("%w: %w", ErrValidation, ErrPayloadTooLarge), CodePayloadTooLarge},
		{fmt.Errorf("embed: %w", ErrBackendUnavailable), CodeBackendUnavailable},
		{fmt.Errorf("dimension 384, want 768: %w", ErrConfiguration), CodeConfiguration},
		{ErrNotReady, CodeNotReady},
		{ErrEngineFailed, CodeEngineFailed},
		{fmt.Errorf("insert: %w", ErrStorage), CodeStorage},
		{ErrNotFound, CodeNotFound},
		{ErrExcluded, CodeExcluded},
		{errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.code {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.code)
		}
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(fmt.Errorf("wrap: %w", ErrNotReady)) {
		t.Error("ErrNotReady should be transient")
	}
	if !IsTransient(ErrBackendUnavailable) {
		t.Error("ErrBackendUnavailable should be transient")
	}
	if IsTransient(ErrConfiguration) {
		t.Error("ErrConfiguration should not be transient")
	}
	if IsTransient(ErrValidation) {
		t.Error("ErrValidation should not be transient")
	}
}

func TestRetryAfter(t *testing.T) {
	if RetryAfter(ErrNotReady) != 2*time.Second {
		t.Errorf("unexpected retry-after for not ready: %v", RetryAfter(ErrNotReady))
	}
	if RetryAfter(ErrBackendUnavailable) <= 0 {
		t.Error("expected positive retry-after for backend unavailable")
	}
	if RetryAfter(ErrStorage) != 0 {
		t.Error("expected no retry-after for storage error")
	}
}
