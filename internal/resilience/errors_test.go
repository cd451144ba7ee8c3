package resilience

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient_Nil(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error must not be transient")
	}
}

func TestIsTransient_TransientError(t *testing.T) {
	err := NewTransientError(errors.New("wait timed out"))
	if !IsTransient(err) {
		t.Error("TransientError must be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	err := fmt.Errorf("crawl page 2: %w", NewTransientError(errors.New("wait timed out")))
	if !IsTransient(err) {
		t.Error("wrapped TransientError must be transient")
	}
}

func TestIsTransient_PlainError(t *testing.T) {
	if IsTransient(errors.New("no such marketplace")) {
		t.Error("plain error must not be transient")
	}
}

func TestIsTransient_NetworkPatterns(t *testing.T) {
	tests := []string{
		"read tcp: connection reset by peer",
		"write: broken pipe",
		"dial tcp: i/o timeout",
	}
	for _, msg := range tests {
		t.Run(msg, func(t *testing.T) {
			if !IsTransient(errors.New(msg)) {
				t.Errorf("%q should be transient", msg)
			}
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := NewTransientError(inner)
	if !errors.Is(err, inner) {
		t.Error("Unwrap must expose the inner error")
	}
}
