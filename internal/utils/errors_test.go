package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWalksWrapChain(t *testing.T) {
	inner := NewAppError("assistant.query", KindExhaustedRetries, "all rounds failed", errors.New("dial tcp: refused"))
	wrapped := fmt.Errorf("chat handler: %w", inner)

	if got := KindOf(wrapped); got != KindExhaustedRetries {
		t.Fatalf("expected exhausted_retries, got %s", got)
	}
	if !IsKind(wrapped, KindExhaustedRetries) {
		t.Fatalf("IsKind should match through wrapping")
	}
	if IsKind(wrapped, KindUpstreamError) {
		t.Fatalf("IsKind matched the wrong kind")
	}
}

func TestKindOfDefaultsToTransient(t *testing.T) {
	if got := KindOf(errors.New("plain failure")); got != KindTransient {
		t.Fatalf("untyped errors should default to transient, got %s", got)
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := NewAppError("predictor.predict", KindUpstreamError, "status 500", errors.New("boom"))
	want := "predictor.predict: status 500: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}

	bare := NewAppError("predictor.predict", KindInvalidInput, "affected users must be >= 1", nil)
	if bare.Error() != "predictor.predict: affected users must be >= 1" {
		t.Fatalf("unexpected message %q", bare.Error())
	}
}
