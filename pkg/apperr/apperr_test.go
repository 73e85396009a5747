package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shashiranjanraj/giftbid/pkg/apperr"
)

func TestSentinelMatching(t *testing.T) {
	err := apperr.New(apperr.KindConflict, "the auction is no longer open")

	if !errors.Is(err, apperr.Conflict) {
		t.Error("expected err to match the Conflict sentinel")
	}
	if errors.Is(err, apperr.NotFound) {
		t.Error("err must not match a different kind")
	}
}

func TestMatchingSurvivesWrapping(t *testing.T) {
	inner := apperr.New(apperr.KindNotFound, "listing auction-1 not found")
	wrapped := fmt.Errorf("load listing: %w", inner)

	if !errors.Is(wrapped, apperr.NotFound) {
		t.Error("fmt.Errorf wrapping must preserve kind matching")
	}
	if apperr.KindOf(wrapped) != apperr.KindNotFound {
		t.Errorf("KindOf = %v, want KindNotFound", apperr.KindOf(wrapped))
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("store: write condition failed")
	err := apperr.Wrap(apperr.KindConflict, "the donation was already claimed", cause)

	if !errors.Is(err, cause) {
		t.Error("Wrap must keep the cause reachable via Unwrap")
	}
	if got := err.Error(); got != "the donation was already claimed: store: write condition failed" {
		t.Errorf("unexpected Error(): %q", got)
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if apperr.KindOf(errors.New("boom")) != apperr.KindInternal {
		t.Error("unclassified errors default to KindInternal")
	}
}

func TestReasonOfNeverLeaksDetail(t *testing.T) {
	if got := apperr.ReasonOf(errors.New("mongo: connection reset")); got != "internal error" {
		t.Errorf("unclassified reason = %q, want generic message", got)
	}
	err := apperr.Newf(apperr.KindInvalidInput, "bid must exceed the current top of %.2f", 50.0)
	if got := apperr.ReasonOf(err); got != "bid must exceed the current top of 50.00" {
		t.Errorf("ReasonOf = %q", got)
	}
}
