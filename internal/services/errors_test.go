package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"tubeharvest/internal/ledger"
	"tubeharvest/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcript", "fetch", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcript", "fetch", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestFailureReasonMapping(t *testing.T) {
	cases := []struct {
		err  error
		want ledger.Reason
	}{
		{nil, ledger.ReasonNone},
		{services.Wrap(services.ErrRateLimited, "transcript", "fetch", "429", nil), ledger.ReasonRateLimited},
		{services.Wrap(services.ErrIPBlocked, "transcript", "fetch", "recaptcha", nil), ledger.ReasonIPBlocked},
		{fmt.Errorf("outer: %w", services.Wrap(services.ErrCaptionsDisabled, "transcript", "fetch", "", nil)), ledger.ReasonCaptionsDisabled},
		{services.Wrap(services.ErrTransient, "audio", "synthesize", "reset", errors.New("io")), ledger.ReasonOther},
		{errors.New("plain"), ledger.ReasonOther},
	}
	for _, tc := range cases {
		if got := services.FailureReason(tc.err); got != tc.want {
			t.Fatalf("FailureReason(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestHalts(t *testing.T) {
	if !services.Halts(services.Wrap(services.ErrRateLimited, "", "", "", nil)) {
		t.Fatal("expected rate limit to halt")
	}
	if !services.Halts(services.Wrap(services.ErrIPBlocked, "", "", "", nil)) {
		t.Fatal("expected ip block to halt")
	}
	if services.Halts(services.Wrap(services.ErrCaptionsDisabled, "", "", "", nil)) {
		t.Fatal("captions disabled must not halt")
	}
	if services.Halts(nil) {
		t.Fatal("nil must not halt")
	}
}

func TestDetailsOf(t *testing.T) {
	d := services.DetailsOf(services.Wrap(services.ErrIPBlocked, "transcript", "fetch", "blocked", nil))
	if d.Marker != "ip_blocked" {
		t.Fatalf("unexpected marker %q", d.Marker)
	}
	if services.DetailsOf(errors.New("x")).Marker != "unclassified" {
		t.Fatal("expected unclassified marker")
	}
}
