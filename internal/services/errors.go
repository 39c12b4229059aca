package services

import (
	"errors"
	"fmt"
	"strings"

	"tubeharvest/internal/ledger"
)

var (
	ErrExternalTool  = errors.New("external service error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")

	// ErrRateLimited marks upstream throttling (HTTP 429). It halts the channel scan.
	ErrRateLimited = errors.New("rate limited")
	// ErrIPBlocked marks an upstream block of the client address. It halts the channel scan.
	ErrIPBlocked = errors.New("ip blocked")
	// ErrCaptionsDisabled marks a video whose captions are turned off.
	ErrCaptionsDisabled = errors.New("captions disabled")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureReason maps a stage error to the tagged reason persisted in the ledger.
func FailureReason(err error) ledger.Reason {
	switch {
	case err == nil:
		return ledger.ReasonNone
	case errors.Is(err, ErrRateLimited):
		return ledger.ReasonRateLimited
	case errors.Is(err, ErrIPBlocked):
		return ledger.ReasonIPBlocked
	case errors.Is(err, ErrCaptionsDisabled):
		return ledger.ReasonCaptionsDisabled
	default:
		return ledger.ReasonOther
	}
}

// Halts reports whether the failure should stop the remaining scan of a
// channel. Continuing after upstream throttling only extends the block.
func Halts(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrIPBlocked)
}

// Details captures the marker and message of a wrapped error for log fields.
type Details struct {
	Marker  string
	Message string
}

// DetailsOf extracts the classification of err. Unmarked errors report "unclassified".
func DetailsOf(err error) Details {
	if err == nil {
		return Details{}
	}
	marker := "unclassified"
	for _, candidate := range []error{
		ErrRateLimited, ErrIPBlocked, ErrCaptionsDisabled,
		ErrValidation, ErrConfiguration, ErrNotFound,
		ErrTimeout, ErrTransient, ErrExternalTool,
	} {
		if errors.Is(err, candidate) {
			marker = strings.ReplaceAll(candidate.Error(), " ", "_")
			break
		}
	}
	return Details{Marker: marker, Message: err.Error()}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
