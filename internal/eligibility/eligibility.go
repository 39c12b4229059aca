// Package eligibility decides, item by item, whether a feed entry enters the
// pipeline, is skipped, or ends the channel scan.
//
// Checks run in a fixed order. Keyword and missing-age skips come before the
// halting checks so an irrelevant or malformed entry never ends a scan, and
// the ledger is consulted last so the halting checks never cost a lookup.
package eligibility

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tubeharvest/internal/feed"
	"tubeharvest/internal/ledger"
	"tubeharvest/internal/relage"
	"tubeharvest/internal/workspace"
)

// Verdict is the outcome of Evaluate.
type Verdict string

const (
	Eligible Verdict = "eligible"
	Skip     Verdict = "skip"
	Halt     Verdict = "halt"
)

// Reason tags a skip or halt verdict.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonKeyword          Reason = "keyword"
	ReasonNoAge            Reason = "no_age"
	ReasonUnparsableAge    Reason = "unparsable_age"
	ReasonTooOld           Reason = "too_old"
	ReasonAlreadySucceeded Reason = "already_succeeded"
)

// Decision is the verdict for one item. Age, Published, and DateSuffix are
// set whenever the age text parsed.
type Decision struct {
	Verdict    Verdict
	Reason     Reason
	Keyword    string
	Age        time.Duration
	Published  time.Time
	DateSuffix string
}

// StatusLookup is the part of a ledger the filter needs.
type StatusLookup interface {
	Lookup(ctx context.Context, videoID string) (ledger.Status, bool, error)
}

// Filter holds the configured checks.
type Filter struct {
	keywords []string
	window   time.Duration
	now      func() time.Time
}

// New builds a filter. Keywords are matched case-insensitively as substrings.
func New(keywords []string, window time.Duration, now func() time.Time) *Filter {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			normalized = append(normalized, kw)
		}
	}
	if now == nil {
		now = time.Now
	}
	return &Filter{keywords: normalized, window: window, now: now}
}

// Window returns the recency window.
func (f *Filter) Window() time.Duration {
	return f.window
}

// Evaluate applies the checks to item. A ledger error is returned as is; the
// caller treats it as the end of the scan.
func (f *Filter) Evaluate(ctx context.Context, item feed.Item, lookup StatusLookup) (Decision, error) {
	title := strings.ToLower(item.DisplayTitle())
	for _, kw := range f.keywords {
		if strings.Contains(title, kw) {
			return Decision{Verdict: Skip, Reason: ReasonKeyword, Keyword: kw}, nil
		}
	}

	if strings.TrimSpace(item.AgeText) == "" {
		return Decision{Verdict: Skip, Reason: ReasonNoAge}, nil
	}
	age, ok := relage.Parse(item.AgeText)
	if !ok {
		return Decision{Verdict: Halt, Reason: ReasonUnparsableAge}, nil
	}
	published := f.now().Add(-age)
	decision := Decision{
		Age:        age,
		Published:  published,
		DateSuffix: published.Format(workspace.DateSuffixLayout),
	}
	if age > f.window {
		decision.Verdict, decision.Reason = Halt, ReasonTooOld
		return decision, nil
	}

	if lookup != nil {
		status, found, err := lookup.Lookup(ctx, item.ID)
		if err != nil {
			return Decision{}, fmt.Errorf("ledger lookup %s: %w", item.ID, err)
		}
		if found && status == ledger.StatusSuccess {
			decision.Verdict, decision.Reason = Skip, ReasonAlreadySucceeded
			return decision, nil
		}
	}

	decision.Verdict = Eligible
	return decision, nil
}
