package relage

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"3 days ago", 72 * time.Hour, true},
		{"1 day ago", 24 * time.Hour, true},
		{"Streamed 5 hours ago", 5 * time.Hour, true},
		{"  streamed   2 weeks ago ", 14 * 24 * time.Hour, true},
		{"45 minutes ago", 45 * time.Minute, true},
		{"1 minute ago", time.Minute, true},
		{"10 Hours ago", 10 * time.Hour, true},
		{"2 months ago", 0, false},
		{"1 year ago", 0, false},
		{"Premieres tomorrow", 0, false},
		{"", 0, false},
		{"ago 3 days", 0, false},
		{"30 seconds ago", 0, false},
		{"99999999999999 weeks ago", 0, false},
		{"99999999999999999999 minutes ago", 0, false},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Parse(%q) = %s, %v; want %s, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFormatRoundTripsThroughParse(t *testing.T) {
	cases := map[time.Duration]string{
		0:                             "0 minutes ago",
		-time.Hour:                    "0 minutes ago",
		90 * time.Second:              "1 minute ago",
		59 * time.Minute:              "59 minutes ago",
		time.Hour:                     "1 hour ago",
		23*time.Hour + 59*time.Minute: "23 hours ago",
		36 * time.Hour:                "1 day ago",
		6 * 24 * time.Hour:            "6 days ago",
		15 * 24 * time.Hour:           "2 weeks ago",
	}
	for d, want := range cases {
		got := Format(d)
		if got != want {
			t.Fatalf("Format(%s) = %q, want %q", d, got, want)
		}
		if _, ok := Parse(got); !ok {
			t.Fatalf("Parse could not read back %q", got)
		}
	}
}

func TestSince(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	if got := Since(now.Add(-49*time.Hour), now); got != "2 days ago" {
		t.Fatalf("Since = %q", got)
	}
}
