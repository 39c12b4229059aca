package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"tubeharvest/internal/feed"
	"tubeharvest/internal/ledger"
	"tubeharvest/internal/services"
	"tubeharvest/internal/stage"
	"tubeharvest/internal/workspace"
)

type fakeFetcher struct {
	text  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(context.Context, string, []string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
	channel string
	video   string
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, channelDetails, videoDetails string) (string, error) {
	f.calls++
	f.channel, f.video = channelDetails, videoDetails
	return f.summary, f.err
}

type fakeSynth struct {
	failures []error
	calls    int
	inputs   []string
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.calls++
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		if err != nil {
			return nil, err
		}
	}
	f.inputs = append(f.inputs, text)
	return []byte("[" + text + "]"), nil
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestItem(t *testing.T) *stage.Item {
	t.Helper()
	ch := workspace.ForChannel(t.TempDir(), "@chan", workspace.Folders{
		Transcripts: "Transcripts", Summaries: "Summaries", Audio: "Audio",
	}, workspace.Naming{MaxLength: 50})
	if err := ch.Ensure(); err != nil {
		t.Fatal(err)
	}
	return &stage.Item{
		Channel:   "@chan",
		Video:     feed.Item{ID: "vid1", Title: "How **Rockets** Work"},
		Stem:      "How_Rockets_Work",
		Artifacts: ch.Artifacts("How_Rockets_Work"),
	}
}

func transient(msg string) error {
	return services.Wrap(services.ErrTransient, "tts", "synthesize", msg, nil)
}

func TestRunnerSuccessWritesAllArtifacts(t *testing.T) {
	item := newTestItem(t)
	sleeper := &sleepRecorder{}
	summarizer := &fakeSummarizer{summary: "## Rockets\nFirst point. Second *point*!"}
	synth := &fakeSynth{}
	runner := NewRunner(Deps{
		Fetcher:     &fakeFetcher{text: "hello transcript"},
		Summarizer:  summarizer,
		Synthesizer: synth,
		Audio:       AudioOptions{ChunkBytes: 14, ChunkPause: 100 * time.Millisecond, MaxRetries: 3, Sleep: sleeper.sleep},
	})

	result := runner.Run(context.Background(), item)
	if result.Status != ledger.StatusSuccess || !result.FreshTranscript {
		t.Fatalf("unexpected result %+v", result)
	}
	if summarizer.channel != "Channel: @chan" || !strings.Contains(summarizer.video, "URL: https://www.youtube.com/watch?v=vid1") {
		t.Fatalf("unexpected summarizer context %q / %q", summarizer.channel, summarizer.video)
	}
	summary, _ := os.ReadFile(item.Artifacts.Summary)
	if string(summary) != "Rockets First point. Second point!" {
		t.Fatalf("unexpected summary %q", summary)
	}
	audio, _ := os.ReadFile(item.Artifacts.Audio)
	if string(audio) != "[Rockets First point.][Second point!]" {
		t.Fatalf("unexpected audio %q", audio)
	}
	if len(sleeper.delays) != 1 || sleeper.delays[0] != 100*time.Millisecond {
		t.Fatalf("expected one inter-chunk pause, got %v", sleeper.delays)
	}
}

func TestRunnerResumesFromStoredArtifacts(t *testing.T) {
	item := newTestItem(t)
	if err := os.WriteFile(item.Artifacts.Transcript, []byte("stored transcript"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(item.Artifacts.Summary, []byte("Stored summary."), 0o644); err != nil {
		t.Fatal(err)
	}
	fetcher := &fakeFetcher{err: errors.New("must not be called")}
	summarizer := &fakeSummarizer{err: errors.New("must not be called")}
	synth := &fakeSynth{}
	runner := NewRunner(Deps{Fetcher: fetcher, Summarizer: summarizer, Synthesizer: synth})

	result := runner.Run(context.Background(), item)
	if result.Status != ledger.StatusSuccess || result.FreshTranscript {
		t.Fatalf("unexpected result %+v", result)
	}
	if fetcher.calls != 0 || summarizer.calls != 0 {
		t.Fatal("stored artifacts must not be regenerated")
	}
	if len(synth.inputs) != 1 || synth.inputs[0] != "Stored summary." {
		t.Fatalf("unexpected synth input %v", synth.inputs)
	}
}

func TestRunnerTranscriptFailureReasons(t *testing.T) {
	cases := []struct {
		err    error
		reason ledger.Reason
		halt   bool
	}{
		{services.Wrap(services.ErrRateLimited, "transcript", "fetch", "429", nil), ledger.ReasonRateLimited, true},
		{services.Wrap(services.ErrIPBlocked, "transcript", "fetch", "blocked", nil), ledger.ReasonIPBlocked, true},
		{services.Wrap(services.ErrCaptionsDisabled, "transcript", "fetch", "off", nil), ledger.ReasonCaptionsDisabled, false},
		{errors.New("boom"), ledger.ReasonOther, false},
	}
	for _, tc := range cases {
		item := newTestItem(t)
		summarizer := &fakeSummarizer{summary: "x"}
		runner := NewRunner(Deps{Fetcher: &fakeFetcher{err: tc.err}, Summarizer: summarizer, Synthesizer: &fakeSynth{}})
		result := runner.Run(context.Background(), item)
		if result.Status != ledger.StatusFailed || result.Reason != tc.reason || result.Halt != tc.halt {
			t.Fatalf("%v: unexpected result %+v", tc.err, result)
		}
		if summarizer.calls != 0 {
			t.Fatal("summary must not run after a transcript failure")
		}
	}
}

func TestRunnerSummaryFailureKeepsTranscript(t *testing.T) {
	item := newTestItem(t)
	runner := NewRunner(Deps{
		Fetcher:     &fakeFetcher{text: "text"},
		Summarizer:  &fakeSummarizer{err: services.Wrap(services.ErrRateLimited, "llm", "chat", "429", nil)},
		Synthesizer: &fakeSynth{},
	})
	result := runner.Run(context.Background(), item)
	if result.Reason != ledger.ReasonSummaryFailed || result.Halt {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := os.Stat(item.Artifacts.Transcript); err != nil {
		t.Fatal("transcript must be kept for the next run")
	}
}

func TestAudioRetriesTransientFailures(t *testing.T) {
	item := newTestItem(t)
	item.Summary = "Only sentence."
	sleeper := &sleepRecorder{}
	synth := &fakeSynth{failures: []error{transient("reset"), transient("reset")}}
	st := NewAudioStage(synth, AudioOptions{MaxRetries: 3, Sleep: sleeper.sleep})
	if err := st.Prepare(context.Background(), item); err != nil {
		t.Fatal(err)
	}
	if err := st.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if synth.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", synth.calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(sleeper.delays) != 2 || sleeper.delays[0] != want[0] || sleeper.delays[1] != want[1] {
		t.Fatalf("unexpected backoff %v", sleeper.delays)
	}
}

func TestAudioGivesUpAfterMaxRetries(t *testing.T) {
	item := newTestItem(t)
	item.Summary = "Only sentence."
	sleeper := &sleepRecorder{}
	synth := &fakeSynth{failures: []error{transient("1"), transient("2"), transient("3"), transient("4"), transient("5")}}
	st := NewAudioStage(synth, AudioOptions{MaxRetries: 3, Sleep: sleeper.sleep})
	if err := st.Execute(context.Background(), item); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if synth.calls != 4 || len(sleeper.delays) != 3 || sleeper.delays[2] != 4*time.Second {
		t.Fatalf("unexpected attempts %d delays %v", synth.calls, sleeper.delays)
	}
	if _, err := os.Stat(item.Artifacts.Audio); !os.IsNotExist(err) {
		t.Fatal("no audio file may be left after failure")
	}
}

func TestAudioDoesNotRetryPermanentFailures(t *testing.T) {
	item := newTestItem(t)
	item.Summary = "One. Two."
	synth := &fakeSynth{failures: []error{nil, services.Wrap(services.ErrValidation, "tts", "synthesize", "bad voice", nil)}}
	runner := &Runner{steps: []step{{name: StageAudio, handler: NewAudioStage(synth, AudioOptions{ChunkBytes: 5, MaxRetries: 3, Sleep: (&sleepRecorder{}).sleep}), reason: ledger.ReasonSynthesisFailed}}}
	result := runner.Run(context.Background(), item)
	if result.Reason != ledger.ReasonSynthesisFailed || synth.calls != 2 {
		t.Fatalf("unexpected result %+v after %d calls", result, synth.calls)
	}
	if _, err := os.Stat(item.Artifacts.Audio); !os.IsNotExist(err) {
		t.Fatal("partial audio must not be written")
	}
}

func TestAudioRequiresSummary(t *testing.T) {
	item := newTestItem(t)
	err := NewAudioStage(&fakeSynth{}, AudioOptions{}).Prepare(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunnerInterrupted(t *testing.T) {
	item := newTestItem(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := NewRunner(Deps{Fetcher: &fakeFetcher{err: context.Canceled}})
	result := runner.Run(ctx, item)
	if !result.Interrupted || result.Halt {
		t.Fatalf("expected interrupted result, got %+v", result)
	}
}

func TestRunnerHealthChecks(t *testing.T) {
	checks := NewRunner(Deps{Fetcher: &fakeFetcher{}}).HealthChecks(context.Background())
	if len(checks) != 3 || !checks[0].Ready || checks[1].Ready || checks[2].Ready {
		t.Fatalf("unexpected health %+v", checks)
	}
}
