package drafts

import (
	"context"
	"testing"
	"time"
)

func TestTranscriptArtifactKey(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"uploads/abc/video.mp4", "transcriptions/uploads/abc/video.json"},
		{"clip.mov", "transcriptions/clip.json"},
		{"no-extension", "transcriptions/no-extension.json"},
	}
	for _, tc := range cases {
		if got := transcriptArtifactKey(tc.in); got != tc.want {
			t.Fatalf("transcriptArtifactKey(%q): got=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestPollTranscriptSuccess(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	deps.store.put("transcriptions/videos/talk.json", "application/json", []byte(`{"text":"hello from the talk"}`))

	text, found, err := svc.pollTranscript(context.Background(), "videos/talk.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected transcript to be found")
	}
	if text != "hello from the talk" {
		t.Fatalf("unexpected text: %q", text)
	}
	if n := deps.clock.sleepCount(); n != 0 {
		t.Fatalf("first attempt should not sleep, slept %d times", n)
	}
}

func TestPollTranscriptExhaustsAttempts(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)

	text, found, err := svc.pollTranscript(context.Background(), "videos/missing.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found || text != "" {
		t.Fatalf("expected not-found result, got text=%q found=%v", text, found)
	}

	attempts := svc.cfg.Transcripts.MaxAttempts
	if got := deps.store.fetchCount("transcriptions/videos/missing.json"); got != attempts {
		t.Fatalf("unexpected fetch count: got=%d want=%d", got, attempts)
	}
	// One fewer sleep than attempts: waiting happens only between fetches.
	if got := deps.clock.sleepCount(); got != attempts-1 {
		t.Fatalf("unexpected sleep count: got=%d want=%d", got, attempts-1)
	}
	wantSlept := time.Duration(attempts-1) * svc.cfg.Transcripts.Delay()
	if got := deps.clock.slept(); got != wantSlept {
		t.Fatalf("unexpected total sleep: got=%v want=%v", got, wantSlept)
	}
}

func TestPollTranscriptRecoversAfterRetries(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	key := "transcriptions/videos/late.json"

	// The artifact shows up after the third wait, mid polling window.
	svc.clock = &appearAfterClock{
		after: 3,
		put: func() {
			deps.store.put(key, "application/json", []byte(`{"text":"better late"}`))
		},
	}

	text, found, err := svc.pollTranscript(context.Background(), "videos/late.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || text != "better late" {
		t.Fatalf("unexpected result: text=%q found=%v", text, found)
	}
	if got := deps.store.fetchCount(key); got != 4 {
		t.Fatalf("unexpected fetch count: got=%d want=4", got)
	}
}

// appearAfterClock makes the transcript artifact appear after a fixed number
// of waits.
type appearAfterClock struct {
	after int
	calls int
	put   func()
}

func (c *appearAfterClock) Sleep(ctx context.Context, d time.Duration) error {
	c.calls++
	if c.calls == c.after {
		c.put()
	}
	return ctx.Err()
}

func TestPollTranscriptUnrecognizedFormat(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	deps.store.put("transcriptions/videos/odd.json", "application/json", []byte(`{"status":"done"}`))

	text, found, err := svc.pollTranscript(context.Background(), "videos/odd.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected found result")
	}
	if text != transcriptNotRecognized {
		t.Fatalf("unexpected text: got=%q want=%q", text, transcriptNotRecognized)
	}
}

func TestPollTranscriptMalformedJSONConsumesAttempts(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	key := "transcriptions/videos/broken.json"
	deps.store.put(key, "application/json", []byte(`not json at all`))

	_, found, err := svc.pollTranscript(context.Background(), "videos/broken.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected exhaustion, got found")
	}
	if got := deps.store.fetchCount(key); got != svc.cfg.Transcripts.MaxAttempts {
		t.Fatalf("unexpected fetch count: got=%d want=%d", got, svc.cfg.Transcripts.MaxAttempts)
	}
}

func TestPollTranscriptCanceledContext(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := svc.pollTranscript(ctx, "videos/never.mp4")
	if err == nil {
		t.Fatal("expected context error")
	}
}
