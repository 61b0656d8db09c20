package ai

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type reply struct {
	out string
	err error
}

// fakeBackend answers from a script; the last reply repeats once the script
// runs out.
type fakeBackend struct {
	name    string
	replies []reply

	mu     sync.Mutex
	calls  int
	models []string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Generate(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = append(f.models, model)
	i := f.calls
	f.calls++
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i].out, f.replies[i].err
}

func (f *fakeBackend) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type countingWaiter struct {
	mu    sync.Mutex
	waits int
}

func (w *countingWaiter) Wait(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waits++
	return ctx.Err()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestCaptioner(t *testing.T, w Waiter, maxAttempts int, cands ...Candidate) (*Captioner, *[]time.Duration) {
	t.Helper()
	c, err := NewCaptioner(cands, CaptionerOptions{
		Limiter:     w,
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Second,
		Logger:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewCaptioner() unexpected error: %v", err)
	}
	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return c, &sleeps
}

var (
	errUnavailable = &StatusError{Provider: "fake", Code: 503, Err: errors.New("overloaded")}
	errBadRequest  = &StatusError{Provider: "fake", Code: 400, Err: errors.New("bad image")}
)

func TestCaptionerFallsBackAfterRetries(t *testing.T) {
	a := &fakeBackend{name: "a", replies: []reply{{err: errUnavailable}}}
	b := &fakeBackend{name: "b", replies: []reply{{out: "  a bar chart  "}}}
	w := &countingWaiter{}
	c, sleeps := newTestCaptioner(t, w, 3, Candidate{a, "m1"}, Candidate{b, "m2"})

	got := c.Describe(context.Background(), Request{Image: []byte("img")})
	if got != "a bar chart" {
		t.Errorf("Describe() = %q, want %q", got, "a bar chart")
	}
	if a.Calls() != 3 {
		t.Errorf("first candidate calls = %d, want 3", a.Calls())
	}
	if b.Calls() != 1 {
		t.Errorf("second candidate calls = %d, want 1", b.Calls())
	}
	if w.waits != 4 {
		t.Errorf("limiter waits = %d, want 4", w.waits)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("backoff sleeps = %v, want %v", *sleeps, want)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, (*sleeps)[i], want[i])
		}
	}
	if first := c.Candidates()[0]; first.Backend != b {
		t.Errorf("Candidates()[0] = %s, want b/m2", first)
	}
}

func TestCaptionerPromotionPersists(t *testing.T) {
	a := &fakeBackend{name: "a", replies: []reply{{err: errBadRequest}}}
	b := &fakeBackend{name: "b", replies: []reply{{out: "caption"}}}
	c, _ := newTestCaptioner(t, nil, 3, Candidate{a, "m1"}, Candidate{b, "m2"})

	ctx := context.Background()
	c.Describe(ctx, Request{})
	c.Describe(ctx, Request{})

	if a.Calls() != 1 {
		t.Errorf("demoted candidate calls = %d, want 1", a.Calls())
	}
	if b.Calls() != 2 {
		t.Errorf("promoted candidate calls = %d, want 2", b.Calls())
	}
	order := c.Candidates()
	if order[0].Backend != b || order[1].Backend != a {
		t.Errorf("Candidates() = [%s %s], want [b/m2 a/m1]", order[0], order[1])
	}
}

func TestCaptionerAttempts(t *testing.T) {
	tests := []struct {
		name       string
		first      []reply
		second     []reply
		want       string
		wantFirst  int
		wantSecond int
	}{
		{
			name:       "permanent error skips remaining attempts",
			first:      []reply{{err: errBadRequest}},
			second:     []reply{{out: "ok"}},
			want:       "ok",
			wantFirst:  1,
			wantSecond: 1,
		},
		{
			name:       "empty output moves to next candidate",
			first:      []reply{{out: "   "}},
			second:     []reply{{out: "ok"}},
			want:       "ok",
			wantFirst:  1,
			wantSecond: 1,
		},
		{
			name:       "transient error then success on same candidate",
			first:      []reply{{err: errUnavailable}, {out: "ok"}},
			second:     []reply{{out: "unused"}},
			want:       "ok",
			wantFirst:  2,
			wantSecond: 0,
		},
		{
			name:       "every candidate exhausted",
			first:      []reply{{err: errUnavailable}},
			second:     []reply{{err: &StatusError{Provider: "fake", Code: 429}}},
			want:       "",
			wantFirst:  4,
			wantSecond: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &fakeBackend{name: "a", replies: tt.first}
			b := &fakeBackend{name: "b", replies: tt.second}
			c, _ := newTestCaptioner(t, nil, 4, Candidate{a, "m"}, Candidate{b, "m"})

			got := c.Describe(context.Background(), Request{})
			if got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
			if a.Calls() != tt.wantFirst {
				t.Errorf("first candidate calls = %d, want %d", a.Calls(), tt.wantFirst)
			}
			if b.Calls() != tt.wantSecond {
				t.Errorf("second candidate calls = %d, want %d", b.Calls(), tt.wantSecond)
			}
		})
	}
}

func TestCaptionerCancelled(t *testing.T) {
	a := &fakeBackend{name: "a", replies: []reply{{out: "never"}}}
	c, _ := newTestCaptioner(t, &countingWaiter{}, 3, Candidate{a, "m"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := c.Describe(ctx, Request{}); got != "" {
		t.Errorf("Describe() = %q, want empty", got)
	}
	if a.Calls() != 0 {
		t.Errorf("backend calls = %d, want 0", a.Calls())
	}
}

func TestCaptionerSendsModelAndDefaults(t *testing.T) {
	a := &fakeBackend{name: "a", replies: []reply{{out: "x"}}}
	c, err := NewCaptioner([]Candidate{{a, "gemini-2.0-flash"}}, CaptionerOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewCaptioner() unexpected error: %v", err)
	}
	if c.maxAttempts != DefaultMaxAttempts || c.baseDelay != DefaultBaseDelay {
		t.Errorf("defaults = (%d, %v), want (%d, %v)", c.maxAttempts, c.baseDelay, DefaultMaxAttempts, DefaultBaseDelay)
	}
	c.Describe(context.Background(), Request{})
	if len(a.models) != 1 || a.models[0] != "gemini-2.0-flash" {
		t.Errorf("models sent = %v, want [gemini-2.0-flash]", a.models)
	}

	if _, err := NewCaptioner(nil, CaptionerOptions{}); err == nil {
		t.Error("NewCaptioner(nil) expected error, got nil")
	}
}

func TestParseCandidates(t *testing.T) {
	backends := map[string]Backend{
		"gemini": &fakeBackend{name: "gemini"},
		"openai": &fakeBackend{name: "openai"},
	}
	tests := []struct {
		name      string
		specs     []string
		want      []string
		wantError bool
	}{
		{
			name:  "ordered pairs",
			specs: []string{"gemini/gemini-2.0-flash", " openai/gemini-1.5-flash "},
			want:  []string{"gemini/gemini-2.0-flash", "openai/gemini-1.5-flash"},
		},
		{name: "missing model", specs: []string{"gemini"}, wantError: true},
		{name: "empty model", specs: []string{"gemini/"}, wantError: true},
		{name: "unknown provider", specs: []string{"claude/x"}, wantError: true},
		{name: "empty list", specs: nil, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCandidates(tt.specs, backends)
			if tt.wantError {
				if err == nil {
					t.Errorf("ParseCandidates() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCandidates() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseCandidates() returned %d candidates, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].String() != tt.want[i] {
					t.Errorf("candidate[%d] = %q, want %q", i, got[i].String(), tt.want[i])
				}
			}
		})
	}
}

func TestCaptionerLimiterRefusalStopsCall(t *testing.T) {
	l, err := NewLimiter(1)
	if err != nil {
		t.Fatalf("NewLimiter() unexpected error: %v", err)
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() unexpected error: %v", err)
	}

	a := &fakeBackend{name: "a", replies: []reply{{out: "never"}}}
	b := &fakeBackend{name: "b", replies: []reply{{out: "never"}}}
	logger, hook := test.NewNullLogger()
	c, err := NewCaptioner([]Candidate{{a, "m"}, {b, "m"}}, CaptionerOptions{Limiter: l, Logger: logger})
	if err != nil {
		t.Fatalf("NewCaptioner() unexpected error: %v", err)
	}

	// The next slot is a minute away, past this deadline.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if got := c.Describe(ctx, Request{}); got != "" {
		t.Errorf("Describe() = %q, want empty", got)
	}
	if a.Calls() != 0 || b.Calls() != 0 {
		t.Errorf("backend calls = (%d, %d), want (0, 0)", a.Calls(), b.Calls())
	}
	for _, e := range hook.AllEntries() {
		if e.Message == "all caption candidates failed, continuing without caption" {
			t.Errorf("logged %q for a limiter refusal", e.Message)
		}
	}
	if last := hook.LastEntry(); last == nil || last.Level != logrus.ErrorLevel {
		t.Errorf("last log entry = %+v, want an error about the limiter", last)
	}
}
