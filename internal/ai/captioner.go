package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxAttempts = 6
	DefaultBaseDelay   = time.Second
)

// errRateWait marks a limiter refusal, e.g. when the next slot lies beyond
// the context deadline. The limiter is shared by every candidate.
var errRateWait = errors.New("rate limiter wait")

// Candidate is one backend/model pair the captioner may call.
type Candidate struct {
	Backend Backend
	Model   string
}

func (c Candidate) String() string { return c.Backend.Name() + "/" + c.Model }

// ParseCandidates resolves "provider/model" strings against the configured
// backends, keeping their order.
func ParseCandidates(specs []string, backends map[string]Backend) ([]Candidate, error) {
	var out []Candidate
	for _, s := range specs {
		provider, model, ok := strings.Cut(strings.TrimSpace(s), "/")
		if !ok || provider == "" || model == "" {
			return nil, fmt.Errorf("candidate %q: want provider/model", s)
		}
		b, found := backends[provider]
		if !found {
			return nil, fmt.Errorf("candidate %q: unknown provider %q", s, provider)
		}
		out = append(out, Candidate{Backend: b, Model: model})
	}
	if len(out) == 0 {
		return nil, errors.New("no caption candidates configured")
	}
	return out, nil
}

// Waiter is satisfied by *Limiter.
type Waiter interface {
	Wait(ctx context.Context) error
}

type CaptionerOptions struct {
	Limiter     Waiter
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      logrus.FieldLogger
}

// Captioner calls an ordered list of candidates with per-candidate retries.
// A candidate that succeeds after an earlier one failed moves to the front
// and stays there for later calls.
type Captioner struct {
	limiter     Waiter
	maxAttempts int
	baseDelay   time.Duration
	log         logrus.FieldLogger
	sleep       func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	candidates []Candidate
}

func NewCaptioner(candidates []Candidate, opts CaptionerOptions) (*Captioner, error) {
	if len(candidates) == 0 {
		return nil, errors.New("no caption candidates configured")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	cs := make([]Candidate, len(candidates))
	copy(cs, candidates)
	return &Captioner{
		limiter:     opts.Limiter,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		log:         opts.Logger,
		sleep:       sleepCtx,
		candidates:  cs,
	}, nil
}

// Candidates returns the current preference order.
func (c *Captioner) Candidates() []Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Candidate, len(c.candidates))
	copy(out, c.candidates)
	return out
}

func (c *Captioner) Describe(ctx context.Context, req Request) string {
	prompt := Prompt(req.Task, req.Context)
	log := c.log.WithField("task", req.Task.String())

	for _, cand := range c.Candidates() {
		out, err := c.try(ctx, cand, prompt, req, log.WithField("candidate", cand.String()))
		if err == nil {
			c.promote(cand)
			return out
		}
		if ctx.Err() != nil {
			log.WithError(ctx.Err()).Error("captioning cancelled")
			return ""
		}
		if errors.Is(err, errRateWait) {
			log.WithError(err).Error("rate limiter refused the call, skipping caption")
			return ""
		}
	}
	log.Error("all caption candidates failed, continuing without caption")
	return ""
}

// try runs up to maxAttempts calls against one candidate. A nil error means
// out holds a usable result.
func (c *Captioner) try(ctx context.Context, cand Candidate, prompt string, req Request, log logrus.FieldLogger) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("%w: %w", errRateWait, err)
			}
		}
		out, err := cand.Backend.Generate(ctx, cand.Model, prompt, req.Image, req.MIMEType)
		if err == nil {
			if out = strings.TrimSpace(out); out != "" {
				return out, nil
			}
			err = ErrEmptyResponse
		}
		lastErr = err
		if !IsTransient(err) {
			log.WithError(err).Warn("caption candidate failed, trying next")
			return "", err
		}
		if attempt == c.maxAttempts-1 {
			break
		}
		delay := c.baseDelay << attempt
		log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).Warn("transient caption failure, retrying")
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	log.WithError(lastErr).Warn("caption candidate exhausted its retries")
	return "", lastErr
}

func (c *Captioner) promote(cand Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cur := range c.candidates {
		if cur != cand {
			continue
		}
		if i > 0 {
			copy(c.candidates[1:i+1], c.candidates[:i])
			c.candidates[0] = cand
			c.log.WithField("candidate", cand.String()).Info("promoted caption candidate")
		}
		return
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
