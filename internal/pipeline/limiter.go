package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"medintake/internal/config"
)

// Limiter bounds in-flight calls per provider with a counting semaphore per
// key. Keys are namespaced identifiers such as "ocr/mistral" or "llm/openai".
// Keys without an explicit limit use the default.
type Limiter struct {
	mu     sync.Mutex
	def    int64
	limits map[string]int64
	sems   map[string]*semaphore.Weighted
}

// NewLimiter creates a limiter with the given default per-key limit.
func NewLimiter(def int) *Limiter {
	if def <= 0 {
		def = 1
	}
	return &Limiter{
		def:    int64(def),
		limits: map[string]int64{},
		sems:   map[string]*semaphore.Weighted{},
	}
}

// NewLimiterFromConfig creates a limiter with per-provider limits taken from
// the application config.
func NewLimiterFromConfig(cfg *config.Config) *Limiter {
	l := NewLimiter(cfg.Pipeline.DefaultMaxConcurrent)
	l.SetLimit("ocr/mistral", cfg.OCR.Mistral.MaxConcurrent)
	l.SetLimit("ocr/gemini", cfg.OCR.Gemini.MaxConcurrent)
	l.SetLimit("llm/gemini", cfg.LLM.Gemini.MaxConcurrent)
	l.SetLimit("llm/openai", cfg.LLM.OpenAI.MaxConcurrent)
	return l
}

// SetLimit sets the limit for a key. Non-positive limits are ignored and the
// default applies. Must be called before the key's first Acquire.
func (l *Limiter) SetLimit(key string, n int) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits[key] = int64(n)
}

// Limit returns the effective limit for a key.
func (l *Limiter) Limit(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n, ok := l.limits[key]; ok {
		return int(n)
	}
	return int(l.def)
}

// Acquire blocks until a slot for key is free or ctx is done. On success it
// returns a release func the caller must invoke exactly once.
func (l *Limiter) Acquire(ctx context.Context, key string) (func(), error) {
	sem := l.semFor(key)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() { sem.Release(1) })
	}, nil
}

func (l *Limiter) semFor(key string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	if sem, ok := l.sems[key]; ok {
		return sem
	}
	n := l.def
	if lim, ok := l.limits[key]; ok {
		n = lim
	}
	sem := semaphore.NewWeighted(n)
	l.sems[key] = sem
	return sem
}
