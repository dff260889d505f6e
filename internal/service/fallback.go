package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/crmlens/crmlens/internal/interpreter"
	"github.com/crmlens/crmlens/internal/llm"
	"github.com/crmlens/crmlens/internal/observability"
)

// fallbackThreshold is the pattern confidence below which the LLM gets a
// second opinion.
const fallbackThreshold = 0.6

type fallbackCacheEntry struct {
	interp    *interpreter.Interpretation
	expiresAt time.Time
}

// fallbackCache holds LLM interpretations keyed by tenant + normalized
// question so repeated low-confidence questions do not re-bill.
type fallbackCache struct {
	mu    sync.RWMutex
	store map[string]fallbackCacheEntry
	sf    singleflight.Group // deduplicate concurrent calls for the same question
	ttl   time.Duration
}

func newFallbackCache(ttl time.Duration) *fallbackCache {
	return &fallbackCache{store: make(map[string]fallbackCacheEntry), ttl: ttl}
}

func (c *fallbackCache) get(key string) (*interpreter.Interpretation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.store[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.interp, true
}

func (c *fallbackCache) set(key string, interp *interpreter.Interpretation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = fallbackCacheEntry{interp: interp, expiresAt: time.Now().Add(c.ttl)}
}

// maybeFallback asks the LLM for a second opinion on low-confidence
// interpretations. The higher-confidence result wins; fallback failures
// never surface to the caller.
func (s *QueryService) maybeFallback(ctx context.Context, tenantID, question string, base *interpreter.Interpretation) (*interpreter.Interpretation, bool) {
	if base.Confidence >= fallbackThreshold {
		return base, false
	}

	key := tenantID + "\x00" + interpreter.Normalize(question)
	if cached, ok := s.cache.get(key); ok {
		return pickBetter(base, cached)
	}

	v, err, _ := s.cache.sf.Do(key, func() (interface{}, error) {
		// Double-check cache inside singleflight in case another goroutine
		// already populated it while we were waiting to enter.
		if cached, ok := s.cache.get(key); ok {
			return cached, nil
		}
		res, ferr := s.fallback.InterpretQuery(ctx, question)
		if errors.Is(ferr, llm.ErrDisabled) {
			return nil, ferr
		}
		observability.ObserveFallback(ferr != nil)
		if ferr != nil {
			return nil, ferr
		}
		s.cache.set(key, res)
		return res, nil
	})
	if err != nil {
		if !errors.Is(err, llm.ErrDisabled) {
			log.Warn().Err(err).Msg("fallback interpretation failed")
		}
		return base, false
	}
	return pickBetter(base, v.(*interpreter.Interpretation))
}

func pickBetter(base, candidate *interpreter.Interpretation) (*interpreter.Interpretation, bool) {
	if candidate != nil && candidate.Confidence > base.Confidence {
		return candidate, true
	}
	return base, false
}
