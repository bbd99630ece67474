package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	timer    *time.Timer
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key (visitor IP or user id).
// A bucket is dropped after it has been idle for the expiration time.
type KeyedLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*entry
	limit      rate.Limit
	burst      int
	expiration time.Duration
	now        func() time.Time
}

func New(perSecond float64, burst int, expiration time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		limiters:   make(map[string]*entry),
		limit:      rate.Limit(perSecond),
		burst:      burst,
		expiration: expiration,
		now:        time.Now,
	}
}

func (kl *KeyedLimiter) get(key string) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	e, ok := kl.limiters[key]
	if ok {
		e.lastSeen = kl.now()
		return e.limiter
	}
	e = &entry{limiter: rate.NewLimiter(kl.limit, kl.burst), lastSeen: kl.now()}
	e.timer = time.AfterFunc(kl.expiration, func() { kl.evict(key, e) })
	kl.limiters[key] = e
	return e.limiter
}

// evict runs when an entry's timer fires. An entry used since the timer was
// armed is kept and the timer re-armed for the rest of its idle window.
func (kl *KeyedLimiter) evict(key string, e *entry) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	// the key may have been re-created or stopped after this timer fired
	if kl.limiters[key] != e {
		return
	}
	if idle := kl.now().Sub(e.lastSeen); idle < kl.expiration {
		e.timer.Reset(kl.expiration - idle)
		return
	}
	delete(kl.limiters, key)
}

// Allow reports whether one more request for key fits in its bucket.
func (kl *KeyedLimiter) Allow(key string) bool {
	return kl.get(key).Allow()
}

// Len is the number of live buckets.
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.limiters)
}

// Stop cancels every expiration timer.
func (kl *KeyedLimiter) Stop() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, e := range kl.limiters {
		e.timer.Stop()
		delete(kl.limiters, key)
	}
}
