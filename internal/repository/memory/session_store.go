package memory

import (
	"context"
	"sync"
	"time"

	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "hr_sessions_active",
	Help: "Number of chat sessions held in memory",
})

// entry guards one session. evicted is set under mu by the reaper so that a
// caller that was waiting on mu retries with a fresh session.
type entry struct {
	mu      sync.Mutex
	session *store.Session
	evicted bool
}

// SessionStore keeps chat sessions in memory keyed by session id.
// Mutation of one session is serialized by its entry lock; different
// sessions proceed in parallel. Sessions are lost on restart.
type SessionStore struct {
	cache  *cache.Cache
	limits store.Limits
	ttl    time.Duration
	now    func() time.Time
	logger logger.ILogger
}

func NewSessionStore(limits store.Limits, ttl time.Duration, log logger.ILogger) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	// Expiry is driven by ExpireIdle only, so go-cache's janitor stays off.
	return &SessionStore{
		cache:  cache.New(cache.NoExpiration, 0),
		limits: limits,
		ttl:    ttl,
		now:    time.Now,
		logger: log,
	}
}

func (s *SessionStore) getOrCreate(id string) *entry {
	if x, found := s.cache.Get(id); found {
		return x.(*entry)
	}
	e := &entry{session: store.NewSession(id, s.limits, s.now())}
	if err := s.cache.Add(id, e, cache.NoExpiration); err != nil {
		// Lost the race to another creator.
		if x, found := s.cache.Get(id); found {
			return x.(*entry)
		}
		s.cache.Set(id, e, cache.NoExpiration)
	} else {
		activeSessions.Inc()
	}
	return e
}

// WithSession runs fn on the session for id, creating it if absent, while
// holding the per-session lock. The session is touched before fn runs.
func (s *SessionStore) WithSession(id string, fn func(*store.Session) error) error {
	if id == "" {
		id = store.DefaultSessionID
	}
	for {
		e := s.getOrCreate(id)
		e.mu.Lock()
		if e.evicted {
			e.mu.Unlock()
			continue
		}
		e.session.Touch(s.now())
		err := fn(e.session)
		e.mu.Unlock()
		return err
	}
}

// Touch refreshes the idle timer of an existing session.
func (s *SessionStore) Touch(id string) bool {
	x, found := s.cache.Get(id)
	if !found {
		return false
	}
	e := x.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return false
	}
	e.session.Touch(s.now())
	return true
}

func (s *SessionStore) Exists(id string) bool {
	_, found := s.cache.Get(id)
	return found
}

func (s *SessionStore) Len() int {
	return s.cache.ItemCount()
}

// Clear removes a session. It waits for any in-flight mutation to finish.
func (s *SessionStore) Clear(id string) bool {
	x, found := s.cache.Get(id)
	if !found {
		return false
	}
	e := x.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return false
	}
	e.evicted = true
	s.cache.Delete(id)
	activeSessions.Dec()
	return true
}

// ExpireIdle evicts sessions untouched for longer than ttl and returns how
// many were removed. Each candidate is locked before its age is checked.
func (s *SessionStore) ExpireIdle(now time.Time, ttl time.Duration) int {
	removed := 0
	for id, item := range s.cache.Items() {
		e, ok := item.Object.(*entry)
		if !ok {
			continue
		}
		e.mu.Lock()
		if !e.evicted && now.Sub(e.session.LastTouched) > ttl {
			e.evicted = true
			s.cache.Delete(id)
			activeSessions.Dec()
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// StartReaper evicts idle sessions every interval until ctx is done.
func (s *SessionStore) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.ExpireIdle(s.now(), s.ttl); n > 0 {
					s.logger.Info("SESSION", "Evicted idle sessions", map[string]interface{}{
						"count":     n,
						"remaining": s.Len(),
					})
				}
			}
		}
	}()
}
