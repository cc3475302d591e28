package memory

import (
	"context"
	"sync"
	"time"

	"hr-assistant-be/internal/model"
	"hr-assistant-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

const defaultActivityCap = 200

// ActivityStore keeps recent activity per session when no database is
// configured. Entries expire with the session idle TTL.
type ActivityStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	cap   int
	seen  *cache.Cache
}

var _ contract.ActivityEventRepository = (*ActivityStore)(nil)

func NewActivityStore(ttl time.Duration, capacity int) *ActivityStore {
	if capacity <= 0 {
		capacity = defaultActivityCap
	}
	return &ActivityStore{
		cache: cache.New(ttl, ttl/2+time.Minute),
		seen:  cache.New(ttl, ttl/2+time.Minute),
		cap:   capacity,
	}
}

func (s *ActivityStore) Create(ctx context.Context, event *model.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.seen.Add(event.EventID, struct{}{}, cache.DefaultExpiration); err != nil {
		return nil
	}
	var list []*model.ActivityEvent
	if x, ok := s.cache.Get(event.SessionID); ok {
		list = x.([]*model.ActivityEvent)
	}
	list = append(list, event)
	if len(list) > s.cap {
		list = append([]*model.ActivityEvent(nil), list[len(list)-s.cap:]...)
	}
	s.cache.SetDefault(event.SessionID, list)
	return nil
}

func (s *ActivityStore) FindBySession(ctx context.Context, sessionID string, limit int) ([]*model.ActivityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, ok := s.cache.Get(sessionID)
	if !ok {
		return []*model.ActivityEvent{}, nil
	}
	list := x.([]*model.ActivityEvent)
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]*model.ActivityEvent, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (s *ActivityStore) DeleteBySession(ctx context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}
