package bulk

import (
	"context"
	"strings"

	"hr-assistant-be/pkg/store"
)

// lookupCache memoizes get-or-create results for the duration of one batch.
type lookupCache struct {
	records Records
	token   string
	ids     map[string]int
}

func newLookupCache(records Records, token string) *lookupCache {
	return &lookupCache{records: records, token: token, ids: make(map[string]int)}
}

func (c *lookupCache) resolve(ctx context.Context, kind store.LookupKind, name string) (int, error) {
	key := string(kind) + "\x00" + strings.ToLower(strings.TrimSpace(name))
	if id, ok := c.ids[key]; ok {
		return id, nil
	}
	l, err := c.records.GetOrCreateLookup(ctx, c.token, kind, name)
	if err != nil {
		return 0, err
	}
	c.ids[key] = l.ID
	return l.ID, nil
}
