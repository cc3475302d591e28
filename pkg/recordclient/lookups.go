package recordclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"hr-assistant-be/pkg/store"
)

var lookupPaths = map[store.LookupKind]string{
	store.LookupJobTitle:           "jobtitles/",
	store.LookupCity:               "cities/",
	store.LookupSource:             "sources/",
	store.LookupCommunicationSkill: "communicationskills/",
}

func isLookupKind(kind store.LookupKind) bool {
	_, ok := lookupPaths[kind]
	return ok
}

func (c *Client) ListLookups(ctx context.Context, token string, kind store.LookupKind) ([]Lookup, error) {
	path, ok := lookupPaths[kind]
	if !ok {
		return nil, fmt.Errorf("unknown lookup kind %q", kind)
	}
	var out Page[Lookup]
	if err := c.do(ctx, token, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// FindLookup resolves name against existing entries without creating one.
func (c *Client) FindLookup(ctx context.Context, token string, kind store.LookupKind, name string) (*Lookup, bool, error) {
	items, err := c.ListLookups(ctx, token, kind)
	if err != nil {
		return nil, false, err
	}
	match, ok := MatchLookup(items, name)
	return match, ok, nil
}

// GetOrCreateLookup resolves name, creating the entry when nothing matches.
func (c *Client) GetOrCreateLookup(ctx context.Context, token string, kind store.LookupKind, name string) (*Lookup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty %s name", kind)
	}
	match, ok, err := c.FindLookup(ctx, token, kind, name)
	if err != nil {
		return nil, err
	}
	if ok {
		return match, nil
	}

	var created Lookup
	if err := c.do(ctx, token, http.MethodPost, lookupPaths[kind], nil, map[string]string{"name": name}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// MatchLookup tries an exact case-insensitive match, then entries whose
// name contains the query, then entries whose name is contained in it.
func MatchLookup(items []Lookup, name string) (*Lookup, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil, false
	}
	for i := range items {
		if strings.ToLower(items[i].Name) == query {
			return &items[i], true
		}
	}
	for i := range items {
		if strings.Contains(strings.ToLower(items[i].Name), query) {
			return &items[i], true
		}
	}
	for i := range items {
		n := strings.ToLower(items[i].Name)
		if n != "" && strings.Contains(query, n) {
			return &items[i], true
		}
	}
	return nil, false
}
