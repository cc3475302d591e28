package recordclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hr-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", 2*time.Second, "Token")
}

func TestGetCandidateSendsTokenAndDecodesNestedRefs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/candidates/42/", r.URL.Path)
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 42, "first_name": "Ada", "last_name": "Obi", "email": "ada@x.io",
			"expected_salary": "85000.00", "years_of_experience": 4.5,
			"job_title": {"id": 3, "name": "Engineer"}, "city": 7, "source": null
		}`))
	})

	cand, err := c.GetCandidate(context.Background(), "secret", 42)
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", cand.FullName())
	require.NotNil(t, cand.ExpectedSalary)
	assert.Equal(t, Amount(85000), *cand.ExpectedSalary)
	assert.Equal(t, "Engineer", cand.JobTitle.String())
	assert.Equal(t, "7", cand.City.String())
	assert.Nil(t, cand.Source)
}

func TestErrorsAreClassifiedByStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		notFound   bool
		conflict   bool
		validation bool
		detail     string
	}{
		{name: "missing", status: 404, body: `{"detail":"Not found."}`, notFound: true, detail: "Not found."},
		{name: "duplicate", status: 409, body: `{"message":"candidate exists"}`, conflict: true, detail: "candidate exists"},
		{name: "field error", status: 400, body: `{"email":["Enter a valid email address."]}`, validation: true, detail: "email: Enter a valid email address."},
		{name: "server", status: 502, body: `<html>bad gateway</html>`, detail: "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			err := c.DeleteCandidate(context.Background(), "t", 1)
			require.Error(t, err)
			assert.Equal(t, tt.notFound, IsNotFound(err))
			assert.Equal(t, tt.conflict, IsConflict(err))
			assert.Equal(t, tt.validation, IsValidation(err))
			assert.Equal(t, tt.detail, Reason(err))
		})
	}
}

func TestListCandidatesAcceptsBareArrays(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ada", r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`[{"id":1,"first_name":"Ada"},{"id":2,"first_name":"Adaeze"}]`))
	})

	page, err := c.SearchCandidates(context.Background(), "", "ada")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	assert.Len(t, page.Results, 2)
}

func TestMatchLookupOrder(t *testing.T) {
	items := []Lookup{{ID: 1, Name: "Senior Software Engineer"}, {ID: 2, Name: "Engineer"}, {ID: 3, Name: "Sales"}}

	m, ok := MatchLookup(items, "engineer")
	require.True(t, ok)
	assert.Equal(t, 2, m.ID, "exact match wins")

	m, ok = MatchLookup(items, "software")
	require.True(t, ok)
	assert.Equal(t, 1, m.ID, "partial match")

	m, ok = MatchLookup(items, "Sales Manager")
	require.True(t, ok)
	assert.Equal(t, 3, m.ID, "reverse partial match")

	_, ok = MatchLookup(items, "Marketing")
	assert.False(t, ok)
}

func TestGetOrCreateLookupCreatesWhenMissing(t *testing.T) {
	var posts int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cities/", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"count":1,"results":[{"id":1,"name":"Lagos"}]}`))
		case http.MethodPost:
			atomic.AddInt32(&posts, 1)
			body, _ := io.ReadAll(r.Body)
			var in map[string]string
			assert.NoError(t, json.Unmarshal(body, &in))
			assert.Equal(t, "Nairobi", in["name"])
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":9,"name":"Nairobi"}`))
		}
	})

	got, err := c.GetOrCreateLookup(context.Background(), "t", store.LookupCity, "lagos")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ID)

	got, err = c.GetOrCreateLookup(context.Background(), "t", store.LookupCity, "Nairobi")
	require.NoError(t, err)
	assert.Equal(t, 9, got.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&posts))
}

func TestBuildPatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":4,"name":"LinkedIn"}]`))
	})
	ctx := context.Background()

	patch, err := c.BuildPatch(ctx, "t", "status", "Interview")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"candidate_stage": "Interview"}, patch)

	patch, err = c.BuildPatch(ctx, "t", "expected salary", "90,000")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"expected_salary": 90000.0}, patch)

	patch, err = c.BuildPatch(ctx, "t", "source", "linkedin")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"source": 4}, patch)

	_, err = c.BuildPatch(ctx, "t", "favourite colour", "blue")
	assert.Error(t, err)
}
