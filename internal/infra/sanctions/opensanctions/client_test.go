package opensanctions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/risknet/internal/domain/entities"
	"github.com/bryanwahyu/risknet/internal/domain/sanctions"
)

func TestCheckParsesMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/default", r.URL.Path)
		assert.Equal(t, "John Smith", r.URL.Query().Get("q"))
		assert.Equal(t, "us", r.URL.Query().Get("countries"))
		assert.Equal(t, "Person", r.URL.Query().Get("schema"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{"id": "Q1", "caption": "John Smith", "schema": "Person",
				 "datasets": ["us_ofac_sdn"], "properties": {"topics": ["sanction"]}},
				{"id": "Q2", "caption": "Completely Different Name", "schema": "Person",
				 "datasets": ["eu_fsf"], "properties": {"topics": []}}
			],
			"total": {"value": 2}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	res, err := c.Check(context.Background(), "John Smith", "US", entities.KindPerson)
	require.NoError(t, err)

	assert.True(t, res.Matched)
	assert.Equal(t, 2, res.TotalMatches)
	assert.Equal(t, 1.0, res.HighestConfidence)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "Q1", res.Matches[0].ID)
	assert.Equal(t, []string{"sanction"}, res.Matches[0].Topics)
}

func TestCheckNoCloseMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"results": [
				{"id": "Q9", "caption": "Unrelated Person Entirely", "schema": "Person"}
			],
			"total": {"value": 1}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	res, err := c.Check(context.Background(), "John Smith", "", entities.KindPerson)
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestCheckUpstreamErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Check(context.Background(), "John Smith", "", entities.KindPerson)
	assert.ErrorIs(t, err, sanctions.ErrUnavailable)
}

func TestCheckNetworkErrorIsUnavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "")
	_, err := c.Check(context.Background(), "John Smith", "", entities.KindPerson)
	assert.ErrorIs(t, err, sanctions.ErrUnavailable)
}

func TestCheckCompanySchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Company", r.URL.Query().Get("schema"))
		w.Write([]byte(`{"results": [], "total": {"value": 0}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	res, err := c.Check(context.Background(), "Acme Corp", "", entities.KindCompany)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Zero(t, res.TotalMatches)
}

func TestNameSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, nameSimilarity("John Smith", "  john   SMITH "))
	assert.Equal(t, 0.0, nameSimilarity("John Smith", ""))
	partial := nameSimilarity("John Smith", "John A Smith")
	assert.Greater(t, partial, 0.5)
	assert.Less(t, partial, 1.0)
	assert.Equal(t, 0.0, nameSimilarity("John Smith", "Acme Corp"))
}
