package searxng

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_radar/pkg/search"
)

func TestSearch_QueryParams(t *testing.T) {
	var gotPath, gotQ, gotFormat, gotCategories string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQ = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		gotCategories = r.URL.Query().Get("categories")
		json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer server.Close()

	c := NewClient(server.URL, 5)
	_, err := c.Search(context.Background(), &search.Request{Query: "bitcoin mining", Topic: "news"})
	require.NoError(t, err)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, "bitcoin mining", gotQ)
	assert.Equal(t, "json", gotFormat)
	assert.Equal(t, "news", gotCategories)
}

func TestSearch_GeneralCategoryFallback(t *testing.T) {
	var gotCategories string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCategories = r.URL.Query().Get("categories")
		json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer server.Close()

	c := NewClient(server.URL, 5)
	_, err := c.Search(context.Background(), &search.Request{Query: "hpc"})
	require.NoError(t, err)
	assert.Equal(t, "general", gotCategories)
}

func TestSearch_MapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchResponse{
			Results: []SearchResult{
				{Title: "A", URL: "https://a.example", Content: "a-body", ImgSrc: "https://img.example/a.png", PublishedDate: "2026-08-28T10:00:00Z", Score: 0.8},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, 5)
	resp, err := c.Search(context.Background(), &search.Request{Query: "hpc", Topic: "news"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	assert.Equal(t, "A", resp.Results[0].Title)
	assert.Equal(t, "a-body", resp.Results[0].Content)
	assert.Equal(t, "https://img.example/a.png", resp.Results[0].ImageURL)
	assert.Equal(t, "2026-08-28T10:00:00Z", resp.Results[0].PublishedDate)
	assert.Equal(t, 0.8, resp.Results[0].Score)
}

func TestSearch_NonOKStatusSurfacesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("blocked"))
	}))
	defer server.Close()

	c := NewClient(server.URL, 5)
	_, err := c.Search(context.Background(), &search.Request{Query: "hpc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "blocked")
}
