package tavily

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

func TestSearch_RequestShapeAndAuth(t *testing.T) {
	var captured SearchRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer server.Close()

	c := NewClientWithBaseURL("test-key", server.URL)
	_, err := c.Search(context.Background(), &search.Request{
		Query:      "bitcoin mining efficiency",
		Topic:      "news",
		MaxResults: 10,
		StartDate:  "2026-08-23",
		EndDate:    "2026-08-30",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "bitcoin mining efficiency", captured.Query)
	assert.Equal(t, "news", captured.Topic)
	assert.Equal(t, 10, captured.MaxResults)
	assert.Equal(t, "basic", captured.SearchDepth)
	assert.True(t, captured.IncludeImages)
	assert.Equal(t, "2026-08-23", captured.StartDate)
	assert.Equal(t, "2026-08-30", captured.EndDate)
}

func TestSearch_MapsResultsAndImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchResponse{
			Results: []SearchResult{
				{Title: "A", URL: "https://a.example", Content: "a-body", Score: 0.91, PublishedDate: "2026-08-28"},
				{Title: "B", URL: "https://b.example", Content: "b-body", Score: 0.55},
			},
			Images: []string{"https://img.example/a.png"},
		})
	}))
	defer server.Close()

	c := NewClientWithBaseURL("test-key", server.URL)
	resp, err := c.Search(context.Background(), &search.Request{Query: "hpc"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	assert.Equal(t, "A", resp.Results[0].Title)
	assert.Equal(t, 0.91, resp.Results[0].Score)
	assert.Equal(t, "2026-08-28", resp.Results[0].PublishedDate)
	// 图片按下标对齐，不足时留空
	assert.Equal(t, "https://img.example/a.png", resp.Results[0].ImageURL)
	assert.Empty(t, resp.Results[1].ImageURL)
}

func TestSearch_NonOKStatusSurfacesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer server.Close()

	c := NewClientWithBaseURL("test-key", server.URL)
	_, err := c.Search(context.Background(), &search.Request{Query: "hpc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}
