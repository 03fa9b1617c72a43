package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSummarizer struct {
	reply string
	calls int
}

func (s *stubSummarizer) GetText(_ context.Context, _, _ string) string {
	s.calls++
	return s.reply
}

func newTestClient(endpoint string) *Client {
	c := NewClient("test-key")
	c.endpoint = endpoint
	return c
}

func TestSearchParsesOrganicResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "google", r.URL.Query().Get("engine"))
		require.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"organic_results":[
			{"title":"First","link":"https://a.example","snippet":"aaa"},
			{"title":"Second","link":"https://b.example","snippet":"bbb"}
		]}`))
	}))
	defer srv.Close()

	results := newTestClient(srv.URL).Search(context.Background(), "anything", 10)
	require.Len(t, results, 2)
	require.Equal(t, "First", results[0].Title)
	require.Equal(t, "https://b.example", results[1].Link)
}

func TestSearchFailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	results := newTestClient(srv.URL).Search(context.Background(), "anything", 10)
	require.Empty(t, results)
}

func TestSearchCapsAtTenResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"organic_results":[
			{"title":"1"},{"title":"2"},{"title":"3"},{"title":"4"},{"title":"5"},
			{"title":"6"},{"title":"7"},{"title":"8"},{"title":"9"},{"title":"10"},
			{"title":"11"},{"title":"12"}
		]}`))
	}))
	defer srv.Close()

	// Requests above the cap, at zero and below zero all clamp to 10.
	client := newTestClient(srv.URL)
	require.Len(t, client.Search(context.Background(), "anything", 12), 10)
	require.Len(t, client.Search(context.Background(), "anything", 0), 10)
	require.Len(t, client.Search(context.Background(), "anything", -1), 10)
}

func TestSearchHonorsRequestedCount(t *testing.T) {
	var seenNum string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenNum = r.URL.Query().Get("num")
		w.Write([]byte(`{"organic_results":[
			{"title":"1"},{"title":"2"},{"title":"3"},{"title":"4"},{"title":"5"},{"title":"6"}
		]}`))
	}))
	defer srv.Close()

	results := newTestClient(srv.URL).Search(context.Background(), "anything", 3)
	require.Len(t, results, 3)
	require.Equal(t, "3", seenNum)
}

func TestSearchAndSummarizeEmptySkipsSummarizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"organic_results":[]}`))
	}))
	defer srv.Close()

	sum := &stubSummarizer{reply: "should not appear"}
	got := newTestClient(srv.URL).SearchAndSummarize(context.Background(), sum, "", "nothing")
	require.Equal(t, NotFoundMessage, got)
	require.Zero(t, sum.calls)
}

func TestFetchPageTruncatesAndCollapsesWhitespace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>t</title></head><body><article><p>hello   world
		this    is   spaced   out   text   for   the   reader   to   enjoy   today</p></article></body></html>`))
	}))
	defer srv.Close()

	text, ok := newTestClient(srv.URL).FetchPage(context.Background(), srv.URL, 20)
	require.True(t, ok)
	require.LessOrEqual(t, len([]rune(text)), 23)
	require.NotContains(t, text, "  ")
}

func TestFetchPageNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, ok := newTestClient(srv.URL).FetchPage(context.Background(), srv.URL, 100)
	require.False(t, ok)
}

func TestTruncateRuneSafe(t *testing.T) {
	require.Equal(t, "при...", truncate("привет", 3))
	require.Equal(t, "short", truncate("short", 10))
}
