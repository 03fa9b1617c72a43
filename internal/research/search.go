package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	serpAPIEndpoint = "https://serpapi.com/search"

	// maxResults is the hard cap on returned hits regardless of what the
	// caller asks for.
	maxResults = 10

	// summarizeResults is how many hits SearchAndSummarize works from.
	summarizeResults = 5

	// NotFoundMessage is returned when a search produces no results.
	NotFoundMessage = "Информация по запросу не найдена."
)

// SearchResult is one organic search hit.
type SearchResult struct {
	Title   string
	Link    string
	Snippet string
}

// Summarizer produces a digest of search material. Satisfied by ai.Facade.
type Summarizer interface {
	GetText(ctx context.Context, prompt, systemPrompt string) string
}

// Client performs web search and page fetching.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a search client backed by SerpAPI.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		endpoint:   serpAPIEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Search runs a Google search and returns up to n organic results,
// capped at 10. Any failure yields an empty slice, never an error:
// research is a best-effort surface.
func (c *Client) Search(ctx context.Context, query string, n int) []SearchResult {
	if n <= 0 || n > maxResults {
		n = maxResults
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(n))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		logrus.WithError(err).Warn("failed to build search request")
		return nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).Warnf("search request failed for %q", query)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.Warnf("search returned status %d for %q", resp.StatusCode, query)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logrus.WithError(err).Warn("failed to read search response")
		return nil
	}

	var results []SearchResult
	gjson.GetBytes(body, "organic_results").ForEach(func(_, item gjson.Result) bool {
		results = append(results, SearchResult{
			Title:   item.Get("title").String(),
			Link:    item.Get("link").String(),
			Snippet: item.Get("snippet").String(),
		})
		return len(results) < n
	})
	return results
}

// FetchPage downloads a page and returns its readable text content,
// collapsed to single spaces and truncated to maxLen with a trailing
// ellipsis. Returns false when the page cannot be fetched or parsed.
func (c *Client) FetchPage(ctx context.Context, pageURL string, maxLen int) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; MarketerBot/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).Warnf("failed to fetch %s", pageURL)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		logrus.WithError(err).Warnf("failed to parse %s", pageURL)
		return "", false
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if maxLen > 0 {
		text = truncate(text, maxLen)
	}
	return text, true
}

// SearchAndSummarize searches, fetches the top pages and asks the model
// for a digest. Returns NotFoundMessage without calling the summarizer
// when the search comes back empty.
func (c *Client) SearchAndSummarize(ctx context.Context, summarizer Summarizer, systemPrompt, query string) string {
	results := c.Search(ctx, query, summarizeResults)
	if len(results) == 0 {
		return NotFoundMessage
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Search results for the query %q:\n\n", query))
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("%d. %s\n%s\n%s\n", i+1, r.Title, r.Link, r.Snippet))
		if i < 3 {
			if content, ok := c.FetchPage(ctx, r.Link, 3000); ok && content != "" {
				sb.WriteString("Page content: " + truncate(content, 300) + "\n")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Summarize this information and highlight the key points relevant to the query.")

	return summarizer.GetText(ctx, sb.String(), systemPrompt)
}

// truncate cuts text to at most max runes, appending an ellipsis when
// anything was dropped.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
