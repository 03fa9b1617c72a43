package metrika

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

const statEndpoint = "https://api-metrika.yandex.net/stat/v1/data"

// Params describes one stat/v1/data query.
type Params struct {
	Date1      string
	Date2      string
	Metrics    string
	Dimensions string
	Filters    string
	Sort       string
	Limit      int
}

// Row is one dimension breakdown row.
type Row struct {
	Dimensions []string
	Metrics    []float64
}

// Stats is a parsed Metrika response.
type Stats struct {
	Totals []float64
	Rows   []Row
}

// Client queries the Yandex Metrika reporting API.
type Client struct {
	token      string
	counterID  string
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Metrika client for one counter.
func NewClient(token, counterID string) *Client {
	return &Client{
		token:      token,
		counterID:  counterID,
		endpoint:   statEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Query runs a stats query and parses totals plus dimension rows.
func (c *Client) Query(ctx context.Context, p Params) (*Stats, error) {
	values := url.Values{}
	values.Set("ids", c.counterID)
	values.Set("date1", p.Date1)
	values.Set("date2", p.Date2)
	values.Set("metrics", p.Metrics)
	if p.Dimensions != "" {
		values.Set("dimensions", p.Dimensions)
	}
	if p.Filters != "" {
		values.Set("filters", p.Filters)
	}
	if p.Sort != "" {
		values.Set("sort", p.Sort)
	}
	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build metrika request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metrika request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metrika response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metrika returned status %d: %s", resp.StatusCode, gjson.GetBytes(body, "message").String())
	}

	stats := &Stats{}
	gjson.GetBytes(body, "totals").ForEach(func(_, v gjson.Result) bool {
		stats.Totals = append(stats.Totals, v.Float())
		return true
	})
	gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
		row := Row{}
		item.Get("dimensions").ForEach(func(_, d gjson.Result) bool {
			row.Dimensions = append(row.Dimensions, d.Get("name").String())
			return true
		})
		item.Get("metrics").ForEach(func(_, m gjson.Result) bool {
			row.Metrics = append(row.Metrics, m.Float())
			return true
		})
		stats.Rows = append(stats.Rows, row)
		return true
	})
	return stats, nil
}
