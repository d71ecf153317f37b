package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/openprocurement/concord/internal/document"
)

// CouchFeedClient long-polls a CouchDB-shaped _changes feed filtered to the
// database-side view that nominates documents with conflicts. The view
// itself lives in the database; this adapter only speaks its wire shape.
type CouchFeedClient struct {
	baseURL    string
	httpClient *http.Client
	filter     string
	view       string
}

// NewCouchFeedClient constructs a feed client against baseURL (e.g.
// "http://localhost:5984/openprocurement"). httpClient should set a
// request timeout comfortably larger than the longpoll timeout passed to
// Poll; nil selects a 90s default.
func NewCouchFeedClient(baseURL string, httpClient *http.Client) *CouchFeedClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &CouchFeedClient{baseURL: baseURL, httpClient: httpClient, filter: "_view", view: "conflicts/all"}
}

type couchChangesResponse struct {
	Results []couchChangeRow `json:"results"`
	LastSeq string           `json:"last_seq"`
}

type couchChangeRow struct {
	ID  string            `json:"id"`
	Doc document.Document `json:"doc"`
}

// Poll issues one longpoll round against _changes, returning once CouchDB
// reports new results or timeout elapses.
func (c *CouchFeedClient) Poll(ctx context.Context, since string, timeout time.Duration) (Response, error) {
	q := url.Values{}
	q.Set("feed", "longpoll")
	q.Set("include_docs", "true")
	q.Set("conflicts", "true")
	q.Set("filter", c.filter)
	q.Set("view", c.view)
	q.Set("timeout", fmt.Sprintf("%d", timeout.Milliseconds()))
	if since != "" {
		q.Set("since", since)
	}

	u := fmt.Sprintf("%s/_changes?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Response{}, fmt.Errorf("feed: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("feed: changes request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Response{}, fmt.Errorf("feed: changes request failed: status %d", resp.StatusCode)
	}

	var parsed couchChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Response{}, fmt.Errorf("feed: decode changes response: %w", err)
	}

	out := Response{LastSeq: parsed.LastSeq, Results: make([]Record, len(parsed.Results))}
	for i, row := range parsed.Results {
		out.Results[i] = Record{ID: row.ID, Doc: row.Doc}
	}
	return out, nil
}
