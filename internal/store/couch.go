package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openprocurement/concord/internal/concordlog"
	"github.com/openprocurement/concord/internal/document"
)

// CouchClient talks to a CouchDB-shaped multi-master HTTP API: documents
// keyed by _id/_rev, bulk updates via _bulk_docs, tombstones expressed as
// {_id, _rev, _deleted: true}.
type CouchClient struct {
	baseURL    string
	httpClient *http.Client
	maxElapsed time.Duration
}

// NewCouchClient constructs a client against baseURL (e.g.
// "http://localhost:5984/tenders"). httpClient may be nil to use
// http.DefaultClient.
func NewCouchClient(baseURL string, httpClient *http.Client, maxElapsed time.Duration) *CouchClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxElapsed <= 0 {
		maxElapsed = 10 * time.Second
	}
	return &CouchClient{baseURL: baseURL, httpClient: httpClient, maxElapsed: maxElapsed}
}

func (c *CouchClient) retryOpts() []backoff.RetryOption {
	return []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(c.maxElapsed),
	}
}

// Get fetches a specific historical revision body.
func (c *CouchClient) Get(ctx context.Context, id, rev string) (document.Document, error) {
	reqID := uuid.NewString()

	doc, err := backoff.Retry(ctx, func() (document.Document, error) {
		u := fmt.Sprintf("%s/%s?rev=%s", c.baseURL, url.PathEscape(id), url.QueryEscape(rev))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrTransport, err))
		}
		req.Header.Set("X-Request-Id", reqID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(fmt.Errorf("%w: %s@%s", ErrNotFound, id, rev))
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
		case resp.StatusCode >= 400:
			return nil, backoff.Permanent(fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode))
		}

		var doc document.Document
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: decode: %v", ErrTransport, err))
		}
		return doc, nil
	}, c.retryOpts()...)

	if err != nil {
		concordlog.Warn("store get failed", zap.String("request_id", reqID), zap.String("id", id), zap.String("rev", rev), zap.Error(err))
	}
	return doc, err
}

// couchPutResponse is CouchDB's document PUT/POST response shape.
type couchPutResponse struct {
	OK     bool   `json:"ok"`
	ID     string `json:"id"`
	Rev    string `json:"rev"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// Save atomically creates a new revision for doc.
func (c *CouchClient) Save(ctx context.Context, doc document.Document) (string, error) {
	id, _ := doc.ID()
	reqID := uuid.NewString()

	rev, err := backoff.Retry(ctx, func() (string, error) {
		body, err := json.Marshal(doc)
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("%w: encode: %v", ErrTransport, err))
		}

		u := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(id))
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("%w: %v", ErrTransport, err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-Id", reqID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTransport, err)
		}
		defer resp.Body.Close()

		var parsed couchPutResponse
		_ = json.NewDecoder(resp.Body).Decode(&parsed)

		switch {
		case resp.StatusCode == http.StatusConflict:
			return "", backoff.Permanent(fmt.Errorf("%w: %s", ErrConflict, parsed.Reason))
		case resp.StatusCode >= 500:
			return "", fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
		case resp.StatusCode >= 400:
			return "", backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, parsed.Reason))
		}
		return parsed.Rev, nil
	}, c.retryOpts()...)

	if err != nil {
		concordlog.Warn("store save failed", zap.String("request_id", reqID), zap.String("id", id), zap.Error(err))
	}
	return rev, err
}

type bulkDoc struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev"`
	Deleted bool   `json:"_deleted"`
}

type bulkRequestBody struct {
	Docs []bulkDoc `json:"docs"`
}

type bulkResponseItem struct {
	ID     string `json:"id"`
	Rev    string `json:"rev"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// BulkUpdate tombstones losing revisions via CouchDB's _bulk_docs endpoint.
// Per-item failures are reported in the returned slice rather than as an
// error; tombstone failures do not roll back an already-merged write.
func (c *CouchClient) BulkUpdate(ctx context.Context, reqs []TombstoneRequest) ([]BulkResult, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	reqID := uuid.NewString()

	body := bulkRequestBody{Docs: make([]bulkDoc, len(reqs))}
	for i, r := range reqs {
		body.Docs[i] = bulkDoc{ID: r.ID, Rev: r.Rev, Deleted: true}
	}

	results, err := backoff.Retry(ctx, func() ([]BulkResult, error) {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: encode: %v", ErrTransport, err))
		}

		u := c.baseURL + "/_bulk_docs"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrTransport, err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-Id", reqID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return nil, backoff.Permanent(fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode))
		}

		var items []bulkResponseItem
		if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: decode: %v", ErrTransport, err))
		}

		out := make([]BulkResult, len(items))
		for i, it := range items {
			out[i] = BulkResult{ID: it.ID, Rev: it.Rev, OK: it.Error == "", Error: it.Error}
		}
		return out, nil
	}, c.retryOpts()...)

	if err != nil {
		concordlog.Warn("store bulk tombstone failed", zap.String("request_id", reqID), zap.Int("count", len(reqs)), zap.Error(err))
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	concordlog.Info("store bulk tombstone", zap.String("request_id", reqID), zap.Int("count", len(results)), zap.Int("failed", failed))
	return results, nil
}
