// Package client provides a client for the gradebook HTTP API, used by
// gradebookctl.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rollcall/gradebook/internal/aggregate"
	"github.com/rollcall/gradebook/internal/record"
)

// Client talks to one gradebookd instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is the JSON error body returned by the server.
type apiError struct {
	Error string `json:"error"`
}

// List returns all records.
func (c *Client) List(ctx context.Context) (record.Set, error) {
	var out struct {
		Records []struct {
			ID     string            `json:"id"`
			Name   string            `json:"name"`
			Fields map[string]string `json:"fields"`
		} `json:"records"`
	}
	if err := c.do(ctx, http.MethodGet, "/records", nil, &out); err != nil {
		return nil, err
	}
	set := make(record.Set, 0, len(out.Records))
	for _, r := range out.Records {
		set = append(set, record.Record{ID: r.ID, Name: r.Name, Fields: r.Fields})
	}
	return set, nil
}

// Get returns one record by identifier.
func (c *Client) Get(ctx context.Context, id string) (record.Record, error) {
	var out struct {
		ID     string            `json:"id"`
		Name   string            `json:"name"`
		Fields map[string]string `json:"fields"`
	}
	if err := c.do(ctx, http.MethodGet, "/records/"+url.PathEscape(id), nil, &out); err != nil {
		return record.Record{}, err
	}
	return record.Record{ID: out.ID, Name: out.Name, Fields: out.Fields}, nil
}

// Create adds a new record.
func (c *Client) Create(ctx context.Context, rec record.Record) error {
	body := map[string]any{
		"id":     rec.ID,
		"name":   rec.Name,
		"fields": rec.Fields,
	}
	return c.do(ctx, http.MethodPost, "/records", body, nil)
}

// Update applies a partial field update to a record.
func (c *Client) Update(ctx context.Context, id string, name *string, fields map[string]string) (record.Record, error) {
	body := map[string]any{}
	if name != nil {
		body["name"] = *name
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}

	var out struct {
		ID     string            `json:"id"`
		Name   string            `json:"name"`
		Fields map[string]string `json:"fields"`
	}
	if err := c.do(ctx, http.MethodPut, "/records/"+url.PathEscape(id), body, &out); err != nil {
		return record.Record{}, err
	}
	return record.Record{ID: out.ID, Name: out.Name, Fields: out.Fields}, nil
}

// Delete removes a record by identifier.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/records/"+url.PathEscape(id), nil, nil)
}

// Averages returns the derived average per record.
func (c *Client) Averages(ctx context.Context) ([]aggregate.Metric, error) {
	var out struct {
		StudentAverages []aggregate.Metric `json:"student_averages"`
	}
	if err := c.do(ctx, http.MethodGet, "/averages", nil, &out); err != nil {
		return nil, err
	}
	return out.StudentAverages, nil
}

// Summary returns the per-subject distribution statistics.
func (c *Client) Summary(ctx context.Context) ([]aggregate.SummaryStats, error) {
	var out struct {
		SubjectSummaries []aggregate.SummaryStats `json:"subject_summaries"`
	}
	if err := c.do(ctx, http.MethodGet, "/summary", nil, &out); err != nil {
		return nil, err
	}
	return out.SubjectSummaries, nil
}

// do performs one request/response cycle. Non-2xx responses are returned as
// errors carrying the server's error message.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
