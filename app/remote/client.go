// Package remote implements client for capture endpoints of the archiving service
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/capwatch/app/capture"
)

const maxBodySize = 1024 * 1024

// StatusError returned for any response status other than 200
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code %d", e.Method, e.URL, e.Code)
}

// Client talks to the archiving service. All paths are relative to Prefix.
type Client struct {
	prefix    string
	csrfToken string
	http      *http.Client
}

// Params for New
type Params struct {
	Prefix    string // base url with optional path prefix, e.g. http://localhost:8080/api
	CSRFToken string // sent as X-CSRFToken with mutating requests if not empty
	Timeout   time.Duration
}

// New makes a client. Zero timeout leaves http client default (no timeout).
func New(p Params) *Client {
	return &Client{
		prefix:    strings.TrimSuffix(p.Prefix, "/"),
		csrfToken: p.CSRFToken,
		http:      &http.Client{Timeout: p.Timeout},
	}
}

// List returns current snapshot of all jobs
func (c *Client) List(ctx context.Context) ([]capture.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.prefix+"/captures", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Jobs []capture.Job `json:"jobs"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse jobs response: %w", err)
	}
	return resp.Jobs, nil
}

// Submit queues capture of urls, all tagged with tag
func (c *Client) Submit(ctx context.Context, urls []string, tag string) error {
	payload, err := json.Marshal(struct {
		URLs []string `json:"urls"`
		Tag  string   `json:"tag"`
	}{URLs: urls, Tag: tag})
	if err != nil {
		return fmt.Errorf("failed to encode capture request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.prefix+"/captures", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCSRF(req)

	_, err = c.do(req)
	return err
}

// Delete removes a single job instance
func (c *Client) Delete(ctx context.Context, key capture.Key) error {
	u := c.prefix + "/capture/" + url.PathEscape(key.JobID) + "/" + strconv.Itoa(key.Index)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setCSRF(req)

	_, err = c.do(req)
	return err
}

// Probe makes HEAD request to accessURL and returns its content length
func (c *Client) Probe(ctx context.Context, accessURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, accessURL, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to probe %s: %w", accessURL, err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return 0, &StatusError{Method: req.Method, URL: accessURL, Code: resp.StatusCode}
	}

	// ContentLength is -1 if unknown
	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("no content length for %s", accessURL)
	}
	return resp.ContentLength, nil
}

// do sends request and returns body of 200 response
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s %s: %w", req.Method, req.URL, err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Method: req.Method, URL: req.URL.String(), Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func (c *Client) setCSRF(req *http.Request) {
	if c.csrfToken != "" {
		req.Header.Set("X-CSRFToken", c.csrfToken)
	}
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		log.Printf("[WARN] failed to close response body: %v", err)
	}
}
