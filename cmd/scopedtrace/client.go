package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	jsoniter "github.com/json-iterator/go"
)

// client talks to a running debug server. Only idempotent requests are
// retried.
type client struct {
	base string
	http *httpclient.Client
	once *httpclient.Client
}

func newClient(base string, retries int) *client {
	backoff := heimdall.NewConstantBackoff(100*time.Millisecond, 50*time.Millisecond)
	return &client{
		base: strings.TrimRight(base, "/"),
		http: httpclient.NewClient(
			httpclient.WithHTTPTimeout(30*time.Second),
			httpclient.WithRetryCount(retries),
			httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		),
		once: httpclient.NewClient(httpclient.WithHTTPTimeout(30 * time.Second)),
	}
}

// WaitReady polls the health endpoint until the server answers.
func (c *client) WaitReady() error {
	resp, err := c.http.Get(c.base+"/health", http.Header{})
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("server is not ready: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("server is not ready: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Collect asks the server to run w and returns the summary of the stored
// trace.
func (c *client) Collect(w Workload) (traceSummary, error) {
	body, err := jsoniter.Marshal(w)
	if err != nil {
		return traceSummary{}, err
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	resp, err := c.once.Post(c.base+"/traces", bytes.NewReader(body), headers)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return traceSummary{}, fmt.Errorf("can't collect trace: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return traceSummary{}, fmt.Errorf("can't collect trace: unexpected status %d", resp.StatusCode)
	}
	var s traceSummary
	if err := jsoniter.NewDecoder(resp.Body).Decode(&s); err != nil {
		return traceSummary{}, fmt.Errorf("can't decode trace summary: %w", err)
	}
	return s, nil
}

// Fetch returns a stored trace encoded in format.
func (c *client) Fetch(traceID, format string) ([]byte, error) {
	u := c.base + "/traces/" + url.PathEscape(traceID) + "?format=" + url.QueryEscape(format)
	resp, err := c.http.Get(u, http.Header{})
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("can't fetch trace %s: %w", traceID, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("can't fetch trace %s: unexpected status %d: %s", traceID, resp.StatusCode, bytes.TrimSpace(b))
	}
	return b, nil
}
