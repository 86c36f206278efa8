// Package search queries the Google Custom Search JSON API for candidate
// question pages.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ziadkadry99/soassoc/internal/config"
)

// Item is one search hit.
type Item struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// URL returns the hit's link.
func (i Item) URL() string { return i.Link }

// Result is the search response. Items is nil when the engine found
// nothing; the API omits the field in that case.
type Result struct {
	Items             []Item `json:"items"`
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
}

// Found reports whether the response carries an items collection.
func (r *Result) Found() bool {
	return r != nil && r.Items != nil
}

// Engine runs a query. A nil result with a nil error means no response.
type Engine interface {
	Search(ctx context.Context, query string) (*Result, error)
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("search: status %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

// Client is the Custom Search implementation of Engine.
type Client struct {
	apiURL   string
	apiKey   string
	engineID string
	client   *http.Client
	log      *log.Logger
}

// NewClient creates a client from configuration. logger may be nil.
func NewClient(cfg config.SearchConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Client{
		apiURL:   cfg.APIURL,
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      logger,
	}
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	v := url.Values{}
	v.Set("key", c.apiKey)
	v.Set("cx", c.engineID)
	v.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	c.log.WithFields(log.Fields{
		"query":    query,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("search request")

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Message: string(data)}
		var body errorBody
		if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
			apiErr.Status = body.Error.Status
			apiErr.Message = body.Error.Message
		}
		return nil, apiErr
	}

	if len(data) == 0 {
		return nil, nil
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return &result, nil
}
