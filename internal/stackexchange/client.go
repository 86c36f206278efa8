package stackexchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ziadkadry99/soassoc/internal/config"
	"github.com/ziadkadry99/soassoc/internal/question"
)

// Source looks questions up by joined ids ("1;2;3").
type Source interface {
	Questions(ctx context.Context, ids string, q Query) ([]question.Question, error)
}

// Client talks to the Stack Exchange API. It throttles requests to the
// configured rate and honors the backoff field of responses.
type Client struct {
	apiURL        string
	key           string
	filter        string
	answersFilter string
	client        *http.Client
	limiter       *rate.Limiter
	log           *log.Logger

	mu        sync.Mutex
	notBefore time.Time
}

// NewClient creates a client from configuration. logger may be nil.
func NewClient(cfg config.StackExchangeConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.StandardLogger()
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		apiURL:        strings.TrimRight(cfg.APIURL, "/"),
		key:           cfg.Key,
		filter:        cfg.Filter,
		answersFilter: cfg.AnswersFilter,
		client:        &http.Client{Timeout: cfg.Timeout},
		limiter:       rate.NewLimiter(limit, 1),
		log:           logger,
	}
}

// Questions fetches the questions with the given joined ids. An empty id
// string yields no items without a request; the API would otherwise list
// arbitrary questions.
func (c *Client) Questions(ctx context.Context, ids string, q Query) ([]question.Question, error) {
	if strings.TrimSpace(ids) == "" {
		return []question.Question{}, nil
	}

	endpoint := WithIDs(Endpoint(c.apiURL, c.key, c.filter, q), ids)
	var resp Wrapper[question.Question]
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching questions %s on %s: %w", ids, q.Site, err)
	}
	return resp.Items, nil
}

// Answers fetches answers by joined ids, sorted by votes.
func (c *Client) Answers(ctx context.Context, ids, site, accessToken string) (*Wrapper[Answer], error) {
	v := url.Values{}
	v.Set("site", site)
	v.Set("order", "desc")
	v.Set("sort", "votes")
	if c.answersFilter != "" {
		v.Set("filter", c.answersFilter)
	}
	c.authorize(v, accessToken)

	endpoint := WithIDs(c.apiURL+"/answers/"+IDPlaceholder, ids) + "?" + v.Encode()
	var resp Wrapper[Answer]
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching answers %s on %s: %w", ids, site, err)
	}
	return &resp, nil
}

// AddComment posts a comment on a post and returns the new comment id, or
// -1 when the response carries none.
func (c *Client) AddComment(ctx context.Context, postID int, body, site, accessToken string) (int, error) {
	form := url.Values{}
	form.Set("body", body)
	form.Set("site", site)
	form.Set("preview", "false")
	c.authorize(form, accessToken)

	endpoint := fmt.Sprintf("%s/posts/%d/comments/add", c.apiURL, postID)
	var resp Wrapper[Comment]
	if err := c.do(ctx, http.MethodPost, endpoint, form, &resp); err != nil {
		return -1, fmt.Errorf("adding comment to post %d on %s: %w", postID, site, err)
	}
	for _, item := range resp.Items {
		if item.CommentID > 0 {
			return item.CommentID, nil
		}
	}
	return -1, nil
}

// Me returns the account owning accessToken on site.
func (c *Client) Me(ctx context.Context, site, accessToken string) (*User, error) {
	v := url.Values{}
	v.Set("site", site)
	c.authorize(v, accessToken)

	var resp Wrapper[User]
	if err := c.do(ctx, http.MethodGet, c.apiURL+"/me?"+v.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "no user for access token"}
	}
	return &resp.Items[0], nil
}

func (c *Client) authorize(v url.Values, accessToken string) {
	if c.key != "" {
		v.Set("key", c.key)
	}
	if accessToken != "" {
		v.Set("access_token", accessToken)
	}
}

// do performs one request and decodes the envelope into out. out must be a
// *Wrapper[T].
func (c *Client) do(ctx context.Context, method, endpoint string, form url.Values, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.log.WithFields(log.Fields{
		"method":   method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("stackexchange request")

	var env Wrapper[json.RawMessage]
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode/100 != 2 {
			return &APIError{StatusCode: resp.StatusCode, Message: truncate(string(data), 200)}
		}
		return fmt.Errorf("decoding response: %w", err)
	}
	c.setBackoff(env.Backoff)

	if env.ErrorID != 0 || resp.StatusCode/100 != 2 {
		return &APIError{
			StatusCode: resp.StatusCode,
			ID:         env.ErrorID,
			Name:       env.ErrorName,
			Message:    env.ErrorMessage,
		}
	}

	if env.QuotaMax > 0 && env.QuotaRemaining < env.QuotaMax/20 {
		c.log.WithField("quota_remaining", env.QuotaRemaining).Warn("stackexchange quota running low")
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding items: %w", err)
	}
	return nil
}

// wait blocks until the limiter and any pending backoff allow a request.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	until := time.Until(c.notBefore)
	c.mu.Unlock()

	if until > 0 {
		timer := time.NewTimer(until)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) setBackoff(seconds int) {
	if seconds <= 0 {
		return
	}
	c.log.WithField("backoff", seconds).Info("stackexchange asked to back off")

	c.mu.Lock()
	defer c.mu.Unlock()
	next := time.Now().Add(time.Duration(seconds) * time.Second)
	if next.After(c.notBefore) {
		c.notBefore = next
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..." + strconv.Itoa(len(s)-n) + " more bytes"
}
