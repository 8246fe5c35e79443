// Package reddit adapts Reddit's public JSON listing API to the PostSource
// port. Authentication-free read endpoints are used throughout.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"commentintel/internal/ports"
)

const (
	defaultBaseURL = "https://www.reddit.com"
	userAgent      = "commentintel/1.0 (competitive-intelligence pipeline)"

	// threadPageSize bounds the first comment request; deeper branches come
	// back as "more" stubs and are expanded separately.
	threadPageSize = 500

	// morechildren accepts at most 100 ids per call.
	moreChildrenPerCall = 100
)

// Client implements ports.PostSource over the Reddit JSON API.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.PostSource = (*Client)(nil)

// NewClient wires an HTTP client; baseURL defaults to the public API host
// and is overridable for tests.
func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: client}
}

// ListPosts returns up to limit submissions from a community under the
// requested sort order.
func (c *Client) ListPosts(ctx context.Context, community string, sort ports.SortMode, limit int) ([]ports.Post, error) {
	endpoint := fmt.Sprintf("%s/r/%s/%s.json?limit=%d&raw_json=1",
		c.baseURL, url.PathEscape(community), sort.Normalize(), limit)

	var listing thing
	if err := c.getJSON(ctx, endpoint, &listing); err != nil {
		return nil, fmt.Errorf("list r/%s: %w", community, err)
	}

	posts := make([]ports.Post, 0, len(listing.Data.Children))
	for _, ch := range listing.Data.Children {
		if ch.Kind != "t3" {
			continue
		}
		var data postData
		if err := json.Unmarshal(ch.Data, &data); err != nil {
			return nil, fmt.Errorf("decode post in r/%s: %w", community, err)
		}
		posts = append(posts, &post{client: c, data: data})
	}
	return posts, nil
}

// fetchComments loads a post's thread and expands every "more" stub until
// the tree is fully flattened.
func (c *Client) fetchComments(ctx context.Context, p postData) ([]ports.PostComment, error) {
	endpoint := fmt.Sprintf("%s/comments/%s.json?limit=%d&raw_json=1",
		c.baseURL, url.PathEscape(p.ID), threadPageSize)

	var listings []thing
	if err := c.getJSON(ctx, endpoint, &listings); err != nil {
		return nil, fmt.Errorf("fetch comments for %s: %w", p.ID, err)
	}
	if len(listings) < 2 {
		return nil, fmt.Errorf("comment payload for %s has %d listings, want 2", p.ID, len(listings))
	}

	var (
		flat    []ports.PostComment
		pending []string
	)
	if err := walkChildren(listings[1].Data.Children, &flat, &pending); err != nil {
		return nil, fmt.Errorf("post %s: %w", p.ID, err)
	}

	for len(pending) > 0 {
		n := min(len(pending), moreChildrenPerCall)
		ids := pending[:n]
		pending = pending[n:]

		endpoint := fmt.Sprintf("%s/api/morechildren.json?api_type=json&link_id=%s&children=%s&raw_json=1",
			c.baseURL, url.QueryEscape(p.Name), url.QueryEscape(strings.Join(ids, ",")))

		var resp moreChildrenResponse
		if err := c.getJSON(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("expand thread %s: %w", p.ID, err)
		}
		if err := walkChildren(resp.JSON.Data.Things, &flat, &pending); err != nil {
			return nil, fmt.Errorf("post %s: %w", p.ID, err)
		}
	}
	return flat, nil
}

// walkChildren flattens a comment forest depth-first, queuing "more" stubs
// for later expansion.
func walkChildren(children []child, flat *[]ports.PostComment, pending *[]string) error {
	for _, ch := range children {
		switch ch.Kind {
		case "t1":
			var data commentData
			if err := json.Unmarshal(ch.Data, &data); err != nil {
				return fmt.Errorf("decode comment: %w", err)
			}
			*flat = append(*flat, &comment{data: data})
			if nested := parseReplies(data.Replies); len(nested) > 0 {
				if err := walkChildren(nested, flat, pending); err != nil {
					return err
				}
			}
		case "more":
			var data moreData
			if err := json.Unmarshal(ch.Data, &data); err != nil {
				return fmt.Errorf("decode more stub: %w", err)
			}
			*pending = append(*pending, data.Children...)
		}
	}
	return nil
}

// parseReplies tolerates the API's habit of sending "" instead of an empty
// listing when a comment has no replies.
func parseReplies(raw json.RawMessage) []child {
	if len(raw) == 0 || string(raw) == `""` || string(raw) == "null" {
		return nil
	}
	var t thing
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil
	}
	return t.Data.Children
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
