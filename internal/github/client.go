// Package github is the transport boundary: a thin REST client that
// fetches a repository's issues and pull requests page by page, using
// conditional requests so unchanged pages cost no bandwidth and no
// rate-limit budget.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mlowell/hubmirror/internal/item"
)

// FetchParams narrows an item listing at the API level.
type FetchParams struct {
	State   string // open, closed, or all
	PerPage int
}

func (p FetchParams) values() url.Values {
	v := url.Values{}
	state := strings.TrimSpace(p.State)
	if state == "" {
		state = "all"
	}
	v.Set("state", state)
	per := p.PerPage
	if per <= 0 {
		per = defaultPerPage
	}
	v.Set("per_page", strconv.Itoa(per))
	return v
}

// PageResult is one page's contribution to a reconciliation cycle.
// IsCached means the remote reported no change since the previous fetch
// and Items was served from the local response cache. Stale means the
// page failed to fetch outright and a previously cached body was
// substituted.
type PageResult struct {
	Items      []item.Item
	IsCached   bool
	Stale      bool
	TotalPages int
}

// Fetcher is the surface the synchronization core needs from the
// transport. Implemented by *Client; test doubles implement it too.
type Fetcher interface {
	FetchPage(ctx context.Context, params FetchParams, page int) (PageResult, error)
	CachedPage(params FetchParams, page int) (PageResult, bool)
	FetchReviews(ctx context.Context, number int) ([]item.Review, error)
	FetchAssignableUsers(ctx context.Context) ([]string, error)
	FetchLabels(ctx context.Context) ([]string, error)
}

var _ Fetcher = (*Client)(nil)

// Client talks to the GitHub REST API for one repository. Owner and
// repo are fields here rather than package state so several repository
// sessions can run side by side.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     string
	owner     string
	repo      string

	mu    sync.Mutex
	cache map[string]cachedPage
}

type cachedPage struct {
	etag       string
	items      []item.Item
	totalPages int
}

const (
	defaultAPIBase   = "https://api.github.com"
	defaultUserAgent = "hubmirror/0.1"
	defaultPerPage   = 100
	requestTimeout   = 15 * time.Second
)

// NewClient builds a client for owner/repo. apiBase is normally empty
// and defaults to the public API; token may be empty for anonymous
// access to public repositories.
func NewClient(apiBase, owner, repo, token string) (*Client, error) {
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(repo) == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		token:     strings.TrimSpace(token),
		owner:     owner,
		repo:      repo,
		cache:     make(map[string]cachedPage),
	}, nil
}

// FetchPage retrieves one page of the repository's issue/PR listing.
// Unchanged pages (HTTP 304 against the stored ETag) come back with
// IsCached set and the previously cached items, so callers keep a
// complete ID set without re-downloading anything.
func (c *Client) FetchPage(ctx context.Context, params FetchParams, page int) (PageResult, error) {
	if c == nil {
		return PageResult{}, fmt.Errorf("client is nil")
	}
	if page < 1 {
		page = 1
	}
	values := params.values()
	values.Set("page", strconv.Itoa(page))
	rel := &url.URL{
		Path:     fmt.Sprintf("/repos/%s/%s/issues", c.owner, c.repo),
		RawQuery: values.Encode(),
	}
	key := cacheKey(params, page)

	c.mu.Lock()
	cached, hasCached := c.cache[key]
	c.mu.Unlock()

	req, err := c.newRequest(ctx, rel)
	if err != nil {
		return PageResult{}, err
	}
	if hasCached && cached.etag != "" {
		req.Header.Set("If-None-Match", cached.etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return PageResult{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return PageResult{
			Items:      cloneItems(cached.items),
			IsCached:   true,
			TotalPages: cached.totalPages,
		}, nil
	case resp.StatusCode >= 400:
		return PageResult{}, fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}

	var payloads []issuePayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return PageResult{}, fmt.Errorf("decode page %d: %w", page, err)
	}
	items := make([]item.Item, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, p.toItem())
	}

	totalPages := lastPage(resp.Header.Get("Link"))
	if totalPages < page {
		totalPages = page
	}

	c.mu.Lock()
	c.cache[key] = cachedPage{
		etag:       resp.Header.Get("ETag"),
		items:      cloneItems(items),
		totalPages: totalPages,
	}
	c.mu.Unlock()

	return PageResult{Items: items, TotalPages: totalPages}, nil
}

// CachedPage returns the last successfully fetched body for the page,
// marked stale. Used by the sync cycle to degrade a single failed page
// to stale data instead of failing the whole cycle.
func (c *Client) CachedPage(params FetchParams, page int) (PageResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.cache[cacheKey(params, page)]
	if !ok {
		return PageResult{}, false
	}
	return PageResult{
		Items:      cloneItems(cached.items),
		IsCached:   true,
		Stale:      true,
		TotalPages: cached.totalPages,
	}, true
}

// FetchReviews lists the submitted reviews on one pull request.
func (c *Client) FetchReviews(ctx context.Context, number int) ([]item.Review, error) {
	var payload []reviewPayload
	rel := &url.URL{
		Path:     fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", c.owner, c.repo, number),
		RawQuery: url.Values{"per_page": {strconv.Itoa(defaultPerPage)}}.Encode(),
	}
	if err := c.getJSON(ctx, rel, &payload); err != nil {
		return nil, err
	}
	reviews := make([]item.Review, 0, len(payload))
	for _, r := range payload {
		reviews = append(reviews, r.toReview())
	}
	return reviews, nil
}

// FetchAssignableUsers lists the logins that issues in the repository
// can be assigned to.
func (c *Client) FetchAssignableUsers(ctx context.Context) ([]string, error) {
	var payload []userPayload
	rel := &url.URL{
		Path:     fmt.Sprintf("/repos/%s/%s/assignees", c.owner, c.repo),
		RawQuery: url.Values{"per_page": {strconv.Itoa(defaultPerPage)}}.Encode(),
	}
	if err := c.getJSON(ctx, rel, &payload); err != nil {
		return nil, err
	}
	logins := make([]string, 0, len(payload))
	for _, u := range payload {
		logins = append(logins, u.Login)
	}
	return logins, nil
}

// FetchLabels lists the repository's label names.
func (c *Client) FetchLabels(ctx context.Context) ([]string, error) {
	var payload []labelPayload
	rel := &url.URL{
		Path:     fmt.Sprintf("/repos/%s/%s/labels", c.owner, c.repo),
		RawQuery: url.Values{"per_page": {strconv.Itoa(defaultPerPage)}}.Encode(),
	}
	if err := c.getJSON(ctx, rel, &payload); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(payload))
	for _, l := range payload {
		names = append(names, l.Name)
	}
	return names, nil
}

func (c *Client) newRequest(ctx context.Context, rel *url.URL) (*http.Request, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, rel *url.URL, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	req, err := c.newRequest(ctx, rel)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func cacheKey(params FetchParams, page int) string {
	return params.values().Encode() + "&page=" + strconv.Itoa(page)
}

func cloneItems(items []item.Item) []item.Item {
	if len(items) == 0 {
		return nil
	}
	dup := make([]item.Item, len(items))
	for i, it := range items {
		dup[i] = it.Clone()
	}
	return dup
}

var lastPagePattern = regexp.MustCompile(`[?&]page=(\d+)[^>]*>;\s*rel="last"`)

// lastPage extracts the final page number from a Link header, or zero
// when the header is absent (single-page listings have no Link).
func lastPage(link string) int {
	m := lastPagePattern.FindStringSubmatch(link)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", apiBase, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
