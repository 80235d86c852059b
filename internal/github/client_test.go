package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mlowell/hubmirror/internal/item"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultAPIBase {
		t.Fatalf("base = %q, want %q", u.String(), defaultAPIBase)
	}

	u, err = parseBaseURL("ghe.example.com/api/v3/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestLastPage(t *testing.T) {
	tests := []struct {
		name string
		link string
		want int
	}{
		{"absent header", "", 0},
		{
			"next and last",
			`<https://api.github.com/repos/o/r/issues?page=2>; rel="next", <https://api.github.com/repos/o/r/issues?page=7>; rel="last"`,
			7,
		},
		{
			"last only",
			`<https://api.github.com/repos/o/r/issues?state=all&page=3>; rel="last"`,
			3,
		},
		{"malformed", `<nonsense>; rel="prev"`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lastPage(tt.link); got != tt.want {
				t.Fatalf("lastPage(%q) = %d, want %d", tt.link, got, tt.want)
			}
		})
	}
}

func TestClient_FetchPageDecodesItems(t *testing.T) {
	t.Parallel()

	var gotAuth, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		if r.URL.Path != "/repos/octo/widgets/issues" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("state"); got != "all" {
			t.Errorf("state param = %q, want all", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"number": 7, "node_id": "I_abc", "title": "Crash on save", "state": "open",
			 "user": {"login": "alice"}, "assignees": [{"login": "bob"}],
			 "labels": [{"name": "bug"}], "milestone": {"title": "v1.0"},
			 "created_at": "2024-04-01T10:00:00Z", "updated_at": "2024-04-02T10:00:00Z"},
			{"number": 8, "node_id": "PR_def", "title": "Fix crash", "state": "closed", "body": "patch",
			 "user": {"login": "carol"}, "draft": false,
			 "pull_request": {"merged_at": "2024-04-03T10:00:00Z"},
			 "created_at": "2024-04-01T10:00:00Z", "updated_at": "2024-04-03T10:00:00Z",
			 "closed_at": "2024-04-03T10:00:00Z"}
		]`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "octo", "widgets", "sekrit")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	result, err := c.FetchPage(ctx, FetchParams{}, 1)
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
	if gotAuth != "Bearer sekrit" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Fatalf("Accept = %q", gotAccept)
	}
	if len(result.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(result.Items))
	}

	issue := result.Items[0]
	if issue.ID != 7 || issue.GlobalID != "I_abc" || issue.Type != item.TypeIssue {
		t.Fatalf("issue = %+v", issue)
	}
	if issue.Description == "" {
		t.Fatal("empty body must normalize to a non-empty default description")
	}
	if issue.Milestone.Title != "v1.0" {
		t.Fatalf("milestone = %q, want v1.0", issue.Milestone.Title)
	}

	pr := result.Items[1]
	if pr.Type != item.TypePullRequest {
		t.Fatalf("pr type = %q, want pull_request", pr.Type)
	}
	if pr.State != item.StateMerged {
		t.Fatalf("pr state = %q, want merged (closed with merged_at)", pr.State)
	}
	if pr.Milestone.Title != item.NoMilestonePRTitle {
		t.Fatalf("pr milestone = %q, want PR sentinel", pr.Milestone.Title)
	}
	if result.TotalPages != 1 {
		t.Fatalf("TotalPages = %d, want 1 without a Link header", result.TotalPages)
	}
}

func TestClient_ConditionalRequestsReplayCache(t *testing.T) {
	t.Parallel()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"etag-1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"etag-1"`)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"number": 1, "title": "only item", "state": "open", "user": {"login": "a"},
			"created_at": "2024-04-01T10:00:00Z", "updated_at": "2024-04-01T10:00:00Z"}]`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "o", "r", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	first, err := c.FetchPage(ctx, FetchParams{}, 1)
	if err != nil {
		t.Fatalf("first FetchPage returned error: %v", err)
	}
	if first.IsCached {
		t.Fatal("first fetch reported IsCached")
	}

	second, err := c.FetchPage(ctx, FetchParams{}, 1)
	if err != nil {
		t.Fatalf("second FetchPage returned error: %v", err)
	}
	if !second.IsCached {
		t.Fatal("304 response did not report IsCached")
	}
	if len(second.Items) != 1 || second.Items[0].ID != 1 {
		t.Fatalf("cached replay items = %+v, want the original page body", second.Items)
	}
	if requests != 2 {
		t.Fatalf("server saw %d requests, want 2", requests)
	}
}

func TestClient_CachedPageForFailureFallback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"e"`)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"number": 2, "title": "x", "state": "open", "user": {"login": "a"},
			"created_at": "2024-04-01T10:00:00Z", "updated_at": "2024-04-01T10:00:00Z"}]`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "o", "r", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if _, ok := c.CachedPage(FetchParams{}, 1); ok {
		t.Fatal("CachedPage reported a hit before any fetch")
	}

	if _, err := c.FetchPage(context.Background(), FetchParams{}, 1); err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}

	cached, ok := c.CachedPage(FetchParams{}, 1)
	if !ok {
		t.Fatal("CachedPage missed after a successful fetch")
	}
	if !cached.Stale || !cached.IsCached {
		t.Fatalf("cached fallback flags = %+v, want IsCached and Stale set", cached)
	}
	if len(cached.Items) != 1 || cached.Items[0].ID != 2 {
		t.Fatalf("cached fallback items = %+v", cached.Items)
	}
}

func TestClient_FetchPageReadsLinkHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", `<`+r.Host+`/repos/o/r/issues?page=2>; rel="next", <https://x/repos/o/r/issues?state=all&page=4>; rel="last"`)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "o", "r", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	result, err := c.FetchPage(context.Background(), FetchParams{}, 1)
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
	if result.TotalPages != 4 {
		t.Fatalf("TotalPages = %d, want 4 from the Link header", result.TotalPages)
	}
}

func TestClient_FetchAssignableUsersAndLabels(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/o/r/assignees":
			fmt.Fprint(w, `[{"login": "alice"}, {"login": "bob"}]`)
		case "/repos/o/r/labels":
			fmt.Fprint(w, `[{"name": "bug"}, {"name": "feature"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "o", "r", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	users, err := c.FetchAssignableUsers(ctx)
	if err != nil {
		t.Fatalf("FetchAssignableUsers returned error: %v", err)
	}
	if len(users) != 2 || users[0] != "alice" {
		t.Fatalf("users = %v, want [alice bob]", users)
	}

	labels, err := c.FetchLabels(ctx)
	if err != nil {
		t.Fatalf("FetchLabels returned error: %v", err)
	}
	if len(labels) != 2 || labels[1] != "feature" {
		t.Fatalf("labels = %v, want [bug feature]", labels)
	}
}

func TestClient_FetchReviews(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/o/r/pulls/12/reviews" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"user": {"login": "alice"}, "state": "APPROVED", "submitted_at": "2024-05-01T10:00:00Z"},
			{"user": {"login": "bob"}, "state": "CHANGES_REQUESTED", "submitted_at": "2024-05-02T10:00:00Z"}
		]`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "o", "r", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	reviews, err := c.FetchReviews(context.Background(), 12)
	if err != nil {
		t.Fatalf("FetchReviews returned error: %v", err)
	}
	if len(reviews) != 2 || reviews[0].Author != "alice" || reviews[1].State != "CHANGES_REQUESTED" {
		t.Fatalf("reviews = %+v", reviews)
	}
	if item.DeriveReviewDecision(reviews) != item.ReviewChangesRequested {
		t.Fatalf("derived decision = %q, want changes_requested", item.DeriveReviewDecision(reviews))
	}
}

func TestClient_SurfacesHTTPErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "o", "r", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.FetchPage(context.Background(), FetchParams{}, 1); err == nil {
		t.Fatal("FetchPage returned nil error on 403")
	}
}

func TestNewClient_RequiresOwnerAndRepo(t *testing.T) {
	if _, err := NewClient("", "", "repo", ""); err == nil {
		t.Fatal("NewClient accepted empty owner")
	}
	if _, err := NewClient("", "owner", "", ""); err == nil {
		t.Fatal("NewClient accepted empty repo")
	}
}
