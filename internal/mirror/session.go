// Package mirror drives the synchronization of one repository: it pulls
// every page of the remote listing, diffs the result against the local
// store, and applies upserts and purges as a single batch.
package mirror

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mlowell/hubmirror/internal/github"
	"github.com/mlowell/hubmirror/internal/item"
	"github.com/mlowell/hubmirror/internal/store"
)

// Session synchronizes one repository into one store. Repository
// identity lives on the session (and the client it wraps), never in
// package state, so multiple sessions can run concurrently.
type Session struct {
	Owner string
	Repo  string

	fetcher github.Fetcher
	store   *store.Store
	params  github.FetchParams

	mu     sync.RWMutex
	labels []string
}

// NewSession wires a fetcher to a store for one repository.
func NewSession(owner, repo string, fetcher github.Fetcher, st *store.Store) *Session {
	return &Session{
		Owner:   owner,
		Repo:    repo,
		fetcher: fetcher,
		store:   st,
		params:  github.FetchParams{State: "all"},
	}
}

// Store exposes the session's local store.
func (s *Session) Store() *store.Store {
	return s.store
}

// SyncItems runs one reconciliation cycle: fetch every page, then diff
// and apply. Page one's failure fails the cycle; a later page that
// fails but has a cached body degrades to stale data for that page so
// the rest of the repository still refreshes.
func (s *Session) SyncItems(ctx context.Context) error {
	pages, partial, err := s.fetchAllPages(ctx)
	if err != nil {
		s.store.RecordFailure(err)
		return err
	}

	allCached := true
	var fetched []item.Item
	for _, page := range pages {
		if !page.IsCached {
			allCached = false
		}
		fetched = append(fetched, page.Items...)
	}

	// Every page reporting "not modified" means the cycle carries no new
	// information; so does a genuinely empty result, which must not be
	// read as "the remote has nothing" (a conditional-request
	// short-circuit looks identical). Either way, no reconciliation.
	if allCached || len(fetched) == 0 {
		s.store.RecordSuccess(partial)
		return nil
	}

	s.enrichReviews(ctx, fetched)

	stale := staleKeys(s.store.Keys(), fetched)
	s.store.ApplyCycle(fetched, stale)
	s.store.RecordSuccess(partial)
	return nil
}

// enrichReviews fills in review data for pull requests. The issue
// listing carries none, so open pull requests get a supplemental
// per-number fetch; closed and merged ones are not re-fetched and keep
// the last known reviews from the store. Review fetches are best
// effort and never fail the cycle.
func (s *Session) enrichReviews(ctx context.Context, fetched []item.Item) {
	var previous map[int]item.Item
	for i := range fetched {
		it := &fetched[i]
		if it.Type != item.TypePullRequest {
			continue
		}
		if it.State == item.StateOpen {
			if reviews, err := s.fetcher.FetchReviews(ctx, it.ID); err == nil {
				it.Reviews = reviews
				it.ReviewDecision = item.DeriveReviewDecision(reviews)
				continue
			}
		}
		if previous == nil {
			previous = make(map[int]item.Item)
			for _, prev := range s.store.Snapshot() {
				previous[prev.ID] = prev
			}
		}
		if prev, ok := previous[it.ID]; ok {
			it.Reviews = prev.Reviews
			it.ReviewDecision = prev.ReviewDecision
		}
	}
}

func (s *Session) fetchAllPages(ctx context.Context) (pages []github.PageResult, partial bool, err error) {
	first, err := s.fetcher.FetchPage(ctx, s.params, 1)
	if err != nil {
		return nil, false, fmt.Errorf("fetch page 1: %w", err)
	}
	pages = append(pages, first)

	total := first.TotalPages
	for page := 2; page <= total; page++ {
		result, err := s.fetcher.FetchPage(ctx, s.params, page)
		if err != nil {
			cached, ok := s.fetcher.CachedPage(s.params, page)
			if !ok {
				return nil, false, fmt.Errorf("fetch page %d: %w", page, err)
			}
			// Serve the last known body for this page and mark the cycle
			// partially stale.
			result = cached
			partial = true
		}
		pages = append(pages, result)
		if result.TotalPages > total {
			total = result.TotalPages
		}
	}
	return pages, partial, nil
}

// SyncLabels refreshes the label catalog. Lighter than an item cycle,
// it runs on its own faster poll.
func (s *Session) SyncLabels(ctx context.Context) error {
	names, err := s.fetcher.FetchLabels(ctx)
	if err != nil {
		return fmt.Errorf("fetch labels: %w", err)
	}
	sort.Strings(names)
	s.mu.Lock()
	s.labels = names
	s.mu.Unlock()
	return nil
}

// Labels returns the most recently synced label names.
func (s *Session) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.labels...)
}

// FetchAssignableUsers passes through to the transport; the session
// satisfies view.UserSource for the assignee grouping strategy.
func (s *Session) FetchAssignableUsers(ctx context.Context) ([]string, error) {
	return s.fetcher.FetchAssignableUsers(ctx)
}

// staleKeys returns the previously known IDs that the fetched set no
// longer contains; these are the entries a remote deletion (or an item
// leaving the API-level filter scope) must purge locally.
func staleKeys(previous []int, fetched []item.Item) []int {
	seen := make(map[int]struct{}, len(fetched))
	for _, it := range fetched {
		seen[it.ID] = struct{}{}
	}
	var stale []int
	for _, id := range previous {
		if _, ok := seen[id]; !ok {
			stale = append(stale, id)
		}
	}
	sort.Ints(stale)
	return stale
}
