package view

import (
	"context"
	"sync"

	"github.com/mlowell/hubmirror/internal/item"
	"github.com/mlowell/hubmirror/internal/store"
)

// View owns one presentation pipeline over a store: the current Filter,
// the paginator position, and a stream of recomputed pages. Several
// views can share one store; each keeps its own selection state.
type View struct {
	store    *store.Store
	pipeline Pipeline

	mu     sync.Mutex
	filter Filter
	pager  Paginator

	updates chan []item.Item
}

// New builds a view over st with the given starting filter and the
// default predicate pipeline.
func New(st *store.Store, f Filter) *View {
	return &View{
		store:    st,
		pipeline: DefaultPipeline(),
		filter:   f,
		pager:    Paginator{PageSize: f.ItemsPerPage},
		updates:  make(chan []item.Item, 1),
	}
}

// Run forwards store changes into recomputed pages until the context is
// cancelled. It blocks; callers run it in a goroutine.
func (v *View) Run(ctx context.Context) {
	ch, cancel := v.store.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			v.notify()
		}
	}
}

// Updates carries the current page after every store change or filter
// replacement. Like store subscriptions it coalesces: a slow consumer
// only ever sees the newest page.
func (v *View) Updates() <-chan []item.Item {
	return v.updates
}

// Filter returns the current filter value.
func (v *View) Filter() Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter.Clone()
}

// Replace installs a whole new filter value. Partial patches are not
// supported; callers Clone, modify, and Replace.
func (v *View) Replace(f Filter) {
	v.mu.Lock()
	v.filter = f.Clone()
	v.pager.PageSize = f.ItemsPerPage
	v.pager.PageIndex = 0
	v.mu.Unlock()
	v.notify()
}

// SetPage moves the paginator to the given page index.
func (v *View) SetPage(index int) {
	v.mu.Lock()
	v.pager.PageIndex = index
	v.mu.Unlock()
	v.notify()
}

// Page computes the current page: predicate stages, stable sort, then
// pagination with its self-correcting page index.
func (v *View) Page() []item.Item {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageLocked()
}

// PageInfo reports the paginator position after the last computation:
// current index, page count, and total matched items.
func (v *View) PageInfo() (index, count, total int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.PageIndex, v.pager.PageCount(), v.pager.Total
}

// Matched returns the filtered and sorted items across all pages.
func (v *View) Matched() []item.Item {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.matchedLocked()
}

// MilestoneTitles returns the distinct milestone titles present in the
// current source, sentinels included. Implements MilestoneSource for
// the milestone grouping strategy.
func (v *View) MilestoneTitles() []string {
	seen := make(map[string]struct{})
	titles := make([]string, 0, 8)
	for _, it := range v.store.Snapshot() {
		if _, ok := seen[it.Milestone.Title]; ok {
			continue
		}
		seen[it.Milestone.Title] = struct{}{}
		titles = append(titles, it.Milestone.Title)
	}
	return titles
}

// matchedLocked always reads a fresh store snapshot; the view holds no
// item state of its own.
func (v *View) matchedLocked() []item.Item {
	filtered := v.pipeline.Apply(v.filter, v.store.Snapshot())
	return Sorted(v.filter.Sort, filtered)
}

func (v *View) pageLocked() []item.Item {
	return v.pager.Paginate(v.matchedLocked())
}

func (v *View) notify() {
	v.mu.Lock()
	page := v.pageLocked()
	v.mu.Unlock()
	select {
	case v.updates <- page:
	default:
		select {
		case <-v.updates:
		default:
		}
		select {
		case v.updates <- page:
		default:
		}
	}
}
