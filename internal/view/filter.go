// Package view derives presentation-ready slices from the mirrored item
// collection: filtering through composable predicate stages, ordering
// through field comparators, grouping, and pagination.
package view

import (
	"strings"

	"github.com/mlowell/hubmirror/internal/item"
)

// Status is one selectable (state, type) combination.
type Status struct {
	State item.State
	Type  item.Type
}

// ParseStatus decodes a persisted "state type" pair such as "open issue"
// or "merged pull_request". Unrecognized input yields a zero Status,
// which matches no item and therefore contributes nothing to the filter.
func ParseStatus(raw string) Status {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	if len(fields) != 2 {
		return Status{}
	}
	return Status{State: item.ParseState(fields[0]), Type: item.ParseType(fields[1])}
}

// String renders the status in its persisted form.
func (s Status) String() string {
	return string(s.State) + " " + string(s.Type)
}

// TypeFilter restricts the item kind.
type TypeFilter string

const (
	TypeAll        TypeFilter = "all"
	TypeIssuesOnly TypeFilter = "issue"
	TypePullsOnly  TypeFilter = "pull_request"
)

// SortField names the active ordering column.
type SortField string

const (
	SortByID     SortField = "id"
	SortByDate   SortField = "date"
	SortByStatus SortField = "status"
	SortByTitle  SortField = "title"
)

// Direction orients a sort.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Sort pairs the active field with its direction.
type Sort struct {
	Active    SortField
	Direction Direction
}

// Filter is the single point of truth for a view's selection state. It
// is treated as an immutable value: mutations go through Clone and a
// wholesale Replace on the owning View, never field patches in place,
// so consumers can rely on value comparison for change detection.
type Filter struct {
	Title            string
	Status           []Status
	Type             TypeFilter
	Sort             Sort
	Labels           []string
	Milestones       []string
	HiddenLabels     []string
	DeselectedLabels []string
	ItemsPerPage     int
	Assignees        []string
}

// DefaultFilter selects everything, newest first, twenty per page.
func DefaultFilter() Filter {
	return Filter{
		Type:         TypeAll,
		Sort:         Sort{Active: SortByID, Direction: Descending},
		ItemsPerPage: 20,
	}
}

// Clone returns a deep copy. Callers read-modify-write the copy and hand
// it back via View.Replace.
func (f Filter) Clone() Filter {
	dup := f
	dup.Status = append([]Status(nil), f.Status...)
	dup.Labels = append([]string(nil), f.Labels...)
	dup.Milestones = append([]string(nil), f.Milestones...)
	dup.HiddenLabels = append([]string(nil), f.HiddenLabels...)
	dup.DeselectedLabels = append([]string(nil), f.DeselectedLabels...)
	dup.Assignees = append([]string(nil), f.Assignees...)
	return dup
}

// EffectiveLabels is the conjunctive label set after removing labels the
// user has deselected without dropping them from the selectable chips.
func (f Filter) EffectiveLabels() []string {
	if len(f.DeselectedLabels) == 0 {
		return f.Labels
	}
	deselected := make(map[string]struct{}, len(f.DeselectedLabels))
	for _, l := range f.DeselectedLabels {
		deselected[l] = struct{}{}
	}
	kept := make([]string, 0, len(f.Labels))
	for _, l := range f.Labels {
		if _, ok := deselected[l]; !ok {
			kept = append(kept, l)
		}
	}
	return kept
}
