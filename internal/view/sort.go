package view

import (
	"sort"
	"strings"

	"github.com/mlowell/hubmirror/internal/item"
)

// statusPrecedence fixes the display order of (state, type) pairs under
// an ascending status sort: open PRs first, then open issues, merged
// PRs, closed issues, closed PRs. Unknown combinations sort last.
func statusPrecedence(it item.Item) int {
	switch {
	case it.State == item.StateOpen && it.Type == item.TypePullRequest:
		return 0
	case it.State == item.StateOpen && it.Type == item.TypeIssue:
		return 1
	case it.State == item.StateMerged && it.Type == item.TypePullRequest:
		return 2
	case it.State == item.StateClosed && it.Type == item.TypeIssue:
		return 3
	case it.State == item.StateClosed && it.Type == item.TypePullRequest:
		return 4
	default:
		return 5
	}
}

// Sorted returns a new slice ordered by the given sort. The sort is
// stable: items comparing equal keep their incoming relative order,
// which downstream grouping relies on for contiguous display.
func Sorted(s Sort, items []item.Item) []item.Item {
	out := append([]item.Item(nil), items...)
	dir := 1
	if s.Direction == Descending {
		dir = -1
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dir*compareField(s.Active, out[i], out[j]) < 0
	})
	return out
}

func compareField(field SortField, a, b item.Item) int {
	switch field {
	case SortByID:
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	case SortByDate:
		switch {
		case a.UpdatedAt.Before(b.UpdatedAt):
			return -1
		case a.UpdatedAt.After(b.UpdatedAt):
			return 1
		default:
			return 0
		}
	case SortByStatus:
		pa, pb := statusPrecedence(a), statusPrecedence(b)
		if pa != pb {
			if pa < pb {
				return -1
			}
			return 1
		}
		return compareTitles(a, b)
	default:
		return compareTitles(a, b)
	}
}

func compareTitles(a, b item.Item) int {
	return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
}
