package view

import (
	"strconv"
	"strings"

	"github.com/mlowell/hubmirror/internal/item"
)

// Stage is one predicate step in the filter pipeline. Stages are pure:
// they never mutate their input and never fail, even on empty slices or
// empty filters.
type Stage func(Filter, []item.Item) []item.Item

// Pipeline applies its stages in order; each stage only sees the items
// that survived the stages before it.
type Pipeline []Stage

// Apply runs every stage in sequence.
func (p Pipeline) Apply(f Filter, items []item.Item) []item.Item {
	for _, stage := range p {
		items = stage(f, items)
	}
	return items
}

// DefaultPipeline is the standard stage order: status/type, milestone,
// labels, assignees, then free-text search over the default columns.
func DefaultPipeline() Pipeline {
	return Pipeline{
		StatusStage,
		MilestoneStage,
		LabelStage,
		AssigneeStage,
		SearchStage(DefaultColumns()),
	}
}

// StatusStage keeps items whose (state, type) pair is among the selected
// statuses and whose type passes the type filter. An empty status
// selection imposes no status restriction; unrecognized persisted
// values parse to a pair that matches nothing.
func StatusStage(f Filter, items []item.Item) []item.Item {
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if f.Type != "" && f.Type != TypeAll && item.Type(f.Type) != it.Type {
			continue
		}
		if len(f.Status) > 0 && !statusSelected(f.Status, it) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func statusSelected(selected []Status, it item.Item) bool {
	for _, s := range selected {
		if s.State == it.State && s.Type == it.Type {
			return true
		}
	}
	return false
}

// MilestoneStage keeps items whose milestone title is selected. Items
// without a milestone carry the per-type sentinel title, so "no
// milestone" is selectable independently for issues and pull requests.
// An empty selection imposes no restriction.
func MilestoneStage(f Filter, items []item.Item) []item.Item {
	if len(f.Milestones) == 0 {
		return items
	}
	selected := make(map[string]struct{}, len(f.Milestones))
	for _, m := range f.Milestones {
		selected[m] = struct{}{}
	}
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if _, ok := selected[it.Milestone.Title]; ok {
			out = append(out, it)
		}
	}
	return out
}

// LabelStage keeps items carrying every selected label. The test is
// conjunctive: the selection is a required subset of the item's labels,
// not an any-match.
func LabelStage(f Filter, items []item.Item) []item.Item {
	required := f.EffectiveLabels()
	if len(required) == 0 {
		return items
	}
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if hasAllLabels(it, required) {
			out = append(out, it)
		}
	}
	return out
}

func hasAllLabels(it item.Item, required []string) bool {
	for _, want := range required {
		if !it.HasLabel(want) {
			return false
		}
	}
	return true
}

// AssigneeStage keeps items belonging to any selected user: assignee
// membership for issues, authorship for pull requests. An empty
// selection imposes no restriction.
func AssigneeStage(f Filter, items []item.Item) []item.Item {
	if len(f.Assignees) == 0 {
		return items
	}
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		for _, login := range f.Assignees {
			if it.IsAssignedTo(login) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Column names a searchable field for the free-text stage.
type Column string

const (
	ColumnID        Column = "id"
	ColumnTitle     Column = "title"
	ColumnAuthor    Column = "author"
	ColumnLabels    Column = "labels"
	ColumnAssignees Column = "assignees"
	ColumnMilestone Column = "milestone"
)

// DefaultColumns is the search surface used by the standard pipeline.
func DefaultColumns() []Column {
	return []Column{ColumnID, ColumnTitle, ColumnAuthor, ColumnLabels, ColumnAssignees, ColumnMilestone}
}

// SearchStage builds a free-text stage over the given columns. Matching
// is a case-insensitive substring test; slice-valued columns (labels,
// assignees) match against each element rather than a joined string. An
// empty query is the identity.
func SearchStage(columns []Column) Stage {
	return func(f Filter, items []item.Item) []item.Item {
		query := strings.ToLower(strings.TrimSpace(f.Title))
		if query == "" {
			return items
		}
		out := make([]item.Item, 0, len(items))
		for _, it := range items {
			if matchesQuery(it, columns, query) {
				out = append(out, it)
			}
		}
		return out
	}
}

func matchesQuery(it item.Item, columns []Column, query string) bool {
	for _, col := range columns {
		switch col {
		case ColumnID:
			if strings.Contains(strconv.Itoa(it.ID), query) {
				return true
			}
		case ColumnTitle:
			if strings.Contains(strings.ToLower(it.Title), query) {
				return true
			}
		case ColumnAuthor:
			if strings.Contains(strings.ToLower(it.Author), query) {
				return true
			}
		case ColumnLabels:
			if anyContains(it.Labels, query) {
				return true
			}
		case ColumnAssignees:
			if anyContains(it.Assignees, query) {
				return true
			}
		case ColumnMilestone:
			if strings.Contains(strings.ToLower(it.Milestone.Title), query) {
				return true
			}
		}
	}
	return false
}

func anyContains(values []string, query string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}
