package view

import (
	"context"
	"fmt"
	"sort"

	"github.com/mlowell/hubmirror/internal/item"
)

// Group is a partition key. The pipeline only ever compares groups for
// equality and renders their names; the concrete dimension stays behind
// this interface.
type Group interface {
	Equal(other Group) bool
	Name() string
}

// Dimension selects a grouping strategy. The set is closed: StrategyFor
// switches over it, so adding a dimension without a strategy is a
// compile-visible gap rather than a silent map miss.
type Dimension int

const (
	GroupByAssignee Dimension = iota
	GroupByMilestone
)

// Strategy partitions a filtered item list along one dimension. Groups
// may need a remote call (assignable users), hence the context.
type Strategy interface {
	Groups(ctx context.Context) ([]Group, error)
	DataForGroup(items []item.Item, g Group) []item.Item
	// InHiddenList reports whether the group, when empty, belongs in the
	// collapsed "hidden groups" affordance instead of always showing.
	InHiddenList(g Group) bool
}

// UserSource supplies the users a repository's items can be assigned to.
type UserSource interface {
	FetchAssignableUsers(ctx context.Context) ([]string, error)
}

// MilestoneSource supplies the milestone titles present in the session.
type MilestoneSource interface {
	MilestoneTitles() []string
}

// StrategyFor returns the strategy for a dimension.
func StrategyFor(d Dimension, users UserSource, milestones MilestoneSource) (Strategy, error) {
	switch d {
	case GroupByAssignee:
		return &AssigneeStrategy{Users: users}, nil
	case GroupByMilestone:
		return &MilestoneStrategy{Milestones: milestones}, nil
	default:
		return nil, fmt.Errorf("unknown grouping dimension %d", d)
	}
}

// UserGroup buckets items belonging to one user. The zero Login is the
// synthetic Unassigned bucket.
type UserGroup struct {
	Login string
}

// UnassignedGroup collects issues with no assignee. Pull requests never
// land here: a pull request always has an author, which is its group.
var UnassignedGroup = UserGroup{}

func (g UserGroup) Equal(other Group) bool {
	o, ok := other.(UserGroup)
	return ok && o.Login == g.Login
}

func (g UserGroup) Name() string {
	if g.Login == "" {
		return "Unassigned"
	}
	return g.Login
}

// AssigneeStrategy groups issues by assignee and pull requests by
// author.
type AssigneeStrategy struct {
	Users UserSource
}

// Groups returns one group per assignable user plus the Unassigned
// bucket, users first in alphabetical order.
func (s *AssigneeStrategy) Groups(ctx context.Context) ([]Group, error) {
	logins, err := s.Users.FetchAssignableUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch assignable users: %w", err)
	}
	sorted := append([]string(nil), logins...)
	sort.Strings(sorted)
	groups := make([]Group, 0, len(sorted)+1)
	for _, login := range sorted {
		groups = append(groups, UserGroup{Login: login})
	}
	return append(groups, UnassignedGroup), nil
}

func (s *AssigneeStrategy) DataForGroup(items []item.Item, g Group) []item.Item {
	ug, ok := g.(UserGroup)
	if !ok {
		return nil
	}
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if ug.Login == "" {
			if it.Type == item.TypeIssue && len(it.Assignees) == 0 {
				out = append(out, it)
			}
			continue
		}
		if it.IsAssignedTo(ug.Login) {
			out = append(out, it)
		}
	}
	return out
}

// InHiddenList hides empty per-user buckets; the Unassigned bucket is
// exempt and always shown.
func (s *AssigneeStrategy) InHiddenList(g Group) bool {
	ug, ok := g.(UserGroup)
	if !ok {
		return false
	}
	return ug != UnassignedGroup
}

// MilestoneGroup buckets items sharing a milestone title, sentinels
// included.
type MilestoneGroup struct {
	Title string
}

func (g MilestoneGroup) Equal(other Group) bool {
	o, ok := other.(MilestoneGroup)
	return ok && o.Title == g.Title
}

func (g MilestoneGroup) Name() string { return g.Title }

// MilestoneStrategy groups by milestone title. The source already
// includes the per-type "no milestone" sentinels, so no synthetic
// bucket is needed here.
type MilestoneStrategy struct {
	Milestones MilestoneSource
}

func (s *MilestoneStrategy) Groups(ctx context.Context) ([]Group, error) {
	titles := s.Milestones.MilestoneTitles()
	groups := make([]Group, 0, len(titles))
	for _, t := range titles {
		groups = append(groups, MilestoneGroup{Title: t})
	}
	return groups, nil
}

func (s *MilestoneStrategy) DataForGroup(items []item.Item, g Group) []item.Item {
	mg, ok := g.(MilestoneGroup)
	if !ok {
		return nil
	}
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if it.Milestone.Title == mg.Title {
			out = append(out, it)
		}
	}
	return out
}

// InHiddenList lets every empty milestone bucket collapse except the
// sentinels, which stay visible so unscheduled work is never hidden.
func (s *MilestoneStrategy) InHiddenList(g Group) bool {
	mg, ok := g.(MilestoneGroup)
	if !ok {
		return false
	}
	return !item.Milestone{Title: mg.Title}.IsSentinel()
}
