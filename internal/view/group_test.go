package view

import (
	"context"
	"errors"
	"testing"

	"github.com/mlowell/hubmirror/internal/item"
)

type fakeUserSource struct {
	logins []string
	err    error
}

func (f fakeUserSource) FetchAssignableUsers(context.Context) ([]string, error) {
	return f.logins, f.err
}

type fakeMilestoneSource []string

func (f fakeMilestoneSource) MilestoneTitles() []string { return f }

func TestAssigneeStrategy_Groups(t *testing.T) {
	s := &AssigneeStrategy{Users: fakeUserSource{logins: []string{"carol", "alice"}}}
	groups, err := s.Groups(context.Background())
	if err != nil {
		t.Fatalf("Groups returned error: %v", err)
	}

	want := []string{"alice", "carol", "Unassigned"}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i, g := range groups {
		if g.Name() != want[i] {
			t.Fatalf("group[%d] = %q, want %q", i, g.Name(), want[i])
		}
	}
}

func TestAssigneeStrategy_GroupsPropagatesFetchError(t *testing.T) {
	s := &AssigneeStrategy{Users: fakeUserSource{err: errors.New("boom")}}
	if _, err := s.Groups(context.Background()); err == nil {
		t.Fatal("Groups returned nil error, want wrapped fetch failure")
	}
}

func TestAssigneeStrategy_DataForGroup(t *testing.T) {
	items := []item.Item{
		{ID: 1, Type: item.TypeIssue, Assignees: []string{"alice", "bob"}},
		{ID: 2, Type: item.TypeIssue},
		{ID: 3, Type: item.TypePullRequest, Author: "alice"},
		{ID: 4, Type: item.TypePullRequest, Author: "bob", Assignees: []string{"alice"}},
	}
	s := &AssigneeStrategy{}

	// Issues belong to their assignees; pull requests belong to their
	// author even when an assignee list is present.
	got := s.DataForGroup(items, UserGroup{Login: "alice"})
	if !equalIDs([]int{1, 3}, got) {
		t.Fatalf("alice bucket ids = %v, want [1 3]", ids(got))
	}

	// Unassigned collects issues only; a PR always has an author.
	got = s.DataForGroup(items, UnassignedGroup)
	if !equalIDs([]int{2}, got) {
		t.Fatalf("unassigned bucket ids = %v, want [2]", ids(got))
	}
}

func TestAssigneeStrategy_UnassignedExemptFromHiddenList(t *testing.T) {
	s := &AssigneeStrategy{}

	if s.InHiddenList(UnassignedGroup) {
		t.Fatal("InHiddenList(Unassigned) = true, want false even when empty")
	}
	if !s.InHiddenList(UserGroup{Login: "alice"}) {
		t.Fatal("InHiddenList(named user) = false, want true")
	}
}

func TestMilestoneStrategy(t *testing.T) {
	source := fakeMilestoneSource{"v1.0", item.NoMilestoneIssueTitle}
	s := &MilestoneStrategy{Milestones: source}

	groups, err := s.Groups(context.Background())
	if err != nil {
		t.Fatalf("Groups returned error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	items := []item.Item{
		{ID: 1, Milestone: item.Milestone{Title: "v1.0"}},
		{ID: 2, Milestone: item.NoMilestone(item.TypeIssue)},
	}
	got := s.DataForGroup(items, MilestoneGroup{Title: "v1.0"})
	if !equalIDs([]int{1}, got) {
		t.Fatalf("v1.0 bucket ids = %v, want [1]", ids(got))
	}

	if s.InHiddenList(MilestoneGroup{Title: item.NoMilestoneIssueTitle}) {
		t.Fatal("sentinel milestone group must not be hideable")
	}
	if !s.InHiddenList(MilestoneGroup{Title: "v1.0"}) {
		t.Fatal("real milestone group should be hideable when empty")
	}
}

func TestGroupEquality(t *testing.T) {
	if !(UserGroup{Login: "a"}).Equal(UserGroup{Login: "a"}) {
		t.Fatal("equal user groups compared unequal")
	}
	if (UserGroup{Login: "a"}).Equal(MilestoneGroup{Title: "a"}) {
		t.Fatal("groups of different dimensions compared equal")
	}
}

func TestStrategyFor_CoversEveryDimension(t *testing.T) {
	for _, d := range []Dimension{GroupByAssignee, GroupByMilestone} {
		if _, err := StrategyFor(d, fakeUserSource{}, fakeMilestoneSource{}); err != nil {
			t.Fatalf("StrategyFor(%d) returned error: %v", d, err)
		}
	}
	if _, err := StrategyFor(Dimension(99), fakeUserSource{}, fakeMilestoneSource{}); err == nil {
		t.Fatal("StrategyFor(unknown) returned nil error")
	}
}
