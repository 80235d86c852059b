// Package item defines the unified issue/pull-request record that the
// mirror keeps locally, along with the enumerations and sentinel values
// the view pipeline relies on.
package item

import (
	"strings"
	"time"
)

// Type discriminates issues from pull requests.
type Type string

const (
	TypeIssue       Type = "issue"
	TypePullRequest Type = "pull_request"
)

// ParseType maps a raw string onto a Type. Unrecognized values return
// an empty Type, which matches no filter selection.
func ParseType(raw string) Type {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "issue":
		return TypeIssue
	case "pull_request", "pr":
		return TypePullRequest
	default:
		return ""
	}
}

// State is the lifecycle state of an item.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateMerged State = "merged"
)

// ParseState maps a raw string onto a State, returning an empty State
// for anything unrecognized.
func ParseState(raw string) State {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open":
		return StateOpen
	case "closed":
		return StateClosed
	case "merged":
		return StateMerged
	default:
		return ""
	}
}

// StateReason refines a closed state.
type StateReason string

const (
	ReasonCompleted  StateReason = "completed"
	ReasonNotPlanned StateReason = "not_planned"
	ReasonReopened   StateReason = "reopened"
)

// ReviewDecision is the aggregate review status of a pull request.
type ReviewDecision string

const (
	ReviewApproved         ReviewDecision = "approved"
	ReviewChangesRequested ReviewDecision = "changes_requested"
	ReviewRequired         ReviewDecision = "review_required"
)

// ParseReviewDecision maps a raw string onto a ReviewDecision, returning
// an empty value for anything unrecognized.
func ParseReviewDecision(raw string) ReviewDecision {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved":
		return ReviewApproved
	case "changes_requested":
		return ReviewChangesRequested
	case "review_required":
		return ReviewRequired
	default:
		return ""
	}
}

// Review is one submitted review on a pull request.
type Review struct {
	Author      string
	State       string
	SubmittedAt time.Time
}

// DeriveReviewDecision aggregates submitted reviews into one decision.
// Only each reviewer's latest review counts. An outstanding
// changes-requested wins over any approval; reviews that neither
// approve nor request changes leave the decision at review-required.
// No reviews at all yield an empty decision.
func DeriveReviewDecision(reviews []Review) ReviewDecision {
	latest := make(map[string]Review, len(reviews))
	for _, r := range reviews {
		prev, ok := latest[r.Author]
		if !ok || r.SubmittedAt.After(prev.SubmittedAt) {
			latest[r.Author] = r
		}
	}
	var decision ReviewDecision
	for _, r := range latest {
		switch ParseReviewDecision(r.State) {
		case ReviewChangesRequested:
			return ReviewChangesRequested
		case ReviewApproved:
			decision = ReviewApproved
		}
	}
	if decision == "" && len(reviews) > 0 {
		return ReviewRequired
	}
	return decision
}

// Milestone is a value object; absence is represented by a per-type
// sentinel so grouping and filtering can treat "no milestone" as an
// ordinary bucket.
type Milestone struct {
	Title string
	DueOn time.Time
}

// Sentinel milestone titles. The issue and pull-request sentinels are
// distinct so selecting one does not implicitly select the other.
const (
	NoMilestoneIssueTitle = "Issue without a milestone"
	NoMilestonePRTitle    = "PR without a milestone"
)

// NoMilestone returns the sentinel milestone for the given item type.
func NoMilestone(t Type) Milestone {
	if t == TypePullRequest {
		return Milestone{Title: NoMilestonePRTitle}
	}
	return Milestone{Title: NoMilestoneIssueTitle}
}

// IsSentinel reports whether the milestone is one of the "no milestone"
// placeholders.
func (m Milestone) IsSentinel() bool {
	return m.Title == NoMilestoneIssueTitle || m.Title == NoMilestonePRTitle
}

// Item is one mirrored issue or pull request.
//
// ID is the repository-local display number and the local store key.
// GlobalID is the opaque backend node identifier; it survives renumbering
// and is used only for remote lookups, never as a store key.
type Item struct {
	ID             int
	GlobalID       string
	Title          string
	Description    string
	State          State
	StateReason    StateReason
	Type           Type
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       time.Time
	Author         string
	Assignees      []string
	Labels         []string
	Milestone      Milestone
	IsDraft        bool
	ReviewDecision ReviewDecision
	Reviews        []Review
}

const noDescription = "No description provided."

// Normalize enforces the model invariants on a freshly decoded item:
// a non-empty description and a non-null milestone.
func (it Item) Normalize() Item {
	if strings.TrimSpace(it.Description) == "" {
		it.Description = noDescription
	}
	if it.Milestone.Title == "" {
		it.Milestone = NoMilestone(it.Type)
	}
	return it
}

// HasLabel reports whether the item carries the named label.
func (it Item) HasLabel(name string) bool {
	for _, l := range it.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// IsAssignedTo reports whether the item belongs to the user's bucket:
// assignee membership for issues, authorship for pull requests.
func (it Item) IsAssignedTo(login string) bool {
	if it.Type == TypePullRequest {
		return it.Author == login
	}
	for _, a := range it.Assignees {
		if a == login {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so store snapshots stay independent of the
// slices held by callers.
func (it Item) Clone() Item {
	dup := it
	if len(it.Assignees) > 0 {
		dup.Assignees = append([]string(nil), it.Assignees...)
	}
	if len(it.Labels) > 0 {
		dup.Labels = append([]string(nil), it.Labels...)
	}
	if len(it.Reviews) > 0 {
		dup.Reviews = append([]Review(nil), it.Reviews...)
	}
	return dup
}
