package github

import (
	"time"

	"github.com/mlowell/hubmirror/internal/item"
)

// issuePayload mirrors one element of the /repos/{owner}/{repo}/issues
// response. The endpoint returns pull requests too; the pull_request
// sub-object is the discriminator.
type issuePayload struct {
	Number      int               `json:"number"`
	NodeID      string            `json:"node_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	State       string            `json:"state"`
	StateReason string            `json:"state_reason"`
	User        userPayload       `json:"user"`
	Assignees   []userPayload     `json:"assignees"`
	Labels      []labelPayload    `json:"labels"`
	Milestone   *milestonePayload `json:"milestone"`
	Draft       bool              `json:"draft"`
	PullRequest *pullRefPayload   `json:"pull_request"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ClosedAt    *time.Time        `json:"closed_at"`
}

type userPayload struct {
	Login string `json:"login"`
}

type labelPayload struct {
	Name string `json:"name"`
}

type milestonePayload struct {
	Title string     `json:"title"`
	DueOn *time.Time `json:"due_on"`
}

type pullRefPayload struct {
	MergedAt *time.Time `json:"merged_at"`
}

// reviewPayload mirrors one element of a pull request's reviews
// listing. The issue listing itself carries no review data; reviews
// arrive through a supplemental per-number fetch.
type reviewPayload struct {
	User        userPayload `json:"user"`
	State       string      `json:"state"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

func (p reviewPayload) toReview() item.Review {
	return item.Review{
		Author:      p.User.Login,
		State:       p.State,
		SubmittedAt: p.SubmittedAt,
	}
}

// toItem maps the wire payload onto the domain record and applies the
// model invariants (non-empty description, sentinel milestone).
func (p issuePayload) toItem() item.Item {
	it := item.Item{
		ID:          p.Number,
		GlobalID:    p.NodeID,
		Title:       p.Title,
		Description: p.Body,
		State:       item.ParseState(p.State),
		StateReason: item.StateReason(p.StateReason),
		Type:        item.TypeIssue,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Author:      p.User.Login,
		IsDraft:     p.Draft,
	}
	if p.ClosedAt != nil {
		it.ClosedAt = *p.ClosedAt
	}
	if p.PullRequest != nil {
		it.Type = item.TypePullRequest
		if it.State == item.StateClosed && p.PullRequest.MergedAt != nil {
			it.State = item.StateMerged
		}
	}
	for _, a := range p.Assignees {
		it.Assignees = append(it.Assignees, a.Login)
	}
	for _, l := range p.Labels {
		it.Labels = append(it.Labels, l.Name)
	}
	if p.Milestone != nil {
		it.Milestone = item.Milestone{Title: p.Milestone.Title}
		if p.Milestone.DueOn != nil {
			it.Milestone.DueOn = *p.Milestone.DueOn
		}
	}
	return it.Normalize()
}
