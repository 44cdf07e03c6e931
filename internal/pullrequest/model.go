// Package pullrequest holds the pull request data handed over by the host
// platform for one event.
package pullrequest

import (
	"fmt"
	"strings"
)

// Action is the kind of event that triggered an evaluation.
type Action string

const (
	ActionApproved         Action = "APPROVED"
	ActionButtonTrigger    Action = "BUTTON_TRIGGER"
	ActionCommented        Action = "COMMENTED"
	ActionDeclined         Action = "DECLINED"
	ActionDeleted          Action = "DELETED"
	ActionMerged           Action = "MERGED"
	ActionOpened           Action = "OPENED"
	ActionReopened         Action = "REOPENED"
	ActionRescopedFrom     Action = "RESCOPED_FROM"
	ActionRescopedTo       Action = "RESCOPED_TO"
	ActionReviewersUpdated Action = "REVIEWERS_UPDATED"
	ActionUnapproved       Action = "UNAPPROVED"
	ActionUpdated          Action = "UPDATED"
)

// Actions lists every known action.
var Actions = []Action{
	ActionApproved, ActionButtonTrigger, ActionCommented, ActionDeclined, ActionDeleted,
	ActionMerged, ActionOpened, ActionReopened, ActionRescopedFrom, ActionRescopedTo,
	ActionReviewersUpdated, ActionUnapproved, ActionUpdated,
}

// ParseAction returns the action named s (case-insensitive).
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action: %q", s)
}

// State is the pull request state.
type State string

const (
	StateOpen     State = "OPEN"
	StateMerged   State = "MERGED"
	StateDeclined State = "DECLINED"
)

// ParseState returns the state named s (case-insensitive).
func ParseState(s string) (State, error) {
	switch st := State(strings.ToUpper(strings.TrimSpace(s))); st {
	case StateOpen, StateMerged, StateDeclined:
		return st, nil
	default:
		return "", fmt.Errorf("unknown pull request state: %q", s)
	}
}

// ParticipantStatus is a reviewer's verdict.
type ParticipantStatus string

const (
	StatusApproved   ParticipantStatus = "APPROVED"
	StatusNeedsWork  ParticipantStatus = "NEEDS_WORK"
	StatusUnapproved ParticipantStatus = "UNAPPROVED"
)

type User struct {
	ID           int64  `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Slug         string `json:"slug" yaml:"slug"`
	DisplayName  string `json:"displayName" yaml:"displayName"`
	EmailAddress string `json:"emailAddress" yaml:"emailAddress"`
}

type Participant struct {
	User     User              `json:"user" yaml:"user"`
	Role     string            `json:"role,omitempty" yaml:"role,omitempty"`
	Status   ParticipantStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Approved bool              `json:"approved,omitempty" yaml:"approved,omitempty"`
}

// IsApproved reports whether the participant approved the pull request.
func (p Participant) IsApproved() bool {
	return p.Approved || p.Status == StatusApproved
}

type Project struct {
	ID   int64  `json:"id" yaml:"id"`
	Key  string `json:"key" yaml:"key"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

type Repository struct {
	ID      int64   `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Slug    string  `json:"slug" yaml:"slug"`
	Project Project `json:"project" yaml:"project"`
	// CloneLinks maps a protocol ("http", "ssh") to its clone hrefs.
	CloneLinks map[string][]string `json:"cloneLinks,omitempty" yaml:"cloneLinks,omitempty"`
}

type Ref struct {
	ID           string     `json:"id" yaml:"id"`
	DisplayID    string     `json:"displayId" yaml:"displayId"`
	LatestCommit string     `json:"latestCommit" yaml:"latestCommit"`
	Repository   Repository `json:"repository" yaml:"repository"`
}

type PullRequest struct {
	ID           int64         `json:"id" yaml:"id"`
	Version      int64         `json:"version" yaml:"version"`
	Title        string        `json:"title" yaml:"title"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	State        State         `json:"state" yaml:"state"`
	Author       Participant   `json:"author" yaml:"author"`
	Reviewers    []Participant `json:"reviewers,omitempty" yaml:"reviewers,omitempty"`
	Participants []Participant `json:"participants,omitempty" yaml:"participants,omitempty"`
	FromRef      Ref           `json:"fromRef" yaml:"fromRef"`
	ToRef        Ref           `json:"toRef" yaml:"toRef"`
}

// Comment is the payload of a COMMENTED event.
type Comment struct {
	ID     int64  `json:"id" yaml:"id"`
	Text   string `json:"text" yaml:"text"`
	Action string `json:"action,omitempty" yaml:"action,omitempty"`
}

// Rescope is the payload of a RESCOPED_* event.
type Rescope struct {
	PreviousFromHash string `json:"previousFromHash" yaml:"previousFromHash"`
	PreviousToHash   string `json:"previousToHash" yaml:"previousToHash"`
}

// Event is one pull request event as delivered by the host platform.
type Event struct {
	Action      Action      `json:"action" yaml:"action"`
	PullRequest PullRequest `json:"pullRequest" yaml:"pullRequest"`
	User        User        `json:"user" yaml:"user"`
	Comment     *Comment    `json:"comment,omitempty" yaml:"comment,omitempty"`
	Rescope     *Rescope    `json:"rescope,omitempty" yaml:"rescope,omitempty"`
	MergeCommit string      `json:"mergeCommit,omitempty" yaml:"mergeCommit,omitempty"`
	// Conflicted is nil when the merge status is unknown.
	Conflicted *bool    `json:"conflicted,omitempty" yaml:"conflicted,omitempty"`
	UserGroups []string `json:"userGroups,omitempty" yaml:"userGroups,omitempty"`
}
