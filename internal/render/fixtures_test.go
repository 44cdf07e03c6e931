package render

import (
	"context"
	"sync"

	"github.com/loykin/prnotify/internal/invoker"
	"github.com/loykin/prnotify/internal/pullrequest"
)

func samplePullRequest() pullrequest.PullRequest {
	repo := pullrequest.Repository{
		ID:      3,
		Name:    "Core",
		Slug:    "core",
		Project: pullrequest.Project{ID: 9, Key: "OPS"},
		CloneLinks: map[string][]string{
			"http": {"https://admin@git.example/scm/ops/core.git"},
			"ssh":  {"ssh://git@git.example:7999/ops/core.git"},
		},
	}
	return pullrequest.PullRequest{
		ID:          7,
		Version:     2,
		Title:       "Fix bug",
		Description: "long\ntext",
		State:       pullrequest.StateOpen,
		Author: pullrequest.Participant{User: pullrequest.User{
			ID: 1, Name: "alice", Slug: "alice", DisplayName: "Alice A", EmailAddress: "alice@example.com",
		}},
		Reviewers: []pullrequest.Participant{
			{User: pullrequest.User{ID: 20, Name: "bob", Slug: "bob", DisplayName: "Bob", EmailAddress: "bob@example.com"}, Status: pullrequest.StatusApproved, Approved: true},
			{User: pullrequest.User{ID: 10, Name: "amy", Slug: "amy", DisplayName: "Amy", EmailAddress: "amy@example.com"}, Status: pullrequest.StatusNeedsWork},
			{User: pullrequest.User{ID: 30, Name: "carl", Slug: "carl", DisplayName: "Carl", EmailAddress: "carl@example.com"}, Status: pullrequest.StatusUnapproved},
		},
		Participants: []pullrequest.Participant{
			{User: pullrequest.User{Name: "zed", EmailAddress: "zed@example.com"}, Approved: true},
			{User: pullrequest.User{Name: "dan", EmailAddress: "dan@example.com"}},
		},
		FromRef: pullrequest.Ref{ID: "refs/heads/feature", DisplayID: "feature", LatestCommit: "aaa111", Repository: repo},
		ToRef:   pullrequest.Ref{ID: "refs/heads/main", DisplayID: "main", LatestCommit: "bbb222", Repository: repo},
	}
}

func sampleContext(cfg *Config) *EvalContext {
	ev := pullrequest.Event{
		Action:      pullrequest.ActionOpened,
		PullRequest: samplePullRequest(),
		User:        pullrequest.User{ID: 5, Name: "admin", Slug: "admin", DisplayName: "Admin", EmailAddress: "admin@example.com"},
	}
	return NewEvalContext(ev, cfg, pullrequest.StaticPlatform{URL: "https://git.example"})
}

type fakeInvoker struct {
	mu    sync.Mutex
	body  string
	err   error
	specs []invoker.Spec
}

func (f *fakeInvoker) Invoke(_ context.Context, spec invoker.Spec) (*invoker.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
	if f.err != nil {
		return nil, f.err
	}
	return &invoker.Result{Status: 200, Body: f.body, URI: spec.URL}, nil
}

func (f *fakeInvoker) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.specs)
}
