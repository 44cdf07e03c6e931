package pullrequest

import (
	"context"
	"errors"
	"testing"
)

type failingPlatform struct{ StaticPlatform }

func (failingPlatform) CloneLinks(context.Context, Repository, Protocol) ([]string, error) {
	return nil, errors.New("forbidden")
}

func TestCloneURL(t *testing.T) {
	repo := Repository{
		Slug:    "repo",
		Project: Project{Key: "PRJ"},
		CloneLinks: map[string][]string{
			"http": {"https://zed@git.example/scm/prj/repo.git", "https://admin:pw@git.example/scm/prj/repo.git"},
			"ssh":  {"ssh://git@git.example:7999/prj/repo.git"},
		},
	}
	p := StaticPlatform{URL: "https://git.example/"}
	ctx := context.Background()

	got, err := CloneURL(ctx, p, repo, ProtocolHTTP)
	if err != nil {
		t.Fatalf("http: %v", err)
	}
	if got != "https://git.example/scm/prj/repo.git" {
		t.Fatalf("http clone url=%q", got)
	}

	got, err = CloneURL(ctx, p, repo, ProtocolSSH)
	if err != nil || got != "ssh://git@git.example:7999/prj/repo.git" {
		t.Fatalf("ssh clone url=%q err=%v", got, err)
	}

	got, err = CloneURL(ctx, p, Repository{}, ProtocolHTTP)
	if err != nil || got != "" {
		t.Fatalf("no links: %q err=%v", got, err)
	}

	if _, err := CloneURL(ctx, failingPlatform{}, repo, ProtocolHTTP); err == nil {
		t.Fatalf("expected platform error")
	}
	if got, _ := CloneURL(ctx, nil, repo, ProtocolHTTP); got != "" {
		t.Fatalf("nil platform=%q", got)
	}
}

func TestURL(t *testing.T) {
	pr := PullRequest{ID: 12, ToRef: Ref{Repository: Repository{Slug: "core", Project: Project{Key: "OPS"}}}}
	base := StaticPlatform{URL: "https://bitbucket.example/"}.BaseURL()
	if got := URL(base, pr); got != "https://bitbucket.example/projects/OPS/repos/core/pull-requests/12" {
		t.Fatalf("URL=%q", got)
	}
}

func TestParseActionAndState(t *testing.T) {
	if a, err := ParseAction(" merged "); err != nil || a != ActionMerged {
		t.Fatalf("ParseAction=%q,%v", a, err)
	}
	if _, err := ParseAction("EXPLODED"); err == nil {
		t.Fatalf("expected error")
	}
	if s, err := ParseState("declined"); err != nil || s != StateDeclined {
		t.Fatalf("ParseState=%q,%v", s, err)
	}
	if _, err := ParseState(""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParticipantIsApproved(t *testing.T) {
	if !(Participant{Approved: true}).IsApproved() {
		t.Fatal("flag should approve")
	}
	if !(Participant{Status: StatusApproved}).IsApproved() {
		t.Fatal("status should approve")
	}
	if (Participant{Status: StatusNeedsWork}).IsApproved() {
		t.Fatal("needs work is not approved")
	}
}
