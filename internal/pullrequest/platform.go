package pullrequest

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Protocol selects a family of clone links.
type Protocol string

const (
	ProtocolHTTP Protocol = "http"
	ProtocolSSH  Protocol = "ssh"
)

// Platform is what the engine needs from the host platform besides the event itself.
type Platform interface {
	BaseURL() string
	// CloneLinks returns the clone hrefs of repo. Hosts may need elevated
	// permissions to answer.
	CloneLinks(ctx context.Context, repo Repository, protocol Protocol) ([]string, error)
}

// StaticPlatform serves a configured base URL and the clone links carried by
// the repositories themselves.
type StaticPlatform struct {
	URL string
}

func (p StaticPlatform) BaseURL() string {
	return strings.TrimRight(p.URL, "/")
}

func (p StaticPlatform) CloneLinks(_ context.Context, repo Repository, protocol Protocol) ([]string, error) {
	return repo.CloneLinks[string(protocol)], nil
}

// CloneURL picks the lexicographically first clone href for protocol. HTTP
// hrefs lose their user info. No links yields "".
func CloneURL(ctx context.Context, p Platform, repo Repository, protocol Protocol) (string, error) {
	if p == nil {
		return "", nil
	}
	links, err := p.CloneLinks(ctx, repo, protocol)
	if err != nil {
		return "", fmt.Errorf("clone links for %s/%s: %w", repo.Project.Key, repo.Slug, err)
	}
	if len(links) == 0 {
		return "", nil
	}
	sorted := append([]string(nil), links...)
	sort.Strings(sorted)
	first := sorted[0]
	if protocol != ProtocolHTTP {
		return first, nil
	}
	u, err := url.Parse(first)
	if err != nil {
		return "", fmt.Errorf("parse clone url: %w", err)
	}
	if u.User == nil {
		return first, nil
	}
	u.User = nil
	return u.String(), nil
}

// URL is the canonical browser URL of the pull request.
func URL(baseURL string, pr PullRequest) string {
	repo := pr.ToRef.Repository
	return baseURL + "/projects/" + repo.Project.Key + "/repos/" + repo.Slug +
		"/pull-requests/" + strconv.FormatInt(pr.ID, 10)
}
