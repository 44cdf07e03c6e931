package render

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/loykin/prnotify/internal/invoker"
	"github.com/loykin/prnotify/internal/pullrequest"
	"github.com/loykin/prnotify/internal/util"
	"github.com/tidwall/gjson"
)

// Resolver computes the value of one variable during a render pass.
type Resolver func(ctx context.Context, r *Renderer) (string, error)

var catalog map[Variable]Resolver

func init() {
	catalog = map[Variable]Resolver{
		ButtonTriggerTitle: extra(ButtonTriggerTitle),
		EverythingURL:      resolveEverythingURL,
		VariableRegexMatch: resolveVariableRegexMatch,
		InjectionURLValue:  resolveInjectionURLValue,

		PullRequestAction:            field(func(c *EvalContext) string { return string(c.Action) }),
		PullRequestAuthorDisplayName: author(func(u pullrequest.User) string { return u.DisplayName }),
		PullRequestAuthorEmail:       author(func(u pullrequest.User) string { return u.EmailAddress }),
		PullRequestAuthorID:          author(userID),
		PullRequestAuthorName:        author(func(u pullrequest.User) string { return u.Name }),
		PullRequestAuthorSlug:        author(func(u pullrequest.User) string { return u.Slug }),

		PullRequestCommentAction: extra(PullRequestCommentAction),
		PullRequestCommentText:   extra(PullRequestCommentText),
		PullRequestCommentID:     extra(PullRequestCommentID),
		PullRequestDescription:   field(func(c *EvalContext) string { return c.PullRequest.Description }),

		PullRequestFromBranch:         fromRef(func(r pullrequest.Ref) string { return r.DisplayID }),
		PullRequestFromHash:           fromRef(func(r pullrequest.Ref) string { return r.LatestCommit }),
		PullRequestPreviousFromHash:   extra(PullRequestPreviousFromHash),
		PullRequestPreviousToHash:     extra(PullRequestPreviousToHash),
		PullRequestFromHTTPCloneURL:   cloneURL(fromRepository, pullrequest.ProtocolHTTP),
		PullRequestFromID:             fromRef(func(r pullrequest.Ref) string { return r.ID }),
		PullRequestFromRepoID:         fromRef(func(r pullrequest.Ref) string { return strconv.FormatInt(r.Repository.ID, 10) }),
		PullRequestFromRepoName:       fromRef(func(r pullrequest.Ref) string { return r.Repository.Name }),
		PullRequestFromRepoProjectID:  fromRef(func(r pullrequest.Ref) string { return strconv.FormatInt(r.Repository.Project.ID, 10) }),
		PullRequestFromRepoProjectKey: fromRef(func(r pullrequest.Ref) string { return r.Repository.Project.Key }),
		PullRequestFromRepoSlug:       fromRef(func(r pullrequest.Ref) string { return r.Repository.Slug }),
		PullRequestFromSSHCloneURL:    cloneURL(fromRepository, pullrequest.ProtocolSSH),

		PullRequestID:          field(func(c *EvalContext) string { return strconv.FormatInt(c.PullRequest.ID, 10) }),
		PullRequestMergeCommit: extra(PullRequestMergeCommit),

		PullRequestParticipantsApprovedCount: count(participants, approved),
		PullRequestParticipantsEmail:         list(participants, anyone, email),

		PullRequestReviewers:              list(reviewers, anyone, displayName),
		PullRequestReviewersApprovedCount: count(reviewers, approved),
		PullRequestReviewersEmail:         list(reviewers, anyone, email),

		PullRequestReviewersNeedsWorkSlug:        list(reviewers, status(pullrequest.StatusNeedsWork), slug),
		PullRequestReviewersNeedsWorkEmail:       list(reviewers, status(pullrequest.StatusNeedsWork), email),
		PullRequestReviewersNeedsWorkName:        list(reviewers, status(pullrequest.StatusNeedsWork), name),
		PullRequestReviewersNeedsWorkDisplayName: list(reviewers, status(pullrequest.StatusNeedsWork), displayName),

		PullRequestReviewersUnapprovedSlug:        list(reviewers, status(pullrequest.StatusUnapproved), slug),
		PullRequestReviewersUnapprovedEmail:       list(reviewers, status(pullrequest.StatusUnapproved), email),
		PullRequestReviewersUnapprovedName:        list(reviewers, status(pullrequest.StatusUnapproved), name),
		PullRequestReviewersUnapprovedDisplayName: list(reviewers, status(pullrequest.StatusUnapproved), displayName),

		PullRequestReviewersApprovedSlug:        list(reviewers, status(pullrequest.StatusApproved), slug),
		PullRequestReviewersApprovedEmail:       list(reviewers, status(pullrequest.StatusApproved), email),
		PullRequestReviewersApprovedName:        list(reviewers, status(pullrequest.StatusApproved), name),
		PullRequestReviewersApprovedDisplayName: list(reviewers, status(pullrequest.StatusApproved), displayName),

		PullRequestReviewersID:   list(reviewers, anyone, userID),
		PullRequestReviewersSlug: list(reviewers, anyone, slug),

		PullRequestState: field(func(c *EvalContext) string { return string(c.PullRequest.State) }),
		PullRequestTitle: field(func(c *EvalContext) string { return c.PullRequest.Title }),

		PullRequestToBranch:         toRef(func(r pullrequest.Ref) string { return r.DisplayID }),
		PullRequestToHash:           toRef(func(r pullrequest.Ref) string { return r.LatestCommit }),
		PullRequestToHTTPCloneURL:   cloneURL(toRepository, pullrequest.ProtocolHTTP),
		PullRequestToID:             toRef(func(r pullrequest.Ref) string { return r.ID }),
		PullRequestToRepoID:         toRef(func(r pullrequest.Ref) string { return strconv.FormatInt(r.Repository.ID, 10) }),
		PullRequestToRepoName:       toRef(func(r pullrequest.Ref) string { return r.Repository.Name }),
		PullRequestToRepoProjectID:  toRef(func(r pullrequest.Ref) string { return strconv.FormatInt(r.Repository.Project.ID, 10) }),
		PullRequestToRepoProjectKey: toRef(func(r pullrequest.Ref) string { return r.Repository.Project.Key }),
		PullRequestToRepoSlug:       toRef(func(r pullrequest.Ref) string { return r.Repository.Slug }),
		PullRequestToSSHCloneURL:    cloneURL(toRepository, pullrequest.ProtocolSSH),

		PullRequestURL:        resolvePullRequestURL,
		PullRequestUserGroups: extra(PullRequestUserGroups),

		PullRequestUserDisplayName:  actor(func(u pullrequest.User) string { return u.DisplayName }),
		PullRequestUserEmailAddress: actor(func(u pullrequest.User) string { return u.EmailAddress }),
		PullRequestUserID:           actor(userID),
		PullRequestUserName:         actor(func(u pullrequest.User) string { return u.Name }),
		PullRequestUserSlug:         actor(func(u pullrequest.User) string { return u.Slug }),

		PullRequestVersion: field(func(c *EvalContext) string { return strconv.FormatInt(c.PullRequest.Version, 10) }),
		ButtonFormData:     extra(ButtonFormData),

		PullRequestReviewersNeedsWorkCount:  count(reviewers, status(pullrequest.StatusNeedsWork)),
		PullRequestReviewersUnapprovedCount: count(reviewers, status(pullrequest.StatusUnapproved)),
	}
}

func field(get func(*EvalContext) string) Resolver {
	return func(_ context.Context, r *Renderer) (string, error) {
		return get(r.Context), nil
	}
}

func extra(v Variable) Resolver {
	return field(func(c *EvalContext) string { return c.Extra(v) })
}

func author(get func(pullrequest.User) string) Resolver {
	return field(func(c *EvalContext) string { return get(c.PullRequest.Author.User) })
}

func actor(get func(pullrequest.User) string) Resolver {
	return field(func(c *EvalContext) string { return get(c.User) })
}

func fromRef(get func(pullrequest.Ref) string) Resolver {
	return field(func(c *EvalContext) string { return get(c.PullRequest.FromRef) })
}

func toRef(get func(pullrequest.Ref) string) Resolver {
	return field(func(c *EvalContext) string { return get(c.PullRequest.ToRef) })
}

func userID(u pullrequest.User) string      { return strconv.FormatInt(u.ID, 10) }
func name(u pullrequest.User) string        { return u.Name }
func slug(u pullrequest.User) string        { return u.Slug }
func email(u pullrequest.User) string       { return u.EmailAddress }
func displayName(u pullrequest.User) string { return u.DisplayName }

func reviewers(c *EvalContext) []pullrequest.Participant    { return c.PullRequest.Reviewers }
func participants(c *EvalContext) []pullrequest.Participant { return c.PullRequest.Participants }

func anyone(pullrequest.Participant) bool     { return true }
func approved(p pullrequest.Participant) bool { return p.IsApproved() }

func status(s pullrequest.ParticipantStatus) func(pullrequest.Participant) bool {
	return func(p pullrequest.Participant) bool { return p.Status == s }
}

// list joins the projected users of the matching members, sorted, with ",".
func list(members func(*EvalContext) []pullrequest.Participant, keep func(pullrequest.Participant) bool, project func(pullrequest.User) string) Resolver {
	return field(func(c *EvalContext) string {
		var values []string
		for _, p := range members(c) {
			if keep(p) {
				values = append(values, project(p.User))
			}
		}
		return util.SortedJoin(values, ",")
	})
}

func count(members func(*EvalContext) []pullrequest.Participant, keep func(pullrequest.Participant) bool) Resolver {
	return field(func(c *EvalContext) string {
		n := 0
		for _, p := range members(c) {
			if keep(p) {
				n++
			}
		}
		return strconv.Itoa(n)
	})
}

func fromRepository(c *EvalContext) pullrequest.Repository { return c.PullRequest.FromRef.Repository }
func toRepository(c *EvalContext) pullrequest.Repository   { return c.PullRequest.ToRef.Repository }

func cloneURL(repo func(*EvalContext) pullrequest.Repository, protocol pullrequest.Protocol) Resolver {
	return func(ctx context.Context, r *Renderer) (string, error) {
		return pullrequest.CloneURL(ctx, r.Context.Platform, repo(r.Context), protocol)
	}
}

func resolvePullRequestURL(_ context.Context, r *Renderer) (string, error) {
	base := ""
	if r.Context.Platform != nil {
		base = r.Context.Platform.BaseURL()
	}
	return pullrequest.URL(base, r.Context.PullRequest), nil
}

// resolveEverythingURL lists NAME=${NAME} for every other variable, sorted.
// The result is rendered again by the caller.
func resolveEverythingURL(_ context.Context, _ *Renderer) (string, error) {
	parts := make([]string, 0, len(Variables))
	for _, v := range Variables {
		if v == EverythingURL || v == PullRequestDescription {
			continue
		}
		parts = append(parts, string(v)+"="+v.Token())
	}
	sort.Strings(parts)
	return strings.Join(parts, "&"), nil
}

func resolveVariableRegexMatch(ctx context.Context, r *Renderer) (string, error) {
	cfg := r.Context.Config
	if cfg == nil || cfg.VariableName == "" {
		return "", nil
	}
	target := Variable(cfg.VariableName)
	value := ""
	if target != VariableRegexMatch && IsKnown(target) {
		v, err := r.Resolve(ctx, target)
		if err != nil {
			return "", err
		}
		value = v
	}
	return FirstMatch(cfg.VariableRegex, value)
}

func resolveInjectionURLValue(ctx context.Context, r *Renderer) (string, error) {
	cfg := r.Context.Config
	if cfg == nil || cfg.InjectionURL == "" {
		return "", nil
	}
	if strings.Contains(cfg.InjectionURL, InjectionURLValue.Token()) {
		return "", fmt.Errorf("%w: injection url references %s", ErrInjectionCycle, InjectionURLValue)
	}
	if r.depth >= MaxInjectionDepth {
		return "", fmt.Errorf("%w: %s requested at depth %d", ErrInjectionCycle, InjectionURLValue, r.depth)
	}
	if r.Invoker == nil {
		return "", fmt.Errorf("no invoker configured for %s", InjectionURLValue)
	}

	nested := r.nested()
	target, err := nested.Render(ctx, cfg.InjectionURL, EncodingURL)
	if err != nil {
		return "", err
	}
	res, err := r.Invoker.Invoke(ctx, invoker.Spec{
		URL:                  target,
		Method:               invoker.MethodGet,
		User:                 cfg.User,
		Password:             cfg.Password,
		Proxy:                cfg.Proxy,
		AcceptAnyCertificate: r.Trust.AcceptAnyCertificate,
		KeyStore:             r.Trust.KeyStore,
		HTTPVersion:          cfg.HTTPVersion,
	})
	if err != nil {
		return "", err
	}
	body := strings.TrimSpace(res.Body)
	if cfg.InjectionURLJSONPath != "" {
		body = gjson.Get(body, cfg.InjectionURLJSONPath).String()
	}
	return FirstMatch(cfg.InjectionURLRegexp, body)
}

// FirstMatch applies pattern to value: the first capture group of the first
// match, the whole match when the pattern has no groups, "" without a match.
// An empty pattern returns value unchanged.
func FirstMatch(pattern, value string) (string, error) {
	if pattern == "" {
		return value, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("compile %q: %w", pattern, err)
	}
	m := re.FindStringSubmatch(value)
	if m == nil {
		return "", nil
	}
	if re.NumSubexp() == 0 {
		return m[0], nil
	}
	return m[1], nil
}
