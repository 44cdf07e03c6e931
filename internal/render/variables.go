package render

import "sort"

// Variable names one ${NAME} placeholder.
type Variable string

const (
	ButtonTriggerTitle                        Variable = "BUTTON_TRIGGER_TITLE"
	EverythingURL                             Variable = "EVERYTHING_URL"
	VariableRegexMatch                        Variable = "VARIABLE_REGEX_MATCH"
	InjectionURLValue                         Variable = "INJECTION_URL_VALUE"
	PullRequestAction                         Variable = "PULL_REQUEST_ACTION"
	PullRequestAuthorDisplayName              Variable = "PULL_REQUEST_AUTHOR_DISPLAY_NAME"
	PullRequestAuthorEmail                    Variable = "PULL_REQUEST_AUTHOR_EMAIL"
	PullRequestAuthorID                       Variable = "PULL_REQUEST_AUTHOR_ID"
	PullRequestAuthorName                     Variable = "PULL_REQUEST_AUTHOR_NAME"
	PullRequestAuthorSlug                     Variable = "PULL_REQUEST_AUTHOR_SLUG"
	PullRequestCommentAction                  Variable = "PULL_REQUEST_COMMENT_ACTION"
	PullRequestCommentText                    Variable = "PULL_REQUEST_COMMENT_TEXT"
	PullRequestCommentID                      Variable = "PULL_REQUEST_COMMENT_ID"
	PullRequestDescription                    Variable = "PULL_REQUEST_DESCRIPTION"
	PullRequestFromBranch                     Variable = "PULL_REQUEST_FROM_BRANCH"
	PullRequestFromHash                       Variable = "PULL_REQUEST_FROM_HASH"
	PullRequestPreviousFromHash               Variable = "PULL_REQUEST_PREVIOUS_FROM_HASH"
	PullRequestPreviousToHash                 Variable = "PULL_REQUEST_PREVIOUS_TO_HASH"
	PullRequestFromHTTPCloneURL               Variable = "PULL_REQUEST_FROM_HTTP_CLONE_URL"
	PullRequestFromID                         Variable = "PULL_REQUEST_FROM_ID"
	PullRequestFromRepoID                     Variable = "PULL_REQUEST_FROM_REPO_ID"
	PullRequestFromRepoName                   Variable = "PULL_REQUEST_FROM_REPO_NAME"
	PullRequestFromRepoProjectID              Variable = "PULL_REQUEST_FROM_REPO_PROJECT_ID"
	PullRequestFromRepoProjectKey             Variable = "PULL_REQUEST_FROM_REPO_PROJECT_KEY"
	PullRequestFromRepoSlug                   Variable = "PULL_REQUEST_FROM_REPO_SLUG"
	PullRequestFromSSHCloneURL                Variable = "PULL_REQUEST_FROM_SSH_CLONE_URL"
	PullRequestID                             Variable = "PULL_REQUEST_ID"
	PullRequestMergeCommit                    Variable = "PULL_REQUEST_MERGE_COMMIT"
	PullRequestParticipantsApprovedCount      Variable = "PULL_REQUEST_PARTICIPANTS_APPROVED_COUNT"
	PullRequestParticipantsEmail              Variable = "PULL_REQUEST_PARTICIPANTS_EMAIL"
	PullRequestReviewers                      Variable = "PULL_REQUEST_REVIEWERS"
	PullRequestReviewersApprovedCount         Variable = "PULL_REQUEST_REVIEWERS_APPROVED_COUNT"
	PullRequestReviewersEmail                 Variable = "PULL_REQUEST_REVIEWERS_EMAIL"
	PullRequestReviewersNeedsWorkSlug         Variable = "PULL_REQUEST_REVIEWERS_NEEDS_WORK_SLUG"
	PullRequestReviewersNeedsWorkEmail        Variable = "PULL_REQUEST_REVIEWERS_NEEDS_WORK_EMAIL"
	PullRequestReviewersNeedsWorkName         Variable = "PULL_REQUEST_REVIEWERS_NEEDS_WORK_NAME"
	PullRequestReviewersNeedsWorkDisplayName  Variable = "PULL_REQUEST_REVIEWERS_NEEDS_WORK_DISPLAY_NAME"
	PullRequestReviewersUnapprovedSlug        Variable = "PULL_REQUEST_REVIEWERS_UNAPPROVED_SLUG"
	PullRequestReviewersUnapprovedEmail       Variable = "PULL_REQUEST_REVIEWERS_UNAPPROVED_EMAIL"
	PullRequestReviewersUnapprovedName        Variable = "PULL_REQUEST_REVIEWERS_UNAPPROVED_NAME"
	PullRequestReviewersUnapprovedDisplayName Variable = "PULL_REQUEST_REVIEWERS_UNAPPROVED_DISPLAY_NAME"
	PullRequestReviewersApprovedSlug          Variable = "PULL_REQUEST_REVIEWERS_APPROVED_SLUG"
	PullRequestReviewersApprovedEmail         Variable = "PULL_REQUEST_REVIEWERS_APPROVED_EMAIL"
	PullRequestReviewersApprovedName          Variable = "PULL_REQUEST_REVIEWERS_APPROVED_NAME"
	PullRequestReviewersApprovedDisplayName   Variable = "PULL_REQUEST_REVIEWERS_APPROVED_DISPLAY_NAME"
	PullRequestReviewersID                    Variable = "PULL_REQUEST_REVIEWERS_ID"
	PullRequestReviewersSlug                  Variable = "PULL_REQUEST_REVIEWERS_SLUG"
	PullRequestState                          Variable = "PULL_REQUEST_STATE"
	PullRequestTitle                          Variable = "PULL_REQUEST_TITLE"
	PullRequestToBranch                       Variable = "PULL_REQUEST_TO_BRANCH"
	PullRequestToHash                         Variable = "PULL_REQUEST_TO_HASH"
	PullRequestToHTTPCloneURL                 Variable = "PULL_REQUEST_TO_HTTP_CLONE_URL"
	PullRequestToID                           Variable = "PULL_REQUEST_TO_ID"
	PullRequestToRepoID                       Variable = "PULL_REQUEST_TO_REPO_ID"
	PullRequestToRepoName                     Variable = "PULL_REQUEST_TO_REPO_NAME"
	PullRequestToRepoProjectID                Variable = "PULL_REQUEST_TO_REPO_PROJECT_ID"
	PullRequestToRepoProjectKey               Variable = "PULL_REQUEST_TO_REPO_PROJECT_KEY"
	PullRequestToRepoSlug                     Variable = "PULL_REQUEST_TO_REPO_SLUG"
	PullRequestToSSHCloneURL                  Variable = "PULL_REQUEST_TO_SSH_CLONE_URL"
	PullRequestURL                            Variable = "PULL_REQUEST_URL"
	PullRequestUserGroups                     Variable = "PULL_REQUEST_USER_GROUPS"
	PullRequestUserDisplayName                Variable = "PULL_REQUEST_USER_DISPLAY_NAME"
	PullRequestUserEmailAddress               Variable = "PULL_REQUEST_USER_EMAIL_ADDRESS"
	PullRequestUserID                         Variable = "PULL_REQUEST_USER_ID"
	PullRequestUserName                       Variable = "PULL_REQUEST_USER_NAME"
	PullRequestUserSlug                       Variable = "PULL_REQUEST_USER_SLUG"
	PullRequestVersion                        Variable = "PULL_REQUEST_VERSION"
	ButtonFormData                            Variable = "BUTTON_FORM_DATA"
	PullRequestReviewersNeedsWorkCount        Variable = "PULL_REQUEST_REVIEWERS_NEEDS_WORK_COUNT"
	PullRequestReviewersUnapprovedCount       Variable = "PULL_REQUEST_REVIEWERS_UNAPPROVED_COUNT"
)

// Variables is the closed catalog in declaration order. Rendering walks it in
// this order.
var Variables = []Variable{
	ButtonTriggerTitle,
	EverythingURL,
	VariableRegexMatch,
	InjectionURLValue,
	PullRequestAction,
	PullRequestAuthorDisplayName,
	PullRequestAuthorEmail,
	PullRequestAuthorID,
	PullRequestAuthorName,
	PullRequestAuthorSlug,
	PullRequestCommentAction,
	PullRequestCommentText,
	PullRequestCommentID,
	PullRequestDescription,
	PullRequestFromBranch,
	PullRequestFromHash,
	PullRequestPreviousFromHash,
	PullRequestPreviousToHash,
	PullRequestFromHTTPCloneURL,
	PullRequestFromID,
	PullRequestFromRepoID,
	PullRequestFromRepoName,
	PullRequestFromRepoProjectID,
	PullRequestFromRepoProjectKey,
	PullRequestFromRepoSlug,
	PullRequestFromSSHCloneURL,
	PullRequestID,
	PullRequestMergeCommit,
	PullRequestParticipantsApprovedCount,
	PullRequestParticipantsEmail,
	PullRequestReviewers,
	PullRequestReviewersApprovedCount,
	PullRequestReviewersEmail,
	PullRequestReviewersNeedsWorkSlug,
	PullRequestReviewersNeedsWorkEmail,
	PullRequestReviewersNeedsWorkName,
	PullRequestReviewersNeedsWorkDisplayName,
	PullRequestReviewersUnapprovedSlug,
	PullRequestReviewersUnapprovedEmail,
	PullRequestReviewersUnapprovedName,
	PullRequestReviewersUnapprovedDisplayName,
	PullRequestReviewersApprovedSlug,
	PullRequestReviewersApprovedEmail,
	PullRequestReviewersApprovedName,
	PullRequestReviewersApprovedDisplayName,
	PullRequestReviewersID,
	PullRequestReviewersSlug,
	PullRequestState,
	PullRequestTitle,
	PullRequestToBranch,
	PullRequestToHash,
	PullRequestToHTTPCloneURL,
	PullRequestToID,
	PullRequestToRepoID,
	PullRequestToRepoName,
	PullRequestToRepoProjectID,
	PullRequestToRepoProjectKey,
	PullRequestToRepoSlug,
	PullRequestToSSHCloneURL,
	PullRequestURL,
	PullRequestUserGroups,
	PullRequestUserDisplayName,
	PullRequestUserEmailAddress,
	PullRequestUserID,
	PullRequestUserName,
	PullRequestUserSlug,
	PullRequestVersion,
	ButtonFormData,
	PullRequestReviewersNeedsWorkCount,
	PullRequestReviewersUnapprovedCount,
}

// Token returns the placeholder text, e.g. ${PULL_REQUEST_ID}.
func (v Variable) Token() string {
	return "${" + string(v) + "}"
}

func (v Variable) String() string { return string(v) }

// IsKnown reports whether v belongs to the catalog.
func IsKnown(v Variable) bool {
	_, ok := catalog[v]
	return ok
}

// Names returns the catalog names sorted alphabetically.
func Names() []string {
	out := make([]string, 0, len(Variables))
	for _, v := range Variables {
		out = append(out, string(v))
	}
	sort.Strings(out)
	return out
}
