// Package forge implements the Forge-client contract (SPEC_FULL.md §6)
// and its GitHub-backed implementation, narrowed from the teacher's
// internal/connectors/github.Connector (issue/PR sync, webhook parsing,
// rate-limit tracking) down to the three methods the pull-request
// workflow (§4.10) actually calls: fetchPullRequest, createComment,
// setCommitStatus.
package forge

import "context"

// CommitState is one of the forge-client contract's four commit-status
// states.
type CommitState string

const (
	StatePending CommitState = "pending"
	StateSuccess CommitState = "success"
	StateFailure CommitState = "failure"
	StateError   CommitState = "error"
)

// StatusOptions parameterizes SetCommitStatus.
type StatusOptions struct {
	State       CommitState
	Context     string
	Description string
	TargetURL   string
}

// PullRequestFile is one entry in PullRequest.Files.
type PullRequestFile struct {
	Path    string
	Status  string // "added" | "modified" | "removed" | "renamed"
}

// PullRequest is fetchPullRequest's result (SPEC_FULL.md §4.10 step 1).
type PullRequest struct {
	ID      string
	Number  int
	Title   string
	URL     string
	HeadRef string
	HeadSHA string
	BaseRef string
	BaseSHA string
	Files   []PullRequestFile
}

// Client is the forge-client contract (SPEC_FULL.md §6).
type Client interface {
	Kind() string
	FetchPullRequest(ctx context.Context, id string) (PullRequest, error)
	CreateComment(ctx context.Context, id string, body string) error
	SetCommitStatus(ctx context.Context, sha string, opts StatusOptions) error
}
