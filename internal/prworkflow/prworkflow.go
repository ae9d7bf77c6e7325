// Package prworkflow implements the Pull-request Workflow state machine
// (SPEC_FULL.md §4.10): fetch PR details from the configured forge, post a
// pending status, derive the changed-path include filter, run the indexing
// pipeline at the PR's head revision, and post a terminal status plus an
// optional summary comment. Both forge calls are best-effort, mirroring the
// teacher's observability.Logger.Error-and-continue idiom for non-fatal
// external calls — a forge outage never fails the surrounding indexing run.
package prworkflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/repoindexer/repoindexer/internal/forge"
	"github.com/repoindexer/repoindexer/internal/manager"
	"github.com/repoindexer/repoindexer/internal/model"
	"github.com/repoindexer/repoindexer/internal/observability"
	"github.com/repoindexer/repoindexer/internal/pipeline"
	"github.com/repoindexer/repoindexer/internal/repospec"
)

// Options configures one pull-request indexing run.
type Options struct {
	PullRequestID        string
	ReportStatus         bool
	StatusContext        string
	TargetURL            string
	PostComment          bool
	FailOnSecretFindings bool
	IndexOptions         pipeline.IndexOptions
}

// Result is Run's outcome: the produced index plus the best-effort forge
// call outcomes.
type Result struct {
	IndexResult      *model.IndexResult
	PullRequest      forge.PullRequest
	StatusSubmitted  bool
	CommentSubmitted bool
	Failed           bool
}

// Run executes the state machine against spec using client for forge calls
// and mgr's pipeline for indexing.
func Run(ctx context.Context, log *observability.Logger, client forge.Client, mgr *manager.Manager, spec repospec.Spec, opts Options) (Result, error) {
	var result Result

	// 1. Fetch pull-request details.
	pr, err := client.FetchPullRequest(ctx, opts.PullRequestID)
	if err != nil {
		return result, fmt.Errorf("prworkflow: fetch pull request %s: %w", opts.PullRequestID, err)
	}
	result.PullRequest = pr

	// 2. Pending status.
	if opts.ReportStatus {
		result.StatusSubmitted = postStatus(ctx, log, client, pr.HeadSHA, forge.StatusOptions{
			State:   forge.StatePending,
			Context: opts.StatusContext,
		})
	}

	// 3. Derive includePaths.
	indexOpts := opts.IndexOptions
	indexOpts.Revision = pr.HeadSHA
	indexOpts.IncludePaths = deriveIncludePaths(indexOpts.IncludePaths, pr.Files)

	// 4. Invoke indexing; on exception post an error status and re-raise.
	indexResult, err := mgr.Pipeline.Run(ctx, spec, indexOpts)
	if err != nil {
		if opts.ReportStatus {
			postStatus(ctx, log, client, pr.HeadSHA, forge.StatusOptions{
				State:       forge.StateError,
				Context:     opts.StatusContext,
				Description: "indexing failed",
				TargetURL:   opts.TargetURL,
			})
		}
		return result, fmt.Errorf("prworkflow: index pull request %s: %w", opts.PullRequestID, err)
	}
	result.IndexResult = indexResult

	// 5. Determine failure.
	result.Failed = opts.FailOnSecretFindings && len(indexResult.SecretFindings) > 0

	// 6. Terminal status.
	if opts.ReportStatus {
		state := forge.StateSuccess
		if result.Failed {
			state = forge.StateFailure
		}
		summary := fmt.Sprintf("files:%d • chunks:%d • secrets:%d", len(indexResult.Files), len(indexResult.Chunks), len(indexResult.SecretFindings))
		if result.Failed {
			summary += " • status:attention"
		}
		submitted := postStatus(ctx, log, client, pr.HeadSHA, forge.StatusOptions{
			State:       state,
			Context:     opts.StatusContext,
			Description: summary,
			TargetURL:   opts.TargetURL,
		})
		result.StatusSubmitted = result.StatusSubmitted || submitted
	}

	// 7. Optional comment.
	if opts.PostComment {
		body := renderComment(pr, indexResult)
		if err := client.CreateComment(ctx, opts.PullRequestID, body); err != nil {
			log.Error("prworkflow: create comment failed", "pullRequestID", opts.PullRequestID, "error", err)
		} else {
			result.CommentSubmitted = true
		}
	}

	return result, nil
}

// postStatus posts status and reports whether it succeeded, logging and
// swallowing any error (forge calls are best-effort per SPEC_FULL §4.10).
func postStatus(ctx context.Context, log *observability.Logger, client forge.Client, sha string, opts forge.StatusOptions) bool {
	if err := client.SetCommitStatus(ctx, sha, opts); err != nil {
		log.Error("prworkflow: set commit status failed", "sha", sha, "state", string(opts.State), "error", err)
		return false
	}
	return true
}

// deriveIncludePaths intersects existing with the pull request's
// non-removed file paths; if the intersection is empty, falls back to the
// pull request's paths (SPEC_FULL.md §4.10 step 3).
func deriveIncludePaths(existing []string, files []forge.PullRequestFile) []string {
	var prPaths []string
	for _, f := range files {
		if f.Status == "removed" {
			continue
		}
		prPaths = append(prPaths, f.Path)
	}
	if len(existing) == 0 {
		return prPaths
	}
	existingSet := make(map[string]bool, len(existing))
	for _, p := range existing {
		existingSet[p] = true
	}
	var intersection []string
	for _, p := range prPaths {
		if existingSet[p] {
			intersection = append(intersection, p)
		}
	}
	if len(intersection) == 0 {
		return prPaths
	}
	return intersection
}

func renderComment(pr forge.PullRequest, result *model.IndexResult) string {
	var changed []string
	for i, f := range pr.Files {
		if i >= 20 {
			break
		}
		changed = append(changed, fmt.Sprintf("%s %s", f.Status, f.Path))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Indexed %s (%s) into %s (%s)\n\n", short(pr.HeadSHA), pr.HeadRef, short(pr.BaseSHA), pr.BaseRef)
	fmt.Fprintf(&b, "- files: %d\n- chunks: %d\n- secrets: %d\n\n", len(result.Files), len(result.Chunks), len(result.SecretFindings))
	if pr.URL != "" {
		fmt.Fprintf(&b, "%s\n\n", pr.URL)
	}
	if len(changed) > 0 {
		b.WriteString("Changed files:\n")
		for _, c := range changed {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}

func short(sha string) string {
	if len(sha) <= 12 {
		return sha
	}
	return sha[:12]
}
