package application

import (
	"context"
	"fmt"
	"os"
)

// PRCommentHandler handles PR comment operations.
type PRCommentHandler struct {
	Service   *Service
	Clients   map[PRProvider]PRClient
	Formatter CommentFormatter
}

// PRComment posts a coverage report as a comment on a PR, updating the
// previous report comment when one exists.
func (h *PRCommentHandler) PRComment(ctx context.Context, opts PRCommentOptions) (PRCommentResult, error) {
	if h.Formatter == nil {
		return PRCommentResult{}, ErrFormatterMissing
	}

	summary, err := h.Service.Build(opts.Build)
	if err != nil {
		return PRCommentResult{}, fmt.Errorf("generate coverage report: %w", err)
	}
	commentBody := h.Formatter.FormatComment(summary)

	if opts.DryRun {
		return PRCommentResult{
			CommentBody: commentBody,
		}, nil
	}

	provider := opts.Provider
	if provider == "" || provider == ProviderAuto {
		provider = detectProvider()
	}
	client, ok := h.Clients[provider]
	if !ok || client == nil {
		return PRCommentResult{}, fmt.Errorf("%s client not configured", provider)
	}
	if opts.PRNumber <= 0 {
		return PRCommentResult{}, fmt.Errorf("invalid PR number: %d", opts.PRNumber)
	}

	if opts.UpdateExisting {
		existingID, err := client.FindCoverageComment(ctx, opts.Owner, opts.Repo, opts.PRNumber)
		if err != nil {
			return PRCommentResult{}, fmt.Errorf("find existing comment: %w", err)
		}

		if existingID != 0 {
			if err := client.UpdateComment(ctx, opts.Owner, opts.Repo, opts.PRNumber, existingID, commentBody); err != nil {
				return PRCommentResult{}, fmt.Errorf("update comment: %w", err)
			}
			h.Service.logger().Info("coverage comment updated", "provider", provider, "comment_id", existingID, "pr", opts.PRNumber)
			return PRCommentResult{
				CommentID:   existingID,
				CommentBody: commentBody,
				Created:     false,
			}, nil
		}
	}

	commentID, commentURL, err := client.CreateComment(ctx, opts.Owner, opts.Repo, opts.PRNumber, commentBody)
	if err != nil {
		return PRCommentResult{}, fmt.Errorf("create comment: %w", err)
	}
	h.Service.logger().Info("coverage comment created", "provider", provider, "comment_id", commentID, "pr", opts.PRNumber)

	return PRCommentResult{
		CommentID:   commentID,
		CommentURL:  commentURL,
		CommentBody: commentBody,
		Created:     true,
	}, nil
}

// detectProvider picks the hosting provider from CI environment variables.
func detectProvider() PRProvider {
	switch {
	case os.Getenv("GITLAB_CI") != "":
		return ProviderGitLab
	case os.Getenv("BITBUCKET_BUILD_NUMBER") != "":
		return ProviderBitbucket
	default:
		return ProviderGitHub
	}
}
