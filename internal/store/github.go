package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v66/github"
)

// GitHubStore keeps documents as files in a GitHub repository through the
// contents API. The revision of a document is its blob sha, and every write
// is a commit on Branch.
type GitHubStore struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

// NewGitHubStore creates a store over owner/repo. An empty branch uses the
// repository's default branch.
func NewGitHubStore(token, owner, repo, branch string) *GitHubStore {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubStore{client: client, owner: owner, repo: repo, branch: branch}
}

func (s *GitHubStore) Read(ctx context.Context, path string) (Blob, error) {
	var opts *github.RepositoryContentGetOptions
	if s.branch != "" {
		opts = &github.RepositoryContentGetOptions{Ref: s.branch}
	}
	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, opts)
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return Blob{}, fmt.Errorf("read %s/%s:%s: %w", s.owner, s.repo, path, ErrNotFound)
	}
	if err != nil {
		return Blob{}, fmt.Errorf("read %s/%s:%s: %w", s.owner, s.repo, path, err)
	}
	if file == nil {
		return Blob{}, fmt.Errorf("read %s/%s:%s: path is a directory", s.owner, s.repo, path)
	}

	content, err := file.GetContent()
	if err != nil {
		return Blob{}, fmt.Errorf("read %s/%s:%s: decode content: %w", s.owner, s.repo, path, err)
	}
	return Blob{Content: []byte(content), Revision: file.GetSHA()}, nil
}

func (s *GitHubStore) Write(ctx context.Context, path string, content []byte, expectedRevision string) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(CommitMessage(ctx, "update "+path)),
		Content: content,
	}
	if s.branch != "" {
		opts.Branch = github.String(s.branch)
	}

	var (
		res  *github.RepositoryContentResponse
		resp *github.Response
		err  error
	)
	if expectedRevision == "" {
		res, resp, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts)
	} else {
		opts.SHA = github.String(expectedRevision)
		res, resp, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts)
	}
	if err != nil {
		if isGitHubConflict(resp, err, expectedRevision) {
			return "", &ConflictError{Path: path, ExpectedRevision: expectedRevision}
		}
		return "", fmt.Errorf("write %s/%s:%s: %w", s.owner, s.repo, path, err)
	}
	return res.GetContent().GetSHA(), nil
}

// isGitHubConflict recognizes a stale sha (409) and a create over an
// existing file, which GitHub reports as 422 because no sha was supplied.
func isGitHubConflict(resp *github.Response, err error, expectedRevision string) bool {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		status = ghErr.Response.StatusCode
	}
	switch status {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		return expectedRevision == ""
	}
	return false
}
