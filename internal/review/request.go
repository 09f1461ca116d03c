package review

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/joescharf/crf/internal/diff"
	"github.com/joescharf/crf/internal/models"
)

// Source identifies where the code under review comes from.
type Source string

const (
	SourceGitHub Source = "github"
	SourceDiff   Source = "diff"
)

// Request is the body of POST /review. The field not used by the source is
// sent as null.
type Request struct {
	Source  Source  `json:"source"`
	URL     *string `json:"url"`
	Content *string `json:"content"`

	// Preview is the locally parsed diff for diff sources. Not sent.
	Preview *diff.DiffSet `json:"-"`
}

var pullPathRe = regexp.MustCompile(`^/[^/]+/[^/]+/pull/\d+(/.*)?$`)

// NewRequest validates caller input for the given source.
func NewRequest(source, prURL, content string) (Request, error) {
	switch Source(source) {
	case SourceGitHub:
		return NewGitHubRequest(prURL)
	case SourceDiff:
		return NewDiffRequest(content)
	default:
		return Request{}, &models.ValidationError{Field: "source", Message: "must be \"github\" or \"diff\""}
	}
}

// NewGitHubRequest validates a pull request URL such as
// https://github.com/owner/repo/pull/42.
func NewGitHubRequest(prURL string) (Request, error) {
	prURL = strings.TrimSpace(prURL)
	if prURL == "" {
		return Request{}, &models.ValidationError{Field: "url", Message: "a GitHub PR URL is required"}
	}
	u, err := url.Parse(prURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return Request{}, &models.ValidationError{Field: "url", Message: "not an absolute http(s) URL: " + prURL}
	}
	if !pullPathRe.MatchString(u.Path) {
		return Request{}, &models.ValidationError{Field: "url", Message: "expected a pull request URL like https://github.com/owner/repo/pull/1"}
	}
	return Request{Source: SourceGitHub, URL: &prURL}, nil
}

// NewDiffRequest validates that content is a non-empty unified diff.
func NewDiffRequest(content string) (Request, error) {
	if strings.TrimSpace(content) == "" {
		return Request{}, &models.ValidationError{Field: "content", Message: "diff content is required"}
	}
	ds, err := diff.Parse(content)
	if err != nil {
		return Request{}, &models.ValidationError{Field: "content", Message: err.Error()}
	}
	return Request{Source: SourceDiff, Content: &content, Preview: ds}, nil
}
