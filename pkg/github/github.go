// Package github queries the public GitHub REST API for the repository
// checks run on link submissions: visibility, fork lineage, and README
// content for model grading.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.github.com"

// Repo status strings recorded on evaluated submissions.
const (
	StatusPublic          = "Public"
	StatusPrivate         = "Private"
	StatusNotFoundPrivate = "Not Found/Private"
	StatusRateLimit       = "Rate Limit"
	StatusAPIError        = "API Error"
)

var repoURLPattern = regexp.MustCompile(`github\.com/([^/\s]+)/([^/\s]+)`)

// Config carries the optional personal access token and overrides.
type Config struct {
	Token   string
	BaseURL string
}

// Client is a thin wrapper over the repos API. Anonymous access works but
// rate-limits quickly; a token raises the ceiling.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

// New constructs a GitHub API client.
func New(cfg Config, logger zerolog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      cfg.Token,
		logger:     logger.With().Str("component", "github").Logger(),
	}
}

// ParseRepoURL extracts owner and repository name from a github.com URL.
// Trailing ".git" and slashes are stripped.
func ParseRepoURL(rawURL string) (owner, repo string, ok bool) {
	match := repoURLPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", "", false
	}
	owner = match[1]
	repo = strings.TrimSuffix(strings.TrimRight(match[2], "/"), ".git")
	if owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}

// RepoInfo is the visibility verdict for one repository.
type RepoInfo struct {
	Status     string `json:"status"`
	IsFork     bool   `json:"is_fork"`
	ForkParent string `json:"fork_parent,omitempty"`
}

// RepoInfo resolves the repository's visibility and fork lineage. API
// trouble lands in Status, never in an error: the verdict accompanies a
// grading row and a broken lookup is itself a verdict.
func (c *Client) RepoInfo(ctx context.Context, owner, repo string) RepoInfo {
	var payload struct {
		Private bool `json:"private"`
		Fork    bool `json:"fork"`
		Parent  struct {
			FullName string `json:"full_name"`
		} `json:"parent"`
	}

	status, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), &payload)
	if err != nil {
		c.logger.Warn().Err(err).Str("repo", owner+"/"+repo).Msg("repo lookup failed")
		return RepoInfo{Status: StatusAPIError}
	}

	switch status {
	case http.StatusOK:
		info := RepoInfo{Status: StatusPublic}
		if payload.Private {
			info.Status = StatusPrivate
		}
		if payload.Fork {
			info.IsFork = true
			info.ForkParent = payload.Parent.FullName
			if info.ForkParent == "" {
				info.ForkParent = "Unknown"
			}
		}
		return info
	case http.StatusNotFound:
		return RepoInfo{Status: StatusNotFoundPrivate}
	case http.StatusForbidden:
		return RepoInfo{Status: StatusRateLimit}
	default:
		return RepoInfo{Status: fmt.Sprintf("Error %d", status)}
	}
}

// Readme fetches and decodes the repository README. A repository without
// one yields a placeholder, not an error.
func (c *Client) Readme(ctx context.Context, owner, repo string) (string, error) {
	var payload struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}

	status, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/readme", owner, repo), &payload)
	if err != nil {
		return "", fmt.Errorf("fetch readme: %w", err)
	}

	switch status {
	case http.StatusOK:
		if payload.Encoding == "base64" {
			decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
			if err != nil {
				return "", fmt.Errorf("decode readme: %w", err)
			}
			return string(decoded), nil
		}
		return payload.Content, nil
	case http.StatusNotFound:
		return "(No README found)", nil
	case http.StatusForbidden:
		return "", fmt.Errorf("github api rate limit reached")
	default:
		return "", fmt.Errorf("fetch readme: github answered %d", status)
	}
}

// RepoEntry is one root-level item of a repository listing.
type RepoEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

// Contents lists the repository's root entries.
func (c *Client) Contents(ctx context.Context, owner, repo string) ([]RepoEntry, error) {
	var entries []RepoEntry
	status, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/contents", owner, repo), &entries)
	if err != nil {
		return nil, fmt.Errorf("fetch contents: %w", err)
	}

	switch status {
	case http.StatusOK:
		return entries, nil
	case http.StatusNotFound:
		return nil, nil
	case http.StatusForbidden:
		return nil, fmt.Errorf("github api rate limit reached")
	default:
		return nil, fmt.Errorf("fetch contents: github answered %d", status)
	}
}

// get performs one API call, decoding the body into dest only on 200.
func (c *Client) get(ctx context.Context, path string, dest any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK && dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return 0, fmt.Errorf("decode github response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
