package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/models"
)

// GitHubClient talks to the hosted repository contents API. Every file is
// addressed by path and carries a blob sha that doubles as version token.
type GitHubClient struct {
	httpClient *http.Client
	baseURL    string
	owner      string
	repo       string
	branch     string
	token      string
}

type contentResponse struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type writeResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

type writeRequest struct {
	Message string `json:"message"`
	Content string `json:"content,omitempty"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// NewGitHubClient creates a contents API client from configuration
func NewGitHubClient(cfg *config.GitHubConfig) *GitHubClient {
	return &GitHubClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		branch:     cfg.Branch,
		token:      cfg.Token,
	}
}

// GetContent fetches a file and its blob sha
func (c *GitHubClient) GetContent(ctx context.Context, filePath string) ([]byte, string, error) {
	resp, err := c.stat(ctx, filePath)
	if err != nil {
		return nil, "", err
	}
	if resp.Encoding != "base64" {
		return nil, "", &TransportError{Op: "get " + filePath, Err: fmt.Errorf("unsupported content encoding %q", resp.Encoding)}
	}

	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return nil, "", &TransportError{Op: "get " + filePath, Err: fmt.Errorf("failed to decode content: %w", err)}
	}
	return data, resp.SHA, nil
}

// BlobSHA returns the current blob sha of a file without decoding its
// content. Files over 1MB come back with encoding "none", which GetContent rejects.
func (c *GitHubClient) BlobSHA(ctx context.Context, filePath string) (string, error) {
	resp, err := c.stat(ctx, filePath)
	if err != nil {
		return "", err
	}
	return resp.SHA, nil
}

func (c *GitHubClient) stat(ctx context.Context, filePath string) (*contentResponse, error) {
	endpoint := c.contentsURL(filePath)
	if c.branch != "" {
		endpoint += "?ref=" + url.QueryEscape(c.branch)
	}

	var resp contentResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PutContent creates or updates a file. sha must be the current blob sha
// when updating and empty when creating. It returns the new blob sha.
func (c *GitHubClient) PutContent(ctx context.Context, filePath string, content []byte, sha, message string) (string, error) {
	body := writeRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  c.branch,
	}

	var resp writeResponse
	if err := c.do(ctx, http.MethodPut, c.contentsURL(filePath), body, &resp); err != nil {
		return "", err
	}
	return resp.Content.SHA, nil
}

// DeleteContent removes a file at the given blob sha
func (c *GitHubClient) DeleteContent(ctx context.Context, filePath, sha, message string) error {
	body := writeRequest{
		Message: message,
		SHA:     sha,
		Branch:  c.branch,
	}
	return c.do(ctx, http.MethodDelete, c.contentsURL(filePath), body, nil)
}

func (c *GitHubClient) contentsURL(filePath string) string {
	segments := strings.Split(strings.Trim(path.Clean("/"+filePath), "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), strings.Join(segments, "/"))
}

func (c *GitHubClient) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	op := method + " " + endpoint

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := statusError(op, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&apiErr)
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", op, apiErr.Message, ErrNotFound)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %s: %w", op, apiErr.Message, ErrConflict)
	default:
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(apiErr.Message)}
	}
}

// githubIndexStore keeps the index as a JSON file in the hosted repository
type githubIndexStore struct {
	client *GitHubClient
	path   string
}

// NewGitHubIndexStore creates an IndexStore for the file at indexPath
func NewGitHubIndexStore(client *GitHubClient, indexPath string) IndexStore {
	return &githubIndexStore{client: client, path: indexPath}
}

func (s *githubIndexStore) Read(ctx context.Context) (models.StripIndex, VersionToken, error) {
	data, sha, err := s.client.GetContent(ctx, s.path)
	if err != nil {
		return models.StripIndex{}, "", err
	}
	idx, err := models.DecodeIndex(data)
	if err != nil {
		return models.StripIndex{}, "", err
	}
	return idx, VersionToken(sha), nil
}

func (s *githubIndexStore) Write(ctx context.Context, idx models.StripIndex, token VersionToken, message string) (VersionToken, error) {
	data, err := models.EncodeIndex(idx)
	if err != nil {
		return "", err
	}
	sha, err := s.client.PutContent(ctx, s.path, data, string(token), message)
	if err != nil {
		return "", err
	}
	return VersionToken(sha), nil
}

// githubAssetStore commits media files under a directory of the hosted repository
type githubAssetStore struct {
	client *GitHubClient
	dir    string
}

// NewGitHubAssetStore creates an AssetStore writing into dir
func NewGitHubAssetStore(client *GitHubClient, dir string) AssetStore {
	return &githubAssetStore{client: client, dir: dir}
}

func (s *githubAssetStore) Put(ctx context.Context, filename string, data []byte, message string) error {
	if err := checkFilename(filename); err != nil {
		return &TransportError{Op: "put asset", Err: err}
	}
	_, err := s.client.PutContent(ctx, path.Join(s.dir, filename), data, "", message)
	if errors.Is(err, ErrConflict) {
		return &TransportError{Op: "put asset", Err: fmt.Errorf("asset %s already exists", filename)}
	}
	return err
}

// Delete looks up the asset's blob sha first; the contents API refuses deletes without it.
func (s *githubAssetStore) Delete(ctx context.Context, filename string, message string) error {
	if err := checkFilename(filename); err != nil {
		return &TransportError{Op: "delete asset", Err: err}
	}
	assetPath := path.Join(s.dir, filename)
	sha, err := s.client.BlobSHA(ctx, assetPath)
	if err != nil {
		return err
	}
	return s.client.DeleteContent(ctx, assetPath, sha, message)
}
