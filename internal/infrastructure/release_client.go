package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/yourusername/soundclip-go/internal/domain"
)

// maxFeedBytes bounds the release feed response (10 MB)
const maxFeedBytes = 10 << 20

type (
	// githubRelease is the subset of the GitHub release JSON we read
	githubRelease struct {
		TagName string        `json:"tag_name"`
		Assets  []githubAsset `json:"assets"`
	}

	githubAsset struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	}

	// ReleaseClient reads the "latest release" document of a GitHub-style feed
	ReleaseClient struct {
		httpClient *http.Client
		feedURL    string
		userAgent  string
	}

	// ReleaseOption configures a ReleaseClient
	ReleaseOption func(*ReleaseClient)
)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ReleaseOption {
	return func(r *ReleaseClient) {
		r.httpClient = c
	}
}

// WithFeedURL overrides the releases/latest endpoint, mainly for test servers
func WithFeedURL(url string) ReleaseOption {
	return func(r *ReleaseClient) {
		r.feedURL = url
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) ReleaseOption {
	return func(r *ReleaseClient) {
		r.userAgent = ua
	}
}

// NewReleaseClient creates a client for the yt-dlp release feed
func NewReleaseClient(opts ...ReleaseOption) *ReleaseClient {
	c := &ReleaseClient{
		httpClient: http.DefaultClient,
		feedURL:    domain.DefaultYTDLPReleaseURL,
		userAgent:  domain.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches and decodes the newest release
func (c *ReleaseClient) Latest(ctx context.Context) (*domain.RemoteRelease, error) {
	resp, err := doGet(ctx, c.httpClient, c.feedURL, c.userAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: release feed returned HTTP %d", domain.ErrNetwork, resp.StatusCode)
	}

	var raw githubRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if raw.TagName == "" {
		return nil, fmt.Errorf("%w: missing tag_name", domain.ErrDecode)
	}

	release := &domain.RemoteRelease{
		Tag:    raw.TagName,
		Assets: make(map[string]string, len(raw.Assets)),
	}
	for _, asset := range raw.Assets {
		release.Assets[asset.Name] = asset.BrowserDownloadURL
	}
	return release, nil
}

// LatestRelease returns the newest tag and the download URL of the asset
// named exactly assetName
func (c *ReleaseClient) LatestRelease(ctx context.Context, assetName string) (string, string, error) {
	release, err := c.Latest(ctx)
	if err != nil {
		return "", "", err
	}

	url, ok := release.AssetURL(assetName)
	if !ok {
		return "", "", fmt.Errorf("%w: %s", domain.ErrAssetNotFound, assetName)
	}
	return release.Tag, url, nil
}

// doGet issues a GET carrying the client label. Transport failures are
// reported as ErrNetwork.
func doGet(ctx context.Context, client *http.Client, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	return resp, nil
}
