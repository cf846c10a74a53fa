package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL   = "https://api.modrinth.com/v2"
	DefaultUserAgent = "tie/mrupdate"
)

// Don’t read responses larger than 8MiB.
const maxResponseSize = 8 * 1024 * 1024

var _ Registry = (*Modrinth)(nil)

// Modrinth is a Registry backed by the Modrinth v2 API.
type Modrinth struct {
	Client    *http.Client
	BaseURL   string
	UserAgent string
	Log       zerolog.Logger
}

func (r *Modrinth) LookupByHash(ctx context.Context, algorithm, hash string) (Hit, error) {
	u := fmt.Sprintf("%s/version_file/%s?algorithm=%s",
		r.baseURL(), url.PathEscape(hash), url.QueryEscape(algorithm))
	var v struct {
		ID        string `json:"id"`
		ProjectID string `json:"project_id"`
	}
	if err := r.get(ctx, u, &v); err != nil {
		return Hit{}, err
	}
	if v.ProjectID == "" {
		return Hit{}, fmt.Errorf("%w: no project_id in %s", ErrMalformedResponse, u)
	}
	return Hit{ProjectID: v.ProjectID, VersionID: v.ID}, nil
}

func (r *Modrinth) QueryVersions(ctx context.Context, projectID string, q Query) ([]Version, error) {
	params := url.Values{}
	if q.Loader != "" {
		params.Set("loaders", jsonList(q.Loader))
	}
	if q.GameVersion != "" {
		params.Set("game_versions", jsonList(q.GameVersion))
	}
	u := fmt.Sprintf("%s/project/%s/version", r.baseURL(), url.PathEscape(projectID))
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	var vs []Version
	if err := r.get(ctx, u, &vs); err != nil {
		return nil, err
	}
	return vs, nil
}

func (r *Modrinth) baseURL() string {
	if r.BaseURL == "" {
		return DefaultBaseURL
	}
	return r.BaseURL
}

func (r *Modrinth) get(ctx context.Context, u string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	ua := r.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	c := r.Client
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	body := resp.Body
	defer func() {
		err := body.Close()
		if err != nil {
			r.Log.Warn().Err(err).Str("url", u).Msg("close")
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", u, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	lr := io.LimitReader(body, maxResponseSize)
	if err := json.NewDecoder(lr).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformedResponse, u, err)
	}
	return nil
}

func jsonList(s string) string {
	b, _ := json.Marshal([]string{s})
	return string(b)
}
