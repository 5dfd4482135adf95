package include

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// fetch GETs target and returns the body of a 200 response. Bodies are cached
// per URL for the lifetime of the expander.
func (e *Expander) fetch(ctx context.Context, target, token string) ([]byte, error) {
	if body, ok := e.cache.Get(target); ok {
		return body, nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", target, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", target, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}
	e.cache.Add(target, body)
	return body, nil
}

// rawFileURL builds the repository files API URL returning the raw content of
// file in project at ref.
func rawFileURL(api, project, file, ref string) string {
	u := fmt.Sprintf("%s/projects/%s/repository/files/%s/raw",
		strings.TrimSuffix(api, "/"), url.PathEscape(project), url.PathEscape(file))
	if ref != "" {
		u += "?ref=" + url.QueryEscape(ref)
	}
	return u
}
