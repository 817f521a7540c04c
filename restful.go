package snowql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// restClient issues the main-host HTTP requests (login, query-request,
// monitoring) with the standing headers attached. Chunk downloads use
// their own client, built separately in chunk.go, since they target a
// different host and header set.
type restClient struct {
	httpClient *http.Client
	host       string
	token      string
	// scheme defaults to "https"; tests point it at an httptest server
	// over plain http.
	scheme string
}

func newRestClient(host string, httpClient *http.Client) *restClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &restClient{httpClient: httpClient, host: host, scheme: "https"}
}

func (c *restClient) setToken(token string) { c.token = token }

func (c *restClient) standingHeaders() map[string]string {
	return map[string]string{
		headerAccept:        acceptTypeSnowflake,
		headerAuthorization: authorizationHeader(c.token),
		headerContentType:   contentTypeJSON,
		headerUserAgent:     userAgent,
	}
}

func (c *restClient) url(path string, query url.Values) string {
	u := fmt.Sprintf("%s://%s%s", c.scheme, c.host, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// postJSON POSTs body (already-marshaled JSON) to path with the
// standing headers plus any overrides, and decodes the response body
// into out. A non-200 response is returned as a *statusError (wrapped
// with retryable when the status is transient) so the caller can
// classify it for retry.
func (c *restClient) postJSON(ctx context.Context, path string, query url.Values, body []byte, out any, headerOverrides map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, query), bytes.NewReader(body))
	if err != nil {
		return newConfigError("building request: %v", err)
	}
	for k, v := range c.standingHeaders() {
		req.Header.Set(k, v)
	}
	for k, v := range headerOverrides {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retryable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newStatusError(resp.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newDeserializationError(path, "", err)
	}
	return nil
}

func (c *restClient) getJSON(ctx context.Context, path string, query url.Values, out any, headerOverrides map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, query), nil)
	if err != nil {
		return newConfigError("building request: %v", err)
	}
	for k, v := range c.standingHeaders() {
		req.Header.Set(k, v)
	}
	for k, v := range headerOverrides {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retryable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newStatusError(resp.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newDeserializationError(path, "", err)
	}
	return nil
}

// statusError carries the HTTP status code of a non-2xx response so
// the caller can decide between retryable() and permanent handling.
type statusError struct {
	code int
	path string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("snowql: unexpected HTTP status %d from %s", e.code, e.path)
}

func newStatusError(code int, path string) error {
	e := &statusError{code: code, path: path}
	if isRetryableStatus(code) {
		return retryable(e)
	}
	return e
}
