// Package recording fetches and deletes named recording files on the
// telephony platform's file API.
package recording

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Files is the file-list object the fetch call returns. File holds the
// base64-encoded audio, possibly split into chunks.
type Files struct {
	File []string `json:"file"`
}

// Content joins the chunks into one base64 payload.
func (f Files) Content() string {
	return strings.Join(f.File, "")
}

// FetchError reports a failed or malformed file fetch.
type FetchError struct {
	Status int
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch file: status=%d %s", e.Status, e.Reason)
	}
	return "fetch file: " + e.Reason
}

func (e *FetchError) Unwrap() error { return e.Err }

// DeleteError reports a failed source-file delete.
type DeleteError struct {
	Status int
	Reason string
	Err    error
}

func (e *DeleteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("delete file: status=%d %s", e.Status, e.Reason)
	}
	return "delete file: " + e.Reason
}

func (e *DeleteError) Unwrap() error { return e.Err }

type fetchResponse struct {
	Files *Files `json:"files"`
}

// Client talks to the bearer-authenticated files endpoint. The base URI
// arrives with each call because it is minted alongside the token.
type Client struct {
	client     *http.Client
	apiVersion string
}

func NewClient(client *http.Client, apiVersion string) *Client {
	return &Client{client: client, apiVersion: apiVersion}
}

func (c *Client) fileURL(baseURI, fileName string) string {
	q := url.Values{}
	q.Set("fileName", fileName)
	return strings.TrimRight(baseURI, "/") + "/services/" + c.apiVersion + "/files?" + q.Encode()
}

// FetchFile retrieves the named recording and returns the files object as
// the platform sent it.
func (c *Client) FetchFile(ctx context.Context, token, baseURI, fileName string) (Files, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fileURL(baseURI, fileName), nil)
	if err != nil {
		return Files{}, &FetchError{Reason: "build request", Err: err}
	}
	req.Header.Set("Authorization", "bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return Files{}, &FetchError{Reason: "fetch request failed", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Files{}, &FetchError{Status: resp.StatusCode, Reason: string(body)}
	}

	var parsed fetchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Files{}, &FetchError{Reason: fmt.Sprintf("json decode error: %v body=%s", err, string(body)), Err: err}
	}
	if parsed.Files == nil {
		return Files{}, &FetchError{Reason: "response missing files object"}
	}
	return *parsed.Files, nil
}

// DeleteFile removes the source recording. Best-effort cleanup: callers log
// a failure here but never roll back the already-persisted artifacts.
func (c *Client) DeleteFile(ctx context.Context, token, baseURI, fileName string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.fileURL(baseURI, fileName), nil)
	if err != nil {
		return &DeleteError{Reason: "build request", Err: err}
	}
	req.Header.Set("Authorization", "bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return &DeleteError{Reason: "delete request failed", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &DeleteError{Status: resp.StatusCode, Reason: string(body)}
	}
	return nil
}
