// Package noteclient talks to a keepnotes server over its JSON API.
package noteclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/oliverisaac/keepnotes/lib/lifecycle"
	"github.com/oliverisaac/keepnotes/lib/notes"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type Client struct {
	base        *url.URL
	http        *http.Client
	concurrency int
}

// New builds a client for endpoint. A bare host defaults to https. The session cookie set by
// SignIn is kept in the client's jar.
func New(endpoint string) (*Client, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "Parsing notes endpoint")
	}
	if base.Scheme == "" {
		base, err = url.Parse("https://" + endpoint)
		if err != nil {
			return nil, errors.Wrap(err, "Parsing notes endpoint")
		}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "Creating cookie jar")
	}

	return &Client{
		base:        base,
		http:        &http.Client{Jar: jar},
		concurrency: 4,
	}, nil
}

type SignUpRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User types.PublicUser `json:"user"`
}

type noteResponse struct {
	Note types.Note `json:"note"`
}

type notesResponse struct {
	Notes []types.Note `json:"notes"`
}

type batchResponse struct {
	Results []notes.BatchResult `json:"results"`
}

func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (types.PublicUser, error) {
	var resp userResponse
	err := c.do(ctx, http.MethodPost, "/auth/sign-up", nil, req, &resp)
	return resp.User, err
}

func (c *Client) SignIn(ctx context.Context, email, password string) (types.PublicUser, error) {
	var resp userResponse
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/sign-in", nil, body, &resp)
	return resp.User, err
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/sign-out", nil, nil, nil)
}

// DeleteAccount removes the signed-in user and every note they own.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/user", nil, nil, nil)
}

func (c *Client) Create(ctx context.Context, fields types.NoteFields) (types.Note, error) {
	var resp noteResponse
	err := c.do(ctx, http.MethodPost, "/notes", nil, fields, &resp)
	return resp.Note, err
}

func (c *Client) Get(ctx context.Context, id string) (types.Note, error) {
	var resp noteResponse
	err := c.do(ctx, http.MethodGet, "/notes/"+id, nil, nil, &resp)
	return resp.Note, err
}

func (c *Client) Update(ctx context.Context, id string, patch types.NotePatch) (types.Note, error) {
	var resp noteResponse
	err := c.do(ctx, http.MethodPut, "/notes/"+id, nil, patch, &resp)
	return resp.Note, err
}

// Purge permanently deletes a note.
func (c *Client) Purge(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notes/"+id, nil, nil, nil)
}

func (c *Client) List(ctx context.Context, view lifecycle.View, search string) ([]types.Note, error) {
	q := url.Values{}
	q.Set("view", string(view))
	if search != "" {
		q.Set("search", search)
	}
	var resp notesResponse
	err := c.do(ctx, http.MethodGet, "/notes", q, nil, &resp)
	return resp.Notes, err
}

func (c *Client) Bin(ctx context.Context) ([]types.Note, error) {
	var resp notesResponse
	err := c.do(ctx, http.MethodGet, "/notes/bin", nil, nil, &resp)
	return resp.Notes, err
}

// Action runs one lifecycle action. patch is only sent for lifecycle.ActionEdit.
func (c *Client) Action(ctx context.Context, id string, action lifecycle.Action, patch *types.NotePatch) (types.Note, error) {
	var body any
	if action == lifecycle.ActionEdit && patch != nil {
		body = patch
	}
	var resp noteResponse
	path := fmt.Sprintf("/notes/%s/actions/%s", id, action)
	err := c.do(ctx, http.MethodPost, path, nil, body, &resp)
	return resp.Note, err
}

// Batch asks the server to apply action to ids in one request.
func (c *Client) Batch(ctx context.Context, action lifecycle.Action, ids []string) ([]notes.BatchResult, error) {
	body := struct {
		Action lifecycle.Action `json:"action"`
		IDs    []string         `json:"ids"`
	}{action, ids}
	var resp batchResponse
	err := c.do(ctx, http.MethodPost, "/notes/batch", nil, body, &resp)
	return resp.Results, err
}

// RestoreAll restores every note in the bin with one request per note, issued concurrently.
// A failed note does not stop the others; each outcome is reported.
func (c *Client) RestoreAll(ctx context.Context) ([]notes.BatchResult, error) {
	return c.eachInBin(ctx, lifecycle.ActionRestore)
}

// EmptyBin purges every note in the bin with one request per note, issued concurrently.
func (c *Client) EmptyBin(ctx context.Context) ([]notes.BatchResult, error) {
	return c.eachInBin(ctx, lifecycle.ActionPurgeForever)
}

func (c *Client) eachInBin(ctx context.Context, action lifecycle.Action) ([]notes.BatchResult, error) {
	bin, err := c.Bin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Listing bin")
	}

	results := make([]notes.BatchResult, len(bin))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, n := range bin {
		g.Go(func() error {
			_, err := c.Action(ctx, n.ID, action, nil)
			results[i] = notes.BatchResult{ID: n.ID, OK: err == nil, Err: err}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	g.Wait()
	return results, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := *c.base
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + path
	endpoint.RawQuery = query.Encode()

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "Encoding request body")
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return errors.Wrap(err, "Building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "Failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(respBody, out), "Decoding response body")
}
