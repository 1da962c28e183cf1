// Package remote fetches the seed task list from the remote todo endpoint.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/errs"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

const DefaultURL = "https://dummyjson.com/todos"

// maxBodyBytes bounds the response read from the endpoint.
const maxBodyBytes = 8 << 20

type Client struct {
	url  string
	http *http.Client
}

// NewClient returns a client for url. A nil httpClient gets a client with a
// 15 second timeout.
func NewClient(url string, httpClient *http.Client) *Client {
	if url == "" {
		url = DefaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{url: url, http: httpClient}
}

type listResponse struct {
	Todos *[]model.RemoteTask `json:"todos"`
}

// FetchRemoteTasks issues a single GET and decodes the todo list. Every
// failure, whether transport, status or decoding, is reported as a
// remote_fetch error. Nothing is retried.
func (c *Client) FetchRemoteTasks(ctx context.Context) ([]model.RemoteTask, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.RemoteFetch, "build remote request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.RemoteFetch, "fetch remote tasks", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.New(errs.RemoteFetch, fmt.Sprintf("fetch remote tasks: unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errs.Wrap(errs.RemoteFetch, "read remote tasks", err)
	}

	var payload listResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errs.Wrap(errs.RemoteFetch, "decode remote tasks", err)
	}
	if payload.Todos == nil {
		return nil, errs.New(errs.RemoteFetch, "decode remote tasks: missing todos")
	}
	return *payload.Todos, nil
}
