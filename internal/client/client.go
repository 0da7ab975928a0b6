// Package client talks to the document API over HTTP. Client satisfies
// session.DocumentStore and session.PresenceService.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"texcollab/internal/document/model"
	"texcollab/internal/session"
)

type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Client has no retry loop of its own: the session retries on its next tick.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (c *Client) Load(ctx context.Context, docID string) (session.Snapshot, error) {
	var out model.FetchResponse
	if err := c.doJSON(ctx, http.MethodGet, documentPath(docID, ""), nil, &out); err != nil {
		return session.Snapshot{}, err
	}
	if !out.Success || out.Content == nil || out.Version == nil {
		return session.Snapshot{}, fmt.Errorf("load %s: malformed response", docID)
	}
	snap := session.Snapshot{Content: *out.Content, Version: *out.Version}
	if out.Title != nil {
		snap.Title = *out.Title
	}
	return snap, nil
}

func (c *Client) Save(ctx context.Context, docID, content string, baseVersion *int64) (int64, error) {
	var out model.SaveResponse
	body := model.SaveDocRequest{Content: content, BaseVersion: baseVersion}
	if err := c.doJSON(ctx, http.MethodPost, documentPath(docID, "/update"), body, &out); err != nil {
		return 0, err
	}
	if !out.Success || out.Version == nil {
		return 0, fmt.Errorf("save %s: malformed response", docID)
	}
	return *out.Version, nil
}

func (c *Client) Heartbeat(ctx context.Context, docID string) ([]session.Peer, error) {
	var out model.PresenceResponse
	if err := c.doJSON(ctx, http.MethodPost, documentPath(docID, "/presence"), nil, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.ActiveUsers == nil {
		return nil, fmt.Errorf("presence %s: malformed response", docID)
	}
	peers := make([]session.Peer, 0, len(*out.ActiveUsers))
	for _, u := range *out.ActiveUsers {
		peers = append(peers, session.Peer{
			UserID:   u.UserID,
			Name:     u.Name,
			LastSeen: time.Unix(u.Timestamp, 0),
		})
	}
	return peers, nil
}

func documentPath(docID, suffix string) string {
	return "/api/documents/" + url.PathEscape(docID) + suffix
}

func (c *Client) doJSON(ctx context.Context, method, requestPath string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Correlation-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, requestPath, err)
		}
		return nil
	}

	var errPayload model.ErrorResponse
	_ = json.Unmarshal(payload, &errPayload)
	switch resp.StatusCode {
	case http.StatusForbidden:
		return model.ErrPermissionDenied
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusConflict:
		return model.ErrVersionConflict
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: errPayload.Message}
}
