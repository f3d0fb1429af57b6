package graph

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/EliranNovik/Leadify-sub026/errors"
	"github.com/EliranNovik/Leadify-sub026/pkg/config"
)

// Client calls the Microsoft Graph API. It is constructed explicitly and
// injected into every component that needs it; there is no package-level
// instance.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Graph client authenticated via the client-credentials
// flow. Token acquisition and refresh are handled by the oauth2 transport.
func NewClient(cfg *config.GraphConfig) *Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", cfg.AuthorityURL, cfg.TenantID),
		Scopes:       []string{cfg.Scope},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		client:  cc.Client(context.Background()),
	}
}

// NewClientWithHTTP creates a client against a custom base URL with a
// pre-authenticated HTTP client. Used by tests.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, client: hc}
}

// CreateSubscription registers a new change-notification subscription
func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubscriptions returns all subscriptions owned by this application.
// Graph is the source of truth for subscription state.
func (c *Client) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	var out []Subscription
	path := "/subscriptions"
	for path != "" {
		var page listResponse[Subscription]
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
		path = relativeLink(c.baseURL, page.NextLink)
	}
	return out, nil
}

// RenewSubscription extends a subscription's expiration
func (c *Client) RenewSubscription(ctx context.Context, id string, newExpiry time.Time) (*Subscription, error) {
	var sub Subscription
	patch := subscriptionPatch{ExpirationDateTime: newExpiry.UTC()}
	if err := c.do(ctx, http.MethodPatch, "/subscriptions/"+url.PathEscape(id), patch, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubscription tears down a subscription
func (c *Client) DeleteSubscription(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/subscriptions/"+url.PathEscape(id), nil, nil)
}

// GetCallRecord fetches a completed call record by ID
func (c *Client) GetCallRecord(ctx context.Context, id string) (*CallRecord, error) {
	var cr CallRecord
	path := "/communications/callRecords/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

// GetOnlineMeetingByJoinURL resolves an online meeting from its join URL
func (c *Client) GetOnlineMeetingByJoinURL(ctx context.Context, organizerID, joinWebURL string) (*OnlineMeeting, error) {
	path := fmt.Sprintf("/users/%s/onlineMeetings?$filter=%s",
		url.PathEscape(organizerID),
		url.QueryEscape(fmt.Sprintf("JoinWebUrl eq '%s'", joinWebURL)))

	var page listResponse[OnlineMeeting]
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	if len(page.Value) == 0 {
		return nil, errors.ErrNotFound("online meeting")
	}
	return &page.Value[0], nil
}

// ListTranscripts lists transcripts attached to an online meeting. Graph
// returns an empty collection until transcription finishes, commonly for a
// few minutes after the call ends.
func (c *Client) ListTranscripts(ctx context.Context, organizerID, onlineMeetingID string) ([]TranscriptMeta, error) {
	path := fmt.Sprintf("/users/%s/onlineMeetings/%s/transcripts",
		url.PathEscape(organizerID), url.PathEscape(onlineMeetingID))

	var page listResponse[TranscriptMeta]
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		// Graph answers 404 on this route while the meeting's transcript
		// resources are still materializing. Callers treat not-ready as
		// retryable, the same as an empty collection.
		if terminalStatus(err) == http.StatusNotFound {
			return nil, errors.ErrTranscriptNotReady(onlineMeetingID)
		}
		return nil, err
	}
	return page.Value, nil
}

// GetTranscriptContent downloads transcript content in WebVTT format
func (c *Client) GetTranscriptContent(ctx context.Context, organizerID, onlineMeetingID, transcriptID string) (string, error) {
	path := fmt.Sprintf("/users/%s/onlineMeetings/%s/transcripts/%s/content?$format=text/vtt",
		url.PathEscape(organizerID), url.PathEscape(onlineMeetingID), url.PathEscape(transcriptID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.ErrUpstreamTransient("graph", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", c.statusError(resp, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.ErrUpstreamTransient("graph", err)
	}
	return string(body), nil
}

// do executes a JSON request against the Graph API and decodes the response
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.ErrUpstreamTransient("graph", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return c.statusError(resp, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.ErrUpstreamTransient("graph", err)
	}
	return nil
}

// statusError maps Graph HTTP failures onto the application taxonomy:
// 5xx and 429 are transient and retried by callers, other 4xx are terminal.
func (c *Client) statusError(resp *http.Response, raw []byte) error {
	var ge graphError
	cause := fmt.Errorf("graph returned status %d", resp.StatusCode)
	if len(raw) > 0 && json.Unmarshal(raw, &ge) == nil && ge.Error.Code != "" {
		cause = fmt.Errorf("graph %s: %s (status %d)", ge.Error.Code, ge.Error.Message, resp.StatusCode)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return errors.ErrUpstreamTransient("graph", cause)
	}
	return errors.ErrUpstreamTerminal("graph", resp.StatusCode, cause)
}

// terminalStatus returns the upstream HTTP status carried by a terminal
// upstream error, or zero for anything else
func terminalStatus(err error) int {
	var appErr errors.AppError
	if stderrors.As(err, &appErr) && appErr.Code == errors.ErrorCode_UPSTREAM_TERMINAL {
		if status, convErr := strconv.Atoi(appErr.Details["status_code"]); convErr == nil {
			return status
		}
	}
	return 0
}

// relativeLink converts a Graph @odata.nextLink into a path relative to base
func relativeLink(base, next string) string {
	if next == "" {
		return ""
	}
	if len(next) > len(base) && next[:len(base)] == base {
		return next[len(base):]
	}
	// Next link points at a different host; stop paging rather than follow it.
	return ""
}
