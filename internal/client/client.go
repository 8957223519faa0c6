// Package client provides a typed REST client for the Axio Hub backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"

	"github.com/axio-hub/axio-go/internal/models"
)

// TokenSource returns the current session token, or "" when signed out.
// An empty token means the Authorization header is omitted, not an error:
// the backend decides what anonymous callers may see.
type TokenSource func() string

// Client is a REST client for the Axio Hub backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
	validate   *validator.Validate
	maxRetries uint64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithToken sets the session token source.
func WithToken(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying HTTP client (for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new client for the given API base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		token:      func() string { return "" },
		logger:     slog.Default(),
		validate:   validator.New(),
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// ERRORS
// =============================================================================

// APIError is a transport-level failure: a non-2xx response or a network
// error. Status is 0 when no HTTP status was received.
type APIError struct {
	Status  int
	Message string
	Path    string
}

// StatusLabel returns the status code as a string, or the "ERR" sentinel
// when the request never produced a status.
func (e *APIError) StatusLabel() string {
	if e.Status == 0 {
		return "ERR"
	}
	return strconv.Itoa(e.Status)
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s on %s: %s", e.StatusLabel(), e.Path, e.Message)
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// errorBody matches the error payload shapes the backend produces.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b errorBody) text() string {
	switch {
	case b.Detail != "":
		return b.Detail
	case b.Message != "":
		return b.Message
	case b.Error != "":
		return b.Error
	}
	return ""
}

// =============================================================================
// CORE REQUEST PLUMBING
// =============================================================================

// do performs one JSON request. GETs are retried on network errors and 5xx
// responses with capped exponential backoff; mutations are never retried.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	attempt := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := c.newRequest(ctx, method, path, query, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.send(req, path, out)
	}

	if method != http.MethodGet {
		err := attempt()
		return unwrapPermanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	return unwrapPermanent(backoff.Retry(attempt, policy))
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send executes the request and decodes the response into out. Failures are
// logged as a single diagnostic line carrying the status (or ERR) and path.
func (c *Client) send(req *http.Request, path string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := &APIError{Path: path, Message: err.Error()}
		c.logger.Warn("request failed", "status", apiErr.StatusLabel(), "path", path)
		return apiErr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := &APIError{Path: path, Message: fmt.Sprintf("read response: %v", err)}
		c.logger.Warn("request failed", "status", apiErr.StatusLabel(), "path", path)
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(respBody, &eb)
		msg := eb.text()
		if msg == "" {
			msg = resp.Status
		}
		apiErr := &APIError{Status: resp.StatusCode, Message: msg, Path: path}
		c.logger.Warn("request failed", "status", apiErr.StatusLabel(), "path", path)
		if resp.StatusCode < 500 {
			// Client errors will not succeed on retry.
			return backoff.Permanent(apiErr)
		}
		return apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return backoff.Permanent(fmt.Errorf("unmarshal response: %w", err))
		}
	}
	return nil
}

// unwrapPermanent strips the backoff permanent-error wrapper so callers see
// the typed *APIError.
func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	return err
}

// =============================================================================
// DOCUMENTS & JOBS
// =============================================================================

// DocumentStats returns the knowledge-base summary.
func (c *Client) DocumentStats(ctx context.Context) (*models.DocumentStats, error) {
	var stats models.DocumentStats
	if err := c.do(ctx, http.MethodGet, "/documents/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ActiveJob returns the current active ingestion job, or nil when none.
func (c *Client) ActiveJob(ctx context.Context) (*models.Job, error) {
	var job *models.Job
	if err := c.do(ctx, http.MethodGet, "/jobs/active", nil, nil, &job); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if job != nil && job.ID == "" {
		// Backend serializes "no active job" as an empty object.
		return nil, nil
	}
	return job, nil
}

// JobHistory returns recent jobs, most recent first, bounded by limit.
func (c *Client) JobHistory(ctx context.Context, limit int) ([]models.Job, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var jobs []models.Job
	if err := c.do(ctx, http.MethodGet, "/jobs/history", query, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Job returns one job by id.
func (c *Client) Job(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := c.do(ctx, http.MethodGet, "/jobs/"+id, nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// NotificationPage is the paged response from GET /notifications.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int                   `json:"total"`
}

// Notifications returns the user's notifications, most recent first.
func (c *Client) Notifications(ctx context.Context, limit int) (*NotificationPage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var page NotificationPage
	if err := c.do(ctx, http.MethodGet, "/notifications", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var body struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, nil, &body); err != nil {
		return 0, err
	}
	return body.Count, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+id+"/read", nil, nil, nil)
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPatch, "/notifications/read-all", nil, nil, nil)
}

// ClearNotifications deletes all notifications.
func (c *Client) ClearNotifications(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/notifications/all", nil, nil, nil)
}

// =============================================================================
// USAGE & BILLING
// =============================================================================

// Usage returns the current usage snapshot.
func (c *Client) Usage(ctx context.Context) (*models.UsageSnapshot, error) {
	var snap models.UsageSnapshot
	if err := c.do(ctx, http.MethodGet, "/usage", nil, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// EffectivePlan returns the billing tier actually applied to the user.
func (c *Client) EffectivePlan(ctx context.Context) (*models.EffectivePlan, error) {
	var plan models.EffectivePlan
	if err := c.do(ctx, http.MethodGet, "/team/effective-plan", nil, nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// =============================================================================
// TEAM MANAGEMENT
// =============================================================================

// InviteInput is the input for inviting a team member.
type InviteInput struct {
	Email string          `json:"email" validate:"required,email"`
	Role  models.TeamRole `json:"role" validate:"required,oneof=admin member"`
}

// TeamMembers returns all members of the caller's team, including pending
// invites.
func (c *Client) TeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	var members []models.TeamMember
	if err := c.do(ctx, http.MethodGet, "/team/members", nil, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// InviteTeamMember invites a new member to the team.
func (c *Client) InviteTeamMember(ctx context.Context, input InviteInput) (*models.TeamMember, error) {
	if err := c.validate.Struct(input); err != nil {
		return nil, &ValidationError{Err: err}
	}
	var member models.TeamMember
	if err := c.do(ctx, http.MethodPost, "/team/members", nil, input, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateTeamMember changes a member's role.
func (c *Client) UpdateTeamMember(ctx context.Context, id string, role models.TeamRole) (*models.TeamMember, error) {
	body := map[string]any{"role": role}
	var member models.TeamMember
	if err := c.do(ctx, http.MethodPatch, "/team/members/"+id, nil, body, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveTeamMember removes a member from the team.
func (c *Client) RemoveTeamMember(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/team/members/"+id, nil, nil, nil)
}

// ResendInvite re-sends a pending invitation email.
func (c *Client) ResendInvite(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/team/members/"+id+"/resend", nil, nil, nil)
}

// =============================================================================
// INGESTION
// =============================================================================

// IngestRequest describes one ingestion submission. Exactly one source must
// be set: File, URL, or NotionPageID (with NotionToken).
type IngestRequest struct {
	// File upload
	File     io.Reader
	Filename string

	// Web crawl
	URL string `validate:"omitempty,url"`

	// Notion import
	NotionPageID string
	NotionToken  string

	Metadata map[string]any
}

// ValidationError is a client-side rejection that happened before any
// network call. It is shown inline, never retried.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func (r IngestRequest) sourceCount() int {
	n := 0
	if r.File != nil {
		n++
	}
	if r.URL != "" {
		n++
	}
	if r.NotionPageID != "" {
		n++
	}
	return n
}

// IngestResponse is the backend's acknowledgement of an ingestion request.
type IngestResponse struct {
	JobID string `json:"job_id"`
}

// Ingest submits a new ingestion job as a multipart request carrying the
// source (file, url, or notion page) and a JSON metadata field.
func (c *Client) Ingest(ctx context.Context, req IngestRequest) (*IngestResponse, error) {
	switch n := req.sourceCount(); {
	case n == 0:
		return nil, &ValidationError{Err: errors.New("one of file, url, or notion page is required")}
	case n > 1:
		return nil, &ValidationError{Err: errors.New("file, url, and notion page are mutually exclusive")}
	}
	if req.URL != "" {
		if err := c.validate.Var(req.URL, "url"); err != nil {
			return nil, &ValidationError{Err: fmt.Errorf("malformed url %q", req.URL)}
		}
	}
	if req.NotionPageID != "" && req.NotionToken == "" {
		return nil, &ValidationError{Err: errors.New("notion import requires a notion token")}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	switch {
	case req.File != nil:
		name := req.Filename
		if name == "" {
			name = "upload"
		}
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			return nil, fmt.Errorf("create file part: %w", err)
		}
		if _, err := io.Copy(part, req.File); err != nil {
			return nil, fmt.Errorf("copy file: %w", err)
		}
	case req.URL != "":
		if err := mw.WriteField("url", req.URL); err != nil {
			return nil, fmt.Errorf("write url field: %w", err)
		}
	default:
		if err := mw.WriteField("notion_page_id", req.NotionPageID); err != nil {
			return nil, fmt.Errorf("write notion page field: %w", err)
		}
		if err := mw.WriteField("notion_token", req.NotionToken); err != nil {
			return nil, fmt.Errorf("write notion token field: %w", err)
		}
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := mw.WriteField("metadata", string(metaJSON)); err != nil {
		return nil, fmt.Errorf("write metadata field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	const path = "/api/v1/ingest"
	httpReq, err := c.newRequest(ctx, http.MethodPost, path, nil, &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var resp IngestResponse
	if err := unwrapPermanent(c.send(httpReq, path, &resp)); err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// ACCOUNT & SETTINGS
// =============================================================================

// DeleteConfirmation is the exact text a user must type to delete their
// account.
const DeleteConfirmation = "DELETE"

// DeleteAccount permanently deletes the signed-in user's account. The
// confirmation text is checked locally before any network call.
func (c *Client) DeleteAccount(ctx context.Context, confirmation string) error {
	if confirmation != DeleteConfirmation {
		return &ValidationError{
			Err: fmt.Errorf("confirmation text must be %q", DeleteConfirmation),
		}
	}
	return c.do(ctx, http.MethodDelete, "/settings/profile/me", nil, nil, nil)
}

// UpdateNotificationPref toggles one notification setting.
func (c *Client) UpdateNotificationPref(ctx context.Context, key string, enabled bool) error {
	body := map[string]any{"enabled": enabled}
	return c.do(ctx, http.MethodPatch, "/settings/notifications/"+key, nil, body, nil)
}
