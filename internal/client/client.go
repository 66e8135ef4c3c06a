// Package client talks to the portal's REST API. Client implements
// workflow.RecordStore so the workflow can run on the caller's side with the
// server as its store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/oaustech/docportal/internal/app/models/dto"
	"github.com/oaustech/docportal/internal/workflow"
)

const defaultTimeout = 2 * time.Minute

// Client is a REST client for one portal. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	mu    sync.RWMutex
	token string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the portal at baseURL, e.g. http://localhost:8080.
// The API prefix is added here.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

// do sends a request and decodes the envelope's data into out, when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &workflow.TransportError{Kind: workflow.TransportUnknown, Message: "build request", Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(ctx, err)
	}
	defer resp.Body.Close()
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("API call")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(ctx, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode >= http.StatusBadRequest {
		return responseError(resp.StatusCode, env.Error)
	}
	if decodeErr != nil {
		return &workflow.TransportError{
			Kind:       workflow.TransportUnknown,
			StatusCode: resp.StatusCode,
			Message:    "malformed response body",
			Err:        decodeErr,
		}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &workflow.TransportError{
			Kind:       workflow.TransportUnknown,
			StatusCode: resp.StatusCode,
			Message:    "unexpected response data",
			Err:        err,
		}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(body), "application/json", out)
}

// networkError classifies a failure that produced no HTTP response.
func networkError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var netErr net.Error
	var opErr *net.OpError
	var urlErr *url.Error
	if errors.As(err, &opErr) || errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return &workflow.TransportError{Kind: workflow.TransportServerUnavailable, Message: "portal unreachable", Err: err}
	}
	return &workflow.TransportError{Kind: workflow.TransportUnknown, Err: err}
}

// responseError turns an error response into the workflow's error taxonomy. Codes the
// server raised from local checks map back to the same errors the workflow raises locally.
func responseError(status int, detail *dto.ErrorDetail) error {
	msg := http.StatusText(status)
	var code dto.ErrorCode
	if detail != nil {
		msg, code = detail.Message, detail.Code
	}

	switch code {
	case dto.ErrorCodeInvalidFileType:
		return &workflow.ValidationError{Kind: workflow.InvalidFileType, Message: msg}
	case dto.ErrorCodeFileTooLarge:
		return &workflow.ValidationError{Kind: workflow.FileTooLarge, Message: msg}
	case dto.ErrorCodeMissingRemarks:
		return &workflow.ValidationError{Kind: workflow.MissingRemarks, Message: msg}
	case dto.ErrorCodeIllegalTransition:
		return fmt.Errorf("%w: %s", workflow.ErrIllegalTransition, msg)
	case dto.ErrorCodeMissingFile:
		return fmt.Errorf("%w: %s", workflow.ErrMissingFile, msg)
	case dto.ErrorCodeUnknownDocument:
		return fmt.Errorf("%w: %s", workflow.ErrUnknownDocument, msg)
	}

	te := &workflow.TransportError{Kind: workflow.TransportUnknown, StatusCode: status, Message: msg}
	switch {
	case status == http.StatusUnauthorized:
		te.Kind = workflow.TransportUnauthorized
		if code == dto.ErrorCodeExpiredToken {
			te.Err = workflow.ErrSessionExpired
		}
	case status == http.StatusForbidden:
		// a role mismatch; signing in again does not help
		te.Err = workflow.ErrForbiddenActor
	case status == http.StatusNotFound:
		te.Kind = workflow.TransportNotFound
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		te.Kind = workflow.TransportServerUnavailable
	}
	return te
}

// Login signs in and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token.AccessToken)
	return &resp, nil
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*dto.ProfileResponse, error) {
	var resp dto.ProfileResponse
	if err := c.getJSON(ctx, "/auth/me", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Catalog fetches the required documents and upload limits.
func (c *Client) Catalog(ctx context.Context) (*dto.CatalogResponse, error) {
	var resp dto.CatalogResponse
	if err := c.getJSON(ctx, "/catalog", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Summary fetches a student's progress as computed by the server.
func (c *Client) Summary(ctx context.Context, studentID int64) (workflow.ProgressSummary, error) {
	var resp workflow.ProgressSummary
	err := c.getJSON(ctx, fmt.Sprintf("/students/%d/documents/summary", studentID), &resp)
	return resp, err
}

// Stats fetches the admin dashboard counters.
func (c *Client) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	var resp dto.DashboardStats
	if err := c.getJSON(ctx, "/admin/stats", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteStudent removes a student account with all of its documents.
func (c *Client) DeleteStudent(ctx context.Context, studentID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/students/%d", studentID), nil, "", nil)
}

// ListRecords implements workflow.RecordStore.
func (c *Client) ListRecords(ctx context.Context, studentID int64) ([]workflow.DocumentRecord, error) {
	var resp dto.DocumentListResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/students/%d/documents", studentID), &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// UpsertUpload implements workflow.RecordStore. The file is streamed, not buffered.
func (c *Client) UpsertUpload(ctx context.Context, studentID int64, documentType string, file workflow.File) (workflow.DocumentRecord, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUpload(mw, documentType, file))
	}()

	var rec workflow.DocumentRecord
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/students/%d/documents", studentID), pr, mw.FormDataContentType(), &rec)
	// unblocks the writer when the request failed before reading the body
	_ = pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return workflow.DocumentRecord{}, err
	}
	return rec, nil
}

func writeUpload(mw *multipart.Writer, documentType string, file workflow.File) error {
	if err := mw.WriteField("documentType", documentType); err != nil {
		return err
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	header.Set("Content-Type", file.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if file.Reader != nil {
		if _, err := io.Copy(part, file.Reader); err != nil {
			return err
		}
	}
	return mw.Close()
}

// UpdateReview implements workflow.RecordStore. The server re-derives the transition
// from the decision, so only statuses reachable by review can be written.
func (c *Client) UpdateReview(ctx context.Context, studentID int64, documentType string, change workflow.ReviewChange) (workflow.DocumentRecord, error) {
	var decision workflow.Decision
	switch change.Status {
	case workflow.StatusReviewing:
		decision = workflow.DecisionReviewing
	case workflow.StatusApproved:
		decision = workflow.DecisionApproved
	case workflow.StatusRejected:
		decision = workflow.DecisionRejected
	default:
		return workflow.DocumentRecord{}, fmt.Errorf("%w: status %s is not a review outcome", workflow.ErrInvalidDecision, change.Status)
	}

	path := fmt.Sprintf("/admin/students/%d/documents/%s/review", studentID, url.PathEscape(documentType))
	var rec workflow.DocumentRecord
	if err := c.sendJSON(ctx, http.MethodPut, path, dto.ReviewRequest{Decision: string(decision), Remarks: change.Remarks}, &rec); err != nil {
		return workflow.DocumentRecord{}, err
	}
	return rec, nil
}

// DeleteStudentRecords implements workflow.RecordStore.
func (c *Client) DeleteStudentRecords(ctx context.Context, studentID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/students/%d/documents", studentID), nil, "", nil)
}

var _ workflow.RecordStore = (*Client)(nil)
