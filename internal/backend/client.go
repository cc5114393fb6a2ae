// Package backend talks to the sales backend REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/observability"
	"github.com/roadassist/portal/internal/shared"
)

// ErrUnauthorized is returned when the backend rejects the bearer token.
var ErrUnauthorized = errors.New("backend: unauthorized")

// StatusError carries an unexpected backend status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d", e.Status)
}

// ValidationError lists field errors reported by the backend on create.
type ValidationError struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return "backend: validation failed: " + e.Message
	}
	return "backend: validation failed"
}

// Client is the HTTP client for the sales backend. It implements
// identity.Authenticator.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
}

var _ identity.Authenticator = (*Client)(nil)

// NewClient constructs a new client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string           `json:"token"`
	User  principalPayload `json:"user"`
}

type sessionResponse struct {
	User principalPayload `json:"user"`
}

// Authenticate exchanges credentials for a token.
func (c *Client) Authenticate(ctx context.Context, creds identity.Credentials) (identity.Grant, error) {
	var out authResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", "", loginRequest{Email: creds.Email, Password: creds.Password}, &out)
	switch {
	case err == nil:
	case isStatus(err, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity), errors.Is(err, ErrUnauthorized):
		return identity.Grant{}, identity.InvalidCredentials(shared.ErrInvalidCredentials)
	default:
		return identity.Grant{}, identity.NetworkError(err)
	}
	if out.Token == "" {
		return identity.Grant{}, identity.NetworkError(errors.New("backend: login response without token"))
	}
	p, err := out.User.principal()
	if err != nil {
		return identity.Grant{}, identity.InvalidCredentials(err)
	}
	return identity.Grant{Token: out.Token, Principal: p}, nil
}

// Validate returns the principal owning token.
func (c *Client) Validate(ctx context.Context, token string) (identity.Principal, error) {
	var out sessionResponse
	if err := c.do(ctx, "validate", http.MethodGet, "/auth/session", token, nil, &out); err != nil {
		if errors.Is(err, ErrUnauthorized) || isStatus(err, http.StatusForbidden) {
			return identity.Principal{}, identity.ErrInvalidToken
		}
		return identity.Principal{}, identity.NetworkError(err)
	}
	p, err := out.User.principal()
	if err != nil {
		return identity.Principal{}, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	return p, nil
}

// AcceptContract records contract acceptance for the token's principal.
func (c *Client) AcceptContract(ctx context.Context, token string) (identity.Principal, error) {
	var out sessionResponse
	if err := c.do(ctx, "accept_contract", http.MethodPost, "/auth/contract/accept", token, struct{}{}, &out); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return identity.Principal{}, identity.ErrInvalidToken
		}
		return identity.Principal{}, err
	}
	return out.User.principal()
}

// Revoke notifies the backend that the token is no longer in use. An already
// invalid token counts as revoked.
func (c *Client) Revoke(ctx context.Context, token string) error {
	err := c.do(ctx, "logout", http.MethodPost, "/auth/logout", token, struct{}{}, nil)
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}

// Record is one resource object as returned by the backend.
type Record map[string]any

// ListQuery filters a resource listing.
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
}

// ListResult is a page of records.
type ListResult struct {
	Items []Record `json:"data"`
	Total int      `json:"total"`
}

// List fetches a page of resource records.
func (c *Client) List(ctx context.Context, token, resource string, q ListQuery) (ListResult, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Search != "" {
		params.Set("q", q.Search)
	}
	path := "/" + url.PathEscape(resource)
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out ListResult
	if err := c.do(ctx, "list_"+resource, http.MethodGet, path, token, nil, &out); err != nil {
		return ListResult{}, err
	}
	if out.Total < len(out.Items) {
		out.Total = len(out.Items)
	}
	return out, nil
}

// Get fetches one record.
func (c *Client) Get(ctx context.Context, token, resource, id string) (Record, error) {
	var out Record
	path := "/" + url.PathEscape(resource) + "/" + url.PathEscape(id)
	if err := c.do(ctx, "get_"+resource, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a new record and returns the stored copy.
func (c *Client) Create(ctx context.Context, token, resource string, payload any) (Record, error) {
	var out Record
	if err := c.do(ctx, "create_"+resource, http.MethodPost, "/"+url.PathEscape(resource), token, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path, token string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		c.metrics.BackendCall(op, result, time.Since(start))
	}()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: encode %s: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrUpstreamUnavailable, op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", shared.ErrForbidden, &StatusError{Status: resp.StatusCode})
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", shared.ErrNotFound, &StatusError{Status: resp.StatusCode})
	case resp.StatusCode == http.StatusUnprocessableEntity && method == http.MethodPost && !strings.HasPrefix(path, "/auth/"):
		verr := &ValidationError{}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(verr)
		return verr
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %w", shared.ErrUpstreamUnavailable, &StatusError{Status: resp.StatusCode})
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s: %w", op, err)
	}
	return nil
}

func isStatus(err error, statuses ...int) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	for _, s := range statuses {
		if se.Status == s {
			return true
		}
	}
	return false
}
