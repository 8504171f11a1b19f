// Package caseapi provides a thin REST client for the remote case-management
// API. It implements a deep module interface - simple methods hiding the
// wire details of each endpoint.
package caseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robby/casedesk/internal/auth"
	"github.com/robby/casedesk/internal/config"
	"github.com/robby/casedesk/internal/domain"
)

// ErrTeamForbidden indicates the server denied the team scope: the caller is
// not part of a team. Distinguished from generic failures so the caller can
// hide the scope instead of showing an error banner.
var ErrTeamForbidden = errors.New("team scope forbidden")

// RequestError is any other non-success response. Message carries the body's
// "message" field when the server provided one.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// caseFields is the Case field set requested from the API.
var caseFields = strings.Join([]string{
	"incidentid", "ticketnumber", "title", "statuscode", "statecode",
	"prioritycode", "casetypecode", "createdon", "modifiedon",
}, ",")

// noteFields is the CaseNote field set requested from the API.
var noteFields = strings.Join([]string{
	"annotationid", "subject", "notetext", "isdocument",
	"filename", "filesize", "createdon", "modifiedon",
}, ",")

// Page is the pagination block returned alongside every list.
type Page struct {
	Top  int     `json:"top"`
	Skip int     `json:"skip"`
	Next *string `json:"next"`
}

// Client is an authenticated case API client. A fresh token is obtained from
// the provider for every request; the client never caches credentials.
type Client struct {
	baseURL string
	tokens  auth.TokenProvider
	client  *http.Client
	logger  *zap.Logger
}

// New creates a client for the API at baseURL.
func New(baseURL string, tokens auth.TokenProvider, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + config.APIPrefix,
		tokens:  tokens,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// ListCases returns up to 200 cases for the given scope, newest-modified
// first. Returns ErrTeamForbidden when the server denies the team scope.
func (c *Client) ListCases(ctx context.Context, scope domain.Scope) ([]domain.Case, error) {
	query := url.Values{
		"select":  {caseFields},
		"top":     {"200"},
		"orderBy": {"modifiedon:desc"},
	}

	var envelope struct {
		Data []domain.Case `json:"data"`
		Page Page          `json:"page"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/%s/incident", scope), query, nil, &envelope)
	if err != nil {
		var reqErr *RequestError
		if scope == domain.ScopeTeam && errors.As(err, &reqErr) && reqErr.Status == http.StatusForbidden {
			return nil, ErrTeamForbidden
		}
		return nil, err
	}
	return envelope.Data, nil
}

// ListCaseNotes returns up to 100 notes for one case, newest first.
func (c *Client) ListCaseNotes(ctx context.Context, scope domain.Scope, incidentID string) ([]domain.CaseNote, error) {
	query := url.Values{
		"select":  {noteFields},
		"filter":  {fmt.Sprintf("objectid eq %s", incidentID)},
		"orderBy": {"createdon:desc"},
		"top":     {"100"},
	}

	var envelope struct {
		Data []domain.CaseNote `json:"data"`
		Page Page              `json:"page"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/%s/casenotes", scope), query, nil, &envelope)
	if err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// CreateCaseNote attaches a note to a case. Notes are always authored as the
// current user; the API exposes no team authoring. Blank subject or body is
// sent as null rather than an empty string.
func (c *Client) CreateCaseNote(ctx context.Context, incidentID, subject, body string) error {
	payload := struct {
		Subject  *string `json:"subject"`
		NoteText *string `json:"notetext"`
		ObjectID string  `json:"objectid_incident"`
	}{
		Subject:  nullable(subject),
		NoteText: nullable(body),
		ObjectID: incidentID,
	}
	return c.do(ctx, http.MethodPost, "/me/casenotes", nil, payload, nil)
}

// CreateCase opens a new case owned by the current user.
func (c *Client) CreateCase(ctx context.Context, title, description string) error {
	payload := struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
	}{
		Title:       strings.TrimSpace(title),
		Description: nullable(description),
	}
	return c.do(ctx, http.MethodPost, "/me/incident", nil, payload, nil)
}

// do issues one authenticated request and decodes the response into out
// (when non-nil). Non-2xx responses become *RequestError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		return &RequestError{Message: err.Error()}
	}
	defer res.Body.Close()

	c.logger.Debug("case api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &RequestError{
			Status:  res.StatusCode,
			Message: errorMessage(res),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the body's "message" field, falling back to a
// status-code description.
func errorMessage(res *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err == nil && body.Message != "" {
		return body.Message
	}
	return fmt.Sprintf("HTTP %d", res.StatusCode)
}

func nullable(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
