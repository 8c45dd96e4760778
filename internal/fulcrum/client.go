// Package fulcrum is a small client for the Fulcrum REST API: form lookup
// and record search, create and update.
package fulcrum

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

	"go.uber.org/zap"

	"app-reconciler/internal/logging"
	"app-reconciler/internal/project"
	"app-reconciler/internal/schema"
)

// ErrFormNotFound is returned by FormByName when no form has the name.
var ErrFormNotFound = errors.New("form not found")

// APIError is a non-2xx response, or a 2xx response carrying errors.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, strings.Join(e.Errors, "; "))
	}

	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether repeating the request can succeed.
func (e *APIError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// Client handles communication with the API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	perPage    int
}

// NewClient creates a new client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.OrNop(logger),
		perPage:    1000,
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// RemoteRecord is a record as stored remotely.
type RemoteRecord struct {
	ID         string                     `json:"id"`
	FormID     string                     `json:"form_id"`
	Latitude   *float64                   `json:"latitude"`
	Longitude  *float64                   `json:"longitude"`
	FormValues map[string]json.RawMessage `json:"form_values"`
}

type errorBody struct {
	Errors json.RawMessage `json:"errors"`
}

// do sends a request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-ApiToken", c.apiKey)

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("api call",
		zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		apiErr.Errors = parseErrors(data)

		return apiErr
	}

	if errs := parseErrors(data); len(errs) > 0 {
		return &APIError{StatusCode: resp.StatusCode, Errors: errs}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// parseErrors extracts an "errors" member, which the API sends either as a
// list of strings or as an object of field -> messages.
func parseErrors(data []byte) []string {
	var eb errorBody
	if json.Unmarshal(data, &eb) != nil || len(eb.Errors) == 0 || string(eb.Errors) == "null" {
		return nil
	}

	var list []string
	if json.Unmarshal(eb.Errors, &list) == nil {
		return list
	}

	var fields map[string][]string
	if json.Unmarshal(eb.Errors, &fields) == nil {
		var out []string
		for field, msgs := range fields {
			out = append(out, field+": "+strings.Join(msgs, ", "))
		}

		return out
	}

	return []string{string(eb.Errors)}
}

// SearchForms lists forms whose name matches the search term.
func (c *Client) SearchForms(ctx context.Context, name string) ([]schema.Form, error) {
	var resp struct {
		Forms []schema.Form `json:"forms"`
	}

	q := url.Values{}
	if name != "" {
		q.Set("search", name)
	}

	if err := c.do(ctx, http.MethodGet, "/forms.json", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("search forms: %w", err)
	}

	return resp.Forms, nil
}

// FormByName returns the form named exactly name.
func (c *Client) FormByName(ctx context.Context, name string) (*schema.Form, error) {
	forms, err := c.SearchForms(ctx, name)
	if err != nil {
		return nil, err
	}

	for i := range forms {
		if forms[i].Name == name {
			return &forms[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrFormNotFound, name)
}

// SearchRecords returns every record of a form, following pagination.
func (c *Client) SearchRecords(ctx context.Context, formID string) ([]RemoteRecord, error) {
	var all []RemoteRecord

	for page := 1; ; page++ {
		var resp struct {
			Records    []RemoteRecord `json:"records"`
			TotalPages int            `json:"total_pages"`
		}

		q := url.Values{
			"form_id":  {formID},
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(c.perPage)},
		}

		if err := c.do(ctx, http.MethodGet, "/records.json", q, nil, &resp); err != nil {
			return all, fmt.Errorf("search records page %d: %w", page, err)
		}

		all = append(all, resp.Records...)

		if page >= resp.TotalPages {
			return all, nil
		}
	}
}

type recordEnvelope struct {
	Record project.Record `json:"record"`
}

// CreateRecord creates a record and returns its id.
func (c *Client) CreateRecord(ctx context.Context, rec project.Record) (string, error) {
	var resp struct {
		Record struct {
			ID string `json:"id"`
		} `json:"record"`
	}

	if err := c.do(ctx, http.MethodPost, "/records.json", nil, recordEnvelope{Record: rec}, &resp); err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}

	if resp.Record.ID == "" {
		return "", errors.New("create record: response has no record id")
	}

	return resp.Record.ID, nil
}

// UpdateRecord replaces the record id.
func (c *Client) UpdateRecord(ctx context.Context, id string, rec project.Record) error {
	if err := c.do(ctx, http.MethodPut, "/records/"+url.PathEscape(id)+".json", nil, recordEnvelope{Record: rec}, nil); err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}

	return nil
}
