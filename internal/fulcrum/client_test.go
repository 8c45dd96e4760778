package fulcrum

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app-reconciler/internal/project"
	"app-reconciler/internal/upload"
)

var _ upload.Store = (*Client)(nil)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	c := NewClient(srv.URL+"/", "secret", 5*time.Second, nil)

	t.Cleanup(func() {
		c.Close()
		srv.Close()
	})

	return c
}

func TestFormByName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms.json", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-ApiToken"))
		assert.Equal(t, "Inspections", r.URL.Query().Get("search"))

		_, _ = io.WriteString(w, `{"forms":[
			{"id":"f1","name":"Inspections (old)","elements":[]},
			{"id":"f2","name":"Inspections","elements":[{"key":"a1","data_name":"notes","type":"TextField"}]}
		]}`)
	})

	form, err := c.FormByName(context.Background(), "Inspections")
	require.NoError(t, err)
	assert.Equal(t, "f2", form.ID)
	require.Len(t, form.Elements, 1)
	assert.Equal(t, "notes", form.Elements[0].DataName)

	_, err = c.FormByName(context.Background(), "Missing")
	require.ErrorIs(t, err, ErrFormNotFound)
}

func TestSearchRecords_Pages(t *testing.T) {
	var pages []string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "f1", q.Get("form_id"))
		pages = append(pages, q.Get("page"))

		switch q.Get("page") {
		case "1":
			_, _ = io.WriteString(w, `{"records":[{"id":"r1"},{"id":"r2"}],"total_pages":2}`)
		default:
			_, _ = io.WriteString(w, `{"records":[{"id":"r3","form_values":{"x":"1"}}],"total_pages":2}`)
		}
	})

	recs, err := c.SearchRecords(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	require.Len(t, recs, 3)
	assert.Equal(t, "r3", recs[2].ID)
	assert.JSONEq(t, `"1"`, string(recs[2].FormValues["x"]))
}

func TestCreateRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "form-1", body["record"]["form_id"])

		_, _ = io.WriteString(w, `{"record":{"id":"new-1"}}`)
	})

	id, err := c.CreateRecord(context.Background(), project.Record{
		FormID:     "form-1",
		FormValues: map[string]project.Value{"a1": project.Text("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-1", id)
}

func TestUpdateRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/records/abc.json", r.URL.Path)
		_, _ = io.WriteString(w, `{"record":{"id":"abc"}}`)
	})

	require.NoError(t, c.UpdateRecord(context.Background(), "abc", project.Record{}))
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
		message   string
	}{
		{"server error", http.StatusBadGateway, "bad gateway", true, "HTTP 502: bad gateway"},
		{"rate limited", http.StatusTooManyRequests, "", true, "HTTP 429: "},
		{"validation list", http.StatusUnprocessableEntity, `{"errors":["form_id is required"]}`, false, "HTTP 422: form_id is required"},
		{"errors on success", http.StatusOK, `{"errors":{"status":["is invalid"]}}`, false, "HTTP 200: status: is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.CreateRecord(context.Background(), project.Record{})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.retryable, apiErr.Retryable())
			assert.Equal(t, tt.message, apiErr.Error())
		})
	}
}

func TestCreateRecord_MissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"record":{}}`)
	})

	_, err := c.CreateRecord(context.Background(), project.Record{})
	require.Error(t, err)
}
