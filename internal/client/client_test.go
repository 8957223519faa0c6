package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axio-hub/axio-go/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return New(srv.URL, opts...)
}

func TestAuthorizationHeader(t *testing.T) {
	var gotAuth atomic.Value

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"total_documents": 3, "last_updated": null}`))
	})

	t.Run("token attached", func(t *testing.T) {
		c := newTestClient(t, handler, WithToken(func() string { return "tok-123" }))
		_, err := c.DocumentStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok-123", gotAuth.Load())
	})

	t.Run("absent token omits header", func(t *testing.T) {
		c := newTestClient(t, handler)
		_, err := c.DocumentStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "", gotAuth.Load())
	})
}

func TestAPIErrorTyping(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "plan limit reached"}`))
	})
	c := newTestClient(t, handler)

	_, err := c.Usage(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "plan limit reached", apiErr.Message)
	assert.Equal(t, "/usage", apiErr.Path)
	assert.Equal(t, "403", apiErr.StatusLabel())
}

func TestNetworkErrorUsesSentinel(t *testing.T) {
	// Point at a closed server to force a connection error.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, WithLogger(slog.New(slog.DiscardHandler)))
	c.maxRetries = 0

	_, err := c.Usage(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, "ERR", apiErr.StatusLabel())
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"plan": "pro", "files": {"used": 1, "limit": 10}, "storage": {"used": 0, "limit": 0}}`))
	})
	c := newTestClient(t, handler)

	snap, err := c.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, snap.Plan)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := newTestClient(t, handler)

	_, err := c.Usage(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMutationsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, handler)

	err := c.MarkAllNotificationsRead(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestActiveJob(t *testing.T) {
	t.Run("null means no active job", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`null`))
		}))
		job, err := c.ActiveJob(context.Background())
		require.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("active job decoded", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/jobs/active", r.URL.Path)
			_, _ = w.Write([]byte(`{"id": "j1", "provider": "drive", "total_files": 10, "processed_files": 4, "status": "processing"}`))
		}))
		job, err := c.ActiveJob(context.Background())
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, models.ProviderDrive, job.Provider)
		assert.Equal(t, models.JobProcessing, job.Status)
		assert.InDelta(t, 40.0, job.Percent(), 0.001)
	})
}

func TestIngestMultipart(t *testing.T) {
	type seen struct {
		fields   map[string]string
		filename string
		fileBody string
	}
	var got seen

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/ingest", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		got.fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			got.fields[k] = v[0]
		}
		if files := r.MultipartForm.File["file"]; len(files) > 0 {
			got.filename = files[0].Filename
			f, err := files[0].Open()
			require.NoError(t, err)
			body, _ := io.ReadAll(f)
			_ = f.Close()
			got.fileBody = string(body)
		}
		_, _ = w.Write([]byte(`{"job_id": "job-9"}`))
	})

	t.Run("file upload", func(t *testing.T) {
		c := newTestClient(t, handler)
		resp, err := c.Ingest(context.Background(), IngestRequest{
			File:     strings.NewReader("hello"),
			Filename: "notes.md",
			Metadata: map[string]any{"source": "cli"},
		})
		require.NoError(t, err)
		assert.Equal(t, "job-9", resp.JobID)
		assert.Equal(t, "notes.md", got.filename)
		assert.Equal(t, "hello", got.fileBody)

		var meta map[string]any
		require.NoError(t, json.Unmarshal([]byte(got.fields["metadata"]), &meta))
		assert.Equal(t, "cli", meta["source"])
	})

	t.Run("url crawl", func(t *testing.T) {
		c := newTestClient(t, handler)
		_, err := c.Ingest(context.Background(), IngestRequest{URL: "https://example.com/docs"})
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/docs", got.fields["url"])
	})

	t.Run("notion import", func(t *testing.T) {
		c := newTestClient(t, handler)
		_, err := c.Ingest(context.Background(), IngestRequest{
			NotionPageID: "page-1",
			NotionToken:  "secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "page-1", got.fields["notion_page_id"])
		assert.Equal(t, "secret", got.fields["notion_token"])
	})
}

func TestIngestValidationShortCircuits(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	c := newTestClient(t, handler)

	tests := []struct {
		name string
		req  IngestRequest
	}{
		{"no source", IngestRequest{}},
		{"two sources", IngestRequest{URL: "https://a.example", NotionPageID: "p"}},
		{"malformed url", IngestRequest{URL: "not a url"}},
		{"notion without token", IngestRequest{NotionPageID: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Ingest(context.Background(), tt.req)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}
	assert.Equal(t, int32(0), calls.Load(), "validation failures must not reach the network")
}

func TestDeleteAccountConfirmation(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/settings/profile/me", r.URL.Path)
	})
	c := newTestClient(t, handler)

	err := c.DeleteAccount(context.Background(), "delete")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, int32(0), calls.Load())

	require.NoError(t, c.DeleteAccount(context.Background(), "DELETE"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestInviteValidation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "m1", "email": "a@b.co", "role": "member", "status": "invited"}`))
	}))

	_, err := c.InviteTeamMember(context.Background(), InviteInput{Email: "nope", Role: models.RoleMember})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = c.InviteTeamMember(context.Background(), InviteInput{Email: "a@b.co", Role: models.RoleOwner})
	require.ErrorAs(t, err, &vErr, "owner role cannot be granted by invite")

	member, err := c.InviteTeamMember(context.Background(), InviteInput{Email: "a@b.co", Role: models.RoleMember})
	require.NoError(t, err)
	assert.Equal(t, "m1", member.ID)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&APIError{Status: 404}))
	assert.False(t, IsNotFound(&APIError{Status: 500}))
	assert.False(t, IsNotFound(errors.New("plain")))
}
