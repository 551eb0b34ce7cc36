package answer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	// trailing slashes are trimmed from the base URL
	return NewClient(srv.URL+"//", 0)
}

func TestAskSuccess(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is the refund policy?", req.Question)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"Refunds within 30 days.","sources":[{"source":"policy.md","page":2,"score":0.91}]}`))
	})

	resp, err := client.Ask(context.Background(), "What is the refund policy?")
	require.NoError(t, err)
	require.NotNil(t, resp.Answer)
	assert.Equal(t, "Refunds within 30 days.", *resp.Answer)
	assert.JSONEq(t, `[{"source":"policy.md","page":2,"score":0.91}]`, string(resp.Sources))
}

func TestAskNullAnswer(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":null,"sources":[]}`))
	})

	resp, err := client.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Nil(t, resp.Answer)
}

func TestAskStatusError(t *testing.T) {
	t.Run("json body is kept verbatim", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "question is required"}`))
		})

		_, err := client.Ask(context.Background(), "q")
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, 400, se.Code)
		assert.Equal(t, `HTTP 400: {"error": "question is required"}`, err.Error())
	})

	t.Run("empty body falls back to status text", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.Ask(context.Background(), "q")
		require.Error(t, err)
		assert.Equal(t, "HTTP 500: Internal Server Error", err.Error())
	})

	t.Run("html body is flattened", func(t *testing.T) {
		client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html><head><title>502</title><style>h1{}</style></head><body><h1>502 Bad Gateway</h1>\n<hr><center>nginx</center></body></html>"))
		})

		_, err := client.Ask(context.Background(), "q")
		require.Error(t, err)
		assert.Equal(t, "HTTP 502: 502 Bad Gateway nginx", err.Error())
	})
}

func TestAskMalformed(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAskTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Ask(context.Background(), "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestHealthCheckAndVersion(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/api/version":
			_, _ = w.Write([]byte(`{"service":"backend","version":"1.0.0","environment":"local"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	require.NoError(t, client.HealthCheck(context.Background()))

	info, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "local", info.Environment)
}

func TestHealthCheckUnhealthy(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	assert.Error(t, client.HealthCheck(context.Background()))
}

func TestBodyText(t *testing.T) {
	assert.Equal(t, "", BodyText([]byte("  \n"), "text/plain"))
	assert.Equal(t, "plain failure", BodyText([]byte(" plain   failure\n"), "text/plain"))
	assert.Equal(t, "Service down", BodyText([]byte("<p>Service <b>down</b></p><script>x()</script>"), ""))
}
