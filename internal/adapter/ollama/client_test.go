package ollama

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(endpoint string) *Client {
	return NewClient(endpoint, "llama3", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Generate_SendsContract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req["model"])
		assert.Equal(t, "hello", req["prompt"])
		assert.Equal(t, "json", req["format"])
		assert.Equal(t, false, req["stream"])

		_, _ = w.Write([]byte(`{"model":"llama3","response":"{\"summary\":\"ok\"}","done":true}`))
	}))
	defer srv.Close()

	payload, err := testClient(srv.URL).Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"ok"}`, payload)
}

func TestClient_Generate_MissingPayload(t *testing.T) {
	for name, body := range map[string]string{
		"absent": `{"model":"llama3","done":true}`,
		"empty":  `{"response":""}`,
		"null":   `{"response":null}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := testClient(srv.URL).Generate(context.Background(), "p")
			assert.ErrorIs(t, err, domain.ErrModelNoPayload)
			assert.ErrorIs(t, err, domain.ErrModelResponse)
		})
	}
}

func TestClient_Generate_MalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`garbage`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, domain.ErrModelResponse)
	assert.NotErrorIs(t, err, domain.ErrModelEndpoint)
}

func TestClient_Generate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"llama3\" not found"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelEndpoint)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_Generate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := testClient(endpoint).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, domain.ErrModelEndpoint)
}
