package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPGeneratorPostsSummary(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Prompt
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "audited content"})
	}))
	defer server.Close()

	gen := NewGenerator(server.URL, zap.NewNop())
	content, err := gen.Generate(context.Background(), "staff sid-k1, period 2026-W36: 3 jobs")
	require.NoError(t, err)
	assert.Equal(t, "audited content", content)
	assert.Equal(t, "staff sid-k1, period 2026-W36: 3 jobs", gotPrompt)
}

func TestHTTPGeneratorNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewGenerator(server.URL, zap.NewNop()).Generate(context.Background(), "summary")
	assert.Error(t, err)
}

func TestHTTPGeneratorEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{})
	}))
	defer server.Close()

	_, err := NewGenerator(server.URL, zap.NewNop()).Generate(context.Background(), "summary")
	assert.Error(t, err)
}

func TestHTTPGeneratorHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGenerator(server.URL, zap.NewNop()).Generate(ctx, "summary")
	assert.Error(t, err)
}

func TestStubGeneratorWhenUnconfigured(t *testing.T) {
	gen := NewGenerator("", zap.NewNop())
	content, err := gen.Generate(context.Background(), "summary")
	require.NoError(t, err)
	assert.Contains(t, content, "summary")
}
