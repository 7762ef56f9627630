package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// httpGenerator calls the external audit-content producer. The call is
// single-shot: retries live in the scheduler, not here.
type httpGenerator struct {
	url    string
	client *http.Client
}

// NewGenerator returns the configured generator. Without a URL a local stub
// echoes the summary, which keeps the pipeline runnable in development.
func NewGenerator(url string, logger *zap.Logger) Generator {
	if url == "" {
		logger.Warn("AUDIT_GENERATOR_URL not provided; using local stub generator")
		return GeneratorFunc(func(ctx context.Context, staffSummary string) (string, error) {
			return "Audit summary: " + staffSummary, nil
		})
	}
	return &httpGenerator{url: url, client: &http.Client{}}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (g *httpGenerator) Generate(ctx context.Context, staffSummary string) (string, error) {
	body, err := json.Marshal(generateRequest{Prompt: staffSummary})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audit generator returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Text == "" {
		return "", fmt.Errorf("audit generator returned empty content")
	}
	return out.Text, nil
}
