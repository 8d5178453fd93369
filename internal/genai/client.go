// Package genai synthesizes structured course content out of a free-text
// generation oracle.
//
// The oracle guarantees nothing about its output shape. All structure
// (lesson markers, quiz JSON) is imposed on this side by the parsing rules
// in lessons.go and quiz.go, which is why those rules carry the bulk of the
// package's tests.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sakif/learnloop/internal/apperror"
)

// Generator is the text-generation oracle contract: prompt in, free text
// out. Tests substitute canned generators; Client is the Gemini binding.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const geminiBase = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

// Client calls the Gemini generateContent REST endpoint.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ Generator = (*Client)(nil)

// NewClient creates a Client. An empty apiKey is allowed; Generate reports
// Unavailable until one is configured.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: geminiBase,
		// Generation is by far the slowest external call in the pipeline.
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the first candidate's text.
// Unreachable service, non-200 status or an empty candidate list all
// surface as Unavailable; the synthesizers decide whether that aborts the
// operation or triggers a fallback.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", apperror.Unavailable("gemini", "api key not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("genai: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("genai: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperror.Unavailable("gemini", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperror.Unavailable("gemini", fmt.Sprintf("api returned status %d", resp.StatusCode))
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("genai: decoding response: %w", err)
	}

	if len(payload.Candidates) == 0 || len(payload.Candidates[0].Content.Parts) == 0 {
		return "", apperror.Unavailable("gemini", "response contained no candidates")
	}

	return payload.Candidates[0].Content.Parts[0].Text, nil
}
