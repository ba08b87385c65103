// Package gemini calls the generative-language API to extract
// candidate calendar events from a rendered e-mail prompt.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DaviCMachado/Calendar-Agendator/internal/models"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout = 30 * time.Second
)

// Failure kinds for a single inference answer. These are terminal for
// the request: re-running an unparsable answer under the same prompt
// is expected to reproduce the same failure, so none of them is
// retried.
var (
	// ErrUnexpectedEnvelope means the HTTP response decoded but the
	// nested candidates/content/parts path was absent.
	ErrUnexpectedEnvelope = errors.New("response envelope missing expected fields")

	// ErrEmptyAnswer means the model's text was empty after
	// fence-stripping; no JSON parse is attempted.
	ErrEmptyAnswer = errors.New("empty answer after stripping")

	// ErrInvalidJSON wraps a JSON syntax or shape failure in the
	// model's answer.
	ErrInvalidJSON = errors.New("answer is not valid JSON")
)

// RetryPolicy bounds how transient transport and HTTP failures are
// retried. MaxAttempts counts the first attempt.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy matches the observed production behavior: two
// attempts total with a five second pause between them.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 2, Delay: 5 * time.Second}

// Client submits prompts to the generateContent endpoint and parses
// the loosely structured answer into candidate events.
type Client struct {
	logger  *slog.Logger
	apiKey  string
	model   string
	retry   RetryPolicy
	baseURL string
	client  *http.Client
	sleep   func(time.Duration)
}

// NewClient creates a Gemini client. The API key is passed as a query
// parameter on each request, as the service expects.
func NewClient(logger *slog.Logger, apiKey, model string, retry RetryPolicy) *Client {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Client{
		logger:  logger,
		apiKey:  apiKey,
		model:   model,
		retry:   retry,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		sleep:   time.Sleep,
	}
}

// ExtractEvents submits the prompt and returns whatever candidate
// events the model reported. No failure crosses this boundary:
// transient errors are retried per the policy and every terminal
// condition degrades to an empty result plus a log entry.
func (c *Client) ExtractEvents(ctx context.Context, promptText string) []models.CandidateEvent {
	answer, err := c.generateWithRetry(ctx, promptText)
	if err != nil {
		c.logger.Error("Inference request failed, skipping e-mail.", "error", err)
		return nil
	}

	events, err := parseEvents(answer)
	if err != nil {
		if errors.Is(err, ErrEmptyAnswer) {
			c.logger.Warn("Model answer was empty after cleaning.")
		} else {
			c.logger.Error("Could not process model answer.", "error", err, "answer", answer)
		}
		return nil
	}
	return events
}

// generateWithRetry calls the endpoint until it yields an answer or
// the retry budget is spent. Only transport errors and non-success
// HTTP statuses are retried; an unexpected envelope shape is terminal.
func (c *Client) generateWithRetry(ctx context.Context, promptText string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		answer, err := c.generate(ctx, promptText)
		if err == nil {
			return answer, nil
		}
		if errors.Is(err, ErrUnexpectedEnvelope) {
			return "", err
		}
		lastErr = err
		if attempt < c.retry.MaxAttempts {
			c.logger.Warn("Inference request failed, will retry.",
				"attempt", attempt, "maxAttempts", c.retry.MaxAttempts, "error", err)
			c.sleep(c.retry.Delay)
		}
	}
	return "", fmt.Errorf("all %d attempts failed: %w", c.retry.MaxAttempts, lastErr)
}

// generate performs one generateContent request and returns the raw
// text of the first candidate.
func (c *Client) generate(ctx context.Context, promptText string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: promptText}}}},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrUnexpectedEnvelope
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// parseEvents strips markdown fences from the answer and decodes the
// {"eventos": [...]} payload. A missing "eventos" key decodes to an
// empty list.
func parseEvents(answer string) ([]models.CandidateEvent, error) {
	cleaned := stripFences(answer)
	if cleaned == "" {
		return nil, ErrEmptyAnswer
	}

	var payload struct {
		Eventos []models.CandidateEvent `json:"eventos"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return payload.Eventos, nil
}

// stripFences removes a leading ```json marker and a trailing ```
// marker, trimming surrounding whitespace on both sides.
func stripFences(answer string) string {
	s := strings.TrimSpace(answer)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// --- Gemini API wire types ---

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

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
