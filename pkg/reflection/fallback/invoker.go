// Package fallback performs the one-shot, non-streaming reflection request
// used when a streaming generation fails.
package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/pkg/reflection"
)

const module = "FallbackInvoker"

// Invoker produces a complete reflection for a subject in a single call.
type Invoker interface {
	Invoke(ctx context.Context, subjectID string, mode reflection.Mode) (reflection.Result, error)
}

// Error carries the failure message of a fallback call exactly as the
// backend reported it.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

type HTTPInvoker struct {
	BaseURL string
	Token   string
	Source  string
	Client  *http.Client
	logger  logger.ILogger
}

var _ Invoker = &HTTPInvoker{}

type Option func(*HTTPInvoker)

func WithToken(token string) Option {
	return func(i *HTTPInvoker) { i.Token = token }
}

func WithHTTPClient(c *http.Client) Option {
	return func(i *HTTPInvoker) { i.Client = c }
}

func WithLogger(l logger.ILogger) Option {
	return func(i *HTTPInvoker) { i.logger = l }
}

// WithSource sets prompt_payload.source, which tells the backend who asked.
func WithSource(source string) Option {
	return func(i *HTTPInvoker) { i.Source = source }
}

func NewHTTPInvoker(baseURL string, opts ...Option) *HTTPInvoker {
	i := &HTTPInvoker{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Source:  "cli",
		Client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type reflectRequest struct {
	Mode          string         `json:"mode"`
	PromptPayload map[string]any `json:"prompt_payload"`
}

// Invoke posts to /api/notes/{id}/reflect. It never retries.
func (i *HTTPInvoker) Invoke(ctx context.Context, subjectID string, mode reflection.Mode) (reflection.Result, error) {
	payload, err := json.Marshal(reflectRequest{
		Mode:          mode.String(),
		PromptPayload: map[string]any{"source": i.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/notes/%s/reflect", i.BaseURL, url.PathEscape(subjectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if i.Token != "" {
		req.Header.Set("Authorization", "Bearer "+i.Token)
	}

	resp, err := i.Client.Do(req)
	if err != nil {
		i.logger.Warn(module, "Fallback request failed", map[string]interface{}{"subject_id": subjectID, "error": err.Error()})
		return nil, &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: err.Error()}
	}

	var doc map[string]any
	_ = json.Unmarshal(body, &doc)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(doc, resp.StatusCode)
		i.logger.Warn(module, "Fallback rejected", map[string]interface{}{
			"subject_id": subjectID,
			"status":     resp.StatusCode,
			"message":    msg,
		})
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}

	result, err := resultJSON(doc)
	if err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: err.Error()}
	}

	i.logger.Info(module, "Fallback reflection received", map[string]interface{}{"subject_id": subjectID, "mode": mode})
	return result, nil
}

// errorMessage picks the first textual error field of the body, in the
// order detail, error, message.
func errorMessage(doc map[string]any, status int) string {
	for _, key := range []string{"detail", "error", "message"} {
		if s, ok := doc[key].(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

// resultJSON reads result_json from the response envelope's data, or from
// the body itself when it is not enveloped. A JSON-encoded string is
// accepted too.
func resultJSON(doc map[string]any) (reflection.Result, error) {
	src := doc
	if data, ok := doc["data"].(map[string]any); ok {
		src = data
	}

	switch v := src["result_json"].(type) {
	case map[string]any:
		return reflection.Result(v), nil
	case string:
		r, err := reflection.ParseExact(v)
		if err != nil {
			return nil, fmt.Errorf("invalid result_json: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("response has no result_json")
	}
}
