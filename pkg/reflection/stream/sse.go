package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/pkg/reflection"
)

// SSETransport reads the reflection event stream served at
// {BaseURL}/api/ai/reflect/stream.
type SSETransport struct {
	BaseURL string
	Token   string
	Client  *http.Client
	Logger  logger.ILogger
}

var _ Transport = &SSETransport{}

func NewSSETransport(baseURL, token string, l logger.ILogger) *SSETransport {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &SSETransport{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{}, // no timeout: the stream lives as long as the generation
		Logger:  l,
	}
}

type ssePayload struct {
	Type     string            `json:"type"`
	Delta    string            `json:"delta"`
	FullText string            `json:"full_text"`
	Parsed   reflection.Result `json:"parsed"`
	Error    string            `json:"error"`
}

func (t *SSETransport) Open(ctx context.Context, req Request) (<-chan Event, error) {
	q := url.Values{}
	q.Set("note_id", req.SubjectID)
	q.Set("mode", req.Mode.String())
	endpoint := t.BaseURL + "/api/ai/reflect/stream?" + q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	if t.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.Token)
	}

	resp, err := t.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("stream rejected: status %d, body: %s", resp.StatusCode, string(body))
	}

	ch := make(chan Event, 16)
	go t.read(ctx, resp.Body, ch)
	return ch, nil
}

// read parses event/data frames until the done event, the end of the body
// or cancellation. The channel is closed on return.
func (t *SSETransport) read(ctx context.Context, body io.ReadCloser, ch chan<- Event) {
	defer close(ch)
	defer body.Close()

	send := func(ev Event) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var name string
	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Bytes()

		if len(line) == 0 {
			if data.Len() > 0 {
				ev, ok := t.decode(name, data.Bytes())
				if ok && !send(ev) {
					return
				}
				if ev.Kind == EventDone || ev.Kind == EventError {
					return
				}
			}
			name = ""
			data.Reset()
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		switch string(field) {
		case "event":
			name = string(value)
		case "data":
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.Write(value)
		}
	}

	if ctx.Err() != nil {
		return
	}
	if err := scanner.Err(); err != nil {
		send(Event{Kind: EventError, Err: fmt.Errorf("read stream: %w", err)})
		return
	}
	// a final frame may end at EOF without its blank line
	if data.Len() > 0 {
		if ev, ok := t.decode(name, data.Bytes()); ok {
			send(ev)
		}
	}
}

// decode maps one frame to an Event. Malformed chunks are skipped; a
// malformed done frame becomes an error since the result is lost.
func (t *SSETransport) decode(name string, data []byte) (Event, bool) {
	var p ssePayload
	err := json.Unmarshal(data, &p)

	kind := name
	if kind == "" {
		kind = p.Type
	}

	switch EventKind(kind) {
	case EventChunk:
		if err != nil {
			t.Logger.Warn(module, "Malformed chunk skipped", map[string]interface{}{"error": err.Error()})
			return Event{}, false
		}
		return Event{Kind: EventChunk, Delta: p.Delta}, true
	case EventDone:
		if err != nil {
			return Event{Kind: EventError, Err: fmt.Errorf("malformed done event: %w", err)}, true
		}
		return Event{Kind: EventDone, FullText: p.FullText, Parsed: p.Parsed, Message: p.Error}, true
	default:
		return Event{}, false
	}
}
