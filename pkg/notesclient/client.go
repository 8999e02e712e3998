// Package notesclient talks to the notes API on behalf of the reflect CLI:
// it looks up subject titles and stores exported reflections as sub-notes.
package notesclient

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

	"github.com/patrickmn/go-cache"
)

const (
	defaultTitleTTL    = 5 * time.Minute
	titleCleanupPeriod = 10 * time.Minute
	defaultHTTPTimeout = 15 * time.Second
)

// TitleLookup resolves a subject identifier to the title used in export text.
type TitleLookup interface {
	Title(ctx context.Context, subjectID string) (string, error)
}

// NoteCreator stores an exported reflection as a note under its subject.
type NoteCreator interface {
	CreateChildNote(ctx context.Context, parentID, title, content string) (*Note, error)
}

type Note struct {
	Id       string  `json:"id"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	FolderId *string `json:"folder_id"`
	ParentId *string `json:"parent_id"`
}

// Error is a non-2xx answer of the API.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("notes api: %d %s", e.Status, e.Detail)
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	titles  *cache.Cache
}

var (
	_ TitleLookup = &Client{}
	_ NoteCreator = &Client{}
)

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: defaultHTTPTimeout},
		titles:  cache.New(defaultTitleTTL, titleCleanupPeriod),
	}
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Detail string          `json:"detail"`
}

func (c *Client) GetNote(ctx context.Context, id string) (*Note, error) {
	var note Note
	if err := c.do(ctx, http.MethodGet, "/api/notes/"+url.PathEscape(id), nil, &note); err != nil {
		return nil, err
	}
	c.titles.SetDefault(note.Id, note.Title)
	return &note, nil
}

// Title serves repeated lookups from the cache.
func (c *Client) Title(ctx context.Context, subjectID string) (string, error) {
	if title, ok := c.titles.Get(subjectID); ok {
		return title.(string), nil
	}
	note, err := c.GetNote(ctx, subjectID)
	if err != nil {
		return "", err
	}
	return note.Title, nil
}

func (c *Client) CreateChildNote(ctx context.Context, parentID, title, content string) (*Note, error) {
	body := map[string]string{"title": title, "content": content}
	var note Note
	if err := c.do(ctx, http.MethodPost, "/api/notes/"+url.PathEscape(parentID)+"/children", body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := env.Detail
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Detail: detail}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
