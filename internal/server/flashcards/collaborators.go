package flashcards

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
)

// Collaborator timeouts. Extraction walks a whole PDF, so it gets more room
// than the explanation round trip.
const (
	extractTimeout = 2 * time.Minute
	explainTimeout = 30 * time.Second
)

// TextExtractor pulls plain text out of an uploaded PDF.
type TextExtractor interface {
	Extract(ctx context.Context, storageKey string) (string, error)
}

// Explainer produces an explanation for one answered question.
type Explainer interface {
	Explain(ctx context.Context, req api.ExplainRequest) (api.ExplainResponse, error)
}

// ParserClient talks to the PDF parser collaborator service.
type ParserClient struct {
	base string
	http *http.Client
}

func NewParserClient(base string) *ParserClient {
	return &ParserClient{base: base, http: &http.Client{Timeout: extractTimeout}}
}

// Extract asks the parser to fetch the blob and return its text.
func (c *ParserClient) Extract(ctx context.Context, storageKey string) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	err := postJSON(ctx, c.http, c.base+"/v1/extract",
		map[string]string{"storageKey": storageKey}, &out)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

// ExplainerClient talks to the explanation collaborator service.
type ExplainerClient struct {
	base string
	http *http.Client
}

func NewExplainerClient(base string) *ExplainerClient {
	return &ExplainerClient{base: base, http: &http.Client{Timeout: explainTimeout}}
}

func (c *ExplainerClient) Explain(ctx context.Context, req api.ExplainRequest) (api.ExplainResponse, error) {
	var out api.ExplainResponse
	err := postJSON(ctx, c.http, c.base+"/v1/explain", req, &out)
	return out, err
}

func postJSON(ctx context.Context, client *http.Client, url string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: collaborator returned %s", common.ErrInternal, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
