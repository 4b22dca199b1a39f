// Package vision is the client for the vision/OCR collaborator: it hands a
// document to a vision LLM and gets back best-effort markdown text. Page
// handling is the collaborator's concern; this client only requires one
// assembled string per document, page order preserved.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	dErrors "sealedger/pkg/domain-errors"
)

const systemPrompt = `Convert the provided document into Markdown format. Ensure that all content from the page is included, such as headers, footers, subtexts, tables, and any other elements.

Requirements:

- Output Only Markdown: Return solely the Markdown content without any additional explanations or comments.
- No Delimiters: Do not use code fences or delimiters.
- Complete Content: Do not omit any part of the page, including headers, footers, and subtext.`

// Client calls an OpenAI-compatible vision chat endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

func NewClient(baseURL, apiKey, model string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, model: model, httpc: httpc}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractText converts document bytes into assembled text. Failures are
// ExtractionError (or Timeout when the collaborator's deadline fires);
// callers treat them as non-fatal and continue with what they have.
func (c *Client) ExtractText(ctx context.Context, doc []byte, contentType string) (string, error) {
	if len(doc) == 0 {
		return "", dErrors.New(dErrors.CodeExtraction, "document is empty")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(doc))

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: systemPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
			},
		}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeExtraction, "marshal vision request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeExtraction, "build vision request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "vision collaborator timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeExtraction, "call vision collaborator")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", dErrors.Newf(dErrors.CodeExtraction, "vision collaborator responded %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeExtraction, "decode vision response")
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", dErrors.New(dErrors.CodeExtraction, "vision collaborator returned no text")
	}
	return out.Choices[0].Message.Content, nil
}
