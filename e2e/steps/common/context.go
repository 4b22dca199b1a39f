// Package common holds the shared test context and generic HTTP steps used
// by every scenario.
package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// TestContext carries the state of one scenario: the API target, role tokens
// and the last response.
type TestContext struct {
	BaseURL      string
	CompanyToken string
	AuditorToken string
	// AuditorAddr is the ledger address of the service's auditor wallet;
	// dispositions only succeed for records assigned to it.
	AuditorAddr string
	Client      *http.Client

	LastStatus int
	LastBody   []byte

	SubmissionID string
	TxHash       string
	RecordIndex  int
	DocumentName string
	Document     []byte
}

func NewTestContext(baseURL, companyToken, auditorToken, auditorAddr string) *TestContext {
	return &TestContext{
		BaseURL:      baseURL,
		CompanyToken: companyToken,
		AuditorToken: auditorToken,
		AuditorAddr:  auditorAddr,
		Client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.LastStatus = 0
	tc.LastBody = nil
	tc.SubmissionID = ""
	tc.TxHash = ""
	tc.RecordIndex = 0
	tc.DocumentName = ""
	tc.Document = nil
}

// DoJSON sends a JSON request with the given bearer token and captures the
// response.
func (tc *TestContext) DoJSON(method, path, token string, body any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return tc.do(req)
}

// DoMultipart uploads a file as the "document" part.
func (tc *TestContext) DoMultipart(path, token, filename string, content []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return tc.do(req)
}

// DoRaw sends raw bytes as the request body.
func (tc *TestContext) DoRaw(method, path, token string, body []byte) error {
	req, err := http.NewRequest(method, tc.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+token)
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.LastStatus = resp.StatusCode
	tc.LastBody = body
	return nil
}

// Field extracts a top-level string field from the last JSON response.
func (tc *TestContext) Field(name string) (string, error) {
	var payload map[string]any
	if err := json.Unmarshal(tc.LastBody, &payload); err != nil {
		return "", fmt.Errorf("last response is not JSON: %w", err)
	}
	v, ok := payload[name]
	if !ok {
		return "", fmt.Errorf("field %q not present in response: %s", name, tc.LastBody)
	}
	return fmt.Sprintf("%v", v), nil
}
