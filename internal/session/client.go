// Package session drives the template editing workflow: fetching the
// master template, splitting it into a locked letterhead and an editable
// body, and validating, sealing, and posting saves.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"letterforge/api/internal/editor"
	"letterforge/api/internal/secure"
)

// Client talks to the template endpoints. Success is a body with
// statusCode 200 and a non-empty result; anything else is a transport
// failure.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type legacyResponse struct {
	StatusCode int    `json:"statusCode"`
	Result     string `json:"result"`
	Error      string `json:"error"`
}

// FetchTemplate loads the master template markup.
func (c *Client) FetchTemplate(ctx context.Context) (string, error) {
	return c.post(ctx, "loadTemplate", "/EmailTemplate", struct{}{})
}

// SaveTemplate posts a sealed template payload.
func (c *Client) SaveTemplate(ctx context.Context, env secure.Envelope) error {
	_, err := c.post(ctx, "saveTemplate", "/saveMasterTemplate", env)
	return err
}

// ResetTemplate restores the factory default and returns its markup.
func (c *Client) ResetTemplate(ctx context.Context) (string, error) {
	return c.post(ctx, "resetTemplate", "/resetTemplate", struct{}{})
}

// ExportPDF downloads the sample-substituted template rendered as a PDF.
func (c *Client) ExportPDF(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/exportPdf", bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, &editor.TransportError{Op: "exportPdf", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &editor.TransportError{Op: "exportPdf", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &editor.TransportError{Op: "exportPdf", Err: fmt.Errorf("backend returned status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &editor.TransportError{Op: "exportPdf", Err: err}
	}
	return data, nil
}

// SendTest asks the backend to email the substituted preview to one
// recipient.
func (c *Client) SendTest(ctx context.Context, to string) error {
	raw, err := json.Marshal(map[string]string{"to": to})
	if err != nil {
		return &editor.TransportError{Op: "sendTest", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendTest", bytes.NewReader(raw))
	if err != nil {
		return &editor.TransportError{Op: "sendTest", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &editor.TransportError{Op: "sendTest", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &editor.TransportError{Op: "sendTest", Err: fmt.Errorf("backend returned status %d", resp.StatusCode)}
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, path string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", &editor.TransportError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return "", &editor.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &editor.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	var body legacyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &editor.TransportError{Op: op, Err: err}
	}
	if body.StatusCode != http.StatusOK || body.Result == "" {
		message := body.Error
		if message == "" {
			message = fmt.Sprintf("backend returned statusCode %d", body.StatusCode)
		}
		return "", &editor.TransportError{Op: op, Err: fmt.Errorf("%s", message)}
	}
	return body.Result, nil
}
