// Package apiclient is a small HTTP client for the filings API. It is
// used by the filectl command and by the wizard flows, and speaks the
// same response envelope the server emits.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	ResourceCopyright = "copyright"
	ResourcePatents   = "patents"
)

// Application is the subset of the server's application payload the
// client cares about. It is shared by the copyright and patent variants.
type Application struct {
	ID                string                 `json:"id"`
	ApplicationNumber string                 `json:"application_number"`
	CurrentStep       int                    `json:"current_step"`
	Status            string                 `json:"status"`
	FormData          map[string]interface{} `json:"form_data"`
}

type apiEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Application *Application `json:"application"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// CreateApplication starts a new application of the given resource
// ("copyright" or "patents") from the initial form fields.
func (c *Client) CreateApplication(ctx context.Context, resource string, fields map[string]interface{}) (*Application, error) {
	return c.doJSON(ctx, http.MethodPost, "/api/"+resource, fields)
}

// GetApplication fetches an application, including its server-side
// form snapshot, so a client can resume where it left off.
func (c *Client) GetApplication(ctx context.Context, resource, id string) (*Application, error) {
	return c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/%s/%s", resource, id), nil)
}

// SaveStep advances the application to the given step and persists the
// accumulated form fields alongside it.
func (c *Client) SaveStep(ctx context.Context, resource, id string, step int, fields map[string]interface{}) (*Application, error) {
	body := map[string]interface{}{"step": step}
	if len(fields) > 0 {
		body["form_data"] = fields
	}
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/%s/%s/step", resource, id), body)
}

// RecordPayment records a completed payment against the application.
func (c *Client) RecordPayment(ctx context.Context, resource, id string, amount float64, method string) (*Application, error) {
	body := map[string]interface{}{"amount": amount}
	if method != "" {
		body["method"] = method
	}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/%s/%s/payment", resource, id), body)
}

// UploadPrimaryFile uploads the work file of a copyright application.
func (c *Client) UploadPrimaryFile(ctx context.Context, id, path string) (*Application, error) {
	return c.doMultipart(ctx, fmt.Sprintf("/api/copyright/%s/primary-file", id), "primary", []string{path})
}

// UploadSupportingDocuments uploads supporting documents for either
// application type.
func (c *Client) UploadSupportingDocuments(ctx context.Context, resource, id string, paths []string) (*Application, error) {
	return c.doMultipart(ctx, fmt.Sprintf("/api/%s/%s/supporting-documents", resource, id), "documents", paths)
}

// UploadTechnicalDrawings uploads drawings for a patent application.
func (c *Client) UploadTechnicalDrawings(ctx context.Context, id string, paths []string) (*Application, error) {
	return c.doMultipart(ctx, fmt.Sprintf("/api/patents/%s/technical-drawings", id), "drawings", paths)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}) (*Application, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req)
}

func (c *Client) doMultipart(ctx context.Context, path, field string, paths []string) (*Application, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, filePath := range paths {
		if err := attachFile(writer, field, filePath); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(req)
}

func attachFile(writer *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func (c *Client) send(req *http.Request) (*Application, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "unexpected response from server"}
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return nil, apiErr
	}

	return envelope.Data.Application, nil
}
