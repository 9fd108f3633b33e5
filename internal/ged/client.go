// Package ged talks to the document storage service (GED) that holds
// uploaded listing media and agency logos.
package ged

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/mbayedev/immoka/internal/domain"
)

const (
	// MaxFileSize is the per-file upload limit.
	MaxFileSize = 5 * 1024 * 1024
	// MaxBatchFiles is the number of files a single batch may carry.
	MaxBatchFiles = 20
)

// File is one pending upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadOutcome is the per-file result of a batch upload.
type UploadOutcome struct {
	Name  string        `json:"name"`
	Media *domain.Media `json:"media,omitempty"`
	Error string        `json:"error,omitempty"`
}

// Client is an HTTP client for the GED service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a GED client for the given base URL. Requests are
// authenticated with the api key as a bearer token.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AllowedContentType reports whether the mime type is accepted for listing
// media. Only images and videos are stored.
func AllowedContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

// batchResponse is the GED's answer to a batch upload: the files it stored
// plus a per-file error list for the rest.
type batchResponse struct {
	Success bool `json:"success"`
	Data    struct {
		UploadedFiles []domain.Media `json:"uploaded_files"`
	} `json:"data"`
	Errors []struct {
		Name  string `json:"name"`
		Error string `json:"error"`
	} `json:"errors"`
}

// UploadBatch sends all listing media in one multipart call to the GED and
// maps its per-file results back onto outcomes. Files failing the local
// size or mime checks are reported without ever reaching the wire; a failed
// call marks every sent file as failed instead of aborting the caller.
func (c *Client) UploadBatch(ctx context.Context, documentType string, files []File) []UploadOutcome {
	outcomes := make([]UploadOutcome, len(files))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	sent := make([]int, 0, len(files))
	for i, file := range files {
		outcomes[i] = UploadOutcome{Name: file.Name}

		if err := checkFile(file); err != nil {
			outcomes[i].Error = err.Error()
			continue
		}
		if err := appendFilePart(writer, "files[]", file); err != nil {
			outcomes[i].Error = err.Error()
			continue
		}
		sent = append(sent, i)
	}

	if len(sent) == 0 {
		return outcomes
	}

	fields := map[string]string{"documentType": documentType}
	result, err := c.postMultipart(ctx, "/api/upload", writer, body, fields)
	if err != nil {
		for _, i := range sent {
			outcomes[i].Error = err.Error()
		}
		return outcomes
	}

	stored := make(map[string]*domain.Media, len(result.Data.UploadedFiles))
	for i := range result.Data.UploadedFiles {
		media := &result.Data.UploadedFiles[i]
		stored[media.OriginalName] = media
	}
	failed := make(map[string]string, len(result.Errors))
	for _, failure := range result.Errors {
		failed[failure.Name] = failure.Error
	}

	for _, i := range sent {
		name := files[i].Name
		switch {
		case stored[name] != nil:
			outcomes[i].Media = stored[name]
		case failed[name] != "":
			outcomes[i].Error = failed[name]
		default:
			outcomes[i].Error = "file missing from ged response"
		}
	}

	return outcomes
}

// UploadLogo stores an agency logo through the dedicated endpoint and
// returns its descriptor.
func (c *Client) UploadLogo(ctx context.Context, file File, corporateName string) (*domain.LogoFile, error) {
	if err := checkFile(file); err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := appendFilePart(writer, "file", file); err != nil {
		return nil, err
	}

	fields := map[string]string{"documentType": "logo"}
	if corporateName != "" {
		fields["corporateName"] = corporateName
	}

	resp, err := c.doMultipart(ctx, "/api/upload-logo", writer, body, fields)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	logo := &domain.LogoFile{}
	if err := json.NewDecoder(resp.Body).Decode(logo); err != nil {
		return nil, fmt.Errorf("failed to decode logo response: %w", err)
	}
	if logo.CreatedAt.IsZero() {
		logo.CreatedAt = time.Now()
	}

	return logo, nil
}

// DeleteFile removes a stored file by its GED identifier. Used for cleanup
// after a failed persistence step, so callers treat errors as advisory.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/files/"+url.PathEscape(fileID), nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("ged delete returned status %d", resp.StatusCode)
	}
	return nil
}

func checkFile(file File) error {
	if file.Size > MaxFileSize {
		return fmt.Errorf("file %s exceeds the %d byte limit", file.Name, MaxFileSize)
	}
	if !AllowedContentType(file.ContentType) {
		return fmt.Errorf("file %s has unsupported type %s", file.Name, file.ContentType)
	}
	return nil
}

func appendFilePart(writer *multipart.Writer, fieldName string, file File) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldName, file.Name))
	header.Set("Content-Type", file.ContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return fmt.Errorf("failed to read file %s: %w", file.Name, err)
	}
	return nil
}

func (c *Client) postMultipart(ctx context.Context, path string, writer *multipart.Writer, body *bytes.Buffer, fields map[string]string) (*batchResponse, error) {
	resp, err := c.doMultipart(ctx, path, writer, body, fields)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	result := &batchResponse{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return result, nil
}

func (c *Client) doMultipart(ctx context.Context, path string, writer *multipart.Writer, body *bytes.Buffer, fields map[string]string) (*http.Response, error) {
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("ged returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
