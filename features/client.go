// Package features turns a local audio file into per-chunk acoustic feature
// records by cutting it into windows and uploading each to a feature service.
package features

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

	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/moodboard"
)

// Service measures one audio segment.
type Service interface {
	Analyze(ctx context.Context, path string) (moodboard.ChunkFeatures, error)
}

// Client uploads segments to an HTTP feature-extraction endpoint as
// multipart form field "audioFile".
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		url:        strings.TrimSpace(cfg.FeatureServiceURL),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Analyze uploads the file at path and decodes the nine features.
func (c *Client) Analyze(ctx context.Context, path string) (moodboard.ChunkFeatures, error) {
	f, err := os.Open(path)
	if err != nil {
		return moodboard.ChunkFeatures{}, fmt.Errorf("features: open segment: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audioFile", filepath.Base(path))
	if err != nil {
		return moodboard.ChunkFeatures{}, fmt.Errorf("features: build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return moodboard.ChunkFeatures{}, fmt.Errorf("features: copy segment: %w", err)
	}
	if err := mw.Close(); err != nil {
		return moodboard.ChunkFeatures{}, fmt.Errorf("features: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return moodboard.ChunkFeatures{}, fmt.Errorf("features: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return moodboard.ChunkFeatures{}, fmt.Errorf("features: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return moodboard.ChunkFeatures{}, fmt.Errorf("features: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out moodboard.ChunkFeatures
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return moodboard.ChunkFeatures{}, fmt.Errorf("features: decode response: %w", err)
	}
	return out, nil
}
