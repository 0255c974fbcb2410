// Package classifier labels a chunk's features with a mood using the external
// inference service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/mood"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"go.uber.org/zap"
)

type predictRequest struct {
	Features    moodboard.ChunkFeatures `json:"features"`
	SongName    string                  `json:"song_name"`
	ChunkNumber int                     `json:"chunk_number"`
}

type predictResponse struct {
	Mood  string `json:"mood"`
	Error string `json:"error,omitempty"`
}

// Classifier calls the mood-inference service. It never returns an error:
// any failure degrades to mood.Unknown.
type Classifier struct {
	log        *zap.SugaredLogger
	url        string
	httpClient *http.Client
}

func NewClassifier(log *zap.SugaredLogger, cfg config.Config) *Classifier {
	return &Classifier{
		log:        log,
		url:        strings.TrimSpace(cfg.MoodServiceURL),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

var Options = NewClassifier

// Classify returns the chunk's mood, or mood.Unknown if the service fails or
// answers with something other than one of the four labels. It is not retried.
func (c *Classifier) Classify(ctx context.Context, features moodboard.ChunkFeatures, songName string, chunk int) mood.Mood {
	label, err := c.predict(ctx, predictRequest{Features: features, SongName: songName, ChunkNumber: chunk})
	if err != nil {
		c.log.Warnw("Mood prediction failed", "error", err, "song", songName, "chunk", chunk)
		return mood.Unknown
	}

	m := mood.ParseLabel(label)
	if m.IsUnknown() {
		c.log.Warnw("Unrecognised mood label", "label", label, "song", songName, "chunk", chunk)
	}
	return m
}

func (c *Classifier) predict(ctx context.Context, payload predictRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("classifier: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("classifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("classifier: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("classifier: unexpected status %d", resp.StatusCode)
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("classifier: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("classifier: %s", parsed.Error)
	}
	return parsed.Mood, nil
}
