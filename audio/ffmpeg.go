// Package audio cuts local audio files into fixed-length windows with ffmpeg.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/AadityaKP/MoodBoard/config"
	"go.uber.org/zap"
)

// Segmenter probes and slices audio files.
type Segmenter interface {
	// Duration reports the total length of the file at path.
	Duration(ctx context.Context, path string) (time.Duration, error)
	// Extract encodes [start, start+length) of path into out.
	Extract(ctx context.Context, path string, start, length time.Duration, out string) error
}

// FFmpeg is a Segmenter backed by the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	log         *zap.SugaredLogger
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg returns an FFmpeg using the binaries named in cfg, falling back to PATH.
func NewFFmpeg(log *zap.SugaredLogger, cfg config.Config) *FFmpeg {
	f := &FFmpeg{
		log:         log,
		ffmpegPath:  strings.TrimSpace(cfg.FFmpegPath),
		ffprobePath: strings.TrimSpace(cfg.FFprobePath),
	}
	if f.ffmpegPath == "" {
		f.ffmpegPath = "ffmpeg"
	}
	if f.ffprobePath == "" {
		f.ffprobePath = "ffprobe"
	}
	return f
}

// ProvideSegmenter provides the ffmpeg-backed Segmenter.
func ProvideSegmenter(log *zap.SugaredLogger, cfg config.Config) Segmenter {
	return NewFFmpeg(log, cfg)
}

var Options = ProvideSegmenter

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration runs ffprobe and parses format.duration.
func (f *FFmpeg) Duration(ctx context.Context, path string) (time.Duration, error) {
	args := []string{"-v", "error", "-show_entries", "format=duration", "-of", "json", "--", path}
	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("audio: ffprobe %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	var probe probeOutput
	if err := json.Unmarshal(out.Bytes(), &probe); err != nil {
		return 0, fmt.Errorf("audio: parse ffprobe output: %w", err)
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("audio: duration not found for %s", path)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Extract encodes the window as 192 kbps MP3.
func (f *FFmpeg) Extract(ctx context.Context, path string, start, length time.Duration, out string) error {
	args := []string{
		"-y", "-v", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-i", path,
		"-vn",
		"-acodec", "libmp3lame",
		"-b:a", "192k",
		out,
	}
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.log.Debugw("Extracting segment", "path", path, "start", start, "out", out)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("audio: ffmpeg %s at %s: %w: %s", path, start, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
