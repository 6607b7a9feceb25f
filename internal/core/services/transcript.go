// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package services contains the business logic for talking to models and
// data sources. This file defines where transcripts come from.
//
// A TranscriptSource returns the full caption text of one video in one
// language, with the caption segments joined by single spaces. Sources:
//   - YouTubeTranscriptSource: YouTube caption tracks via kkdai/youtube.
//   - StaticTranscriptSource: plain text files named <videoID>.<lang>.txt.
package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrTranscriptNotFound means the video has no captions at all.
	ErrTranscriptNotFound = errors.New("transcript not found")
	// ErrLanguageUnavailable means the video has captions, but not in the requested language.
	ErrLanguageUnavailable = errors.New("transcript not available in the requested language")
)

// TranscriptSource fetches a video's transcript text.
type TranscriptSource interface {
	Fetch(ctx context.Context, videoID string, language string) (string, error)
}

// YouTubeClient is the part of the YouTube client the transcript source uses.
type YouTubeClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetTranscriptCtx(ctx context.Context, video *youtube.Video, lang string) (youtube.VideoTranscript, error)
}

// YouTubeTranscriptSource reads captions through the YouTube client.
type YouTubeTranscriptSource struct {
	Client YouTubeClient
}

// NewYouTubeTranscriptSource returns a source whose client uses a traced
// HTTP transport.
func NewYouTubeTranscriptSource() *YouTubeTranscriptSource {
	return &YouTubeTranscriptSource{
		Client: &youtube.Client{
			HTTPClient: &http.Client{
				Transport: otelhttp.NewTransport(http.DefaultTransport),
				Timeout:   30 * time.Second,
			},
		},
	}
}

// Fetch loads the video's caption tracks and joins the segment texts of the
// requested language with a space. A video without tracks, or with captions
// disabled, is ErrTranscriptNotFound. A video without a track in the
// language, or whose track is empty, is ErrLanguageUnavailable.
func (s *YouTubeTranscriptSource) Fetch(ctx context.Context, videoID string, language string) (string, error) {
	video, err := s.Client.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("loading video %s: %w", videoID, err)
	}
	if len(video.CaptionTracks) == 0 {
		return "", fmt.Errorf("video %s: %w", videoID, ErrTranscriptNotFound)
	}
	if !hasCaptionTrack(video.CaptionTracks, language) {
		return "", fmt.Errorf("video %s, language %q: %w", videoID, language, ErrLanguageUnavailable)
	}

	segments, err := s.Client.GetTranscriptCtx(ctx, video, language)
	if errors.Is(err, youtube.ErrTranscriptDisabled) {
		return "", fmt.Errorf("video %s: %w", videoID, ErrTranscriptNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("fetching transcript for %s: %w", videoID, err)
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.Join(strings.Fields(html.UnescapeString(seg.Text)), " ")
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("video %s, language %q: %w", videoID, language, ErrLanguageUnavailable)
	}
	return strings.Join(parts, " "), nil
}

// hasCaptionTrack matches the exact language code or a regional variant of
// it, so "en" matches "en-GB".
func hasCaptionTrack(tracks []youtube.CaptionTrack, language string) bool {
	for _, track := range tracks {
		if strings.EqualFold(track.LanguageCode, language) ||
			strings.HasPrefix(strings.ToLower(track.LanguageCode), strings.ToLower(language)+"-") {
			return true
		}
	}
	return false
}

// StaticTranscriptSource reads transcripts from a directory.
type StaticTranscriptSource struct {
	Dir string
}

// Fetch reads <Dir>/<videoID>.<language>.txt.
func (s *StaticTranscriptSource) Fetch(ctx context.Context, videoID string, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.ContainsAny(videoID+language, `/\`) {
		return "", fmt.Errorf("video %s, language %q: %w", videoID, language, ErrTranscriptNotFound)
	}
	file := filepath.Join(s.Dir, fmt.Sprintf("%s.%s.txt", videoID, language))
	data, err := os.ReadFile(file)
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("reading %s: %w", file, err)
	}
	others, _ := filepath.Glob(filepath.Join(s.Dir, videoID+".*.txt"))
	if len(others) > 0 {
		return "", fmt.Errorf("video %s, language %q: %w", videoID, language, ErrLanguageUnavailable)
	}
	return "", fmt.Errorf("video %s: %w", videoID, ErrTranscriptNotFound)
}
