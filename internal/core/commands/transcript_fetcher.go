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

package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
)

// TranscriptFetcher loads the transcript of the submitted video in the
// submitted language, then waits on the post-fetch throttle.
type TranscriptFetcher struct {
	cor.BaseCommand
	source   services.TranscriptSource
	throttle services.Throttle
}

// NewTranscriptFetcher builds the fetch step. A nil throttle means no delay.
func NewTranscriptFetcher(name string, source services.TranscriptSource, throttle services.Throttle) *TranscriptFetcher {
	if throttle == nil {
		throttle = services.NoThrottle{}
	}
	return &TranscriptFetcher{BaseCommand: *cor.NewBaseCommand(name), source: source, throttle: throttle}
}

func (c *TranscriptFetcher) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(ParamSubmission) != nil && context.Get(ParamVideoID) != nil
}

// Execute fetches the transcript. Source errors, blank transcripts and an
// interrupted throttle are all FetchFailure.
func (c *TranscriptFetcher) Execute(context cor.Context) {
	const op = "fetch-transcript"
	ctx := context.GetContext()
	sub := context.Get(ParamSubmission).(*model.Submission)
	videoID := context.Get(ParamVideoID).(string)
	language := strings.TrimSpace(sub.Language)

	text, err := c.source.Fetch(ctx, videoID, language)
	if err != nil {
		c.Fail(context, model.NewError(model.KindFetchFailure, op, err))
		return
	}
	if strings.TrimSpace(text) == "" {
		c.Fail(context, model.NewError(model.KindFetchFailure, op,
			fmt.Errorf("video %s: %w", videoID, services.ErrLanguageUnavailable)))
		return
	}
	if err := c.throttle.Wait(ctx); err != nil {
		c.Fail(context, model.NewError(model.KindFetchFailure, op, err))
		return
	}

	transcript := &model.Transcript{VideoID: videoID, Language: language, Text: text}
	slog.InfoContext(ctx, "transcript fetched", "video_id", videoID, "language", language, "length", len(text))

	c.Succeed(context)
	context.Add(ParamTranscript, transcript)
	context.Add(c.GetOutputParam(), transcript)
}
