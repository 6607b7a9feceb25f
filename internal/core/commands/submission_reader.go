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

// This file defines the entry command of the headless notes workflow.
//
// Logic Flow:
// A submission published to Pub/Sub arrives as a JSON document:
//
//	{"url": "https://www.youtube.com/watch?v=...", "language": "hi", "mode": "notes", "title": "..."}
//
//  1. The raw message string is read from the input parameter.
//  2. It is unmarshalled into a model.Submission and validated, which also
//     extracts the video id.
//  3. The submission, the video id and the display title are placed on the
//     context for the commands that follow.
package commands

import (
	"encoding/json"
	"log/slog"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
)

// SubmissionReader parses a JSON submission message.
type SubmissionReader struct {
	cor.BaseCommand
}

// NewSubmissionReader is the constructor for the SubmissionReader command.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *SubmissionReader: A pointer to the newly instantiated command.
func NewSubmissionReader(name string) *SubmissionReader {
	return &SubmissionReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses and validates the submission. A malformed document or an
// invalid submission is recorded as InvalidInput.
func (c *SubmissionReader) Execute(context cor.Context) {
	in, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, model.Errorf(model.KindInvalidInput, "read-submission",
			"expected a string message, got %T", context.Get(c.GetInputParam())))
		return
	}

	var sub model.Submission
	if err := json.Unmarshal([]byte(in), &sub); err != nil {
		c.Fail(context, model.NewError(model.KindInvalidInput, "read-submission", err))
		return
	}
	if sub.Mode == "" {
		sub.Mode = model.ModeNotes
	}
	videoID, err := sub.Validate()
	if err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	slog.InfoContext(context.GetContext(), "submission received", "video_id", videoID, "language", sub.Language, "mode", sub.Mode)

	context.Add(ParamSubmission, &sub)
	context.Add(ParamVideoID, videoID)
	context.Add(ParamTitle, sub.DisplayTitle(videoID))
	context.Add(c.GetOutputParam(), &sub)
}
