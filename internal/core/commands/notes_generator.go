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

// This file defines the two generation steps of the notes workflow.
//
// Logic Flow:
//  1. TopicExtractor asks the generation service for the five most important
//     topics of the (English) transcript and stores the text under
//     ParamTopics.
//  2. NotesGenerator asks for the structured notes, then assembles a
//     model.Notes from the video id, the display title, the original
//     submission language, the topics and the notes. The document is stored
//     under ParamNotes for rendering and archiving.
//
// Either call failing is a GenerationFailure and leaves ParamNotes unset.
package commands

import (
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
)

// TopicExtractor generates the important topics of a transcript.
type TopicExtractor struct {
	cor.BaseCommand
	generator services.Generator
}

// NewTopicExtractor is the constructor for the TopicExtractor command.
func NewTopicExtractor(name string, generator services.Generator) *TopicExtractor {
	return &TopicExtractor{BaseCommand: *cor.NewBaseCommand(name), generator: generator}
}

func (c *TopicExtractor) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(ParamTranscript) != nil
}

func (c *TopicExtractor) Execute(context cor.Context) {
	transcript := context.Get(ParamTranscript).(*model.Transcript)

	topics, err := c.generator.Generate(context.GetContext(), services.TopicsRequest{Transcript: transcript.Text})
	if err != nil {
		c.Fail(context, model.NewError(model.KindGenerationFailure, "extract-topics", err))
		return
	}

	c.Succeed(context)
	context.Add(ParamTopics, topics)
	context.Add(c.GetOutputParam(), topics)
}

// NotesGenerator generates the detailed notes and assembles the notes document.
type NotesGenerator struct {
	cor.BaseCommand
	generator services.Generator
	now       func() time.Time
}

// NewNotesGenerator is the constructor for the NotesGenerator command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - generator: The generation service.
//
// Outputs:
//   - *NotesGenerator: A pointer to the newly instantiated command.
func NewNotesGenerator(name string, generator services.Generator) *NotesGenerator {
	return &NotesGenerator{BaseCommand: *cor.NewBaseCommand(name), generator: generator, now: time.Now}
}

// IsExecutable requires both the transcript and the topics.
func (c *NotesGenerator) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(ParamTranscript) != nil && context.Get(ParamTopics) != nil
}

func (c *NotesGenerator) Execute(context cor.Context) {
	ctx := context.GetContext()
	transcript := context.Get(ParamTranscript).(*model.Transcript)
	topics := context.Get(ParamTopics).(string)

	text, err := c.generator.Generate(ctx, services.NotesRequest{Transcript: transcript.Text})
	if err != nil {
		c.Fail(context, model.NewError(model.KindGenerationFailure, "generate-notes", err))
		return
	}

	notes := &model.Notes{
		VideoID:   transcript.VideoID,
		Title:     transcript.VideoID,
		Language:  transcript.Language,
		Topics:    topics,
		Notes:     text,
		CreatedAt: c.now().UTC(),
	}
	if title, ok := context.Get(ParamTitle).(string); ok && title != "" {
		notes.Title = title
	}
	if sub, ok := context.Get(ParamSubmission).(*model.Submission); ok {
		notes.Language = sub.Language
	}
	slog.InfoContext(ctx, "notes generated", "video_id", notes.VideoID, "title", notes.Title)

	c.Succeed(context)
	context.Add(ParamNotes, notes)
	context.Add(c.GetOutputParam(), notes)
}
