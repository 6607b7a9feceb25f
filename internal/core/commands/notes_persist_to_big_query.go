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

// This file defines the command that archives a notes document.
//
// Logic Flow:
//  1. The model.Notes under ParamNotes is handed to the archive, which streams
//     it into BigQuery as one row.
//  2. When the archive is required (the headless Pub/Sub workflow) a failure
//     is recorded and the message is redelivered. When it is optional (an
//     interactive session) the failure is logged and counted, and the
//     generated notes are still returned to the user.
package commands

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
)

// Archiver stores a notes document.
type Archiver interface {
	Save(ctx context.Context, notes *model.Notes) error
}

// NotesPersistToBigQuery saves the notes document.
type NotesPersistToBigQuery struct {
	cor.BaseCommand
	archive  Archiver
	required bool
}

// NewNotesPersistToBigQuery is the constructor for the NotesPersistToBigQuery command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - archive: Where the notes are written, normally *services.NotesArchive.
//   - required: Whether a failed write fails the workflow.
//
// Outputs:
//   - *NotesPersistToBigQuery: A pointer to the newly instantiated command.
func NewNotesPersistToBigQuery(name string, archive Archiver, required bool) *NotesPersistToBigQuery {
	return &NotesPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), archive: archive, required: required}
}

func (s *NotesPersistToBigQuery) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(ParamNotes) != nil
}

func (s *NotesPersistToBigQuery) Execute(context cor.Context) {
	ctx := context.GetContext()
	notes := context.Get(ParamNotes).(*model.Notes)

	if err := s.archive.Save(ctx, notes); err != nil {
		if s.required {
			s.Fail(context, model.AsKind(model.KindGenerationFailure, "archive-notes", err))
			return
		}
		if s.GetErrorCounter() != nil {
			s.GetErrorCounter().Add(ctx, 1)
		}
		slog.WarnContext(ctx, "failed to archive notes", "video_id", notes.VideoID, "error", err)
		context.Add(s.GetOutputParam(), notes)
		return
	}

	s.Succeed(context)
	slog.InfoContext(ctx, "notes archived", "video_id", notes.VideoID)
	context.Add(s.GetOutputParam(), notes)
}
