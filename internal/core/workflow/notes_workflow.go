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

package workflow

import (
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/commands"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
)

// NotesWorkflow turns an English transcript into a notes document.
//
// Steps:
//  1. Extract the five important topics.
//  2. Generate the detailed notes and assemble model.Notes under ParamNotes.
//  3. Archive the notes to BigQuery when an archive is configured. A failed
//     archive is logged and does not fail the workflow.
type NotesWorkflow struct {
	cor.BaseCommand
	deps  Dependencies
	chain cor.Chain
}

// NewNotesWorkflow builds the notes chain.
func NewNotesWorkflow(deps Dependencies) *NotesWorkflow {
	w := &NotesWorkflow{BaseCommand: *cor.NewBaseCommand("notes-workflow"), deps: deps}
	w.initializeChain()
	return w
}

func (w *NotesWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewTopicExtractor("extract-topics", w.deps.Generator))
	out.AddCommand(commands.NewNotesGenerator("generate-notes", w.deps.Generator))
	if w.deps.Archive != nil {
		out.AddCommand(commands.NewNotesPersistToBigQuery("archive-notes", w.deps.Archive, false))
	}
	w.chain = out
}

func (w *NotesWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

func (w *NotesWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
