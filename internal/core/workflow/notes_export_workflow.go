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

// NotesExportWorkflow renders the notes under ParamNotes to a PDF and, when
// an exporter is configured, uploads it and records a signed URL.
type NotesExportWorkflow struct {
	cor.BaseCommand
	deps        Dependencies
	removeLocal bool
	chain       cor.Chain
}

// NewNotesExportWorkflow builds the export chain. removeLocal deletes the
// local PDF once it has been uploaded; it has no effect without an exporter.
func NewNotesExportWorkflow(deps Dependencies, removeLocal bool) *NotesExportWorkflow {
	w := &NotesExportWorkflow{
		BaseCommand: *cor.NewBaseCommand("notes-export-workflow"),
		deps:        deps,
		removeLocal: removeLocal,
	}
	w.initializeChain()
	return w
}

func (w *NotesExportWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewNotesRenderer("render-notes", w.deps.Renderer))
	if w.deps.Exporter != nil {
		out.AddCommand(commands.NewNotesUploader("upload-notes", w.deps.Exporter, w.removeLocal))
	}
	w.chain = out
}

func (w *NotesExportWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

func (w *NotesExportWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
