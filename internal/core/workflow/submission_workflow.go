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

// This file implements the headless notes pipeline run for each submission
// published to the submissions topic.
package workflow

import (
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/commands"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
)

// SubmissionWorkflow takes a JSON submission under cor.CtxIn and runs the
// whole notes pipeline with no session attached. It is the command behind
// the submissions PubSubListener: any recorded error nacks the message.
type SubmissionWorkflow struct {
	cor.BaseCommand
	deps  Dependencies
	chain cor.Chain
}

// NewSubmissionWorkflow builds the headless chain.
//
// Inputs:
//   - deps: The shared collaborators. When Archive is set, archiving is
//     required and a failed write fails the message.
//
// Outputs:
//   - *SubmissionWorkflow: The workflow, ready to attach to a listener.
func NewSubmissionWorkflow(deps Dependencies) *SubmissionWorkflow {
	w := &SubmissionWorkflow{BaseCommand: *cor.NewBaseCommand("submission-workflow"), deps: deps}
	w.initializeChain()
	return w
}

func (w *SubmissionWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Parse and validate the JSON submission.
	out.AddCommand(commands.NewSubmissionReader("read-submission"))

	// Step 2: Fetch and translate the transcript.
	out.AddCommand(NewTranscriptWorkflow(w.deps))

	// Step 3: Generate topics and notes. Archiving is done last, once the
	// PDF link is known.
	notesDeps := w.deps
	notesDeps.Archive = nil
	out.AddCommand(NewNotesWorkflow(notesDeps))

	// Step 4: Render the PDF and upload it. The local copy is only kept when
	// there is nowhere to upload it.
	out.AddCommand(NewNotesExportWorkflow(w.deps, true))

	// Step 5: Archive the finished notes.
	if w.deps.Archive != nil {
		out.AddCommand(commands.NewNotesPersistToBigQuery("archive-notes", w.deps.Archive, true))
	}

	w.chain = out
}

func (w *SubmissionWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

func (w *SubmissionWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
