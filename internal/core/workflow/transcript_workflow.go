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

// TranscriptWorkflow loads a transcript and brings it to English.
//
// It expects ParamSubmission and ParamVideoID on the context and leaves the
// English transcript under ParamTranscript.
type TranscriptWorkflow struct {
	cor.BaseCommand
	deps  Dependencies
	chain cor.Chain
}

// NewTranscriptWorkflow builds the fetch and translate chain.
func NewTranscriptWorkflow(deps Dependencies) *TranscriptWorkflow {
	w := &TranscriptWorkflow{BaseCommand: *cor.NewBaseCommand("transcript-workflow"), deps: deps}
	w.initializeChain()
	return w
}

func (w *TranscriptWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Fetch the transcript in the submitted language, then wait on
	// the post-fetch throttle.
	out.AddCommand(commands.NewTranscriptFetcher("fetch-transcript", w.deps.Source, w.deps.Throttle))

	// Step 2: Translate to English when the transcript is in another language.
	out.AddCommand(commands.NewTranscriptTranslator("translate-transcript", w.deps.Generator))

	w.chain = out
}

// IsExecutable defers to the first command of the chain.
func (w *TranscriptWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

func (w *TranscriptWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
