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

// ChatIndexWorkflow chunks the transcript under ParamTranscript and builds
// the vector index under ParamIndex. The index is only written once every
// chunk has been embedded.
type ChatIndexWorkflow struct {
	cor.BaseCommand
	deps  Dependencies
	chain cor.Chain
}

func NewChatIndexWorkflow(deps Dependencies) *ChatIndexWorkflow {
	w := &ChatIndexWorkflow{BaseCommand: *cor.NewBaseCommand("chat-index-workflow"), deps: deps}
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewTranscriptChunker("chunk-transcript", w.deps.Chunker))
	out.AddCommand(commands.NewIndexBuilder("build-index", w.deps.Embedder))
	w.chain = out
	return w
}

func (w *ChatIndexWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

func (w *ChatIndexWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
