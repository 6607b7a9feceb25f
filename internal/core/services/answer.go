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

package services

import (
	"context"
	"strings"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
)

// BuildContext joins retrieved chunks with a newline, in rank order.
func BuildContext(retrieved []string) string {
	return strings.Join(retrieved, "\n")
}

// BuildChatPrompt renders the chat prompt for a question over the retrieved chunks.
func BuildChatPrompt(prompts *Prompts, question string, retrieved []string) (string, error) {
	return prompts.Render(ChatRequest{Question: question, Context: BuildContext(retrieved)})
}

// AnswerComposer turns a question and its retrieved chunks into a grounded
// answer. Each call is independent: no chat history is sent to the model.
type AnswerComposer struct {
	Generator Generator
}

// NewAnswerComposer returns a composer backed by generator.
func NewAnswerComposer(generator Generator) *AnswerComposer {
	return &AnswerComposer{Generator: generator}
}

// Answer makes exactly one generation call.
//
// Inputs:
//   - ctx: Bounds the generation call.
//   - question: The user's question.
//   - retrieved: The chunk texts from the Retriever.
//
// Outputs:
//   - string: The model's answer, which may be FallbackAnswer.
//   - error: A *model.Error of kind GenerationFailure.
func (a *AnswerComposer) Answer(ctx context.Context, question string, retrieved []string) (string, error) {
	answer, err := a.Generator.Generate(ctx, ChatRequest{
		Question: question,
		Context:  BuildContext(retrieved),
	})
	if err != nil {
		return "", model.NewError(model.KindGenerationFailure, "answer", err)
	}
	return answer, nil
}
