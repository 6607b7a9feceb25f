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

// This file defines the translation step.
//
// Logic Flow:
//  1. The transcript is read from ParamTranscript.
//  2. English transcripts pass through untouched.
//  3. Anything else is sent to the generation service as a TranslateRequest.
//     The reply replaces the transcript wholesale and its language becomes
//     "en".
//  4. A failed translation stops the workflow. The untranslated text is never
//     used as a fallback.
package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
)

// TranscriptTranslator translates non-English transcripts to English.
type TranscriptTranslator struct {
	cor.BaseCommand
	generator services.Generator
}

// NewTranscriptTranslator is the constructor for the TranscriptTranslator command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - generator: The generation service used for translation.
//
// Outputs:
//   - *TranscriptTranslator: A pointer to the newly instantiated command.
func NewTranscriptTranslator(name string, generator services.Generator) *TranscriptTranslator {
	return &TranscriptTranslator{BaseCommand: *cor.NewBaseCommand(name), generator: generator}
}

func (c *TranscriptTranslator) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(ParamTranscript) != nil
}

// Execute translates when needed. Failures are TranslationFailure.
func (c *TranscriptTranslator) Execute(context cor.Context) {
	ctx := context.GetContext()
	transcript := context.Get(ParamTranscript).(*model.Transcript)

	if !transcript.NeedsTranslation() {
		c.Succeed(context)
		context.Add(c.GetOutputParam(), transcript)
		return
	}

	slog.InfoContext(ctx, "translating transcript", "video_id", transcript.VideoID, "from", transcript.Language)
	text, err := c.generator.Generate(ctx, services.TranslateRequest{Transcript: transcript.Text})
	if err != nil {
		c.Fail(context, model.NewError(model.KindTranslationFailure, "translate-transcript", err))
		return
	}

	translated := &model.Transcript{VideoID: transcript.VideoID, Language: model.EnglishLanguage, Text: text}
	c.Succeed(context)
	context.Add(ParamTranscript, translated)
	context.Add(c.GetOutputParam(), translated)
}
