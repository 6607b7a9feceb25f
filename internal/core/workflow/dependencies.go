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

// Package workflow combines commands into the pipelines VidSynth runs:
//   - TranscriptWorkflow: fetch, throttle, translate.
//   - NotesWorkflow: topics, notes, optional archive.
//   - ChatIndexWorkflow: chunk, embed, index.
//   - NotesExportWorkflow: render, optional upload.
//   - SubmissionWorkflow: all of the notes pipeline, driven by a Pub/Sub message.
//
// Each workflow is a cor.Command, so they nest and can be attached to a
// PubSubListener directly.
package workflow

import (
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/chunker"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/commands"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/index"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
	"github.com/jaycherian/gcp-go-vidsynth/internal/render"
)

// Dependencies are the collaborators shared by every workflow. Exporter and
// Archive are optional; leave them nil (untyped) to skip upload and archiving.
type Dependencies struct {
	Source    services.TranscriptSource
	Throttle  services.Throttle
	Generator services.Generator
	Chunker   *chunker.Chunker
	Embedder  index.Embedder
	Renderer  render.Renderer
	Exporter  commands.Exporter
	Archive   commands.Archiver
}
