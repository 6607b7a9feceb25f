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

package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/chunker"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/index"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
)

// TranscriptChunker splits the transcript into overlapping chunks.
type TranscriptChunker struct {
	cor.BaseCommand
	chunker *chunker.Chunker
}

// NewTranscriptChunker returns the chunking step.
func NewTranscriptChunker(name string, c *chunker.Chunker) *TranscriptChunker {
	return &TranscriptChunker{BaseCommand: *cor.NewBaseCommand(name), chunker: c}
}

func (c *TranscriptChunker) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(ParamTranscript) != nil
}

// Execute records IndexBuildFailure when the transcript cannot be chunked.
func (c *TranscriptChunker) Execute(context cor.Context) {
	transcript := context.Get(ParamTranscript).(*model.Transcript)

	chunks, err := c.chunker.Split(transcript.Text)
	if err != nil {
		c.Fail(context, model.AsKind(model.KindIndexBuildFailure, "chunk-transcript", err))
		return
	}
	slog.InfoContext(context.GetContext(), "transcript chunked", "video_id", transcript.VideoID, "chunks", len(chunks))

	c.Succeed(context)
	context.Add(ParamChunks, chunks)
	context.Add(c.GetOutputParam(), chunks)
}

// IndexBuilder embeds the chunks and builds the vector index. The index only
// reaches the context when every chunk was embedded.
type IndexBuilder struct {
	cor.BaseCommand
	embedder index.Embedder
}

// NewIndexBuilder returns the index step.
func NewIndexBuilder(name string, embedder index.Embedder) *IndexBuilder {
	return &IndexBuilder{BaseCommand: *cor.NewBaseCommand(name), embedder: embedder}
}

func (c *IndexBuilder) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(ParamChunks) != nil
}

func (c *IndexBuilder) Execute(context cor.Context) {
	chunks := context.Get(ParamChunks).([]model.Chunk)

	idx, err := index.Build(context.GetContext(), c.embedder, chunks)
	if err != nil {
		c.Fail(context, model.AsKind(model.KindIndexBuildFailure, "build-index", err))
		return
	}
	slog.InfoContext(context.GetContext(), "index built", "entries", idx.Len(), "dimension", idx.Dimension())

	c.Succeed(context)
	context.Add(ParamIndex, idx)
	context.Add(c.GetOutputParam(), idx)
}
