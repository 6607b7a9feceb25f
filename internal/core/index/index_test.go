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

package index_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/index"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
)

// tableEmbedder returns fixed vectors per text and can fail on one text.
type tableEmbedder struct {
	vectors map[string][]float32
	failOn  string
	calls   int
}

func (e *tableEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if text == e.failOn {
		return nil, errors.New("embedding service unavailable")
	}
	v, ok := e.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func chunks(texts ...string) []model.Chunk {
	out := make([]model.Chunk, len(texts))
	for i, t := range texts {
		out[i] = model.Chunk{ID: fmt.Sprintf("c%d", i), Index: i, Text: t}
	}
	return out
}

func TestSearchFindsAnimalThatSat(t *testing.T) {
	ctx := context.Background()
	embedder := services.NewHashEmbedder(services.DefaultHashDimension)

	idx, err := index.Build(ctx, embedder, chunks("A cat sat.", "A dog ran.", "A bird flew."))
	assert.NoError(t, err)
	assert.Equal(t, idx.Len(), 3)

	q, err := embedder.Embed(ctx, "What animal sat?")
	assert.NoError(t, err)

	res, err := idx.Search(q, 1)
	assert.NoError(t, err)
	assert.Equal(t, len(res), 1)
	assert.Equal(t, res[0].Text, "A cat sat.")
}

func TestSearchOrdersByScoreAndClampsK(t *testing.T) {
	idx, err := index.New([]index.Entry{
		{Text: "east", Vector: []float32{1, 0}},
		{Text: "north-east", Vector: []float32{1, 1}},
		{Text: "north", Vector: []float32{0, 1}},
		{Text: "west", Vector: []float32{-1, 0}},
	})
	assert.NoError(t, err)

	res, err := idx.Search([]float32{1, 0.1}, 10)
	assert.NoError(t, err)
	assert.Equal(t, len(res), 4)
	for i := 1; i < len(res); i++ {
		assert.True(t, res[i-1].Score >= res[i].Score)
	}
	assert.Equal(t, res[0].Text, "east")
	assert.Equal(t, res[3].Text, "west")

	for k := 0; k <= 4; k++ {
		res, err := idx.Search([]float32{1, 0}, k)
		assert.NoError(t, err)
		assert.Equal(t, len(res), k)
	}

	res, err = idx.Search([]float32{1, 0}, -3)
	assert.NoError(t, err)
	assert.Equal(t, len(res), 0)
}

func TestSearchTieKeepsInsertionOrder(t *testing.T) {
	idx, err := index.New([]index.Entry{
		{Text: "other", Vector: []float32{0, 1}},
		{Text: "first twin", Vector: []float32{2, 0}},
		{Text: "second twin", Vector: []float32{1, 0}},
		{Text: "third twin", Vector: []float32{3, 0}},
	})
	assert.NoError(t, err)

	res, err := idx.Search([]float32{5, 0}, 3)
	assert.NoError(t, err)
	assert.Equal(t, res[0].Text, "first twin")
	assert.Equal(t, res[1].Text, "second twin")
	assert.Equal(t, res[2].Text, "third twin")
}

func TestSearchRejectsDimensionMismatch(t *testing.T) {
	idx, err := index.New([]index.Entry{{Text: "a", Vector: []float32{1, 0, 0}}})
	assert.NoError(t, err)

	_, err = idx.Search([]float32{1, 0}, 1)
	assert.True(t, errors.Is(err, index.ErrDimensionMismatch))
}

func TestBuildIsAllOrNothing(t *testing.T) {
	embedder := &tableEmbedder{
		vectors: map[string][]float32{"one": {1, 0}, "two": {0, 1}, "three": {1, 1}},
		failOn:  "two",
	}
	idx, err := index.Build(context.Background(), embedder, chunks("one", "two", "three"))
	assert.True(t, idx == nil)
	assert.True(t, errors.Is(err, model.ErrIndexBuildFailure))
	assert.Equal(t, embedder.calls, 2)
}

func TestBuildRejectsMixedDimensions(t *testing.T) {
	embedder := &tableEmbedder{vectors: map[string][]float32{"one": {1, 0}, "two": {0, 1, 0}}}
	idx, err := index.Build(context.Background(), embedder, chunks("one", "two"))
	assert.True(t, idx == nil)
	assert.True(t, errors.Is(err, model.ErrIndexBuildFailure))
	assert.True(t, errors.Is(err, index.ErrDimensionMismatch))
}

func TestBuildRequiresChunks(t *testing.T) {
	_, err := index.Build(context.Background(), &tableEmbedder{}, nil)
	assert.True(t, errors.Is(err, model.ErrIndexBuildFailure))
}

func TestBuildKeepsChunkMetadata(t *testing.T) {
	embedder := &tableEmbedder{vectors: map[string][]float32{"one": {1, 0}}}
	in := chunks("one")
	in[0].Start, in[0].End = 3, 6

	idx, err := index.Build(context.Background(), embedder, in)
	assert.NoError(t, err)
	e := idx.Entries()[0]
	assert.Equal(t, e.ID, "c0")
	assert.Equal(t, e.Metadata["start"], "3")
	assert.Equal(t, e.Metadata["end"], "6")
	assert.Equal(t, idx.Dimension(), 2)
}

func TestCosine(t *testing.T) {
	assert.Equal(t, index.Cosine([]float32{1, 0}, []float32{1, 0}), 1.0)
	assert.Equal(t, index.Cosine([]float32{1, 0}, []float32{0, 1}), 0.0)
	assert.Equal(t, index.Cosine([]float32{0, 0}, []float32{0, 1}), 0.0)
	assert.True(t, index.Cosine([]float32{1, 0}, []float32{-1, 0}) < 0)
}
