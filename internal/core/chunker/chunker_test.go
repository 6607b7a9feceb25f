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

package chunker_test

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/chunker"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
)

func newChunker(t *testing.T, max, overlap int) *chunker.Chunker {
	t.Helper()
	c, err := chunker.New(chunker.Config{MaxSize: max, Overlap: overlap})
	require.NoError(t, err)
	return c
}

func runes(s string) []rune { return []rune(s) }

// checkSplit verifies size, overlap and reconstruction for one split.
func checkSplit(t *testing.T, text string, chunks []model.Chunk, max, overlap int) {
	t.Helper()
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), max, "chunk %d too long", i)
		assert.Equal(t, string(runes(text)[ch.Start:ch.End]), ch.Text, "chunk %d offsets", i)

		if i == 0 {
			assert.Equal(t, 0, ch.Overlap)
			rebuilt.WriteString(ch.Text)
			continue
		}

		prev := runes(chunks[i-1].Text)
		cur := runes(ch.Text)
		require.LessOrEqual(t, ch.Overlap, len(prev))
		assert.Equal(t, string(prev[len(prev)-ch.Overlap:]), string(cur[:ch.Overlap]), "chunk %d overlap", i)
		if ch.Start > 0 && chunks[i-1].End >= overlap {
			assert.Equal(t, overlap, ch.Overlap, "chunk %d overlap length", i)
		}
		rebuilt.WriteString(string(cur[ch.Overlap:]))
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplitSentenceScenario(t *testing.T) {
	text := "The sky is blue. Grass is green. Water is wet."
	chunks, err := newChunker(t, 20, 5).Split(text)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(chunks), 2)
	for i := 1; i < len(chunks); i++ {
		prev := runes(chunks[i-1].Text)
		cur := runes(chunks[i].Text)
		assert.Equal(t, string(prev[len(prev)-5:]), string(cur[:5]))
	}
	checkSplit(t, text, chunks, 20, 5)

	assert.Equal(t, []string{"The sky is ", "y is blue. Grass is ", "s is green. ", "een. Water is wet."}, texts(chunks))
}

func texts(chunks []model.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestShortTextIsSingleChunk(t *testing.T) {
	text := "A short transcript."
	chunks, err := newChunker(t, 100, 10).Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Overlap)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, utf8.RuneCountInString(text), chunks[0].End)

	exact := strings.Repeat("x", 100)
	chunks, err = newChunker(t, 100, 10).Split(exact)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestSplitPropertiesAcrossConfigs(t *testing.T) {
	paragraph := "Go is an open source programming language. It makes it simple to build secure, scalable systems! Does it compile fast? Yes it does.\n"
	long := strings.Repeat(paragraph, 20) + "\n\n" + strings.Repeat("word ", 300) + strings.Repeat("z", 250)

	configs := []struct{ max, overlap int }{
		{20, 5},
		{50, 0},
		{100, 10},
		{200, 199},
		{1000, 100},
	}
	for _, cfg := range configs {
		chunks, err := newChunker(t, cfg.max, cfg.overlap).Split(long)
		require.NoError(t, err)
		assert.Greater(t, len(chunks), 1)
		checkSplit(t, long, chunks, cfg.max, cfg.overlap)
	}
}

func TestSplitHandlesMultibyteRunes(t *testing.T) {
	text := strings.Repeat("नमस्ते दुनिया। ", 40) + strings.Repeat("日本語", 30)
	chunks, err := newChunker(t, 64, 8).Split(text)
	require.NoError(t, err)
	checkSplit(t, text, chunks, 64, 8)
	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Text))
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	text := strings.Repeat("Deterministic chunking matters. ", 500)
	c := newChunker(t, 300, 30)

	first, err := c.Split(text)
	require.NoError(t, err)
	second, err := c.Split(text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPrefersParagraphBoundaries(t *testing.T) {
	p1 := strings.Repeat("a", 40)
	p2 := strings.Repeat("b", 40)
	text := p1 + "\n\n" + p2
	chunks, err := newChunker(t, 60, 5).Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, p1+"\n\n", chunks[0].Text)
	assert.Equal(t, strings.Repeat("a", 3)+"\n\n"+p2, chunks[1].Text)
}

func TestEmptyTextFails(t *testing.T) {
	c := newChunker(t, 10, 2)
	for _, text := range []string{"", "   ", "\n\n\t"} {
		_, err := c.Split(text)
		assert.True(t, errors.Is(err, chunker.ErrEmptyText))
	}
}

func TestInvalidConfig(t *testing.T) {
	for _, cfg := range []chunker.Config{
		{MaxSize: 0, Overlap: 0},
		{MaxSize: 10, Overlap: -1},
		{MaxSize: 10, Overlap: 10},
		{MaxSize: 10, Overlap: 20},
	} {
		_, err := chunker.New(cfg)
		assert.True(t, errors.Is(err, model.ErrInvalidInput), "%+v", cfg)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := chunker.DefaultConfig()
	assert.Equal(t, 10000, cfg.MaxSize)
	assert.Equal(t, 1000, cfg.Overlap)

	text := strings.Repeat("Long transcripts are split into overlapping windows. ", 600)
	chunks, err := chunker.Split(text)
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 2)
	checkSplit(t, text, chunks, 10000, 1000)
}
