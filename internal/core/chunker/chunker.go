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

// Package chunker splits a transcript into overlapping chunks sized for
// embedding and retrieval.
//
// Logic Flow:
//  1. Text no longer than MaxSize becomes a single chunk with no overlap.
//  2. Otherwise the text is split recursively. The first separator
//     (paragraph break) is tried; any piece still longer than the budget
//     (MaxSize - Overlap) is split again with the next separator (line,
//     sentence, word) and finally into single characters. Separators stay
//     attached to the end of their piece, so the pieces concatenate back to
//     the original text.
//  3. Pieces are merged greedily, left to right, into segments of at most
//     the budget.
//  4. Every segment after the first is prefixed with the Overlap characters
//     that precede it in the text. Each chunk is therefore at most MaxSize,
//     neighbours share exactly Overlap characters, and dropping that prefix
//     from every chunk but the first gives back the text.
//
// Sizes and offsets are counted in runes.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
)

const (
	DefaultMaxSize = 10000
	DefaultOverlap = 1000
)

// DefaultSeparators goes from paragraph to line to sentence to word. The
// empty separator means "split into characters" and is always tried last,
// whether or not it is listed.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "? ", "! ", " ", ""}

// ErrEmptyText is returned for empty or whitespace-only input.
var ErrEmptyText = errors.New("chunker: empty text")

// Config holds the chunking parameters.
type Config struct {
	MaxSize    int      // Upper bound on a chunk, in runes.
	Overlap    int      // Runes shared by consecutive chunks.
	Separators []string // Tried in order; nil means DefaultSeparators.
}

// DefaultConfig returns the 10000/1000 configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize:    DefaultMaxSize,
		Overlap:    DefaultOverlap,
		Separators: DefaultSeparators,
	}
}

// Validate rejects configurations that cannot produce bounded chunks.
func (c Config) Validate() error {
	if c.MaxSize <= 0 {
		return model.Errorf(model.KindInvalidInput, "chunker-config", "max size must be positive, got %d", c.MaxSize)
	}
	if c.Overlap < 0 {
		return model.Errorf(model.KindInvalidInput, "chunker-config", "overlap must not be negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.MaxSize {
		return model.Errorf(model.KindInvalidInput, "chunker-config", "overlap %d must be smaller than max size %d", c.Overlap, c.MaxSize)
	}
	return nil
}

// Chunker is safe for concurrent use; it holds no mutable state.
type Chunker struct {
	config Config
}

// New validates config and returns a Chunker.
func New(config Config) (*Chunker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Separators == nil {
		config.Separators = DefaultSeparators
	}
	return &Chunker{config: config}, nil
}

// Config returns the active configuration.
func (c *Chunker) Config() Config {
	return c.config
}

type span struct {
	start, end int
}

// Split cuts text into chunks. The result is the same for the same input
// and configuration, chunk ids included.
func (c *Chunker) Split(text string) ([]model.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	runes := []rune(text)
	if len(runes) <= c.config.MaxSize {
		return []model.Chunk{newChunk(0, text, 0, len(runes), 0)}, nil
	}

	budget := c.config.MaxSize - c.config.Overlap
	pieces := splitRecursive(text, c.config.Separators, budget)
	segments := merge(pieces, budget)

	chunks := make([]model.Chunk, 0, len(segments))
	for i, seg := range segments {
		overlap := 0
		if i > 0 {
			overlap = min(c.config.Overlap, seg.start)
		}
		start := seg.start - overlap
		chunks = append(chunks, newChunk(i, string(runes[start:seg.end]), start, seg.end, overlap))
	}
	return chunks, nil
}

// Split cuts text with the default configuration.
func Split(text string) ([]model.Chunk, error) {
	c, err := New(DefaultConfig())
	if err != nil {
		return nil, err
	}
	return c.Split(text)
}

func newChunk(index int, text string, start, end, overlap int) model.Chunk {
	name := fmt.Sprintf("%d:%d:%d:%s", index, start, end, text)
	return model.Chunk{
		ID:      uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(),
		Index:   index,
		Text:    text,
		Start:   start,
		End:     end,
		Overlap: overlap,
	}
}

// splitRecursive returns pieces of at most budget runes whose concatenation
// is text.
func splitRecursive(text string, separators []string, budget int) []string {
	if utf8.RuneCountInString(text) <= budget {
		return []string{text}
	}
	if len(separators) == 0 || separators[0] == "" {
		return splitRunes(text)
	}

	sep, rest := separators[0], separators[1:]
	if !strings.Contains(text, sep) {
		return splitRecursive(text, rest, budget)
	}

	out := make([]string, 0)
	for _, part := range strings.SplitAfter(text, sep) {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) <= budget {
			out = append(out, part)
			continue
		}
		out = append(out, splitRecursive(part, rest, budget)...)
	}
	return out
}

func splitRunes(text string) []string {
	out := make([]string, 0, len(text))
	for _, r := range text {
		out = append(out, string(r))
	}
	return out
}

// merge packs consecutive pieces into spans of at most budget runes.
func merge(pieces []string, budget int) []span {
	spans := make([]span, 0)
	offset := 0
	current := span{}
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if current.end > current.start && current.end-current.start+n > budget {
			spans = append(spans, current)
			current = span{start: offset, end: offset}
		}
		current.end += n
		offset += n
	}
	if current.end > current.start {
		spans = append(spans, current)
	}
	return spans
}
