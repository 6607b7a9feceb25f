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

// Package index is the in-memory vector index a chat session searches.
//
// An Index is built once from the chunks of one transcript and never
// changes afterwards; a new submission builds a new Index and swaps it in.
// Build is all-or-nothing: if any chunk fails to embed, no Index is
// returned.
//
// Search ranks entries by cosine similarity, nearest first. Entries with
// equal scores keep their insertion order, so the earlier chunk wins a tie.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
)

// Embedder maps text to a vector. Implementations live in services.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrDimensionMismatch is returned when a vector's length differs from the index's.
var ErrDimensionMismatch = errors.New("index: vector dimension mismatch")

// Entry is one stored vector with its text.
type Entry struct {
	ID       string            `json:"id"`
	Vector   []float32         `json:"-"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Result is a search hit.
type Result struct {
	Entry
	Score float64 `json:"score"`
}

// Index is immutable after construction and safe for concurrent searches.
type Index struct {
	entries   []Entry
	dimension int
}

// New builds an index from precomputed entries. All vectors must share one
// non-zero dimension.
func New(entries []Entry) (*Index, error) {
	idx := &Index{entries: make([]Entry, 0, len(entries))}
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return nil, fmt.Errorf("entry %d: empty vector", i)
		}
		if idx.dimension == 0 {
			idx.dimension = len(e.Vector)
		} else if len(e.Vector) != idx.dimension {
			return nil, fmt.Errorf("entry %d: %w: got %d, want %d", i, ErrDimensionMismatch, len(e.Vector), idx.dimension)
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		idx.entries = append(idx.entries, e)
	}
	return idx, nil
}

// Build embeds every chunk, in order, and returns the finished index. The
// first failure aborts the build and is returned as an IndexBuildFailure;
// nothing partial escapes.
//
// Inputs:
//   - ctx: bounds the embedding calls.
//   - embedder: the embedding service.
//   - chunks: the transcript chunks, in transcript order.
//
// Outputs:
//   - *Index: the complete index, or nil on failure.
//   - error: a *model.Error of kind IndexBuildFailure.
func Build(ctx context.Context, embedder Embedder, chunks []model.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, model.Errorf(model.KindIndexBuildFailure, "build-index", "no chunks to index")
	}
	entries := make([]Entry, 0, len(chunks))
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, model.NewError(model.KindIndexBuildFailure, "build-index", err)
		}
		vec, err := embedder.Embed(ctx, c.Text)
		if err != nil {
			return nil, model.NewError(model.KindIndexBuildFailure, "build-index",
				fmt.Errorf("embedding chunk %d: %w", c.Index, err))
		}
		entries = append(entries, Entry{
			ID:     c.ID,
			Vector: vec,
			Text:   c.Text,
			Metadata: map[string]string{
				"chunk_index": fmt.Sprint(c.Index),
				"start":       fmt.Sprint(c.Start),
				"end":         fmt.Sprint(c.End),
			},
		})
	}
	idx, err := New(entries)
	if err != nil {
		return nil, model.NewError(model.KindIndexBuildFailure, "build-index", err)
	}
	return idx, nil
}

// Len is the number of entries.
func (i *Index) Len() int {
	return len(i.entries)
}

// Dimension is the vector length shared by every entry.
func (i *Index) Dimension() int {
	return i.dimension
}

// Entries returns a copy of the entries in insertion order.
func (i *Index) Entries() []Entry {
	out := make([]Entry, len(i.entries))
	copy(out, i.entries)
	return out
}

// Search returns up to k entries ordered by non-increasing cosine
// similarity to query. k is clamped to Len; k <= 0 returns nothing.
func (i *Index) Search(query []float32, k int) ([]Result, error) {
	if k <= 0 || len(i.entries) == 0 {
		return []Result{}, nil
	}
	if len(query) != i.dimension {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), i.dimension)
	}

	results := make([]Result, len(i.entries))
	for n, e := range i.entries {
		results[n] = Result{Entry: e, Score: Cosine(query, e.Vector)}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Cosine is the cosine similarity of two equal-length vectors. A zero
// vector has similarity 0 with everything.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for n := range a {
		x, y := float64(a[n]), float64(b[n])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
