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
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/index"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/model"
)

// DefaultTopK is the number of chunks handed to the answer composer.
const DefaultTopK = 4

// Retriever finds the chunks of an index closest to a question.
type Retriever struct {
	Embedder index.Embedder
	K        int
}

// NewRetriever returns a retriever for the k nearest chunks. k <= 0 means DefaultTopK.
func NewRetriever(embedder index.Embedder, k int) *Retriever {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Retriever{Embedder: embedder, K: k}
}

// Retrieve embeds the question and returns the texts of the K nearest
// chunks, nearest first. Every failure, a missing index included, is a
// RetrievalFailure; an empty result is only returned for an empty index.
//
// Inputs:
//   - ctx: Bounds the embedding call.
//   - question: The user's question.
//   - idx: The session's index.
//
// Outputs:
//   - []string: Chunk texts in rank order.
//   - error: A *model.Error of kind RetrievalFailure.
func (r *Retriever) Retrieve(ctx context.Context, question string, idx *index.Index) ([]string, error) {
	const op = "retrieve"
	if idx == nil {
		return nil, model.Errorf(model.KindRetrievalFailure, op, "no index to search")
	}
	query, err := r.Embedder.Embed(ctx, question)
	if err != nil {
		return nil, model.NewError(model.KindRetrievalFailure, op, fmt.Errorf("embedding question: %w", err))
	}
	results, err := idx.Search(query, r.K)
	if err != nil {
		return nil, model.NewError(model.KindRetrievalFailure, op, err)
	}

	out := make([]string, len(results))
	for i, res := range results {
		out[i] = res.Text
	}
	slog.DebugContext(ctx, "retrieved chunks", "requested", r.K, "returned", len(out))
	return out, nil
}
