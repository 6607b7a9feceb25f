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

// Package services contains the business logic for talking to models and
// data sources. This file defines the embedders: each one turns a piece of
// text into a fixed-length vector for the chat index.
//
// Embedders:
//   - GenAIEmbedder: Vertex AI embedding models through the quota-aware wrapper.
//   - OpenAIEmbedder: OpenAI embedding models.
//   - HashEmbedder: A local bag-of-words embedder with no external calls.
//
// Every embedder returns its failures unchanged. The caller decides whether
// the failure is an index build or a retrieval failure.
package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-vidsynth/internal/cloud"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/index"
)

// ErrNoEmbedding is returned when a service answers without a vector.
var ErrNoEmbedding = errors.New("no embedding returned")

var (
	_ index.Embedder = (*GenAIEmbedder)(nil)
	_ index.Embedder = (*OpenAIEmbedder)(nil)
	_ index.Embedder = (*HashEmbedder)(nil)
)

// GenAIEmbedder embeds text with a Vertex AI embedding model.
type GenAIEmbedder struct {
	Model *cloud.QuotaAwareEmbeddingModel
}

// NewGenAIEmbedder wraps a configured embedding model.
func NewGenAIEmbedder(model *cloud.QuotaAwareEmbeddingModel) *GenAIEmbedder {
	return &GenAIEmbedder{Model: model}
}

// Embed returns the embedding of text.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	resp, err := e.Model.EmbedContent(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("embedding with %s: %w", e.Model.ModelName, err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embedding with %s: %w", e.Model.ModelName, ErrNoEmbedding)
	}
	return resp.Embeddings[0].Values, nil
}

// OpenAIEmbedder embeds text with an OpenAI embedding model.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder uses model, or text-embedding-3-small when model is empty.
func NewOpenAIEmbedder(client *openai.Client, model string) *OpenAIEmbedder {
	m := openai.SmallEmbedding3
	if model != "" {
		m = openai.EmbeddingModel(model)
	}
	return &OpenAIEmbedder{client: client, model: m}
}

// Embed returns the embedding of text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding with %s: %w", e.model, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding with %s: %w", e.model, ErrNoEmbedding)
	}
	return resp.Data[0].Embedding, nil
}

// DefaultHashDimension is the vector length of a HashEmbedder built with a
// non-positive dimension.
const DefaultHashDimension = 512

// HashEmbedder is a deterministic bag-of-words embedder. Text is lower-cased
// and split on anything that is not a letter or digit; each token adds one to
// the bucket chosen by its FNV-1a hash. The vector is L2-normalized. Texts
// that share words score higher than texts that do not, which is enough for
// local runs and tests.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder returns an embedder producing vectors of the given length.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// Dimension is the vector length.
func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

// Embed returns the hashed token counts of text. Text without tokens gives a
// zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, e.dimension)
	for _, token := range Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum32()%uint32(e.dimension)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Tokenize lower-cases text and splits it into runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
