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

// Package cloud provides components for interacting with Google Cloud services.
// This file wraps the GenAI model handles with a rate limiter. A call waits
// for a token before it is sent, so a burst of chunk embeddings or pipeline
// steps stays inside the project's quota. A failed call is returned to the
// caller unchanged; there is no retry loop here.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: A generation model name, its config and a limiter.
//   - QuotaAwareEmbeddingModel: An embedding model name and a limiter.
package cloud

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// QuotaAwareGenerativeAIModel binds a model name and its generation config to
// the shared genai.Models handle and a limiter.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               *rate.Limiter
}

// NewQuotaAwareModel wraps a model with a limiter that refills one token per
// second and allows bursts of requestsPerSecond.
//
// Inputs:
//   - config: The generation config sent with every request.
//   - name: The model name, e.g. "gemini-2.5-flash-lite".
//   - handle: The Models service of a genai.Client.
//   - requestsPerSecond: The burst size; values below 1 are treated as 1.
//
// Outputs:
//   - *QuotaAwareGenerativeAIModel: The wrapped model.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, handle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), max(requestsPerSecond, 1)),
	}
}

// GenerateContent waits on the limiter and sends the request once.
//
// Inputs:
//   - ctx: Bounds both the wait and the request.
//   - content: The prompt.
//
// Outputs:
//   - *genai.GenerateContentResponse: The response from the model.
//   - error: The context error while waiting, or the API error.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for %s quota: %w", q.ModelName, err)
	}
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
}

// QuotaAwareEmbeddingModel binds an embedding model name to the shared
// genai.Models handle and a per-minute limiter.
type QuotaAwareEmbeddingModel struct {
	ModelName   string
	ModelHandle *genai.Models
	RateLimit   *rate.Limiter
}

// NewQuotaAwareEmbeddingModel allows requestsPerMinute calls per minute,
// spread evenly. Zero or negative disables the limit.
func NewQuotaAwareEmbeddingModel(name string, handle *genai.Models, requestsPerMinute int) *QuotaAwareEmbeddingModel {
	limit := rate.Inf
	burst := 1
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
		burst = max(requestsPerMinute/60, 1)
	}
	return &QuotaAwareEmbeddingModel{
		ModelName:   name,
		ModelHandle: handle,
		RateLimit:   rate.NewLimiter(limit, burst),
	}
}

// EmbedContent waits on the limiter and embeds contents once.
func (q *QuotaAwareEmbeddingModel) EmbedContent(ctx context.Context, contents []*genai.Content) (*genai.EmbedContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for %s quota: %w", q.ModelName, err)
	}
	return q.ModelHandle.EmbedContent(ctx, q.ModelName, contents, nil)
}
