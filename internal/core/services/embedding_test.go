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

package services_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-vidsynth/internal/core/index"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
)

func TestHashEmbedderIsDeterministicAndNormalized(t *testing.T) {
	e := services.NewHashEmbedder(0)
	assert.Equal(t, services.DefaultHashDimension, e.Dimension())

	a, err := e.Embed(context.Background(), "Go routines and channels")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "go ROUTINES, and channels!")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, services.DefaultHashDimension)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestHashEmbedderEmptyTextIsZeroVector(t *testing.T) {
	v, err := services.NewHashEmbedder(8).Embed(context.Background(), "  ?! ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), v)
}

func TestHashEmbedderSharedWordsScoreHigher(t *testing.T) {
	ctx := context.Background()
	e := services.NewHashEmbedder(services.DefaultHashDimension)
	q, _ := e.Embed(ctx, "What animal sat?")
	cat, _ := e.Embed(ctx, "A cat sat.")
	dog, _ := e.Embed(ctx, "A dog ran.")
	assert.Greater(t, index.Cosine(q, cat), index.Cosine(q, dog))
}

func TestHashEmbedderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := services.NewHashEmbedder(8).Embed(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "animal", "sat"}, services.Tokenize("What animal sat?"))
	assert.Equal(t, []string{"héllo", "wörld", "42"}, services.Tokenize("Héllo, wörld... 42"))
	assert.Empty(t, services.Tokenize(" -- "))
}

func newOpenAIClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return openai.NewClientWithConfig(config)
}

func TestOpenAIEmbedder(t *testing.T) {
	client := newOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"))
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.25,0.5,0.75]}],"model":"text-embedding-3-small"}`))
	})

	v, err := services.NewOpenAIEmbedder(client, "").Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5, 0.75}, v)
}

func TestOpenAIEmbedderNoData(t *testing.T) {
	client := newOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	})

	_, err := services.NewOpenAIEmbedder(client, "text-embedding-3-large").Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, services.ErrNoEmbedding)
}
