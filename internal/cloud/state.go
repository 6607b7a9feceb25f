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
// This file initializes and holds the clients for every external service. It
// acts as a dependency injection container: one ServiceClients is built at
// startup and passed to the workflows, the API handlers and the listeners.
//
// Logic Flow:
//  1. NewCloudServiceClients reads the configuration.
//  2. Only the clients the configuration asks for are created:
//     - GenAI when either provider is "genai",
//     - OpenAI when either provider is "openai",
//     - Storage and IAM credentials when a notes bucket is set,
//     - BigQuery when a notes table is set,
//     - Pub/Sub when at least one subscription is configured.
//  3. Agent and embedding models are wrapped in their quota-aware decorators
//     and stored by their logical names.
//  4. Any client that fails to start closes the ones already created.
//
// Structs:
//   - ServiceClients: The container. Nil fields mean "not configured".
package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ServiceClients holds the clients for the external services.
type ServiceClients struct {
	StorageClient   *storage.Client                        // Google Cloud Storage, for PDF export.
	PubsubClient    *pubsub.Client                         // Pub/Sub, for headless submissions.
	GenAIClient     *genai.Client                          // Vertex AI generation and embedding.
	BiqQueryClient  *bigquery.Client                       // BigQuery, for the notes archive.
	IAMClient       *credentials.IamCredentialsClient      // IAM credentials, to sign GCS URLs.
	OpenAIClient    *openai.Client                         // OpenAI generation and embedding.
	PubSubListeners map[string]*PubSubListener             // Keyed by the logical subscription name.
	EmbeddingModels map[string]*QuotaAwareEmbeddingModel   // Keyed by the logical model name.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Keyed by the logical model name.
}

// Close shuts down every client that was created.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BiqQueryClient != nil {
		_ = c.BiqQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

func usesProvider(config *Config, name string) bool {
	return config.Application.Provider == name || config.EmbeddingProvider() == name
}

// NewCloudServiceClients creates the clients the configuration needs.
//
// Inputs:
//   - ctx: The root context, which bounds the lifetime of the clients.
//   - config: The loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The initialized container.
//   - error: The first client that failed to start.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		EmbeddingModels: make(map[string]*QuotaAwareEmbeddingModel),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}
	defer func() {
		if err != nil {
			cloud.Close()
			cloud = nil
		}
	}()

	if usesProvider(config, ProviderGenAI) {
		slog.InfoContext(ctx, "creating genai client",
			"project", config.Application.GoogleProjectId,
			"location", config.Application.GoogleLocation)
		cloud.GenAIClient, err = genai.NewClient(ctx, &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		})
		if err != nil {
			return nil, fmt.Errorf("creating genai client: %w", err)
		}

		for key, values := range config.AgentModels {
			generationConfig := &genai.GenerateContentConfig{
				Temperature:      genai.Ptr[float32](values.Temperature),
				TopP:             genai.Ptr[float32](values.TopP),
				TopK:             genai.Ptr[float32](values.TopK),
				MaxOutputTokens:  values.MaxTokens,
				SafetySettings:   DefaultSafetySettings,
				ResponseMIMEType: values.OutputFormat,
			}
			if values.SystemInstructions != "" {
				generationConfig.SystemInstruction = genai.NewContentFromText(values.SystemInstructions, genai.RoleUser)
			}
			cloud.AgentModels[key] = NewQuotaAwareModel(generationConfig, values.Model, cloud.GenAIClient.Models, values.RateLimit)
			slog.DebugContext(ctx, "configured agent model", "key", key, "model", values.Model)
		}

		for key, values := range config.EmbeddingModels {
			cloud.EmbeddingModels[key] = NewQuotaAwareEmbeddingModel(values.Model, cloud.GenAIClient.Models, values.MaxRequestsPerMinute)
			slog.DebugContext(ctx, "configured embedding model", "key", key, "model", values.Model)
		}
	}

	if usesProvider(config, ProviderOpenAI) {
		apiKey := os.Getenv(config.OpenAI.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider selected but %s is not set", config.OpenAI.APIKeyEnv)
		}
		cloud.OpenAIClient = openai.NewClient(apiKey)
	}

	if config.Storage.NotesBucket != "" {
		if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
			return nil, fmt.Errorf("creating storage client: %w", err)
		}
		if config.Application.SignerServiceAccountEmail != "" {
			if cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx); err != nil {
				return nil, fmt.Errorf("creating iam credentials client: %w", err)
			}
		}
	}

	if config.BigQueryDataSource.NotesTable != "" {
		if cloud.BiqQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return nil, fmt.Errorf("creating bigquery client: %w", err)
		}
	}

	if len(config.TopicSubscriptions) > 0 {
		if cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return nil, fmt.Errorf("creating pubsub client: %w", err)
		}
		// The command is attached later, once the workflows are built.
		for key, values := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(cloud.PubsubClient, values.Name, nil)
			if err != nil {
				return nil, err
			}
			listener.Timeout = time.Duration(values.TimeoutInSeconds) * time.Second
			cloud.PubSubListeners[key] = listener
		}
	}

	return cloud, nil
}
