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

// Package app builds the runtime state shared by the server and the CLI:
// the configuration, the external clients and every collaborator the
// workflows and the session orchestrator need, chosen from the
// [application] provider settings.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-vidsynth/internal/cloud"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/chunker"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/index"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/services"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/session"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/workflow"
	"github.com/jaycherian/gcp-go-vidsynth/internal/render"
)

// State holds everything a binary needs once configuration is loaded.
type State struct {
	Config       *cloud.Config
	Clients      *cloud.ServiceClients
	Dependencies workflow.Dependencies
	Archive      *services.NotesArchive // Nil when no notes table is configured.
	Orchestrator *session.Orchestrator
	Store        *session.Store
}

// NewState creates the configured clients and wires the dependencies.
//
// Inputs:
//   - ctx: The root context; it bounds the lifetime of the clients.
//   - config: The loaded configuration.
//
// Outputs:
//   - *State: The wired state. Call Close when done.
//   - error: A client failed to start or a provider setting is invalid.
func NewState(ctx context.Context, config *cloud.Config) (*State, error) {
	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return nil, err
	}
	deps, archive, err := NewDependencies(config, clients)
	if err != nil {
		clients.Close()
		return nil, err
	}
	return &State{
		Config:       config,
		Clients:      clients,
		Dependencies: deps,
		Archive:      archive,
		Orchestrator: session.NewOrchestrator(deps, config.Retrieval.TopK),
		Store:        session.NewStore(),
	}, nil
}

// Close releases the external clients.
func (s *State) Close() {
	if s.Clients != nil {
		s.Clients.Close()
	}
}

// NewDependencies selects the implementation of each collaborator from the
// configuration. The exporter is set only when a notes bucket is configured
// and the archive only when a notes table is.
func NewDependencies(config *cloud.Config, clients *cloud.ServiceClients) (workflow.Dependencies, *services.NotesArchive, error) {
	var deps workflow.Dependencies

	source, err := NewTranscriptSource(config)
	if err != nil {
		return deps, nil, err
	}
	prompts, err := services.NewPrompts(config.PromptTemplates)
	if err != nil {
		return deps, nil, err
	}
	generator, err := NewGenerator(config, clients, prompts)
	if err != nil {
		return deps, nil, err
	}
	embedder, err := NewEmbedder(config, clients)
	if err != nil {
		return deps, nil, err
	}
	splitter, err := chunker.New(chunker.Config{
		MaxSize:    config.Chunking.MaxSize,
		Overlap:    config.Chunking.Overlap,
		Separators: config.Chunking.Separators,
	})
	if err != nil {
		return deps, nil, fmt.Errorf("chunking configuration: %w", err)
	}

	deps = workflow.Dependencies{
		Source:    source,
		Throttle:  NewThrottle(config),
		Generator: generator,
		Chunker:   splitter,
		Embedder:  embedder,
		Renderer:  render.NewPDFRenderer(config.Application.OutputDir),
	}
	if exporter := cloud.NewNotesExporter(clients, config); exporter != nil {
		deps.Exporter = exporter
	}

	var archive *services.NotesArchive
	if clients != nil && clients.BiqQueryClient != nil && config.BigQueryDataSource.NotesTable != "" {
		archive = &services.NotesArchive{
			BigqueryClient: clients.BiqQueryClient,
			DatasetName:    config.BigQueryDataSource.DatasetName,
			NotesTable:     config.BigQueryDataSource.NotesTable,
		}
		deps.Archive = archive
	}

	slog.Info("dependencies ready",
		"provider", config.Application.Provider,
		"embedder", config.EmbeddingProvider(),
		"transcripts", config.Application.TranscriptSource,
		"upload", deps.Exporter != nil,
		"archive", archive != nil)
	return deps, archive, nil
}

// NewTranscriptSource returns the YouTube source or the directory-backed one.
func NewTranscriptSource(config *cloud.Config) (services.TranscriptSource, error) {
	switch config.Application.TranscriptSource {
	case cloud.TranscriptSourceYouTube, "":
		return services.NewYouTubeTranscriptSource(), nil
	case cloud.TranscriptSourceStatic:
		if config.Application.TranscriptDir == "" {
			return nil, fmt.Errorf("transcript_source %q needs transcript_dir", cloud.TranscriptSourceStatic)
		}
		return &services.StaticTranscriptSource{Dir: config.Application.TranscriptDir}, nil
	}
	return nil, fmt.Errorf("unknown transcript_source %q", config.Application.TranscriptSource)
}

// NewThrottle spaces transcript fetches by post_fetch_delay_seconds. Zero
// disables the throttle and a negative value selects the default delay. The
// "limiter" mode only delays fetches that arrive faster than the interval.
func NewThrottle(config *cloud.Config) services.Throttle {
	seconds := config.Throttle.PostFetchDelaySeconds
	if seconds == 0 {
		return services.NoThrottle{}
	}
	delay := services.NewDelayThrottle(time.Duration(seconds) * time.Second)
	if config.Throttle.Mode == "limiter" {
		return services.NewLimiterThrottle(delay.Delay, 1)
	}
	return delay
}

// NewGenerator returns the generator for [application].provider.
func NewGenerator(config *cloud.Config, clients *cloud.ServiceClients, prompts *services.Prompts) (services.Generator, error) {
	key := config.Application.AgentModel
	switch config.Application.Provider {
	case cloud.ProviderGenAI:
		if clients == nil || clients.AgentModels[key] == nil {
			return nil, fmt.Errorf("provider %q needs [agent_models.%s]", cloud.ProviderGenAI, key)
		}
		return services.NewGenAIGenerator(key, clients.AgentModels[key], prompts), nil
	case cloud.ProviderOpenAI:
		if clients == nil || clients.OpenAIClient == nil {
			return nil, fmt.Errorf("provider %q has no client", cloud.ProviderOpenAI)
		}
		return services.NewOpenAIGenerator(clients.OpenAIClient, config.OpenAI, config.AgentModels[key].SystemInstructions, prompts), nil
	}
	return nil, fmt.Errorf("unknown provider %q", config.Application.Provider)
}

// NewEmbedder returns the embedder for [application].embedder, which
// defaults to the generation provider.
func NewEmbedder(config *cloud.Config, clients *cloud.ServiceClients) (index.Embedder, error) {
	key := config.Application.EmbeddingModel
	switch provider := config.EmbeddingProvider(); provider {
	case cloud.ProviderGenAI:
		if clients == nil || clients.EmbeddingModels[key] == nil {
			return nil, fmt.Errorf("embedder %q needs [embedding_models.%s]", provider, key)
		}
		return services.NewGenAIEmbedder(clients.EmbeddingModels[key]), nil
	case cloud.ProviderOpenAI:
		if clients == nil || clients.OpenAIClient == nil {
			return nil, fmt.Errorf("embedder %q has no client", provider)
		}
		return services.NewOpenAIEmbedder(clients.OpenAIClient, config.OpenAI.EmbeddingModel), nil
	case cloud.ProviderHash:
		return services.NewHashEmbedder(services.DefaultHashDimension), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q", provider)
	}
}
