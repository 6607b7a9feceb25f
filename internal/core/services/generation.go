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
// data sources. This file defines the generation service.
//
// A generation call is described by a typed request rather than a free-form
// prompt. Each request type names its task and carries exactly the inputs its
// template needs:
//   - TranslateRequest: a transcript to translate into English.
//   - TopicsRequest: a transcript to extract five topics from.
//   - NotesRequest: a transcript to turn into structured notes.
//   - ChatRequest: a question and the retrieved context to answer from.
//
// A Generator renders the request's template and sends it to a model once.
// Errors are returned unclassified; the calling step knows whether the
// failure is a translation or a generation failure.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-vidsynth/internal/cloud"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/cor"
)

// Request is a typed generation request.
type Request interface {
	Task() string
}

// TranslateRequest asks for an English translation of Transcript.
type TranslateRequest struct {
	Transcript string
}

func (TranslateRequest) Task() string { return "translate" }

// TopicsRequest asks for the five most important topics of Transcript.
type TopicsRequest struct {
	Transcript string
}

func (TopicsRequest) Task() string { return "topics" }

// NotesRequest asks for structured notes on Transcript.
type NotesRequest struct {
	Transcript string
}

func (NotesRequest) Task() string { return "notes" }

// ChatRequest asks for an answer to Question using only Context.
type ChatRequest struct {
	Question string
	Context  string
}

func (ChatRequest) Task() string { return "chat" }

// Fallback is the reply required when Context does not hold the answer.
func (ChatRequest) Fallback() string { return FallbackAnswer }

// Generator produces text for a typed request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GenAIGenerator sends rendered prompts to a Vertex AI model and records
// the token usage of every call.
type GenAIGenerator struct {
	Model              *cloud.QuotaAwareGenerativeAIModel
	Prompts            *Prompts
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
}

// NewGenAIGenerator creates the generator and its "<name>.gemini.token.input"
// and "<name>.gemini.token.output" counters.
//
// Inputs:
//   - name: The metric prefix, usually the logical model key.
//   - model: The quota-aware model.
//   - prompts: The task templates.
//
// Outputs:
//   - *GenAIGenerator: The generator.
func NewGenAIGenerator(name string, model *cloud.QuotaAwareGenerativeAIModel, prompts *Prompts) *GenAIGenerator {
	meter := otel.Meter(cor.MeterName)
	inputTokenCounter, err := meter.Int64Counter(fmt.Sprintf("%s.gemini.token.input", name))
	if err != nil {
		slog.Warn("failed to create input token counter", "name", name, "error", err)
	}
	outputTokenCounter, err := meter.Int64Counter(fmt.Sprintf("%s.gemini.token.output", name))
	if err != nil {
		slog.Warn("failed to create output token counter", "name", name, "error", err)
	}
	return &GenAIGenerator{
		Model:              model,
		Prompts:            prompts,
		inputTokenCounter:  inputTokenCounter,
		outputTokenCounter: outputTokenCounter,
	}
}

// Generate renders req and returns the model's text.
func (g *GenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	prompt, err := g.Prompts.Render(req)
	if err != nil {
		return "", err
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	out, err := cloud.GenerateTextResponse(ctx, g.inputTokenCounter, g.outputTokenCounter, g.Model, contents)
	if err != nil {
		return "", fmt.Errorf("%s with %s: %w", req.Task(), g.Model.ModelName, err)
	}
	return out, nil
}

// OpenAIGenerator sends rendered prompts to an OpenAI chat model.
type OpenAIGenerator struct {
	client       *openai.Client
	model        string
	temperature  float32
	systemPrompt string
	Prompts      *Prompts
}

// NewOpenAIGenerator uses model, or gpt-4o-mini when model is empty.
func NewOpenAIGenerator(client *openai.Client, config cloud.OpenAI, systemPrompt string, prompts *Prompts) *OpenAIGenerator {
	model := config.ChatModel
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client:       client,
		model:        model,
		temperature:  config.Temperature,
		systemPrompt: systemPrompt,
		Prompts:      prompts,
	}
}

// Generate renders req and returns the first choice's content.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	prompt, err := g.Prompts.Render(req)
	if err != nil {
		return "", err
	}
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if g.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: g.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s with %s: %w", req.Task(), g.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s with %s: %w", req.Task(), g.model, errors.New("no completion choices returned"))
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("%s with %s: %w", req.Task(), g.model, cloud.ErrEmptyResponse)
	}
	return out, nil
}
