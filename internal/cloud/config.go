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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, along with the clients for the external services
// the synthesizer talks to.
//
// This file centralizes all configuration-related structs.
//
// Structs:
//   - Application: General settings, provider selection and local paths.
//   - Chunking, Retrieval, Throttle: Tuning of the retrieval pipeline.
//   - Storage: The bucket exported PDFs are uploaded to.
//   - BigQueryDataSource: The dataset and table notes are archived in.
//   - PromptTemplates: The text/template prompts for each generation task.
//   - VertexAiEmbeddingModel, VertexAiLLMModel: Model settings.
//   - TopicSubscription: A Pub/Sub subscription.
//   - OpenAI: Settings for the OpenAI provider.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with empty maps and defaults.
package cloud

import "google.golang.org/genai"

// Provider names accepted in [application].provider and [application].embedder.
const (
	ProviderGenAI  = "genai"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

// Transcript source names accepted in [application].transcript_source.
const (
	TranscriptSourceYouTube = "youtube"
	TranscriptSourceStatic  = "static"
)

// DefaultSafetySettings leaves every harm category unblocked. Transcripts are
// third-party content and a blocked candidate would surface as an empty note.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Application holds general application settings.
type Application struct {
	Name                      string `toml:"name"`                         // The name of the application.
	GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
	GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
	SignerServiceAccountEmail string `toml:"signer_service_account_email"` // The service account used for signing GCS URLs.
	OutputDir                 string `toml:"output_dir"`                   // Directory rendered PDFs are written to.
	LogFile                   string `toml:"log_file"`                     // File the JSON logs are mirrored to; empty for stdout only.
	Provider                  string `toml:"provider"`                     // Generation provider: "genai" or "openai".
	Embedder                  string `toml:"embedder"`                     // Embedding provider: "genai", "openai" or "hash"; empty follows Provider.
	AgentModel                string `toml:"agent_model"`                  // Key into [agent_models] used by the genai provider.
	EmbeddingModel            string `toml:"embedding_model"`              // Key into [embedding_models] used by the genai embedder.
	TranscriptSource          string `toml:"transcript_source"`            // "youtube" or "static".
	TranscriptDir             string `toml:"transcript_dir"`               // Directory read by the static transcript source.
	ListenAddress             string `toml:"listen_address"`               // Address the HTTP server binds to.
}

// Telemetry selects where traces and metrics go.
type Telemetry struct {
	Exporter string `toml:"exporter"` // "gcp" or "none".
}

// Chunking holds the transcript splitter settings.
type Chunking struct {
	MaxSize    int      `toml:"max_size"`   // Maximum chunk length in characters.
	Overlap    int      `toml:"overlap"`    // Characters shared by consecutive chunks.
	Separators []string `toml:"separators"` // Split points, coarsest first.
}

// Retrieval holds the chat retrieval settings.
type Retrieval struct {
	TopK int `toml:"top_k"` // Number of chunks handed to the answer composer.
}

// Throttle holds the delay applied after each transcript fetch.
type Throttle struct {
	Mode                  string `toml:"mode"` // "delay" or "limiter".
	PostFetchDelaySeconds int    `toml:"post_fetch_delay_seconds"`
}

// BigQueryDataSource represents the configuration for the notes archive.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`     // The name of the BigQuery dataset.
	NotesTable  string `toml:"notes_table"` // The table generated notes are appended to.
}

// PromptTemplates holds the text/template prompt for each generation task.
// An empty template falls back to the built-in one.
type PromptTemplates struct {
	TranslatePrompt string `toml:"translate"`
	TopicsPrompt    string `toml:"topics"`
	NotesPrompt     string `toml:"notes"`
	ChatPrompt      string `toml:"chat"`
}

// VertexAiEmbeddingModel represents the configuration for a Vertex AI embedding model.
type VertexAiEmbeddingModel struct {
	Model                string `toml:"model"`                   // The name of the Vertex AI embedding model.
	MaxRequestsPerMinute int    `toml:"max_requests_per_minute"` // The maximum number of requests allowed per minute.
}

// VertexAiLLMModel represents the configuration for a Vertex AI large language model (LLM).
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Vertex AI LLM.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the LLM.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter for the LLM.
	TopP               float32 `toml:"top_p"`               // The top_p parameter for the LLM.
	TopK               float32 `toml:"top_k"`               // The top_k parameter for the LLM.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of tokens for the LLM output.
	OutputFormat       string  `toml:"output_format"`       // The desired output format for the LLM.
	RateLimit          int     `toml:"rate_limit"`          // The rate limit for the LLM in requests per second.
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The processing budget for one message.
}

// Storage represents the configuration for storage buckets.
type Storage struct {
	NotesBucket string `toml:"notes_bucket"` // Bucket exported PDFs are uploaded to; empty keeps them local.
}

// OpenAI holds the settings used when the provider is "openai".
type OpenAI struct {
	APIKeyEnv      string  `toml:"api_key_env"`     // Environment variable holding the API key.
	ChatModel      string  `toml:"chat_model"`      // Chat completion model.
	EmbeddingModel string  `toml:"embedding_model"` // Embedding model.
	Temperature    float32 `toml:"temperature"`     // Sampling temperature.
}

// Config represents the overall configuration for the application, loaded from TOML files.
type Config struct {
	Application        Application                       `toml:"application"`
	Telemetry          Telemetry                         `toml:"telemetry"`
	Chunking           Chunking                          `toml:"chunking"`
	Retrieval          Retrieval                         `toml:"retrieval"`
	Throttle           Throttle                          `toml:"throttle"`
	Storage            Storage                           `toml:"storage"`
	BigQueryDataSource BigQueryDataSource                `toml:"big_query_data_source"`
	PromptTemplates    PromptTemplates                   `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription      `toml:"topic_subscriptions"` // Keyed by a logical name (e.g., "submissions").
	EmbeddingModels    map[string]VertexAiEmbeddingModel `toml:"embedding_models"`    // Keyed by a logical name (e.g., "transcript").
	AgentModels        map[string]VertexAiLLMModel       `toml:"agent_models"`        // Keyed by a logical name (e.g., "synth-flash").
	OpenAI             OpenAI                            `toml:"openai"`
}

// NewConfig creates a Config with its maps initialized and the defaults the
// TOML files may override.
//
// Outputs:
//   - *Config: A pointer to a new Config struct.
func NewConfig() *Config {
	return &Config{
		Application: Application{
			Name:             "vidsynth",
			OutputDir:        "notes",
			Provider:         ProviderGenAI,
			AgentModel:       "synth-flash",
			EmbeddingModel:   "transcript",
			TranscriptSource: TranscriptSourceYouTube,
			ListenAddress:    ":8080",
		},
		Telemetry: Telemetry{Exporter: "gcp"},
		Chunking:  Chunking{MaxSize: 10000, Overlap: 1000},
		Retrieval: Retrieval{TopK: 4},
		Throttle:  Throttle{Mode: "delay", PostFetchDelaySeconds: 10},
		OpenAI: OpenAI{
			APIKeyEnv:      "OPENAI_API_KEY",
			ChatModel:      "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.2,
		},
		TopicSubscriptions: make(map[string]TopicSubscription),
		EmbeddingModels:    make(map[string]VertexAiEmbeddingModel),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
}

// EmbeddingProvider resolves the embedder name, defaulting to the generation provider.
func (c *Config) EmbeddingProvider() string {
	if c.Application.Embedder != "" {
		return c.Application.Embedder
	}
	return c.Application.Provider
}
