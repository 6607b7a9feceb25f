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
// This file contains general-purpose helpers for the package.
//
// Functions:
//   - LoadConfig: Hierarchical configuration loading. A base file is read first,
//     then an environment-specific file (e.g., .env.test.toml) overwrites it.
//   - GenerateTextResponse: A single call to a GenAI model that records token
//     usage and concatenates the text of every candidate part. Failures are
//     returned as-is; nothing is retried.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The environment variable for specifying the runtime (e.g., "local", "test", "prod").
)

// ErrEmptyResponse is returned when a model answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and environment-specific config paths derived
// from GCP_CONFIG_PREFIX and GCP_RUNTIME. The runtime defaults to "test".
func ConfigFiles() (base string, env string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}
	runtime := os.Getenv(EnvConfigRuntime)
	if runtime == "" {
		runtime = "test"
	}
	base = prefix + ConfigFileBaseName + ConfigFileExtension
	env = prefix + ConfigFileBaseName + ConfigSeparator + runtime + ConfigFileExtension
	return base, env
}

// LoadConfig decodes the base configuration file and then the
// environment-specific one into baseConfig. Missing files are skipped; a file
// that exists but does not decode is an error.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct.
//
// Outputs:
//   - error: The first decode failure, naming the file.
func LoadConfig(baseConfig interface{}) error {
	base, env := ConfigFiles()
	for _, file := range []string{base, env} {
		if !fileExists(file) {
			slog.Debug("configuration file not found, skipping", "file", file)
			continue
		}
		if _, err := toml.DecodeFile(file, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", file, err)
		}
		slog.Debug("loaded configuration file", "file", file)
	}
	return nil
}

// GenerateTextResponse sends contents to the model once and returns the
// concatenated text of the response.
//
// Inputs:
//   - ctx: The context for the request, which controls cancellation and tracing.
//   - inputTokenCounter: An OpenTelemetry counter for prompt tokens used. May be nil.
//   - outputTokenCounter: An OpenTelemetry counter for response tokens generated. May be nil.
//   - model: The rate-limited, quota-aware generative model to use.
//   - contents: The prompt.
//
// Outputs:
//   - string: The text content from the model's response, trimmed.
//   - error: The model error, or ErrEmptyResponse.
func GenerateTextResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	model *QuotaAwareGenerativeAIModel,
	contents []*genai.Content) (string, error) {
	resp, err := model.GenerateContent(ctx, contents)
	if err != nil {
		return "", err
	}

	if resp.UsageMetadata != nil {
		if inputTokenCounter != nil {
			inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		}
		if outputTokenCounter != nil {
			outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
		}
	}

	var value strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			value.WriteString(part.Text)
		}
	}
	out := strings.TrimSpace(value.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
