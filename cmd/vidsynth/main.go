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

// Package main is the VidSynth command line. It runs one session against a
// single video: `notes` prints (and optionally renders) study notes, `chat`
// answers questions about the video read from stdin.
package main

import (
	"context"
	"os"

	"github.com/jaycherian/gcp-go-vidsynth/internal/app"
	"github.com/jaycherian/gcp-go-vidsynth/internal/cloud"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/session"
)

func newState(ctx context.Context, config *cloud.Config) (*session.Orchestrator, func(), error) {
	state, err := app.NewState(ctx, config)
	if err != nil {
		return nil, nil, err
	}
	return state.Orchestrator, state.Close, nil
}

func main() {
	if err := newRootCommand(newState).Execute(); err != nil {
		os.Exit(1)
	}
}
