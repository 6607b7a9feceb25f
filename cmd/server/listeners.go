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

package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-vidsynth/internal/app"
	"github.com/jaycherian/gcp-go-vidsynth/internal/core/workflow"
)

// SubmissionsListener is the [topic_subscriptions] key that receives
// headless notes submissions.
const SubmissionsListener = "submissions"

// SetupListeners attaches the submission workflow to its subscription and
// starts receiving. Nothing happens when the subscription is not configured.
func SetupListeners(ctx context.Context, state *app.State) {
	listener, ok := state.Clients.PubSubListeners[SubmissionsListener]
	if !ok {
		slog.InfoContext(ctx, "no submissions subscription configured")
		return
	}
	listener.SetCommand(workflow.NewSubmissionWorkflow(state.Dependencies))
	listener.Listen(ctx)
}
